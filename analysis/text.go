package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"otodom_analyzer/models"
)

// bufferSeparator joins the two language variants so that no pattern can
// match across the boundary by accident.
const bufferSeparator = "\n|\n"

var (
	decimalTailRegex = regexp.MustCompile(`[.,]\d{1,2}$`)
	nonDigitRegex    = regexp.MustCompile(`\D`)
)

// ScanBuffer returns the lower-cased, NFC-normalized concatenation of both
// description variants that every extractor scans.
func ScanBuffer(text models.ListingText) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{text.Source, text.Target} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		parts = append(parts, strings.ToLower(norm.NFC.String(s)))
	}
	return strings.Join(parts, bufferSeparator)
}

// parseAmount turns a captured money string like "4 500", "4.500" or
// "4,500.00" into an integer. ok is false when nothing usable is left.
func parseAmount(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	// "4 500,00" -> "4 500"; a lone "1.500" keeps its three digits
	if loc := decimalTailRegex.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}
	s = nonDigitRegex.ReplaceAllString(s, "")
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// window returns text[start-before : end+after], widened or narrowed so it
// never splits a UTF-8 sequence.
func window(text string, start, end, before, after int) string {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + after
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

// snippet trims a match context for display
func snippet(text string, start, end int) string {
	return strings.Join(strings.Fields(window(text, start, end, 30, 30)), " ")
}

func intPtr(v int) *int {
	return &v
}

func roundHalfUp(num, den int) int {
	if den == 0 {
		return 0
	}
	return (2*num + den) / (2 * den)
}
