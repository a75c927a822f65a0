package analysis

import (
	"regexp"

	"otodom_analyzer/models"
)

const (
	numberPattern   = `(\d{1,3}(?:[ \x{a0}.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
	currencyPattern = `\s*(?:zł|zl\b|pln|złotych|zlotych)`

	depositMin = 500
	depositMax = 50000

	utilityMin = 50
	utilityMax = 500

	contextWindow = 50
	meteredWindow = 80
)

// Deposit rules, evaluated in order. The first value inside the plausibility
// band wins and later rules are not consulted.
var depositRules = []*regexp.Regexp{
	regexp.MustCompile(`(?:kaucj\w*|depozyt\w*|deposit)[^0-9\n]{0,40}?` + numberPattern + currencyPattern),
	regexp.MustCompile(`(?:zwrotn\w*|refundable)[^0-9\n]{0,40}?` + numberPattern + currencyPattern),
	regexp.MustCompile(numberPattern + currencyPattern + `[^0-9\n]{0,30}?(?:kaucj|depozyt|deposit|zwrotn|refundable)`),
}

// Utility rules need an explicit per-person or per-month qualifier.
var utilityRules = []*regexp.Regexp{
	regexp.MustCompile(`(?:media|rachunki|utilities|bills)[^0-9\n]{0,40}?(\d{2,4})(?:\s*(?:-|–|do|to)\s*(\d{2,4}))?` +
		currencyPattern + `[^.\n0-9]{0,30}?(?:osob|osób|person|miesi|month|mies\b|mc\b|m-c)`),
	regexp.MustCompile(`(?:for one person|per person|na osobę|za osobę|na jedną osobę|za jedną osobę|dla jednej osoby)` +
		`\s*(?::|-|–|~|≈|ok\.?|około|okolo|approx\.?|about|ca\.?)?\s*(\d{2,4})(?:\s*(?:-|–|do|to)\s*(\d{2,4}))?`),
}

type feeRule struct {
	kind  models.AmountKind
	label string
	re    *regexp.Regexp
	min   int
	max   int
}

// Fee rules. Output order follows this table.
var feeRules = []feeRule{
	{
		kind:  models.AmountFeeCombo,
		label: "Internet + TV",
		re: regexp.MustCompile(`(?:internet\s*(?:\+|i|and|&|oraz|z)\s*(?:tv|telewizj\w*|kablówk\w*)|(?:tv|telewizj\w*)\s*(?:\+|i|and|&|oraz)\s*internet\w*)` +
			`[^0-9\n]{0,30}?(\d{2,3})` + currencyPattern),
		min: 60,
		max: 250,
	},
	{
		kind:  models.AmountFeeInternet,
		label: "Internet",
		re:    regexp.MustCompile(`(?:internet\w*|wi-?fi|światłowód)[^0-9\n]{0,30}?(\d{2,3})` + currencyPattern),
		min:   40,
		max:   200,
	},
	{
		kind:  models.AmountFeeTV,
		label: "TV",
		re:    regexp.MustCompile(`(?:telewizj\w*|kablówk\w*|kablowk\w*|\btv\b|cable)[^0-9\n]{0,30}?(\d{2,3})` + currencyPattern),
		min:   30,
		max:   150,
	},
	{
		kind:  models.AmountFeeParking,
		label: "Parking",
		re:    regexp.MustCompile(`(?:parking\w*|miejsc\w* postojow\w*|miejsc\w* parkingow\w*|garaż\w*|garaz\w*|garage)[^0-9\n]{0,30}?(\d{2,4})` + currencyPattern),
		min:   100,
		max:   500,
	},
}

// badContext rejects numbers that sit next to something that is clearly not a fee.
var badContext = []*regexp.Regexp{
	regexp.MustCompile(`(?:linia|linii|linią|\bline|\bbus|autobus\w*|tramwaj\w*|\btram)\s*(?:nr\.?\s*)?\d+`),
	regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:m2|m²|mkw|m\.kw|sq\.?\s?m|sqm|metr\w*)`),
	regexp.MustCompile(`piętr\w*|pietr\w*|\bfloor\w*|kondygnacj\w*`),
	regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:km\b|min\b|minut\w*|mins?\b|m\b)`),
	regexp.MustCompile(`\b(?:19|20)\d{2}\s*(?:r\.|r\b|rok\w*)|(?:rok\w*|year|built|since|od)\s+(?:19|20)\d{2}\b`),
	regexp.MustCompile(`\d+\s*(?:os\.|osob\w*|osób|person\w*|people)`),
	regexp.MustCompile(`\d{3}[\s-]?\d{3}[\s-]?\d{3}`),
	regexp.MustCompile(`(?:tel\.?|telefon\w*|phone|\bid\b|nr oferty)\s*:?\s*\+?\d`),
}

var meteredRule = regexp.MustCompile(`według zużycia|wg\.? zużycia|według licznik\w*|wg\.? licznik\w*|zgodnie z licznik\w*|` +
	`według wskazań|wg\.? wskazań|na podstawie zużycia|by meters?|according to (?:the )?meters?|` +
	`(?:based on|according to) (?:actual )?(?:consumption|usage)|metered`)

var meteredCategories = []struct {
	name string
	re   *regexp.Regexp
}{
	{models.MeteredElectricity, regexp.MustCompile(`prąd\w*|prad\w*|energi\w*|electric\w*`)},
	{models.MeteredGas, regexp.MustCompile(`\bgaz\w*|\bgas\b`)},
	{models.MeteredWater, regexp.MustCompile(`wod[ayzęo]\w*|\bwater`)},
}

// Extraction is everything the amount extractor found in the scan buffer
type Extraction struct {
	Deposit           *models.ExtractedAmount
	Utilities         []models.ExtractedAmount
	Fees              []models.ExtractedAmount
	Metered           bool
	MeteredCategories []string

	utilMin int
	utilMax int
}

// UtilityEstimate assembles the per-person band, nil when nothing was accepted
func (e *Extraction) UtilityEstimate() *models.UtilityEstimate {
	if len(e.Utilities) == 0 {
		return nil
	}
	return &models.UtilityEstimate{
		Min:               e.utilMin,
		Max:               e.utilMax,
		Avg:               roundHalfUp(e.utilMin+e.utilMax, 2),
		IsMetered:         e.Metered,
		MeteredCategories: e.MeteredCategories,
	}
}

// Amounts lists every extracted amount: deposit, utilities, then fees
func (e *Extraction) Amounts() []models.ExtractedAmount {
	out := make([]models.ExtractedAmount, 0, 1+len(e.Utilities)+len(e.Fees))
	if e.Deposit != nil {
		out = append(out, *e.Deposit)
	}
	out = append(out, e.Utilities...)
	return append(out, e.Fees...)
}

// FeesTotal sums the description-only fees
func (e *Extraction) FeesTotal() int {
	total := 0
	for _, f := range e.Fees {
		total += f.Value
	}
	return total
}

// ExtractAmounts scans the buffer for deposits, utilities, fees and metered billing
func ExtractAmounts(buf string) *Extraction {
	e := &Extraction{}
	e.Deposit = findDeposit(buf)
	e.findUtilities(buf)
	e.Fees = findFees(buf)
	e.Metered, e.MeteredCategories = findMetered(buf)
	return e
}

func findDeposit(buf string) *models.ExtractedAmount {
	for _, re := range depositRules {
		for _, m := range re.FindAllStringSubmatchIndex(buf, -1) {
			v, ok := parseAmount(buf[m[2]:m[3]])
			if !ok || v <= depositMin || v >= depositMax {
				continue
			}
			return &models.ExtractedAmount{
				Kind:       models.AmountDeposit,
				Value:      v,
				RawContext: snippet(buf, m[0], m[1]),
			}
		}
	}
	return nil
}

func (e *Extraction) findUtilities(buf string) {
	for _, re := range utilityRules {
		for _, m := range re.FindAllStringSubmatchIndex(buf, -1) {
			ctx := snippet(buf, m[0], m[1])
			// group 1 is the (lower) value, group 2 the optional upper end of a range
			for g := 1; g <= 2; g++ {
				if m[2*g] < 0 {
					continue
				}
				v, ok := parseAmount(buf[m[2*g]:m[2*g+1]])
				if !ok || v < utilityMin || v > utilityMax {
					continue
				}
				e.addUtility(v, ctx)
			}
		}
	}
}

func (e *Extraction) addUtility(v int, ctx string) {
	if len(e.Utilities) == 0 || v < e.utilMin {
		e.utilMin = v
	}
	if len(e.Utilities) == 0 || v > e.utilMax {
		e.utilMax = v
	}
	e.Utilities = append(e.Utilities, models.ExtractedAmount{
		Kind:       models.AmountUtility,
		Value:      v,
		RawContext: ctx,
	})
}

func findFees(buf string) []models.ExtractedAmount {
	var fees []models.ExtractedAmount
	hasCombo := false

	for _, rule := range feeRules {
		if hasCombo && (rule.kind == models.AmountFeeInternet || rule.kind == models.AmountFeeTV) {
			continue
		}
		if fee := findFee(buf, rule); fee != nil {
			fees = append(fees, *fee)
			if rule.kind == models.AmountFeeCombo {
				hasCombo = true
			}
		}
	}
	return fees
}

func findFee(buf string, rule feeRule) *models.ExtractedAmount {
	for _, m := range rule.re.FindAllStringSubmatchIndex(buf, -1) {
		v, ok := parseAmount(buf[m[2]:m[3]])
		if !ok || v < rule.min || v > rule.max {
			continue
		}
		if inBadContext(buf, m[2], m[3]) {
			continue
		}
		return &models.ExtractedAmount{
			Kind:       rule.kind,
			Value:      v,
			RawContext: snippet(buf, m[0], m[1]),
		}
	}
	return nil
}

func inBadContext(buf string, start, end int) bool {
	w := window(buf, start, end, contextWindow, contextWindow)
	for _, re := range badContext {
		if re.MatchString(w) {
			return true
		}
	}
	return false
}

func findMetered(buf string) (bool, []string) {
	matches := meteredRule.FindAllStringIndex(buf, -1)
	if len(matches) == 0 {
		return false, nil
	}

	found := make(map[string]bool)
	for _, m := range matches {
		w := window(buf, m[0], m[1], meteredWindow, meteredWindow)
		for _, c := range meteredCategories {
			if c.re.MatchString(w) {
				found[c.name] = true
			}
		}
	}

	var categories []string
	for _, c := range meteredCategories {
		if found[c.name] {
			categories = append(categories, c.name)
		}
	}
	return true, categories
}
