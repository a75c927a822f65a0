package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"otodom_analyzer/models"
)

var (
	// Polish street prefixes, longest first so "al." is not eaten by "ul."
	streetPrefixes = []struct {
		abbrev string
		full   string
	}{
		{"al.", "aleja"},
		{"ul.", "ulica"},
		{"pl.", "plac"},
		{"os.", "osiedle"},
		{"rondo", "rondo"},
	}
	// Geocoders do better with the district dropped for these generic labels
	genericDistricts = map[string]bool{
		"centrum":     true,
		"inne":        true,
		"brak danych": true,
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	apartmentRegex  = regexp.MustCompile(`(?i)\s*(?:/|m\.|lok\.|mieszk\.)\s*\d+[a-z]?$`)
	streetNumRegex  = regexp.MustCompile(`^(.+?)\s+(\d+[a-zA-Z]?)$`)
)

// Fingerprint identifies a listing independently of the URL it was reached by
func Fingerprint(listing *models.RawListing) string {
	area := 0.0
	if listing.Area != nil {
		area = *listing.Area
	}
	rooms := 0
	if listing.Rooms != nil {
		rooms = *listing.Rooms
	}
	input := fmt.Sprintf("%s|%s|%.1f|%d|%s",
		listing.ID,
		strings.ToLower(NormalizeAddress(listing.Address)),
		area,
		rooms,
		strings.ToLower(strings.TrimSpace(listing.Title)),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress builds a geocodable line: street with expanded prefix and
// no apartment number, then district, city and country.
func NormalizeAddress(addr models.Address) string {
	parts := make([]string, 0, 5)

	if street := normalizeStreet(addr.Street); street != "" {
		parts = append(parts, street)
	}
	district := strings.TrimSpace(addr.District)
	if district != "" && !genericDistricts[strings.ToLower(district)] && !strings.EqualFold(district, addr.City) {
		parts = append(parts, district)
	}
	if city := strings.TrimSpace(addr.City); city != "" {
		parts = append(parts, city)
	}
	if len(parts) == 0 {
		return ""
	}
	parts = append(parts, "Polska")
	return strings.Join(parts, ", ")
}

func normalizeStreet(street string) string {
	s := multiSpaceRegex.ReplaceAllString(strings.TrimSpace(street), " ")
	if s == "" {
		return ""
	}
	s = apartmentRegex.ReplaceAllString(s, "")

	lower := strings.ToLower(s)
	for _, p := range streetPrefixes {
		if strings.HasPrefix(lower, p.abbrev) {
			s = p.full + " " + strings.TrimSpace(s[len(p.abbrev):])
			break
		}
	}

	if m := streetNumRegex.FindStringSubmatch(s); m != nil {
		return m[1] + " " + strings.ToUpper(m[2])
	}
	return s
}
