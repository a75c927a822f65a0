package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed lookups.yaml
var defaultLookups []byte

// Lookups holds the static tables. It is never modified after loading.
type Lookups struct {
	Neighborhoods map[string]Neighborhood `yaml:"neighborhoods"`
	Amenities     map[string]string       `yaml:"amenities"`
	Places        []PlaceCategory         `yaml:"places"`
}

type Neighborhood struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Highlights  []string `yaml:"highlights" json:"highlights"`
}

type PlaceCategory struct {
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

// LoadLookups reads the tables from path, or the embedded copy when path is empty
func LoadLookups(path string) (*Lookups, error) {
	data := defaultLookups
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading lookups %s: %w", path, err)
		}
		data = b
	}

	var l Lookups
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing lookups: %w", err)
	}

	amenities := make(map[string]string, len(l.Amenities))
	for k, v := range l.Amenities {
		amenities[strings.ToLower(strings.TrimSpace(k))] = v
	}
	l.Amenities = amenities
	return &l, nil
}

// Neighborhood returns the first entry matching one of the names, most specific first
func (l *Lookups) Neighborhood(names ...string) (Neighborhood, bool) {
	for _, name := range names {
		if n, ok := l.Neighborhoods[Slug(name)]; ok {
			return n, true
		}
	}
	return Neighborhood{}, false
}

// Amenity returns the English label for a Polish amenity name
func (l *Lookups) Amenity(pl string) (string, bool) {
	en, ok := l.Amenities[strings.ToLower(strings.TrimSpace(pl))]
	return en, ok
}

// Slug folds a place name to the table key form: "Praga-Północ" -> "praga-polnoc"
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("ł", "l", " ", "-").Replace(s)
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}
