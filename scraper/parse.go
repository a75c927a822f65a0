package scraper

/*
otodom.pl listing page reference
================================
The page is a Next.js app. Listing data lives in

  <script id="__NEXT_DATA__" type="application/json">
  {"props": {"pageProps": {"ad": {
    "id": 65123456,
    "title": "2 pokoje, Mokotów, balkon",
    "description": "<p>Mieszkanie do wynajęcia...</p>",
    "url": "https://www.otodom.pl/pl/oferta/...",
    "advertiserType": "private",          // private | agency | business | developer
    "characteristics": [
      {"key": "price",     "value": "3200", "localizedValue": "3 200 zł", "currency": "PLN"},
      {"key": "rent",      "value": "650",  "localizedValue": "650 zł"},   // admin fee (czynsz)
      {"key": "deposit",   "value": "3200", "localizedValue": "3 200 zł"},
      {"key": "m",         "value": "48.5", "localizedValue": "48,5 m²"},
      {"key": "rooms_num", "value": "2",    "localizedValue": "2"},
      {"key": "floor_no",  "value": "floor_3", "localizedValue": "3/5"},
      {"key": "build_year","value": "2012"},
      {"key": "free_from", "value": "2026-11-01", "localizedValue": "01.11.2026"}
    ],
    "features": ["balkon", "winda", "meble"],
    "images": [{"large": "https://...", "medium": "https://..."}],
    "location": {
      "address": {"street": {"name": "ul. Puławska", "number": "12"},
                  "district": {"name": "Mokotów"}, "city": {"name": "Warszawa"},
                  "province": {"name": "mazowieckie"}},
      "coordinates": {"latitude": 52.19, "longitude": 21.02}
    }
  }}}}

Older or stripped pages only carry a schema.org JSON-LD block, which is used
as a fallback: name, description, offers.price, floorSize.value, address, geo.

Key parsing notes:
- numeric characteristics carry both a raw value and a localized one; raw wins
- Polish number formatting: "3 200 zł" (NBSP thousands), "48,5 m²" (comma decimal)
- description is HTML and is flattened to text with paragraph breaks kept
*/

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"otodom_analyzer/models"
)

var (
	numberRegex     = regexp.MustCompile(`\d[\d\s\x{a0}]*(?:[.,]\d+)?`)
	multiSpaceRegex = regexp.MustCompile(`[ \t\x{a0}]+`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
	floorRegex      = regexp.MustCompile(`(\d+)`)
)

type nextData struct {
	Props struct {
		PageProps struct {
			Ad *otodomAd `json:"ad"`
		} `json:"pageProps"`
	} `json:"props"`
}

type otodomAd struct {
	ID              json.Number `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	URL             string      `json:"url"`
	AdvertiserType  string      `json:"advertiserType"`
	Characteristics []struct {
		Key            string `json:"key"`
		Value          string `json:"value"`
		LocalizedValue string `json:"localizedValue"`
	} `json:"characteristics"`
	Features []string `json:"features"`
	Images   []struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"images"`
	Location struct {
		Address struct {
			Street struct {
				Name   string `json:"name"`
				Number string `json:"number"`
			} `json:"street"`
			District struct {
				Name string `json:"name"`
			} `json:"district"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			Province struct {
				Name string `json:"name"`
			} `json:"province"`
		} `json:"address"`
		Coordinates *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

type jsonLD struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Offers      *struct {
		Price any `json:"price"`
	} `json:"offers"`
	FloorSize *struct {
		Value any `json:"value"`
	} `json:"floorSize"`
	NumberOfRooms any `json:"numberOfRooms"`
	Address       *struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
	} `json:"address"`
	Geo *struct {
		Latitude  any `json:"latitude"`
		Longitude any `json:"longitude"`
	} `json:"geo"`
}

// ParseHTML extracts the listing from a page. pageURL is recorded as-is.
func ParseHTML(html []byte, pageURL string) (*models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if raw := doc.Find("script#__NEXT_DATA__").First().Text(); strings.TrimSpace(raw) != "" {
		listing, err := parseNextData([]byte(raw))
		if err == nil {
			listing.URL = pageURL
			return listing, nil
		}
		if !errors.Is(err, ErrNoListingData) {
			return nil, err
		}
	}

	var listing *models.RawListing
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		listing = parseJSONLD([]byte(s.Text()))
		return listing == nil
	})
	if listing == nil {
		return nil, ErrNoListingData
	}
	listing.URL = pageURL
	return listing, nil
}

func parseNextData(data []byte) (*models.RawListing, error) {
	var nd nextData
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&nd); err != nil {
		return nil, fmt.Errorf("failed to decode __NEXT_DATA__: %w", err)
	}
	ad := nd.Props.PageProps.Ad
	if ad == nil {
		return nil, ErrNoListingData
	}

	listing := &models.RawListing{
		ID:             ad.ID.String(),
		Title:          strings.TrimSpace(ad.Title),
		Description:    HTMLToText(ad.Description),
		AdvertiserType: normalizeAdvertiser(ad.AdvertiserType),
		Features:       ad.Features,
		Address: models.Address{
			Street:   streetLine(ad.Location.Address.Street.Name, ad.Location.Address.Street.Number),
			District: ad.Location.Address.District.Name,
			City:     ad.Location.Address.City.Name,
			Province: ad.Location.Address.Province.Name,
		},
	}

	for _, c := range ad.Characteristics {
		value := c.Value
		if value == "" {
			value = c.LocalizedValue
		}
		switch c.Key {
		case "price":
			listing.Rent = parseInt(value)
		case "rent":
			listing.AdminFee = parseInt(value)
		case "deposit":
			listing.Deposit = parseInt(value)
		case "m":
			listing.Area = parseFloat(value)
		case "rooms_num":
			listing.Rooms = parseInt(value)
		case "floor_no":
			listing.Floor = parseFloor(c.Value, c.LocalizedValue)
		case "build_year":
			listing.BuildYear = parseInt(value)
		case "free_from":
			listing.AvailableFrom = strings.TrimSpace(c.Value)
		}
	}

	if coords := ad.Location.Coordinates; coords != nil && (coords.Latitude != 0 || coords.Longitude != 0) {
		listing.Lat = &coords.Latitude
		listing.Lng = &coords.Longitude
	}

	for _, img := range ad.Images {
		if img.Large != "" {
			listing.Photos = append(listing.Photos, img.Large)
		} else if img.Medium != "" {
			listing.Photos = append(listing.Photos, img.Medium)
		}
	}

	listing.Data, _ = json.Marshal(ad)
	return listing, nil
}

func parseJSONLD(data []byte) *models.RawListing {
	var candidates []jsonLD
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &candidates); err != nil {
			return nil
		}
	} else {
		var one jsonLD
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil
		}
		candidates = append(candidates, one)
	}

	for _, ld := range candidates {
		if ld.Offers == nil && ld.FloorSize == nil {
			continue
		}
		listing := &models.RawListing{
			Title:       strings.TrimSpace(ld.Name),
			Description: HTMLToText(ld.Description),
		}
		if ld.Offers != nil {
			listing.Rent = parseInt(anyString(ld.Offers.Price))
		}
		if ld.FloorSize != nil {
			listing.Area = parseFloat(anyString(ld.FloorSize.Value))
		}
		listing.Rooms = parseInt(anyString(ld.NumberOfRooms))
		if ld.Address != nil {
			listing.Address = models.Address{
				Street:   ld.Address.StreetAddress,
				City:     ld.Address.AddressLocality,
				Province: ld.Address.AddressRegion,
			}
		}
		if ld.Geo != nil {
			listing.Lat = parseFloat(anyString(ld.Geo.Latitude))
			listing.Lng = parseFloat(anyString(ld.Geo.Longitude))
		}
		listing.Data = append([]byte(nil), data...)
		return listing
	}
	return nil
}

// HTMLToText flattens a description fragment, keeping paragraph and line breaks
func HTMLToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("li").PrependHtml("- ")

	lines := strings.Split(doc.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRegex.ReplaceAllString(line, " "))
	}
	text := strings.Join(lines, "\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func normalizeAdvertiser(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private":
		return models.AdvertiserPrivate
	case "agency", "business", "developer":
		return models.AdvertiserAgency
	default:
		return ""
	}
}

func streetLine(name, number string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if number = strings.TrimSpace(number); number != "" {
		return name + " " + number
	}
	return name
}

// parseFloor turns "floor_3" / "ground_floor" into a display value
func parseFloor(value, localized string) string {
	switch {
	case value == "ground_floor":
		return "0"
	case value == "cellar":
		return "-1"
	case value == "garret":
		return "attic"
	case localized != "":
		return strings.TrimSpace(localized)
	}
	if m := floorRegex.FindString(value); m != "" {
		return m
	}
	return value
}

// parseInt reads "3 200 zł" or "3200.00" into an optional integer; non-numeric input yields nil
func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	v := int(*f + 0.5)
	return &v
}

// parseFloat reads "48,5 m²" or "48.5" into an optional float
func parseFloat(s string) *float64 {
	m := numberRegex.FindString(s)
	if m == "" {
		return nil
	}
	m = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, m)
	m = strings.ReplaceAll(m, ",", ".")
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

func anyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
