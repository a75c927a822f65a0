package models

import (
	"encoding/json"
	"time"
)

// Advertiser types
const (
	AdvertiserAgency  = "agency"
	AdvertiserPrivate = "private"
	AdvertiserUnknown = "unknown"
)

// RawListing is everything the scraper pulled out of a single listing page
type RawListing struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Rent           *int            `json:"rent"`
	AdminFee       *int            `json:"admin_fee"`
	Deposit        *int            `json:"deposit"`
	Area           *float64        `json:"area"`
	Rooms          *int            `json:"rooms"`
	Floor          string          `json:"floor"`
	BuildYear      *int            `json:"build_year"`
	AvailableFrom  string          `json:"available_from"`
	AdvertiserType string          `json:"advertiser_type"`
	Address        Address         `json:"address"`
	Lat            *float64        `json:"lat"`
	Lng            *float64        `json:"lng"`
	Features       []string        `json:"features"`
	Photos         []string        `json:"photos"`
	Data           json.RawMessage `json:"-"`
}

// Address is the postal location as published on the listing
type Address struct {
	Street   string `json:"street,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
}

// Full joins the non-empty parts into a single geocodable line
func (a Address) Full() string {
	out := ""
	for _, part := range []string{a.Street, a.District, a.City, a.Province} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

// ListingText holds the description in the listing language and its English rendering
type ListingText struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// StructuredFields are the figures taken from the page's structured data.
// Every field is optional; nil means unknown.
type StructuredFields struct {
	Rent           *int     `json:"rent,omitempty"`
	AdminFee       *int     `json:"adminFee,omitempty"`
	Deposit        *int     `json:"deposit,omitempty"`
	Area           *float64 `json:"area,omitempty"`
	Rooms          *int     `json:"rooms,omitempty"`
	AvailableFrom  string   `json:"availableFrom,omitempty"`
	AdvertiserType string   `json:"advertiserType,omitempty"`
}

// ListingInput is what the analysis engine consumes
type ListingInput struct {
	Text   ListingText
	Fields StructuredFields
}

// InputFromRaw builds the engine input from a scraped listing and its translation
func InputFromRaw(raw *RawListing, translated string) ListingInput {
	return ListingInput{
		Text: ListingText{
			Source: raw.Description,
			Target: translated,
		},
		Fields: StructuredFields{
			Rent:           raw.Rent,
			AdminFee:       raw.AdminFee,
			Deposit:        raw.Deposit,
			Area:           raw.Area,
			Rooms:          raw.Rooms,
			AvailableFrom:  raw.AvailableFrom,
			AdvertiserType: raw.AdvertiserType,
		},
	}
}

// ListingReport is the full response for a single analyzed listing
type ListingReport struct {
	RequestID   string          `json:"requestId"`
	URL         string          `json:"url"`
	Fingerprint string          `json:"fingerprint"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Listing     ListingOverview `json:"listing"`
	Amenities   []Amenity       `json:"amenities"`
	Location    *LocationInfo   `json:"location,omitempty"`
	Summary     *Summary        `json:"summary"`
}

// ListingOverview is the display subset of the scraped listing
type ListingOverview struct {
	Title           string   `json:"title"`
	RentPLN         *int     `json:"rentPLN"`
	AdminPLN        *int     `json:"adminPLN"`
	DepositPLN      *int     `json:"depositPLN"`
	Area            *float64 `json:"area"`
	Rooms           *int     `json:"rooms"`
	Floor           string   `json:"floor,omitempty"`
	BuildYear       *int     `json:"buildYear,omitempty"`
	AvailableFrom   string   `json:"availableFrom,omitempty"`
	Address         Address  `json:"address"`
	DescriptionPL   string   `json:"descriptionPl"`
	DescriptionEN   string   `json:"descriptionEn,omitempty"`
	TranslationUsed bool     `json:"translationUsed"`
	Photos          []string `json:"photos,omitempty"`
}

// Amenity is a listing feature with its English label
type Amenity struct {
	Original string `json:"original"`
	English  string `json:"english"`
}
