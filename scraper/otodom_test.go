package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseHTML_NextData(t *testing.T) {
	data := loadFixture(t, "otodom_next_data.html")

	listing, err := ParseHTML(data, "https://www.otodom.pl/pl/oferta/2-pokoje-mokotow-ID4abc")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if listing.ID != "65123456" {
		t.Fatalf("expected ID 65123456, got %s", listing.ID)
	}
	if listing.Title != "2 pokoje, Mokotów, balkon" {
		t.Fatalf("unexpected title %q", listing.Title)
	}
	if listing.Rent == nil || *listing.Rent != 3200 {
		t.Fatalf("expected rent 3200, got %v", listing.Rent)
	}
	if listing.AdminFee == nil || *listing.AdminFee != 650 {
		t.Fatalf("expected admin fee 650 from the localized value, got %v", listing.AdminFee)
	}
	if listing.Deposit == nil || *listing.Deposit != 3200 {
		t.Fatalf("expected deposit 3200, got %v", listing.Deposit)
	}
	if listing.Area == nil || *listing.Area != 48.5 {
		t.Fatalf("expected area 48.5, got %v", listing.Area)
	}
	if listing.Rooms == nil || *listing.Rooms != 2 {
		t.Fatalf("expected 2 rooms, got %v", listing.Rooms)
	}
	if listing.Floor != "3/5" {
		t.Fatalf("expected floor 3/5, got %q", listing.Floor)
	}
	if listing.BuildYear == nil || *listing.BuildYear != 2012 {
		t.Fatalf("expected build year 2012, got %v", listing.BuildYear)
	}
	if listing.AvailableFrom != "2026-11-01" {
		t.Fatalf("unexpected availability %q", listing.AvailableFrom)
	}
	if listing.AdvertiserType != "private" {
		t.Fatalf("expected private advertiser, got %q", listing.AdvertiserType)
	}
	if listing.Address.Street != "ul. Puławska 12" || listing.Address.District != "Mokotów" || listing.Address.City != "Warszawa" {
		t.Fatalf("unexpected address %+v", listing.Address)
	}
	if listing.Lat == nil || *listing.Lat != 52.1934 || listing.Lng == nil || *listing.Lng != 21.0254 {
		t.Fatalf("unexpected coordinates %v %v", listing.Lat, listing.Lng)
	}
	if len(listing.Features) != 3 {
		t.Fatalf("expected 3 features, got %v", listing.Features)
	}
	if len(listing.Photos) != 2 || listing.Photos[0] != "https://img.otodom.pl/1-large.jpg" || listing.Photos[1] != "https://img.otodom.pl/2-medium.jpg" {
		t.Fatalf("unexpected photos %v", listing.Photos)
	}
	if strings.Contains(listing.Description, "<") {
		t.Fatalf("description still contains markup: %q", listing.Description)
	}
	if !strings.Contains(listing.Description, "Kaucja 4 500 zł.\nMedia ok. 100-150 zł") {
		t.Fatalf("expected line break between paragraphs, got %q", listing.Description)
	}
	if !strings.Contains(listing.Description, "- balkon") {
		t.Fatalf("expected list items, got %q", listing.Description)
	}
	if len(listing.Data) == 0 {
		t.Fatalf("expected raw data")
	}
}

func TestParseHTML_JSONLDFallback(t *testing.T) {
	data := loadFixture(t, "otodom_jsonld.html")

	listing, err := ParseHTML(data, "https://www.otodom.pl/pl/oferta/kawalerka")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if listing.Title != "Kawalerka na Woli" {
		t.Fatalf("unexpected title %q", listing.Title)
	}
	if listing.Rent == nil || *listing.Rent != 2400 {
		t.Fatalf("expected rent 2400, got %v", listing.Rent)
	}
	if listing.Area == nil || *listing.Area != 30.5 {
		t.Fatalf("expected area 30.5, got %v", listing.Area)
	}
	if listing.Rooms == nil || *listing.Rooms != 1 {
		t.Fatalf("expected 1 room, got %v", listing.Rooms)
	}
	if listing.AdminFee != nil || listing.Deposit != nil {
		t.Fatalf("JSON-LD carries no admin fee or deposit")
	}
	if listing.Address.City != "Warszawa" {
		t.Fatalf("unexpected city %q", listing.Address.City)
	}
	if listing.Lat == nil || *listing.Lat != 52.2329 || listing.Lng == nil || *listing.Lng != 20.9631 {
		t.Fatalf("unexpected coordinates %v %v", listing.Lat, listing.Lng)
	}
	if listing.URL != "https://www.otodom.pl/pl/oferta/kawalerka" {
		t.Fatalf("unexpected URL %s", listing.URL)
	}
}

func TestParseHTML_NoListing(t *testing.T) {
	if _, err := ParseHTML(loadFixture(t, "no_listing.html"), ""); !errors.Is(err, ErrNoListingData) {
		t.Fatalf("expected ErrNoListingData, got %v", err)
	}
}

func TestParseNumbers(t *testing.T) {
	ints := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3200", 3200, true},
		{"3 200 zł", 3200, true},
		{"3\u00a0200 zł", 3200, true},
		{"3200.00", 3200, true},
		{"", 0, false},
		{"zapytaj", 0, false},
	}
	for _, tt := range ints {
		got := parseInt(tt.in)
		if (got != nil) != tt.ok || (got != nil && *got != tt.want) {
			t.Errorf("parseInt(%q) = %v; want %d (ok=%v)", tt.in, got, tt.want, tt.ok)
		}
	}

	if got := parseFloat("48,5 m²"); got == nil || *got != 48.5 {
		t.Errorf("parseFloat(48,5 m²) = %v; want 48.5", got)
	}
}

func TestParseFloor(t *testing.T) {
	tests := []struct {
		value, localized, want string
	}{
		{"ground_floor", "parter", "0"},
		{"floor_4", "", "4"},
		{"floor_4", "4/10", "4/10"},
		{"cellar", "", "-1"},
	}
	for _, tt := range tests {
		if got := parseFloor(tt.value, tt.localized); got != tt.want {
			t.Errorf("parseFloor(%q, %q) = %q; want %q", tt.value, tt.localized, got, tt.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.otodom.pl/pl/oferta/mieszkanie-ID4abc",
		"http://otodom.pl/pl/oferta/x",
	}
	for _, u := range valid {
		if _, err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) failed: %v", u, err)
		}
	}
	invalid := []string{
		"",
		"otodom.pl/pl/oferta/x",
		"ftp://www.otodom.pl/x",
		"https://nototodom.pl/x",
		"https://otodom.pl.evil.com/x",
	}
	for _, u := range invalid {
		if _, err := ValidateURL(u); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("ValidateURL(%q) = %v; want ErrInvalidURL", u, err)
		}
	}
}

func TestOtodomHandler_FetchPage(t *testing.T) {
	page := loadFixture(t, "otodom_next_data.html")
	blocked := loadFixture(t, "blocked.html")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("expected user agent header, got %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/ok", "/pl/oferta/mieszkanie-po-zmianie-nazwy-ID65123456":
			w.Write(page)
		case "/removed":
			http.Redirect(w, r, "/pl/wyniki/wynajem/mieszkanie/mazowieckie/warszawa", http.StatusMovedPermanently)
		case "/renamed":
			http.Redirect(w, r, "/pl/oferta/mieszkanie-po-zmianie-nazwy-ID65123456", http.StatusMovedPermanently)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		case "/challenge":
			w.Write(blocked)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	h := NewOtodomHandler(srv.Client(), "test-agent")
	ctx := context.Background()

	listing, err := h.fetchPage(ctx, srv.URL+"/ok")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if listing.ID != "65123456" || listing.URL != srv.URL+"/ok" {
		t.Fatalf("unexpected listing %s %s", listing.ID, listing.URL)
	}

	if _, err := h.fetchPage(ctx, srv.URL+"/gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.fetchPage(ctx, srv.URL+"/removed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a redirect to search results, got %v", err)
	}
	if listing, err := h.fetchPage(ctx, srv.URL+"/renamed"); err != nil || listing.ID != "65123456" {
		t.Fatalf("expected redirect between offer pages to be followed, got %v", err)
	}
	if _, err := h.fetchPage(ctx, srv.URL+"/forbidden"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if _, err := h.fetchPage(ctx, srv.URL+"/challenge"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked for a challenge page, got %v", err)
	}
	if _, err := h.fetchPage(ctx, srv.URL+"/error"); err == nil || errors.Is(err, ErrBlocked) {
		t.Fatalf("expected a plain error for 500, got %v", err)
	}
	if _, err := h.Fetch(ctx, srv.URL+"/ok"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL for a non-otodom host, got %v", err)
	}
}
