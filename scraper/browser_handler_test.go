package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"otodom_analyzer/config"
	"otodom_analyzer/models"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func TestDetectBlock(t *testing.T) {
	if trigger := detectBlock(string(loadFixture(t, "blocked.html"))); trigger != "cf-chl" {
		t.Fatalf("expected cf-chl trigger, got %q", trigger)
	}
	if trigger := detectBlock(string(loadFixture(t, "otodom_next_data.html"))); trigger != "" {
		t.Fatalf("expected no trigger on a listing page, got %q", trigger)
	}
}

func TestBrowserHandler_RejectsForeignURL(t *testing.T) {
	h := NewBrowserHandler(config.ScraperConfig{})
	// validation happens before playwright is started
	if _, err := h.Fetch(context.Background(), "https://www.olx.pl/oferta/123"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if h.initialized {
		t.Fatalf("browser should not start for an invalid URL")
	}
}

type stubFetcher struct {
	id      string
	listing *models.RawListing
	err     error
	calls   int
}

func (s *stubFetcher) ID() string { return s.id }

func (s *stubFetcher) Fetch(ctx context.Context, listingURL string) (*models.RawListing, error) {
	s.calls++
	return s.listing, s.err
}

func TestFallbackFetcher(t *testing.T) {
	rendered := &models.RawListing{ID: "rendered"}

	primary := &stubFetcher{id: "http", err: ErrBlocked}
	fallback := &stubFetcher{id: "browser", listing: rendered}
	f := &fallbackFetcher{primary: primary, fallback: fallback}

	got, err := f.Fetch(context.Background(), "https://www.otodom.pl/pl/oferta/x")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.ID != "rendered" || fallback.calls != 1 {
		t.Fatalf("expected browser result, got %+v (calls %d)", got, fallback.calls)
	}

	primary.err = ErrNotFound
	if _, err := f.Fetch(context.Background(), "https://www.otodom.pl/pl/oferta/x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound to pass through, got %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback should only run on ErrBlocked")
	}
	if f.ID() != "http+browser" {
		t.Fatalf("unexpected id %s", f.ID())
	}
}
