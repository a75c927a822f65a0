package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"otodom_analyzer/config"
	"otodom_analyzer/httputil"
	"otodom_analyzer/models"
)

var (
	ErrInvalidURL    = errors.New("not an otodom.pl listing URL")
	ErrNotFound      = errors.New("listing not found")
	ErrBlocked       = errors.New("request blocked by listing site")
	ErrNoListingData = errors.New("no listing data on page")
)

// Fetcher loads a single listing page and returns what it could extract
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, listingURL string) (*models.RawListing, error)
}

// NewFetcher builds the HTTP fetcher, wrapped with a browser retry when enabled
func NewFetcher(cfg config.ScraperConfig, clients *httputil.Clients) Fetcher {
	primary := NewOtodomHandler(clients.Scraping, cfg.UserAgent)
	if !cfg.BrowserFallback {
		return primary
	}
	return &fallbackFetcher{primary: primary, fallback: NewBrowserHandler(cfg)}
}

// ValidateURL accepts http(s) URLs on otodom.pl and its subdomains
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	if host != "otodom.pl" && !strings.HasSuffix(host, ".otodom.pl") {
		return nil, ErrInvalidURL
	}
	return u, nil
}

type fallbackFetcher struct {
	primary  Fetcher
	fallback Fetcher
}

func (f *fallbackFetcher) ID() string {
	return f.primary.ID() + "+" + f.fallback.ID()
}

func (f *fallbackFetcher) Fetch(ctx context.Context, listingURL string) (*models.RawListing, error) {
	listing, err := f.primary.Fetch(ctx, listingURL)
	if err == nil || !errors.Is(err, ErrBlocked) {
		return listing, err
	}
	return f.fallback.Fetch(ctx, listingURL)
}

// Close releases the browser if one was started
func (f *fallbackFetcher) Close() {
	if c, ok := f.fallback.(interface{ Close() }); ok {
		c.Close()
	}
}
