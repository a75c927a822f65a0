package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"otodom_analyzer/logging"
	"otodom_analyzer/models"
)

const (
	maxPageSize  = 8 << 20
	maxRedirects = 5
)

type OtodomHandler struct {
	client    *http.Client
	userAgent string
}

func NewOtodomHandler(client *http.Client, userAgent string) *OtodomHandler {
	if client == nil {
		client = http.DefaultClient
	}
	c := *client
	c.CheckRedirect = followListingRedirect
	return &OtodomHandler{client: &c, userAgent: userAgent}
}

// followListingRedirect follows moves between offer pages only. A removed
// listing redirects to the search page, and that response is kept so
// fetchPage can report it as not found.
func followListingRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects || !strings.Contains(req.URL.Path, "/oferta/") {
		return http.ErrUseLastResponse
	}
	return nil
}

func (h *OtodomHandler) ID() string {
	return "otodom_http"
}

func (h *OtodomHandler) Fetch(ctx context.Context, listingURL string) (*models.RawListing, error) {
	u, err := ValidateURL(listingURL)
	if err != nil {
		return nil, err
	}
	return h.fetchPage(ctx, u.String())
}

// fetchPage skips URL validation so tests can point it at a local server
func (h *OtodomHandler) fetchPage(ctx context.Context, pageURL string) (*models.RawListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pl-PL,pl;q=0.9,en;q=0.8")
	req.Header.Set("Referer", "https://www.otodom.pl/")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, ErrNotFound
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		logging.Debugf("listing %s redirected to %s", pageURL, resp.Header.Get("Location"))
		return nil, ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("otodom status %d: %w", resp.StatusCode, ErrBlocked)
	default:
		return nil, fmt.Errorf("otodom status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	if trigger := detectBlock(string(body)); trigger != "" {
		logging.Warnf("otodom challenge page (trigger: %s)", trigger)
		return nil, ErrBlocked
	}

	listing, err := ParseHTML(body, pageURL)
	if err != nil {
		return nil, err
	}
	logging.Debugf("fetched listing %s: %q", listing.ID, listing.Title)
	return listing, nil
}

// detectBlock returns the marker of a bot-protection page, or "" for a normal page
func detectBlock(content string) string {
	if strings.Contains(content, "__NEXT_DATA__") {
		return ""
	}
	triggers := []string{
		"cf-chl",
		"Attention Required! | Cloudflare",
		"Access Denied",
		"This request was blocked",
		"captcha-delivery",
	}
	for _, t := range triggers {
		if strings.Contains(content, t) {
			return t
		}
	}
	return ""
}
