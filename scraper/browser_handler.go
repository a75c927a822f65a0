package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"otodom_analyzer/config"
	"otodom_analyzer/logging"
	"otodom_analyzer/models"
)

const browserNavTimeout = 60 * time.Second

// BrowserHandler renders the listing in headless Chromium. It is only used
// when the plain HTTP fetch is blocked.
type BrowserHandler struct {
	cfg         config.ScraperConfig
	pw          *playwright.Playwright
	browser     playwright.Browser
	mu          sync.Mutex
	initialized bool
}

func NewBrowserHandler(cfg config.ScraperConfig) *BrowserHandler {
	return &BrowserHandler{cfg: cfg}
}

func (h *BrowserHandler) ID() string {
	return "otodom_browser"
}

func (h *BrowserHandler) Fetch(ctx context.Context, listingURL string) (*models.RawListing, error) {
	u, err := ValidateURL(listingURL)
	if err != nil {
		return nil, err
	}
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}

	bctx, err := h.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(h.cfg.UserAgent),
		Locale:    playwright.String("pl-PL"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	// closing the context aborts navigation when the request is cancelled
	stop := context.AfterFunc(ctx, func() { bctx.Close() })
	defer stop()

	logging.Infof("Browser: loading %s", u.String())
	resp, err := page.Goto(u.String(), playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(browserNavTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("browser navigation failed: %w", err)
	}
	if resp != nil && (resp.Status() == 404 || resp.Status() == 410) {
		return nil, ErrNotFound
	}

	h.handleConsent(page)

	if _, err := page.WaitForSelector("script#__NEXT_DATA__", playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(15000),
	}); err != nil {
		logging.Warnf("__NEXT_DATA__ not found after render: %v", err)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	if trigger := detectBlock(content); trigger != "" {
		return nil, fmt.Errorf("browser challenge (%s): %w", trigger, ErrBlocked)
	}

	return ParseHTML([]byte(content), u.String())
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	h.browser, err = h.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		h.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	h.initialized = true
	return nil
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.browser != nil {
		h.browser.Close()
	}
	if h.pw != nil {
		h.pw.Stop()
	}
	h.initialized = false
}

func (h *BrowserHandler) handleConsent(page playwright.Page) {
	consentSelectors := []string{
		"#onetrust-accept-btn-handler",
		"button:has-text('Akceptuję')",
		"button:has-text('Zaakceptuj')",
		"button:has-text('Accept')",
		"button[id*='accept']",
	}

	for _, selector := range consentSelectors {
		btn := page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			logging.Debugf("Browser: clicking consent button %s", selector)
			btn.Click()
			page.WaitForTimeout(1000)
			break
		}
	}
}
