package httputil

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"otodom_analyzer/config"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for the listing site
	API      *http.Client // direct, for Google APIs and upstream checks
}

func NewClients(proxyCfg config.ProxyConfig, fetchTimeout time.Duration) *Clients {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}
	if proxyCfg.Enabled() {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{Timeout: fetchTimeout, Transport: transport},
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}

type requestIDKey struct{}

// WithRequestID attaches the request ID used in logs and reports
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID attached by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
