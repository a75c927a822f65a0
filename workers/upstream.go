package workers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"otodom_analyzer/config"
	"otodom_analyzer/logging"
)

const upstreamTimeout = 10 * time.Second

// Upstream is an external service the pipeline depends on
type Upstream struct {
	Name string
	URL  string
}

// UpstreamStatus is the result of the latest check of one upstream.
// It is process-local diagnostics and never attached to listing reports.
type UpstreamStatus struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Reachable  bool      `json:"reachable"`
	StatusCode int       `json:"statusCode,omitempty"`
	LatencyMs  int64     `json:"latencyMs"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// UpstreamChecker polls the listing site and the Google endpoints
type UpstreamChecker struct {
	client    *http.Client
	userAgent string
	targets   []Upstream
	triggerCh chan struct{}
	logFunc   LogFunc

	mu       sync.RWMutex
	statuses map[string]UpstreamStatus
}

// DefaultUpstreams lists the listing site plus every Google API that has a key
func DefaultUpstreams(cfg *config.Config) []Upstream {
	targets := []Upstream{{Name: "otodom", URL: "https://www.otodom.pl/"}}
	if cfg.Google.TranslateAPIKey != "" {
		targets = append(targets, Upstream{Name: "translate", URL: cfg.Google.TranslateBaseURL})
	}
	if cfg.Google.MapsAPIKey != "" {
		targets = append(targets, Upstream{Name: "maps", URL: cfg.Google.MapsBaseURL})
	}
	return targets
}

func NewUpstreamChecker(client *http.Client, userAgent string, targets []Upstream) *UpstreamChecker {
	return &UpstreamChecker{
		client:    client,
		userAgent: userAgent,
		targets:   targets,
		triggerCh: make(chan struct{}, 1),
		logFunc:   DefaultLogger,
		statuses:  make(map[string]UpstreamStatus),
	}
}

func (c *UpstreamChecker) SetLogger(fn LogFunc) {
	c.logFunc = fn
}

// Trigger causes the checker to run immediately. Triggers coalesce while a
// run is pending.
func (c *UpstreamChecker) Trigger() {
	select {
	case c.triggerCh <- struct{}{}:
	default:
	}
}

// Run waits for triggers until ctx is done
func (c *UpstreamChecker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logging.Infof("Upstream checker stopping")
			return
		case <-c.triggerCh:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every upstream concurrently and records the results
func (c *UpstreamChecker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, u := range c.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.record(c.checkOne(ctx, u))
		}()
	}
	wg.Wait()
}

func (c *UpstreamChecker) record(st UpstreamStatus) {
	c.mu.Lock()
	prev, seen := c.statuses[st.Name]
	c.statuses[st.Name] = st
	c.mu.Unlock()

	switch {
	case !st.Reachable && (!seen || prev.Reachable):
		c.logFunc(logging.LevelWarn, "upstream", fmt.Sprintf("%s unreachable: %s", st.Name, describe(st)))
	case st.Reachable && seen && !prev.Reachable:
		c.logFunc(logging.LevelInfo, "upstream", fmt.Sprintf("%s recovered (%d)", st.Name, st.StatusCode))
	default:
		logging.Debugf("upstream %s: %s in %dms", st.Name, describe(st), st.LatencyMs)
	}
}

func describe(st UpstreamStatus) string {
	if st.Error != "" {
		return st.Error
	}
	return fmt.Sprintf("status %d", st.StatusCode)
}

func (c *UpstreamChecker) checkOne(ctx context.Context, u Upstream) UpstreamStatus {
	st := UpstreamStatus{Name: u.Name, URL: u.URL, CheckedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	start := time.Now()
	code, err := c.request(ctx, "HEAD", u.URL)
	if err == nil && code == http.StatusMethodNotAllowed {
		code, err = c.request(ctx, "GET", u.URL)
	}
	st.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.StatusCode = code
	st.Reachable = isReachable(code)
	return st
}

// Anything the server answered counts, except the responses the listing
// site uses to turn scrapers away.
func isReachable(code int) bool {
	switch {
	case code >= 500:
		return false
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}

func (c *UpstreamChecker) request(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Statuses returns a copy of the latest results keyed by upstream name
func (c *UpstreamChecker) Statuses() map[string]UpstreamStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]UpstreamStatus, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}
