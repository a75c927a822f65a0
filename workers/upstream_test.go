package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"otodom_analyzer/config"
	"otodom_analyzer/logging"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []string
}

func (c *capturedEvents) log(level logging.Level, source, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, message)
}

func (c *capturedEvents) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestUpstreamChecker_CheckAll(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "monitor-agent" {
			t.Errorf("expected user agent, got %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/get-only":
			if r.Method == "HEAD" {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/site":
			if blocked.Load() {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	c := NewUpstreamChecker(srv.Client(), "monitor-agent", []Upstream{
		{Name: "ok", URL: srv.URL + "/ok"},
		{Name: "get-only", URL: srv.URL + "/get-only"},
		{Name: "site", URL: srv.URL + "/site"},
		{Name: "dead", URL: deadURL},
	})
	events := &capturedEvents{}
	c.SetLogger(events.log)

	c.CheckAll(context.Background())
	st := c.Statuses()
	if len(st) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(st))
	}
	if !st["ok"].Reachable || st["ok"].StatusCode != 200 {
		t.Errorf("unexpected ok status %+v", st["ok"])
	}
	if !st["get-only"].Reachable || st["get-only"].StatusCode != 200 {
		t.Errorf("expected GET retry after 405, got %+v", st["get-only"])
	}
	if st["site"].Reachable || st["site"].StatusCode != 403 {
		t.Errorf("403 should count as unreachable, got %+v", st["site"])
	}
	if st["dead"].Reachable || st["dead"].Error == "" {
		t.Errorf("expected connection error, got %+v", st["dead"])
	}
	if got := events.all(); len(got) != 2 {
		t.Fatalf("expected 2 unreachable events, got %v", got)
	}

	blocked.Store(false)
	c.CheckAll(context.Background())
	got := events.all()
	if len(got) != 3 || !strings.Contains(got[2], "site recovered") {
		t.Fatalf("expected recovery event, got %v", got)
	}
}

func TestUpstreamChecker_StatusesIsCopy(t *testing.T) {
	c := NewUpstreamChecker(http.DefaultClient, "", nil)
	c.record(UpstreamStatus{Name: "x", Reachable: true})

	st := c.Statuses()
	delete(st, "x")
	if _, ok := c.Statuses()["x"]; !ok {
		t.Fatalf("Statuses should return a copy")
	}
}

func TestUpstreamChecker_RunOnTrigger(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewUpstreamChecker(srv.Client(), "", []Upstream{{Name: "a", URL: srv.URL}})
	c.SetLogger(func(logging.Level, string, string) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Trigger()
	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hits.Load() == 0 {
		t.Fatalf("trigger did not run a check")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

func TestDefaultUpstreams(t *testing.T) {
	cfg := &config.Config{Google: config.GoogleConfig{
		MapsAPIKey:       "k",
		TranslateBaseURL: "https://translation.googleapis.com",
		MapsBaseURL:      "https://maps.googleapis.com",
	}}
	targets := DefaultUpstreams(cfg)
	if len(targets) != 2 || targets[0].Name != "otodom" || targets[1].Name != "maps" {
		t.Fatalf("unexpected targets %+v", targets)
	}
}
