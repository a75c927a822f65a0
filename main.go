package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otodom_analyzer/analysis"
	"otodom_analyzer/api"
	"otodom_analyzer/config"
	"otodom_analyzer/httputil"
	"otodom_analyzer/logging"
	"otodom_analyzer/scheduler"
	"otodom_analyzer/scraper"
	"otodom_analyzer/services"
	"otodom_analyzer/workers"
)

var (
	analyzeURL = flag.String("analyze", "", "Analyze one listing URL, print the report as JSON and exit")
)

const shutdownTimeout = 15 * time.Second

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	if *analyzeURL == "" {
		logFile, err := logging.Setup(cfg.LogFile)
		if err != nil {
			log.Printf("Warning: could not set up file logging: %v", err)
		} else {
			defer logFile.Close()
		}
	}

	policy, err := analysis.PolicyByName(cfg.Analysis.AdminFeePolicy)
	if err != nil {
		log.Fatalf("Invalid ADMIN_FEE_POLICY: %v", err)
	}

	clients := httputil.NewClients(cfg.Proxy, cfg.Scraper.Timeout)
	if cfg.Proxy.Enabled() {
		logging.Infof("Proxy: %s", maskProxyURL(cfg.Proxy.URL))
	}

	fetcher := scraper.NewFetcher(cfg.Scraper, clients)
	if c, ok := fetcher.(interface{ Close() }); ok {
		defer c.Close()
	}

	translator := services.NewTranslationService(cfg.Google, clients.API, cfg.Lookups)
	geo := services.NewGeoService(cfg.Google, clients.API, cfg.Lookups)
	listingService := services.NewListingService(fetcher, translator, geo, analysis.NewAnalyzer(policy))

	logging.Infof("Fetcher: %s, translation: %v, maps: %v, admin fee policy: %s",
		fetcher.ID(), translator.Enabled(), geo.Enabled(), policy.Name)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Handle one-shot analysis
	if *analyzeURL != "" {
		report, err := listingService.Analyze(ctx, *analyzeURL)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		return
	}

	// Server mode
	checker := workers.NewUpstreamChecker(clients.API, cfg.Scraper.UserAgent, workers.DefaultUpstreams(cfg))
	go checker.Run(ctx)

	sched := scheduler.New(cfg.Scheduler, checker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(listingService, checker)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof("Listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()

	logging.Infof("Shutting down...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warnf("HTTP shutdown: %v", err)
	}
	logging.Infof("Goodbye!")
}

// maskProxyURL hides the password in a proxy URL for logging
func maskProxyURL(proxyURL string) string {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
