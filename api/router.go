package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"otodom_analyzer/models"
	"otodom_analyzer/workers"
)

// ListingAnalyzer is the pipeline behind the listing endpoints
type ListingAnalyzer interface {
	Analyze(ctx context.Context, listingURL string) (*models.ListingReport, error)
	AnalyzeText(in models.ListingInput) *models.Summary
}

// Upstreams exposes the upstream monitor to the health endpoints
type Upstreams interface {
	Statuses() map[string]workers.UpstreamStatus
	Trigger()
}

type Handler struct {
	listings  ListingAnalyzer
	upstreams Upstreams
}

func NewHandler(listings ListingAnalyzer, upstreams Upstreams) *Handler {
	return &Handler{listings: listings, upstreams: upstreams}
}

// NewRouter wires the routes. Middleware wraps the whole router so CORS
// preflight and 404/405 responses are covered too.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.HandleFunc("/health/check", h.HandleUpstreamCheck).Methods("POST")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/listing", h.HandleListing).Methods("GET")
	apiRouter.HandleFunc("/analyze", h.HandleAnalyze).Methods("POST")

	return Chain(r, Recovery, RequestID, Logger, CORS)
}
