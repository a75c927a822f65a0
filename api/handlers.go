package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"otodom_analyzer/httputil"
	"otodom_analyzer/logging"
	"otodom_analyzer/models"
	"otodom_analyzer/scraper"
)

const maxBodyBytes = 1 << 20

// analyzeRequest is the body of POST /api/analyze
type analyzeRequest struct {
	DescriptionPl  string   `json:"descriptionPl"`
	DescriptionEn  string   `json:"descriptionEn"`
	Rent           *int     `json:"rent"`
	AdminFee       *int     `json:"adminFee"`
	Deposit        *int     `json:"deposit"`
	Area           *float64 `json:"area"`
	Rooms          *int     `json:"rooms"`
	AvailableFrom  string   `json:"availableFrom"`
	AdvertiserType string   `json:"advertiserType"`
}

func (req analyzeRequest) input() models.ListingInput {
	return models.ListingInput{
		Text: models.ListingText{
			Source: req.DescriptionPl,
			Target: req.DescriptionEn,
		},
		Fields: models.StructuredFields{
			Rent:           req.Rent,
			AdminFee:       req.AdminFee,
			Deposit:        req.Deposit,
			Area:           req.Area,
			Rooms:          req.Rooms,
			AvailableFrom:  req.AvailableFrom,
			AdvertiserType: req.AdvertiserType,
		},
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.upstreams != nil {
		resp["upstreams"] = h.upstreams.Statuses()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleUpstreamCheck(w http.ResponseWriter, r *http.Request) {
	if h.upstreams == nil {
		writeError(w, http.StatusServiceUnavailable, "upstream monitor not running")
		return
	}
	h.upstreams.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (h *Handler) HandleListing(w http.ResponseWriter, r *http.Request) {
	listingURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if listingURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	report, err := h.listings.Analyze(r.Context(), listingURL)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logging.Errorf("[%s] analyzing %s: %v", httputil.RequestID(r.Context()), listingURL, err)
			writeError(w, status, "failed to analyze listing")
			return
		}
		logging.Warnf("[%s] analyzing %s: %v", httputil.RequestID(r.Context()), listingURL, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.listings.AnalyzeText(req.input()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scraper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scraper.ErrBlocked), errors.Is(err, scraper.ErrNoListingData):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
