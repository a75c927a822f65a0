package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"otodom_analyzer/analysis"
	"otodom_analyzer/httputil"
	"otodom_analyzer/identity"
	"otodom_analyzer/logging"
	"otodom_analyzer/models"
	"otodom_analyzer/scraper"
)

// ListingService runs the full pipeline for one listing URL:
// fetch, then translation and geo side by side, then the analysis engine.
type ListingService struct {
	fetcher    scraper.Fetcher
	translator *TranslationService
	geo        *GeoService
	analyzer   *analysis.Analyzer
	now        func() time.Time
}

func NewListingService(fetcher scraper.Fetcher, translator *TranslationService, geo *GeoService, analyzer *analysis.Analyzer) *ListingService {
	return &ListingService{
		fetcher:    fetcher,
		translator: translator,
		geo:        geo,
		analyzer:   analyzer,
		now:        time.Now,
	}
}

// Analyze fetches and analyzes a listing. Fetch errors keep the scraper
// sentinels (ErrInvalidURL, ErrNotFound, ErrBlocked) in their chain.
func (s *ListingService) Analyze(ctx context.Context, listingURL string) (*models.ListingReport, error) {
	requestID := httputil.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	start := s.now()
	raw, err := s.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	logging.Debugf("[%s] fetched %s via %s in %s", requestID, listingURL, s.fetcher.ID(), s.now().Sub(start).Round(time.Millisecond))

	var (
		english   string
		amenities []models.Amenity
		location  *models.LocationInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		english, amenities = s.translator.TranslateListing(gctx, raw.Description, raw.Features)
		return nil
	})
	g.Go(func() error {
		location = s.geo.Locate(gctx, raw)
		return nil
	})
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := s.analyzer.Analyze(models.InputFromRaw(raw, english))

	reportURL := raw.URL
	if reportURL == "" {
		reportURL = listingURL
	}
	if amenities == nil {
		amenities = []models.Amenity{}
	}

	report := &models.ListingReport{
		RequestID:   requestID,
		URL:         reportURL,
		Fingerprint: identity.Fingerprint(raw),
		FetchedAt:   s.now().UTC(),
		Listing:     overview(raw, english),
		Amenities:   amenities,
		Location:    location,
		Summary:     summary,
	}

	logging.Infof("[%s] analyzed %s: risk %s (score %d)", requestID, reportURL, summary.Risk.Level, summary.Risk.Score)
	return report, nil
}

// AnalyzeText runs only the analysis engine on caller-supplied text and fields
func (s *ListingService) AnalyzeText(in models.ListingInput) *models.Summary {
	return s.analyzer.Analyze(in)
}

func overview(raw *models.RawListing, english string) models.ListingOverview {
	return models.ListingOverview{
		Title:           raw.Title,
		RentPLN:         raw.Rent,
		AdminPLN:        raw.AdminFee,
		DepositPLN:      raw.Deposit,
		Area:            raw.Area,
		Rooms:           raw.Rooms,
		Floor:           raw.Floor,
		BuildYear:       raw.BuildYear,
		AvailableFrom:   raw.AvailableFrom,
		Address:         raw.Address,
		DescriptionPL:   raw.Description,
		DescriptionEN:   english,
		TranslationUsed: english != "",
		Photos:          raw.Photos,
	}
}
