package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"otodom_analyzer/config"
	"otodom_analyzer/identity"
	"otodom_analyzer/logging"
	"otodom_analyzer/models"
)

const (
	nearbyRadiusMeters = 1000
	closestPlaces      = 3
)

var (
	ErrGeoDisabled = errors.New("maps API key not configured")
	ErrNoGeocode   = errors.New("address could not be geocoded")

	commuteModes = []string{
		models.CommuteDriving,
		models.CommuteTransit,
		models.CommuteWalking,
		models.CommuteBicycling,
	}
)

// GeoService builds the location section of a report from the Google Maps
// web services and the static neighborhood table.
type GeoService struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	destination string
	lookups     *config.Lookups
}

func NewGeoService(cfg config.GoogleConfig, client *http.Client, lookups *config.Lookups) *GeoService {
	return &GeoService{
		client:      client,
		apiKey:      cfg.MapsAPIKey,
		baseURL:     strings.TrimRight(cfg.MapsBaseURL, "/"),
		destination: cfg.CommuteDestination,
		lookups:     lookups,
	}
}

func (s *GeoService) Enabled() bool {
	return s.apiKey != ""
}

// Locate never fails: every lookup that errors is logged and left out.
// Returns nil when nothing at all is known about the location.
func (s *GeoService) Locate(ctx context.Context, listing *models.RawListing) *models.LocationInfo {
	info := &models.LocationInfo{Lat: listing.Lat, Lng: listing.Lng}

	if n, ok := s.lookups.Neighborhood(listing.Address.District, listing.Address.City); ok {
		info.Neighborhood = &models.NeighborhoodInfo{
			Name:        n.Name,
			Description: n.Description,
			Highlights:  n.Highlights,
		}
	}

	if !s.Enabled() {
		return emptyToNil(info)
	}

	if !info.HasCoordinates() {
		address := identity.NormalizeAddress(listing.Address)
		if address == "" {
			return emptyToNil(info)
		}
		lat, lng, formatted, err := s.Geocode(ctx, address)
		if err != nil {
			logging.Warnf("geocoding %q failed: %v", address, err)
			return emptyToNil(info)
		}
		info.Lat, info.Lng, info.FormattedAddress = &lat, &lng, formatted
	}

	origin := fmt.Sprintf("%.6f,%.6f", *info.Lat, *info.Lng)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info.Commute = s.Commute(gctx, origin)
		return nil
	})
	g.Go(func() error {
		info.Nearby = s.Nearby(gctx, origin)
		return nil
	})
	g.Wait()

	return info
}

func emptyToNil(info *models.LocationInfo) *models.LocationInfo {
	if !info.HasCoordinates() && info.Neighborhood == nil {
		return nil
	}
	return info
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address line to coordinates
func (s *GeoService) Geocode(ctx context.Context, address string) (float64, float64, string, error) {
	if !s.Enabled() {
		return 0, 0, "", ErrGeoDisabled
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("region", "pl")
	params.Set("language", "pl")

	var resp geocodeResponse
	if err := s.getJSON(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return 0, 0, "", err
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return 0, 0, "", ErrNoGeocode
	default:
		return 0, 0, "", fmt.Errorf("geocode status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return 0, 0, "", ErrNoGeocode
	}

	r := resp.Results[0]
	return r.Geometry.Location.Lat, r.Geometry.Location.Lng, r.FormattedAddress, nil
}

type distanceMatrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int    `json:"value"`
				Text  string `json:"text"`
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// Commute queries every mode concurrently. A failed mode is dropped; the
// rest keep their fixed order.
func (s *GeoService) Commute(ctx context.Context, origin string) []models.CommuteTime {
	if s.destination == "" {
		return nil
	}

	results := make([]*models.CommuteTime, len(commuteModes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range commuteModes {
		g.Go(func() error {
			ct, err := s.commuteFor(gctx, origin, mode)
			if err != nil {
				logging.Warnf("commute %s: %v", mode, err)
				return nil
			}
			results[i] = ct
			return nil
		})
	}
	g.Wait()

	out := make([]models.CommuteTime, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *GeoService) commuteFor(ctx context.Context, origin, mode string) (*models.CommuteTime, error) {
	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", s.destination)
	params.Set("mode", mode)
	params.Set("units", "metric")

	var resp distanceMatrixResponse
	if err := s.getJSON(ctx, "/maps/api/distancematrix/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("distance matrix status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, errors.New("distance matrix returned no elements")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("route status %s", el.Status)
	}

	return &models.CommuteTime{
		Mode:        mode,
		DurationMin: int(math.Round(float64(el.Duration.Value) / 60)),
		DistanceKm:  math.Round(float64(el.Distance.Value)/100) / 10,
		Text:        el.Duration.Text,
	}, nil
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// Nearby counts places per lookup category within walking distance
func (s *GeoService) Nearby(ctx context.Context, origin string) []models.NearbyPlaces {
	categories := s.lookups.Places
	results := make([]*models.NearbyPlaces, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, cat := range categories {
		g.Go(func() error {
			np, err := s.nearbyFor(gctx, origin, cat)
			if err != nil {
				logging.Warnf("nearby %s: %v", cat.Type, err)
				return nil
			}
			results[i] = np
			return nil
		})
	}
	g.Wait()

	out := make([]models.NearbyPlaces, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *GeoService) nearbyFor(ctx context.Context, origin string, cat config.PlaceCategory) (*models.NearbyPlaces, error) {
	params := url.Values{}
	params.Set("location", origin)
	params.Set("radius", fmt.Sprint(nearbyRadiusMeters))
	params.Set("type", cat.Type)

	var resp nearbyResponse
	if err := s.getJSON(ctx, "/maps/api/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places status %s: %s", resp.Status, resp.ErrorMessage)
	}

	np := &models.NearbyPlaces{Type: cat.Type, Label: cat.Label, Count: len(resp.Results)}
	for _, r := range resp.Results {
		if len(np.Closest) == closestPlaces {
			break
		}
		np.Closest = append(np.Closest, r.Name)
	}
	return np, nil
}

func (s *GeoService) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", s.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("maps request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps API status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("reading maps response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding maps response: %w", err)
	}
	return nil
}
