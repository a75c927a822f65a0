package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"otodom_analyzer/config"
	"otodom_analyzer/logging"
	"otodom_analyzer/models"
)

var ErrTranslationDisabled = errors.New("translation API key not configured")

// TranslationService renders Polish listing text in English through the
// Google Translate v2 API, falling back to the static amenity table.
type TranslationService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	lookups *config.Lookups
}

func NewTranslationService(cfg config.GoogleConfig, client *http.Client, lookups *config.Lookups) *TranslationService {
	return &TranslationService{
		client:  client,
		apiKey:  cfg.TranslateAPIKey,
		baseURL: strings.TrimRight(cfg.TranslateBaseURL, "/"),
		lookups: lookups,
	}
}

func (s *TranslationService) Enabled() bool {
	return s.apiKey != ""
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends all texts in one request and returns them in the same order
func (s *TranslationService) Translate(ctx context.Context, texts []string) ([]string, error) {
	if !s.Enabled() {
		return nil, ErrTranslationDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	form := url.Values{}
	for _, t := range texts {
		form.Add("q", t)
	}
	form.Set("source", "pl")
	form.Set("target", "en")
	form.Set("format", "text")

	endpoint := s.baseURL + "/language/translate/v2?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading translate response: %w", err)
	}

	var tr translateResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decoding translate response (status %d): %w", resp.StatusCode, err)
	}
	if tr.Error != nil {
		return nil, fmt.Errorf("translate API error %d: %s", tr.Error.Code, tr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate API status %d", resp.StatusCode)
	}
	if len(tr.Data.Translations) != len(texts) {
		return nil, fmt.Errorf("translate API returned %d texts for %d inputs", len(tr.Data.Translations), len(texts))
	}

	out := make([]string, len(texts))
	for i, t := range tr.Data.Translations {
		out[i] = t.TranslatedText
	}
	return out, nil
}

// TranslateListing returns the English description (empty when unavailable)
// and the amenity list. Failures are logged and never returned.
func (s *TranslationService) TranslateListing(ctx context.Context, description string, features []string) (string, []models.Amenity) {
	amenities := make([]models.Amenity, len(features))
	var pending []int
	for i, f := range features {
		amenities[i] = models.Amenity{Original: f, English: f}
		if en, ok := s.lookups.Amenity(f); ok {
			amenities[i].English = en
		} else {
			pending = append(pending, i)
		}
	}

	if !s.Enabled() {
		return "", amenities
	}

	var texts []string
	hasDescription := strings.TrimSpace(description) != ""
	if hasDescription {
		texts = append(texts, description)
	}
	for _, i := range pending {
		texts = append(texts, features[i])
	}
	if len(texts) == 0 {
		return "", amenities
	}

	translated, err := s.Translate(ctx, texts)
	if err != nil {
		logging.Warnf("translation failed, using Polish text only: %v", err)
		return "", amenities
	}

	var english string
	if hasDescription {
		english, translated = translated[0], translated[1:]
	}
	for j, i := range pending {
		if t := strings.TrimSpace(translated[j]); t != "" {
			amenities[i].English = t
		}
	}
	return english, amenities
}
