package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"otodom_analyzer/config"
)

func loadLookups(t *testing.T) *config.Lookups {
	t.Helper()
	l, err := config.LoadLookups("")
	if err != nil {
		t.Fatalf("loading lookups: %v", err)
	}
	return l
}

func TestTranslateListing_NoKey(t *testing.T) {
	s := NewTranslationService(config.GoogleConfig{}, http.DefaultClient, loadLookups(t))

	english, amenities := s.TranslateListing(t.Context(), "Mieszkanie z balkonem", []string{"Balkon", "sauna"})
	if english != "" {
		t.Fatalf("expected no translation without a key, got %q", english)
	}
	if len(amenities) != 2 {
		t.Fatalf("expected 2 amenities, got %d", len(amenities))
	}
	if amenities[0].English != "Balcony" {
		t.Errorf("expected static table label, got %q", amenities[0].English)
	}
	if amenities[1].English != "sauna" || amenities[1].Original != "sauna" {
		t.Errorf("unknown amenity should pass through, got %+v", amenities[1])
	}
}

func TestTranslateListing_API(t *testing.T) {
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/language/translate/v2" || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostForm.Get("source") != "pl" || r.PostForm.Get("target") != "en" || r.PostForm.Get("format") != "text" {
			t.Errorf("unexpected params %v", r.PostForm)
		}
		received = r.PostForm["q"]

		var resp translateResponse
		for _, q := range received {
			resp.Data.Translations = append(resp.Data.Translations, struct {
				TranslatedText string `json:"translatedText"`
			}{"EN:" + q})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := config.GoogleConfig{TranslateAPIKey: "test-key", TranslateBaseURL: srv.URL + "/"}
	s := NewTranslationService(cfg, srv.Client(), loadLookups(t))

	english, amenities := s.TranslateListing(t.Context(), "Kaucja 3000 zł", []string{"balkon", "sauna"})
	if english != "EN:Kaucja 3000 zł" {
		t.Fatalf("unexpected translation %q", english)
	}
	if len(received) != 2 {
		t.Fatalf("expected description and the unknown amenity only, got %v", received)
	}
	if amenities[0].English != "Balcony" || amenities[1].English != "EN:sauna" {
		t.Fatalf("unexpected amenities %+v", amenities)
	}
}

func TestTranslateListing_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	cfg := config.GoogleConfig{TranslateAPIKey: "bad", TranslateBaseURL: srv.URL}
	s := NewTranslationService(cfg, srv.Client(), loadLookups(t))

	if _, err := s.Translate(t.Context(), []string{"tekst"}); err == nil {
		t.Fatalf("expected error from API")
	}

	english, amenities := s.TranslateListing(t.Context(), "Opis", []string{"winda"})
	if english != "" {
		t.Fatalf("expected empty translation on failure, got %q", english)
	}
	if amenities[0].English != "Elevator" {
		t.Fatalf("expected static fallback, got %q", amenities[0].English)
	}
}

func TestTranslate_Disabled(t *testing.T) {
	s := NewTranslationService(config.GoogleConfig{}, http.DefaultClient, loadLookups(t))
	if _, err := s.Translate(t.Context(), []string{"x"}); err != ErrTranslationDisabled {
		t.Fatalf("expected ErrTranslationDisabled, got %v", err)
	}
}
