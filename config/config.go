package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig
	Scraper   ScraperConfig
	Proxy     ProxyConfig
	Google    GoogleConfig
	Scheduler SchedulerConfig
	Analysis  AnalysisConfig
	LogLevel  string
	LogFile   string
	Lookups   *Lookups
}

type HTTPConfig struct {
	Addr string
}

type ScraperConfig struct {
	Timeout         time.Duration
	BrowserFallback bool
	UserAgent       string
}

// ProxyConfig routes the listing fetch through an HTTP proxy when URL is set
type ProxyConfig struct {
	URL string
}

func (p ProxyConfig) Enabled() bool {
	return p.URL != ""
}

type GoogleConfig struct {
	TranslateAPIKey    string
	MapsAPIKey         string
	CommuteDestination string
	TranslateBaseURL   string
	MapsBaseURL        string
}

type SchedulerConfig struct {
	Cron string
}

type AnalysisConfig struct {
	AdminFeePolicy string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Scraper: ScraperConfig{
			Timeout:         getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
			BrowserFallback: os.Getenv("BROWSER_FALLBACK") == "true",
			UserAgent:       getEnv("SCRAPER_USER_AGENT", defaultUserAgent),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		Google: GoogleConfig{
			TranslateAPIKey:    os.Getenv("GOOGLE_TRANSLATE_API_KEY"),
			MapsAPIKey:         os.Getenv("GOOGLE_MAPS_API_KEY"),
			CommuteDestination: getEnv("COMMUTE_DESTINATION", "Centrum, Warszawa"),
			TranslateBaseURL:   getEnv("GOOGLE_TRANSLATE_URL", "https://translation.googleapis.com"),
			MapsBaseURL:        getEnv("GOOGLE_MAPS_URL", "https://maps.googleapis.com"),
		},
		Scheduler: SchedulerConfig{
			Cron: getEnvAllowEmpty("UPSTREAM_CHECK_CRON", "@every 10m"),
		},
		Analysis: AnalysisConfig{
			AdminFeePolicy: getEnv("ADMIN_FEE_POLICY", "structured"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnvAllowEmpty("LOG_FILE", "analyzer.log"),
	}

	lookups, err := LoadLookups(os.Getenv("LOOKUPS_PATH"))
	if err != nil {
		return nil, err
	}
	cfg.Lookups = lookups

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAllowEmpty treats an explicitly empty variable as "disabled"
func getEnvAllowEmpty(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	// bare numbers are seconds
	if secs := getEnvInt(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
