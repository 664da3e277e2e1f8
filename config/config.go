package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig

	// DotEnvErr is set when a .env file exists but could not be read. Load
	// runs before logging is configured, so the caller reports it.
	DotEnvErr error
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"
}

// Debug reports whether error details may be exposed to clients.
func (s ServerConfig) Debug() bool { return s.Mode == "debug" }

// BrowserConfig controls the Chromium instance launched per session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// ViewportWidth and ViewportHeight size the emulated window.
	ViewportWidth  int // default: 1920
	ViewportHeight int // default: 1080

	// AcceptLanguage is sent with every request.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// ScraperConfig controls extraction and retry behavior.
type ScraperConfig struct {
	// MaxAttempts is the retry budget per username.
	MaxAttempts int // default: 3

	// BackoffMin and BackoffMax bound the random pause between attempts.
	BackoffMin time.Duration // default: 2s
	BackoffMax time.Duration // default: 5s

	// NavigationTimeout bounds one page load.
	NavigationTimeout time.Duration // default: 30s

	// MetadataWait is how long to wait for the structured-data script.
	MetadataWait time.Duration // default: 10s

	// GracePause is slept when the structured-data script never appears.
	GracePause time.Duration // default: 2s

	// BlockedResourceTypes lists resource types to abort.
	// default: ["image", "stylesheet", "font", "media"]
	BlockedResourceTypes []string

	// ProfileBaseURL is the origin profile pages live under.
	ProfileBaseURL string // default: "https://www.instagram.com"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty disables authentication.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client. Zero disables limiting.
	RequestsPerSecond float64 // default: 0

	// Burst is the maximum burst size per client.
	Burst int // default: 5
}

// CacheConfig controls the profile record cache.
type CacheConfig struct {
	// TTL is how long a record is served from memory. Zero disables the cache.
	TTL time.Duration // default: 0

	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads a .env file if present and then configuration from environment
// variables with sane defaults. Variables already set in the environment win
// over the .env file.
func Load() *Config {
	var dotEnvErr error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		dotEnvErr = err
	}

	return &Config{
		DotEnvErr: dotEnvErr,
		Server: ServerConfig{
			Host: envOr("HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 3000),
			Mode: envOr("GIN_MODE", envOr("SERVER_MODE", "release")),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("BROWSER_HEADLESS", true),
			NoSandbox:      envBoolOr("BROWSER_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("BROWSER_BIN"),
			ViewportWidth:  envIntOr("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: envOr("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Scraper: ScraperConfig{
			MaxAttempts:       envIntOr("SCRAPER_MAX_ATTEMPTS", 3),
			BackoffMin:        envDurationOr("SCRAPER_BACKOFF_MIN", 2*time.Second),
			BackoffMax:        envDurationOr("SCRAPER_BACKOFF_MAX", 5*time.Second),
			NavigationTimeout: envDurationOr("SCRAPER_NAV_TIMEOUT", 30*time.Second),
			MetadataWait:      envDurationOr("SCRAPER_METADATA_WAIT", 10*time.Second),
			GracePause:        envDurationOr("SCRAPER_GRACE_PAUSE", 2*time.Second),
			BlockedResourceTypes: envSliceOr("SCRAPER_BLOCKED_RESOURCES", []string{
				"image", "stylesheet", "font", "media",
			}),
			ProfileBaseURL: strings.TrimRight(envOr("SCRAPER_PROFILE_BASE_URL", "https://www.instagram.com"), "/"),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RATE_LIMIT_RPS", 0),
			Burst:             envIntOr("RATE_LIMIT_BURST", 5),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("CACHE_TTL", 0),
			MaxEntries: envIntOr("CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
