// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as API keys, portal scraping behavior, database paths, logging, rate
// limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the read API.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PortalConfig groups the tunables of the captcha-protected road-tax portal.
type PortalConfig struct {
	URL            string        // PORTAL_URL
	SettleDelay    time.Duration // initial page settle before probing the captcha frame
	ElementWait    time.Duration // per-element wait budget
	ExpiryWait     time.Duration // wait budget for the optional tax-expiry field
	CropWidth      int           // captcha crop region width
	CropHeight     int           // captcha crop region height
	AssetPollTries int           // cropped-asset availability polls
	AssetPollEvery time.Duration // interval between polls
	MaxRuntime     time.Duration // session watchdog bound; exceeding it is fatal
	WatchdogEvery  time.Duration // watchdog check interval
}

// Config holds all configuration values for the application.
type Config struct {
	// Collaborator credentials
	TelegramToken string // TELEGRAM_TOKEN
	CaptchaKey    string // CAPTCHA_KEY (2captcha)
	SerpAPIKey    string // SERPAPI_KEY

	// App
	DBPath   string // SQLite path
	CacheDir string // scratch dir for captcha screenshots and image variants

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Portal scraping
	Portal PortalConfig

	// Sweep
	SweepMaxPages int // runaway guard for listing pagination

	// Read API server
	Port              string
	GinMode           string // debug|release|test
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RateRPS           float64
	RateBurst         int
	CORS              CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken: getenv("TELEGRAM_TOKEN", ""),
		CaptchaKey:    getenv("CAPTCHA_KEY", ""),
		SerpAPIKey:    getenv("SERPAPI_KEY", ""),

		DBPath:   getenv("DB_PATH", "sgtaxbot.db"),
		CacheDir: getenv("CACHE_DIR", ".cache"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Portal: PortalConfig{
			URL:            getenv("PORTAL_URL", "https://vrl.lta.gov.sg/lta/vrl/action/pubfunc?ID=EnquireRoadTaxExpDtProxy"),
			SettleDelay:    getdur("PORTAL_SETTLE_DELAY", 1250*time.Millisecond),
			ElementWait:    getdur("PORTAL_ELEMENT_WAIT", 3*time.Second),
			ExpiryWait:     getdur("PORTAL_EXPIRY_WAIT", 2500*time.Millisecond),
			CropWidth:      getint("PORTAL_CROP_WIDTH", 380),
			CropHeight:     getint("PORTAL_CROP_HEIGHT", 100),
			AssetPollTries: getint("PORTAL_ASSET_POLL_TRIES", 5),
			AssetPollEvery: getdur("PORTAL_ASSET_POLL_EVERY", time.Second),
			MaxRuntime:     getdur("PORTAL_MAX_RUNTIME", 5*time.Minute),
			WatchdogEvery:  getdur("PORTAL_WATCHDOG_EVERY", 30*time.Second),
		},

		SweepMaxPages: getint("SWEEP_MAX_PAGES", 20),

		Port:              getenv("PORT", "3000"),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		RateRPS:           getfloat("RATE_RPS", 5.0),
		RateBurst:         getint("RATE_BURST", 10),
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "sgtaxbot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return cfg, errors.New("CACHE_DIR must not be empty")
	}
	if strings.TrimSpace(cfg.Portal.URL) == "" {
		return cfg, errors.New("PORTAL_URL must not be empty")
	}
	if cfg.Portal.CropWidth <= 0 || cfg.Portal.CropHeight <= 0 {
		return cfg, errors.New("portal crop region must be positive")
	}
	if cfg.Portal.AssetPollTries < 1 {
		return cfg, errors.New("PORTAL_ASSET_POLL_TRIES must be >= 1")
	}
	if cfg.Portal.MaxRuntime <= 0 || cfg.Portal.WatchdogEvery <= 0 {
		return cfg, errors.New("portal watchdog durations must be positive")
	}
	if cfg.SweepMaxPages < 1 {
		return cfg, errors.New("SWEEP_MAX_PAGES must be >= 1")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// RequireBotCredentials validates the collaborator keys the lookup bot needs.
// The sweep and the read API run without them, so Load does not enforce this.
func (c Config) RequireBotCredentials() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.CaptchaKey == "" {
		missing = append(missing, "CAPTCHA_KEY")
	}
	if c.SerpAPIKey == "" {
		missing = append(missing, "SERPAPI_KEY")
	}
	if len(missing) > 0 {
		return errors.New("missing environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
