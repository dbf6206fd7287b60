package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"batchgen/internal/speed"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int

	StoragePath    string
	StorageBaseURL string
	ThumbnailSize  int

	GeminiAPIKey      string
	GeminiModel       string
	GeminiImageModel  string
	GeminiBaseURL     string
	GeminiHTTPTimeout time.Duration

	BatchItemDelay    time.Duration
	BatchPacingPolicy string

	SpeedMinDelay         time.Duration
	SpeedMaxDelay         time.Duration
	SpeedBaseDelay        time.Duration
	SpeedSuccessThreshold float64
	SpeedErrorThreshold   float64
	SpeedAdjustmentFactor float64
	SpeedWindowSize       int

	WorkerPollInterval time.Duration
	WorkerStaleAfter   time.Duration

	NATSURL             string
	NATSProgressSubject string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	CORSAllowedOrigins []string
	AdminJWTSecret     string
	DefaultLocale      string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	defaults := speed.DefaultConfig()
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: os.Getenv("STORAGE_BASE_URL"),
		ThumbnailSize:  getEnvInt("THUMBNAIL_SIZE", 320),

		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiHTTPTimeout: getEnvDuration("GEMINI_HTTP_TIMEOUT", 90*time.Second),

		BatchItemDelay:    getEnvDuration("BATCH_ITEM_DELAY", 3*time.Second),
		BatchPacingPolicy: getEnv("BATCH_PACING_POLICY", "fixed"),

		SpeedMinDelay:         getEnvDuration("SPEED_MIN_DELAY", defaults.MinDelay),
		SpeedMaxDelay:         getEnvDuration("SPEED_MAX_DELAY", defaults.MaxDelay),
		SpeedBaseDelay:        getEnvDuration("SPEED_BASE_DELAY", defaults.BaseDelay),
		SpeedSuccessThreshold: getEnvFloat("SPEED_SUCCESS_THRESHOLD", defaults.SuccessThreshold),
		SpeedErrorThreshold:   getEnvFloat("SPEED_ERROR_THRESHOLD", defaults.ErrorThreshold),
		SpeedAdjustmentFactor: getEnvFloat("SPEED_ADJUSTMENT_FACTOR", defaults.AdjustmentFactor),
		SpeedWindowSize:       getEnvInt("SPEED_WINDOW_SIZE", defaults.WindowSize),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerStaleAfter:   getEnvDuration("WORKER_STALE_AFTER", 10*time.Minute),

		NATSURL:             os.Getenv("NATS_URL"),
		NATSProgressSubject: getEnv("NATS_PROGRESS_SUBJECT", "batch.progress"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AdminJWTSecret:     strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET")),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DBMaxConns < 1 {
		cfg.DBMaxConns = 1
	}
	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = "http://localhost:" + cfg.Port + "/static"
	}
	if cfg.SpeedMinDelay > cfg.SpeedMaxDelay {
		return nil, fmt.Errorf("SPEED_MIN_DELAY (%s) exceeds SPEED_MAX_DELAY (%s)", cfg.SpeedMinDelay, cfg.SpeedMaxDelay)
	}

	return cfg, nil
}

// SpeedConfig returns the controller tuning carried by the environment.
func (c *Config) SpeedConfig() speed.Config {
	return speed.Config{
		MinDelay:         c.SpeedMinDelay,
		MaxDelay:         c.SpeedMaxDelay,
		BaseDelay:        c.SpeedBaseDelay,
		SuccessThreshold: c.SpeedSuccessThreshold,
		ErrorThreshold:   c.SpeedErrorThreshold,
		AdjustmentFactor: c.SpeedAdjustmentFactor,
		WindowSize:       c.SpeedWindowSize,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("750ms", "2s") and bare integers as
// milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
