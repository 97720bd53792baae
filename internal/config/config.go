package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DefaultTimeZone is used for recurrence math when a task carries no zone.
const DefaultTimeZone = "America/New_York"

// Config keeps runtime settings for the service.
type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	JWTSecret        string
	TokenTTL         time.Duration
	TelegramToken    string
	ReportInterval   time.Duration
	TriggerSweep     time.Duration
	FallbackTimeZone string
}

// Load reads configuration from environment variables with sane defaults.
// Variables already set in the environment win over a local .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:         strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:         parseHours(strings.TrimSpace(os.Getenv("TOKEN_TTL_HOURS"))),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ReportInterval:   parseHours(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		TriggerSweep:     parseSeconds(strings.TrimSpace(os.Getenv("TRIGGER_SWEEP_SECONDS"))),
		FallbackTimeZone: strings.TrimSpace(os.Getenv("FALLBACK_TIME_ZONE")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "protaskinate.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}
	if cfg.TriggerSweep == 0 {
		cfg.TriggerSweep = 10 * time.Second
	}
	if cfg.FallbackTimeZone == "" {
		cfg.FallbackTimeZone = DefaultTimeZone
	}
	if _, err := time.LoadLocation(cfg.FallbackTimeZone); err != nil {
		return cfg, fmt.Errorf("FALLBACK_TIME_ZONE %q: %w", cfg.FallbackTimeZone, err)
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
