// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"rent_bot/internal/search"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	ScanInterval  time.Duration
	MaxPages      int
	PageDelay     time.Duration
	SendDelay     time.Duration
	RetryMargin   time.Duration
	FetchTimeout  time.Duration
	SearchBaseURL string
	MetricsAddr   string
	StrictMatch   bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg := &Config{
		TelegramBotToken: token,
		DatabasePath:     envOr("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		SearchBaseURL:    envOr("SEARCH_BASE_URL", search.DefaultBaseURL),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			cfg.AllowedUsers = append(cfg.AllowedUsers, uid)
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"SCAN_INTERVAL", 5 * time.Minute, &cfg.ScanInterval},
		{"PAGE_DELAY", time.Second, &cfg.PageDelay},
		{"SEND_DELAY", 500 * time.Millisecond, &cfg.SendDelay},
		{"RETRY_MARGIN", time.Second, &cfg.RetryMargin},
		{"FETCH_TIMEOUT", 10 * time.Second, &cfg.FetchTimeout},
	}
	for _, d := range durations {
		v, err := durationEnv(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("SCAN_INTERVAL must be positive")
	}

	if raw := os.Getenv("STRICT_MATCH"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid STRICT_MATCH %q: %w", raw, err)
		}
		cfg.StrictMatch = v
	}

	maxPages, err := intEnv("MAX_PAGES", 3)
	if err != nil {
		return nil, err
	}
	if maxPages < 1 {
		return nil, fmt.Errorf("MAX_PAGES must be at least 1, got %d", maxPages)
	}
	cfg.MaxPages = maxPages

	u, err := url.Parse(cfg.SearchBaseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("SEARCH_BASE_URL must be an absolute URL, got %q", cfg.SearchBaseURL)
	}

	return cfg, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, d)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
