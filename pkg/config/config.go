// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default upstream servers, tried in priority order.
var defaultAPIServers = []string{
	"http://streamedez.hidenmc.com:24670",
	"http://june.hidencloud.com:24670",
	"http://fi7.bot-hosting.net:22382",
}

// Durations holds per-sport live-window lengths in hours.
type Durations struct {
	Soccer     int
	Football   int
	Basketball int
	Baseball   int
	Hockey     int
	Fighting   int
	Racing     int
	Cricket    int
	Default    int
}

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port         int
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Upstream API settings
	APIServers []string
	APITimeout time.Duration

	// Outbound proxy (optional, e.g. socks5://host:port)
	GlobalProxies []string

	// Storage
	DataDir      string
	CacheDir     string
	ClientIDFile string

	// Cache policy
	SportsTTLHours   float64
	SnapshotTTLHours float64
	CleanupMaxAge    time.Duration

	// Match windows
	Durations      Durations
	PreGameWindow  time.Duration
	GraceWindow    time.Duration
	ShowAllMatches bool

	// Stream resolution
	StreamTimeout time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	port := getEnvInt("PORT", 7860)
	dataDir := getEnvString("DATA_DIR", "data")

	cfg := &Config{
		Port:         port,
		BaseURL:      getEnvString("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 60*time.Second),

		APIServers: getEnvStringSlice("API_SERVERS", defaultAPIServers),
		APITimeout: getEnvDuration("API_TIMEOUT", 2*time.Second),

		GlobalProxies: getEnvStringSlice("GLOBAL_PROXIES", nil),

		DataDir:      dataDir,
		CacheDir:     getEnvString("CACHE_DIR", filepath.Join(dataDir, "cache")),
		ClientIDFile: getEnvString("CLIENT_ID_FILE", filepath.Join(dataDir, "client_id")),

		// sports taxonomy is near-static, the match snapshot is not
		SportsTTLHours:   getEnvFloat("SPORTS_TTL_HOURS", 24),
		SnapshotTTLHours: getEnvFloat("SNAPSHOT_TTL_HOURS", 0.08),
		CleanupMaxAge:    getEnvDuration("CACHE_MAX_AGE", 48*time.Hour),

		Durations: Durations{
			Soccer:     getEnvInt("DURATION_SOCCER", 3),
			Football:   getEnvInt("DURATION_FOOTBALL", 4),
			Basketball: getEnvInt("DURATION_BASKETBALL", 3),
			Baseball:   getEnvInt("DURATION_BASEBALL", 4),
			Hockey:     getEnvInt("DURATION_HOCKEY", 3),
			Fighting:   getEnvInt("DURATION_FIGHTING", 6),
			Racing:     getEnvInt("DURATION_RACING", 4),
			Cricket:    getEnvInt("DURATION_CRICKET", 8),
			Default:    getEnvInt("DURATION_DEFAULT", 4),
		},
		PreGameWindow:  getEnvDuration("PRE_GAME_WINDOW", 30*time.Minute),
		GraceWindow:    getEnvDuration("GRACE_WINDOW", 5*time.Minute),
		ShowAllMatches: getEnvBool("SHOW_ALL_MATCHES", false),

		StreamTimeout: getEnvDuration("STREAM_TIMEOUT", 10*time.Second),

		LogLevel: getEnvString("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}

	// Legacy single proxy support
	if globalProxy := os.Getenv("GLOBAL_PROXY"); globalProxy != "" && len(cfg.GlobalProxies) == 0 {
		cfg.GlobalProxies = []string{globalProxy}
	}

	return cfg
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
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

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		// Try parsing as duration string
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}
