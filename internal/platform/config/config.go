// Package config loads the server configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server-wide settings.
type Config struct {
	Port                string        // HTTP listen port
	ConfidenceThreshold float64       // Percent a prediction must exceed to be shown
	MaxUploadBytes      int           // Upload size limit in bytes
	MaxImagePixels      int           // Decoded width*height limit, checked from the image header
	RateLimit           string        // ulule/limiter formatted rate, e.g. "30-M"
	CORSAllowOrigins    []string      // Allowed origins for the JSON API; empty disables CORS
	TrustedProxies      []string      // Proxies whose X-Forwarded-For is honored; empty trusts none
	LogLevel            string        // debug, info, warn, error
	LogFile             string        // Rotated log file path; empty logs to stdout only
	PredictionCacheTTL  time.Duration // TTL of cached predictions in Redis
}

// LoadConfig loads the server configuration from environment variables, applying defaults.
func LoadConfig() Config {
	return Config{
		Port:                getString("PORT", "8080"),
		ConfidenceThreshold: getFloat("CONFIDENCE_THRESHOLD", 70),
		MaxUploadBytes:      getInt("MAX_UPLOAD_BYTES", 10*1024*1024),
		MaxImagePixels:      getInt("MAX_IMAGE_PIXELS", 50_000_000),
		RateLimit:           getString("RATE_LIMIT", "30-M"),
		CORSAllowOrigins:    getList("CORS_ALLOW_ORIGINS"),
		TrustedProxies:      getList("TRUSTED_PROXIES"),
		LogLevel:            getString("LOG_LEVEL", "info"),
		LogFile:             os.Getenv("LOG_FILE"),
		PredictionCacheTTL:  getDuration("PREDICTION_CACHE_TTL", 24*time.Hour),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
