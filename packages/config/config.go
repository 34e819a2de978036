// Package config
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DestDir          string
	UserAgent        string
	FetchTimeout     time.Duration
	MinimumImageSize int64
	TitlePrefix      string
	TitleQuery       string
	PageNo           int

	// Proxy configuration, applied per batch, never process-wide
	HTTPProxyHost  string
	HTTPProxyPort  int
	SocksProxyHost string
	SocksProxyPort int

	// Logging configuration
	LogFile  string
	LogLevel string

	// Optional collaborators
	MetricsAddr string
	DatabaseURL string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.87 Safari/537.36"

func Load() (Config, error) {
	cfg := Config{}

	cfg.DestDir = getEnv("DEST_DIR", ".")
	cfg.UserAgent = getEnv("USER_AGENT", defaultUserAgent)
	cfg.TitlePrefix = getEnv("TITLE_PREFIX", "")
	cfg.TitleQuery = getEnv("TITLE_QUERY", "")

	var err error
	cfg.FetchTimeout, err = time.ParseDuration(getEnv("FETCH_TIMEOUT", "60s"))
	if err != nil {
		slog.Warn("Invalid FETCH_TIMEOUT", "value", getEnv("FETCH_TIMEOUT", "60s"), "error", err)
		cfg.FetchTimeout = 60 * time.Second
	}
	cfg.MinimumImageSize, err = strconv.ParseInt(getEnv("MINIMUM_IMAGE_SIZE", "0"), 10, 64)
	if err != nil {
		slog.Warn("Invalid MINIMUM_IMAGE_SIZE", "value", getEnv("MINIMUM_IMAGE_SIZE", "0"), "error", err)
		cfg.MinimumImageSize = 0
	}
	cfg.PageNo, _ = strconv.Atoi(getEnv("PAGE_NO", "0"))

	cfg.HTTPProxyHost = getEnv("HTTP_PROXY_HOST", "")
	cfg.HTTPProxyPort, _ = strconv.Atoi(getEnv("HTTP_PROXY_PORT", "0"))
	cfg.SocksProxyHost = getEnv("SOCKS_PROXY_HOST", "")
	cfg.SocksProxyPort, _ = strconv.Atoi(getEnv("SOCKS_PROXY_PORT", "0"))

	cfg.LogFile = getEnv("LOG_FILE", "logs/imagedl.log")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
