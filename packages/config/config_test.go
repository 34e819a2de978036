package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FetchTimeout != 60*time.Second {
		t.Errorf("FetchTimeout = %v, expected 60s", cfg.FetchTimeout)
	}
	if cfg.MinimumImageSize != 0 {
		t.Errorf("MinimumImageSize = %d, expected 0", cfg.MinimumImageSize)
	}
	if cfg.DestDir != "." {
		t.Errorf("DestDir = %q, expected %q", cfg.DestDir, ".")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, expected %q", cfg.LogLevel, "info")
	}
	if cfg.UserAgent == "" {
		t.Error("UserAgent should have a default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("MINIMUM_IMAGE_SIZE", "51200")
	t.Setenv("DEST_DIR", "/data/images")
	t.Setenv("HTTP_PROXY_HOST", "proxy.local")
	t.Setenv("HTTP_PROXY_PORT", "8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, expected 5s", cfg.FetchTimeout)
	}
	if cfg.MinimumImageSize != 51200 {
		t.Errorf("MinimumImageSize = %d, expected 51200", cfg.MinimumImageSize)
	}
	if cfg.DestDir != "/data/images" {
		t.Errorf("DestDir = %q, expected %q", cfg.DestDir, "/data/images")
	}
	if cfg.HTTPProxyHost != "proxy.local" || cfg.HTTPProxyPort != 8080 {
		t.Errorf("proxy = %s:%d, expected proxy.local:8080", cfg.HTTPProxyHost, cfg.HTTPProxyPort)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	t.Setenv("MINIMUM_IMAGE_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FetchTimeout != 60*time.Second {
		t.Errorf("FetchTimeout = %v, expected fallback 60s", cfg.FetchTimeout)
	}
	if cfg.MinimumImageSize != 0 {
		t.Errorf("MinimumImageSize = %d, expected fallback 0", cfg.MinimumImageSize)
	}
}
