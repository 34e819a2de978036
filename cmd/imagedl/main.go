package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/CrazyJK/image-download/packages/batch"
	"github.com/CrazyJK/image-download/packages/config"
	"github.com/CrazyJK/image-download/packages/domain"
	"github.com/CrazyJK/image-download/packages/metrics"
	"github.com/CrazyJK/image-download/packages/store"

	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogger(cfg config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logDir := filepath.Dir(cfg.LogFile)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error(
			"Failed to create log directory", "path", logDir, "error", err,
		)
	}

	logRotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}

	multiWriter := io.MultiWriter(os.Stdout, logRotator)

	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}).WithAttrs([]slog.Attr{slog.String("service", "imagedl")})

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// batchRecorder receives finished batches. Satisfied by store.Storage;
// nil means no history is kept.
type batchRecorder interface {
	RecordBatch(domain.BatchResult)
}

// runBatches dispatches one batch per page URL and reports the number of
// page-level failures. A cancelled context stops the loop before the
// next batch is started, whatever the previous batch did.
func runBatches(ctx context.Context, coordinator *batch.Coordinator, history batchRecorder, pageURLs []string, destDir string, opts batch.Options) int {
	failures := 0
	for _, pageURL := range pageURLs {
		if ctx.Err() != nil {
			slog.Info("Shutdown signal received. Exiting...")
			break
		}
		result := coordinator.Run(ctx, pageURL, destDir, opts)
		if history != nil {
			history.RecordBatch(result)
		}
		if !result.Succeeded {
			failures++
			slog.Error("Batch failed", "url", pageURL, "message", result.Message)
			continue
		}
		slog.Info("Batch succeeded", "url", pageURL,
			"saved", result.SavedCount, "skipped", result.SkippedCount(), "failed", result.FailedCount())
	}
	return failures
}

// main only translates run's exit code; everything with a deferred
// cleanup lives in run so the defers complete before the process exits.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("FATAL: Failed to load configuration", "error", err)
		return 1
	}

	destDir := flag.String("dest", cfg.DestDir, "destination directory (must exist)")
	titlePrefix := flag.String("prefix", cfg.TitlePrefix, "title prefix for saved files")
	titleQuery := flag.String("title-query", cfg.TitleQuery, "CSS query resolving the page title")
	pageNo := flag.Int("page", cfg.PageNo, "page number token for the title")
	minimumSize := flag.Int64("min-size", cfg.MinimumImageSize, "minimum image size in bytes; smaller images are skipped")
	timeout := flag.Duration("timeout", cfg.FetchTimeout, "connect and read timeout")
	flag.Parse()

	setupLogger(cfg)

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: imagedl [flags] <page-url> [<page-url> ...]")
		flag.PrintDefaults()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting image downloader ---")

	if cfg.MetricsAddr != "" {
		go metrics.ExposeMetrics(cfg.MetricsAddr)
	}

	var history batchRecorder
	if cfg.DatabaseURL != "" {
		storage, err := store.New(ctx, cfg.DatabaseURL, store.Config{})
		if err != nil {
			slog.Error("Failed to initialize download history", "error", err)
			return 1
		}
		defer storage.Close()
		history = storage
	}

	opts := batch.Options{
		TitlePrefix:  *titlePrefix,
		PageNo:       *pageNo,
		TitleQuery:   *titleQuery,
		MinimumBytes: *minimumSize,
		Timeout:      *timeout,
	}
	if cfg.HTTPProxyHost != "" || cfg.SocksProxyHost != "" {
		opts.Proxy = &batch.ProxyConfig{
			HTTPHost:  cfg.HTTPProxyHost,
			HTTPPort:  cfg.HTTPProxyPort,
			SocksHost: cfg.SocksProxyHost,
			SocksPort: cfg.SocksProxyPort,
		}
	}

	coordinator := batch.New(cfg.UserAgent)

	if failures := runBatches(ctx, coordinator, history, flag.Args(), *destDir, opts); failures > 0 {
		return 1
	}
	return 0
}
