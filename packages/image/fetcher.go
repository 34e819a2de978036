// Package image downloads a single image to disk. One Fetch call is fully
// isolated: every failure path resolves to an outcome value, never a panic
// or an error crossing the worker boundary.
package image

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CrazyJK/image-download/packages/domain"
	"github.com/CrazyJK/image-download/packages/metrics"
)

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch executes one DownloadTask and returns its terminal outcome.
func (f *Fetcher) Fetch(ctx context.Context, task domain.DownloadTask) domain.DownloadOutcome {
	slog.Debug("Start downloading", "url", task.SourceURL, "index", task.SequenceIndex)
	start := time.Now()
	defer func() {
		metrics.DownloadDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, "GET", task.SourceURL, nil)
	if err != nil {
		return f.failed(task, "connect fail")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("Image request failed", "url", task.SourceURL, "error", err)
		return f.failed(task, "connect fail")
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return f.failed(task, "entity is null")
	}
	if resp.ContentLength < task.MinimumBytes {
		slog.Debug("Entity is small", "url", task.SourceURL, "length", resp.ContentLength, "minimum", task.MinimumBytes)
		return f.skipped(task, "too small")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return f.failed(task, "contentType is null")
	}
	if !strings.HasPrefix(contentType, "image") {
		return f.failed(task, "not an image. "+contentType)
	}

	info, err := os.Stat(task.DestDir)
	if err != nil || !info.IsDir() {
		return f.failed(task, "destination is not a directory")
	}

	name := FileName(task.TitleHint, task.SourceURL, task.SequenceIndex, contentType)
	path := filepath.Join(task.DestDir, name)

	written, err := writeFile(path, resp.Body)
	if err != nil {
		slog.Debug("Image write failed", "url", task.SourceURL, "path", path, "error", err)
		return f.failed(task, err.Error())
	}
	metrics.ImageBytes.Add(float64(written))

	slog.Debug("Saved image", "path", path, "url", task.SourceURL, "bytes", written)
	return domain.DownloadOutcome{
		Kind:          domain.Saved,
		SequenceIndex: task.SequenceIndex,
		SourceURL:     task.SourceURL,
		Path:          path,
	}
}

// writeFile streams body to path, overwriting an existing file. A write
// that fails midway leaves nothing behind.
func writeFile(path string, body io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}

func (f *Fetcher) failed(task domain.DownloadTask, cause string) domain.DownloadOutcome {
	slog.Debug("Download failed", "url", task.SourceURL, "cause", cause)
	return domain.DownloadOutcome{
		Kind:          domain.Failed,
		SequenceIndex: task.SequenceIndex,
		SourceURL:     task.SourceURL,
		Cause:         cause,
	}
}

func (f *Fetcher) skipped(task domain.DownloadTask, reason string) domain.DownloadOutcome {
	return domain.DownloadOutcome{
		Kind:          domain.Skipped,
		SequenceIndex: task.SequenceIndex,
		SourceURL:     task.SourceURL,
		Reason:        reason,
	}
}
