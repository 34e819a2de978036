// Package batch orchestrates one page-level image download: fetch the
// page, scrape it, fan the image tasks out over a bounded worker pool and
// aggregate every outcome into a single BatchResult.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/CrazyJK/image-download/packages/domain"
	"github.com/CrazyJK/image-download/packages/image"
	"github.com/CrazyJK/image-download/packages/metrics"
	"github.com/CrazyJK/image-download/packages/scraper"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 60 * time.Second

// ProxyConfig routes one batch's requests through a proxy. It is carried
// on the options and applied to the batch-scoped transport only; nothing
// process-wide is mutated.
type ProxyConfig struct {
	HTTPHost  string
	HTTPPort  int
	SocksHost string
	SocksPort int
}

func (p *ProxyConfig) proxyURL() (*url.URL, error) {
	switch {
	case p.HTTPHost != "":
		return url.Parse(fmt.Sprintf("http://%s:%d", p.HTTPHost, p.HTTPPort))
	case p.SocksHost != "":
		return url.Parse(fmt.Sprintf("socks5://%s:%d", p.SocksHost, p.SocksPort))
	}
	return nil, nil
}

type Options struct {
	TitlePrefix  string
	PageNo       int
	TitleQuery   string
	MinimumBytes int64
	Timeout      time.Duration
	Proxy        *ProxyConfig
}

type Coordinator struct {
	userAgent string
}

func New(userAgent string) *Coordinator {
	return &Coordinator{userAgent: userAgent}
}

// Run downloads every qualifying image of one page into destDir. It always
// returns a BatchResult; page-level failures surface as Succeeded=false
// with a message, task-level failures stay inside the per-task outcomes.
func (c *Coordinator) Run(ctx context.Context, pageURL, destDir string, opts Options) domain.BatchResult {
	batchID := uuid.NewString()
	start := time.Now()
	result := domain.BatchResult{BatchID: batchID, PageURL: pageURL}
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	slog.Info("Start download", "batch_id", batchID, "url", pageURL)

	pageTransport, err := newTransport(opts.Proxy, timeout)
	if err != nil {
		slog.Error("Invalid proxy configuration", "batch_id", batchID, "error", err)
		result.Message = "could not connect"
		result.Elapsed = time.Since(start)
		return result
	}
	pageClient := &http.Client{Transport: pageTransport, Timeout: timeout}
	defer pageTransport.CloseIdleConnections()

	html, finalURL, err := c.fetchPage(ctx, pageClient, pageURL)
	metrics.PagesFetched.Inc()
	if err != nil {
		slog.Error("Page fetch failed", "batch_id", batchID, "url", pageURL, "error", err)
		result.Message = "could not connect"
		result.Elapsed = time.Since(start)
		return result
	}

	content, err := scraper.Extract(html, finalURL, scraper.ExtractOptions{
		TitlePrefix: opts.TitlePrefix,
		PageNo:      opts.PageNo,
		TitleQuery:  opts.TitleQuery,
	})
	if err != nil {
		var scrapeErr *scraper.ScrapeError
		if errors.As(err, &scrapeErr) {
			result.Message = scrapeErr.Message
		} else {
			result.Message = err.Error()
		}
		slog.Error("Scrape failed", "batch_id", batchID, "url", pageURL, "message", result.Message)
		result.Elapsed = time.Since(start)
		return result
	}
	result.Title = content.Title
	result.Language = content.Language

	tasks := buildTasks(content, destDir, opts.MinimumBytes)
	workers := poolSize(len(tasks))

	// Batch-scoped connection pool, sized so the batch can saturate its
	// own concurrency without starving itself. Torn down with the batch.
	// Proxy config was already validated for the page transport.
	imageTransport, _ := newTransport(opts.Proxy, timeout)
	imageTransport.MaxIdleConns = len(tasks)
	imageTransport.MaxIdleConnsPerHost = workers
	imageClient := &http.Client{Transport: imageTransport, Timeout: timeout}
	defer imageTransport.CloseIdleConnections()

	slog.Debug("Dispatching tasks", "batch_id", batchID, "tasks", len(tasks), "workers", workers)

	outcomes := dispatch(ctx, imageClient, c.userAgent, tasks, workers)

	for _, o := range outcomes {
		metrics.ImageOutcomes.WithLabelValues(string(o.Kind)).Inc()
		if o.Kind == domain.Saved {
			result.SavedFiles = append(result.SavedFiles, o.Path)
		}
	}
	result.Outcomes = outcomes
	result.SavedCount = len(result.SavedFiles)
	result.Succeeded = true
	result.Elapsed = time.Since(start)

	slog.Info("Batch finished", "batch_id", batchID, "url", pageURL,
		"saved", result.SavedCount, "skipped", result.SkippedCount(), "failed", result.FailedCount(),
		"elapsed", result.Elapsed)
	return result
}

func (c *Coordinator) fetchPage(ctx context.Context, client *http.Client, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Request.URL.String(), nil
}

// buildTasks turns the scraped image references into tasks in document
// order, sequence indexes starting at 1.
func buildTasks(content *domain.PageContent, destDir string, minimumBytes int64) []domain.DownloadTask {
	tasks := make([]domain.DownloadTask, 0, len(content.ImageSrcs))
	for i, src := range content.ImageSrcs {
		tasks = append(tasks, domain.DownloadTask{
			SourceURL:     src,
			DestDir:       destDir,
			TitleHint:     content.Title,
			SequenceIndex: i + 1,
			MinimumBytes:  minimumBytes,
		})
	}
	return tasks
}

// poolSize is the worker count for n tasks: one worker per ten images,
// never less than one.
func poolSize(n int) int {
	size := n / 10
	if size < 1 {
		return 1
	}
	return size
}

// dispatch runs every task to a terminal outcome. Outcomes land in
// per-task slots, so the slice is already in sequence order when the
// group joins. A cancelled context stops new tasks from starting; those
// resolve as skipped rather than disappearing, while tasks already in
// flight run on a detached context so they finish or hit the client
// timeout instead of being aborted mid-request.
func dispatch(ctx context.Context, client *http.Client, userAgent string, tasks []domain.DownloadTask, workers int) []domain.DownloadOutcome {
	fetcher := image.New(client, userAgent)
	outcomes := make([]domain.DownloadOutcome, len(tasks))
	detached := context.WithoutCancel(ctx)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, task := range tasks {
		g.Go(func() error {
			if gCtx.Err() != nil {
				outcomes[i] = domain.DownloadOutcome{
					Kind:          domain.Skipped,
					SequenceIndex: task.SequenceIndex,
					SourceURL:     task.SourceURL,
					Reason:        "cancelled",
				}
				return nil
			}
			outcomes[i] = fetcher.Fetch(detached, task)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func newTransport(proxy *ProxyConfig, timeout time.Duration) (*http.Transport, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout: 90 * time.Second,
	}
	if proxy != nil {
		proxyURL, err := proxy.proxyURL()
		if err != nil {
			return nil, err
		}
		if proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return transport, nil
}
