// Package domain
package domain

import "time"

type OutcomeKind string

const (
	Saved   OutcomeKind = "saved"
	Skipped OutcomeKind = "skipped"
	Failed  OutcomeKind = "failed"
)

// DownloadTask is one planned image fetch. Built once per matched img
// reference during scraping, then consumed by exactly one worker.
type DownloadTask struct {
	SourceURL     string
	DestDir       string
	TitleHint     string
	SequenceIndex int
	MinimumBytes  int64
}

// DownloadOutcome is the terminal result of one DownloadTask.
type DownloadOutcome struct {
	Kind          OutcomeKind
	SequenceIndex int
	SourceURL     string
	Path          string // set when Kind == Saved
	Reason        string // set when Kind == Skipped
	Cause         string // set when Kind == Failed
}

// PageContent is what the scraper yields from one fetched page.
type PageContent struct {
	FinalURL  string
	Title     string
	Language  string
	ImageSrcs []string
}

// BatchResult covers one page-level download invocation.
// Succeeded reports that the page was retrievable and scraping found at
// least one image reference, not that every image came through.
type BatchResult struct {
	BatchID    string
	PageURL    string
	Title      string
	Language   string
	Succeeded  bool
	SavedCount int
	Message    string
	SavedFiles []string
	Outcomes   []DownloadOutcome
	Elapsed    time.Duration
}

func (r *BatchResult) SkippedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == Skipped {
			n++
		}
	}
	return n
}

func (r *BatchResult) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == Failed {
			n++
		}
	}
	return n
}
