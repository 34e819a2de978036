// Package store keeps a download history in Postgres. It is optional: the
// coordinator never touches it, the binary wires it in only when a
// database URL is configured.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CrazyJK/image-download/packages/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	DB          *pgxpool.Pool
	cfg         Config
	resultQueue chan domain.BatchResult
	done        chan struct{}
}

type Config struct {
	WriteInterval  time.Duration
	WriteQueueSize int
}

const schema = `
CREATE TABLE IF NOT EXISTS batches (
	batch_id    text PRIMARY KEY,
	page_url    text NOT NULL,
	title       text NOT NULL DEFAULT '',
	language    text NOT NULL DEFAULT '',
	succeeded   boolean NOT NULL,
	saved_count integer NOT NULL,
	message     text NOT NULL DEFAULT '',
	elapsed_ms  bigint NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS batch_images (
	batch_id       text NOT NULL REFERENCES batches(batch_id),
	sequence_index integer NOT NULL,
	source_url     text NOT NULL,
	kind           text NOT NULL,
	path           text NOT NULL DEFAULT '',
	detail         text NOT NULL DEFAULT '',
	PRIMARY KEY (batch_id, sequence_index)
);`

func New(ctx context.Context, databaseURL string, cfg Config) (*Storage, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}

	if cfg.WriteInterval <= 0 {
		cfg.WriteInterval = 2 * time.Second
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = 64
	}

	s := &Storage{
		DB:          db,
		cfg:         cfg,
		resultQueue: make(chan domain.BatchResult, cfg.WriteQueueSize),
		done:        make(chan struct{}),
	}

	go s.resultWriter(ctx)
	slog.Info("History writer goroutine started")

	return s, nil
}

// Close flushes queued results and tears the pool down.
func (s *Storage) Close() {
	close(s.resultQueue)
	<-s.done
	s.DB.Close()
}

// RecordBatch enqueues a finished batch for the background writer.
func (s *Storage) RecordBatch(result domain.BatchResult) {
	select {
	case s.resultQueue <- result:
	default:
		slog.Warn("History queue is full. Dropping batch.", "batch_id", result.BatchID)
	}
}

func (s *Storage) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

func (s *Storage) resultWriter(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.WriteInterval)
	defer ticker.Stop()
	var pending []domain.BatchResult

	for {
		select {
		case <-ctx.Done():
			pending = append(pending, s.drainQueued()...)
			if len(pending) > 0 {
				slog.Info("History writer: Final write on shutdown...")
				s.writeResults(context.Background(), pending)
			}
			slog.Info("History writer: Shutdown.")
			return
		case result, ok := <-s.resultQueue:
			if !ok {
				if len(pending) > 0 {
					s.writeResults(context.Background(), pending)
				}
				slog.Info("History writer: Queue closed, exiting.")
				return
			}
			pending = append(pending, result)
		case <-ticker.C:
			if len(pending) > 0 {
				s.writeResults(ctx, pending)
				pending = nil
			}
		}
	}
}

// drainQueued empties whatever is buffered on the queue without blocking,
// so a context-cancelled shutdown flushes results enqueued but not yet
// picked up.
func (s *Storage) drainQueued() []domain.BatchResult {
	var drained []domain.BatchResult
	for {
		select {
		case result, ok := <-s.resultQueue:
			if !ok {
				return drained
			}
			drained = append(drained, result)
		default:
			return drained
		}
	}
}

func (s *Storage) writeResults(ctx context.Context, results []domain.BatchResult) {
	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		var imageRows [][]any
		for _, r := range results {
			_, err := tx.Exec(ctx,
				`INSERT INTO batches (batch_id, page_url, title, language, succeeded, saved_count, message, elapsed_ms)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 ON CONFLICT (batch_id) DO NOTHING`,
				r.BatchID, r.PageURL, r.Title, r.Language, r.Succeeded, r.SavedCount, r.Message, r.Elapsed.Milliseconds())
			if err != nil {
				return fmt.Errorf("failed to insert batch row: %w", err)
			}
			for _, o := range r.Outcomes {
				detail := o.Reason
				if o.Kind == domain.Failed {
					detail = o.Cause
				}
				imageRows = append(imageRows, []any{r.BatchID, o.SequenceIndex, o.SourceURL, string(o.Kind), o.Path, detail})
			}
		}

		if len(imageRows) > 0 {
			_, err := tx.CopyFrom(ctx, pgx.Identifier{"batch_images"},
				[]string{"batch_id", "sequence_index", "source_url", "kind", "path", "detail"},
				pgx.CopyFromRows(imageRows))
			if err != nil {
				return fmt.Errorf("failed to bulk insert image rows: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		slog.Error("History writer: Transaction failed", "error", err)
	} else {
		slog.Info("History writer: Successfully committed batch results", "batches", len(results))
	}
}
