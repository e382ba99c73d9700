// Package pipeline moves learner data in and adapted text out: study items
// are written through a batching transaction writer, and documents are
// rewritten paragraph by paragraph on a worker pool.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/kana"
)

// Stats reports the outcome of an Ingest call.
type Stats struct {
	Written  int
	Rejected int
}

// Ingester persists study items for a learner.
type Ingester struct {
	DB        *sql.DB
	BatchSize int
	// FlushInterval bounds how long a partial batch waits. 0 disables the timer.
	FlushInterval time.Duration
	// Logger receives per-item rejections and a summary. nil means no logging.
	Logger *zap.Logger
	// OnProgress is called after every BatchSize submitted items and once at the end.
	OnProgress func(current, total int)
}

// NewIngester returns an Ingester writing to conn in batches of 50.
func NewIngester(conn *sql.DB) *Ingester {
	return &Ingester{
		DB:            conn,
		BatchSize:     50,
		FlushInterval: 100 * time.Millisecond,
	}
}

// Ingest validates items, stamps them with learner and source, normalises
// readings to hiragana and upserts them in batches. Items with a blank term
// or an unknown kind are rejected individually; the rest are still written.
// The first write error aborts the remaining submissions and is returned.
func (ig *Ingester) Ingest(ctx context.Context, learner, source string, items []db.StudyItem) (Stats, error) {
	logger := ig.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var stats Stats
	if strings.TrimSpace(learner) == "" {
		return stats, fmt.Errorf("ingest: learner must be non-empty")
	}
	if strings.TrimSpace(source) == "" {
		return stats, fmt.Errorf("ingest: source must be non-empty")
	}

	bw := NewBatchWriter(ig.DB, ig.BatchSize, ig.FlushInterval)
	bw.Logger = logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var errOnce sync.Once
	var writeErr error
	bw.OnError = func(e error) {
		errOnce.Do(func() { writeErr = e })
		cancel()
	}

	total := len(items)
	submitted := 0
Loop:
	for i, it := range items {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}

		it.Term = strings.TrimSpace(it.Term)
		if it.Term == "" || !it.Kind.IsValid() {
			stats.Rejected++
			logger.Warn("rejecting study item",
				zap.Int("index", i),
				zap.String("term", it.Term),
				zap.String("kind", string(it.Kind)))
			continue
		}
		it.Learner = learner
		it.Source = source
		it.Reading = kana.NormalizeReading(it.Reading)

		item := it
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if _, err := db.UpsertStudyItem(tx, item); err != nil {
				return fmt.Errorf("failed to persist %q: %w", item.Term, err)
			}
			return nil
		}); err != nil {
			_ = bw.Close()
			return stats, err
		}
		submitted++
		if ig.OnProgress != nil && ig.BatchSize > 0 && submitted%ig.BatchSize == 0 {
			ig.OnProgress(i+1, total)
		}
	}

	closeErr := bw.Close()
	stats.Written = int(bw.Committed())
	if ig.OnProgress != nil {
		ig.OnProgress(total, total)
	}

	err := closeErr
	if writeErr != nil {
		err = writeErr
	}
	if err == nil {
		// Cancellation of the caller's context is the only other way out of the loop.
		if ctxErr := ctx.Err(); ctxErr != nil && stats.Written+stats.Rejected < total {
			err = ctxErr
		}
	}
	logger.Info("ingest finished",
		zap.String("learner", learner),
		zap.String("source", source),
		zap.Int("written", stats.Written),
		zap.Int("rejected", stats.Rejected),
		zap.Error(err))
	return stats, err
}
