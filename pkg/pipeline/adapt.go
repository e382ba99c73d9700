package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/reader"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

// Adapter rewrites long documents for one learner snapshot, one paragraph
// per job.
type Adapter struct {
	Snapshot knowledge.Snapshot
	Mode     rewrite.Mode
	Workers  int
	// Logger is used for a summary line per document. nil means no logging.
	Logger *zap.Logger
	// OnProgress is called as paragraphs are emitted in order.
	OnProgress func(current, total int)
	// PoolFactory overrides NewWorkerPool, mainly for tests.
	PoolFactory func(workers, queue int) Pool
}

// NewAdapter returns an Adapter with four workers.
func NewAdapter(snapshot knowledge.Snapshot, mode rewrite.Mode) *Adapter {
	return &Adapter{Snapshot: snapshot, Mode: mode, Workers: 4}
}

type adaptedParagraph struct {
	Index int
	Text  string
}

// AdaptDocument rewrites text paragraph by paragraph and reassembles the
// results in input order. Paragraph boundaries are kept, so the output
// equals rewriting each line of text on its own.
func (a *Adapter) AdaptDocument(ctx context.Context, text string) (string, error) {
	paragraphs := reader.SplitParagraphs(text)
	if len(paragraphs) == 0 || a.Mode == rewrite.ModeNone {
		return text, nil
	}
	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp Pool
	if a.PoolFactory != nil {
		wp = a.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan adaptedParagraph, workers*2)
	doneCh := make(chan string, 1)

	// Consumer: buffer out-of-order results and emit contiguous ones.
	go func() {
		defer close(doneCh)
		var out strings.Builder
		buffer := make(map[int]string)
		next := 0
		for res := range resultCh {
			buffer[res.Index] = res.Text
			for {
				s, ok := buffer[next]
				if !ok {
					break
				}
				delete(buffer, next)
				out.WriteString(s)
				next++
				if a.OnProgress != nil {
					a.OnProgress(next, len(paragraphs))
				}
			}
		}
		doneCh <- out.String()
	}()

	wp.Start(ctx)
	var submitErr error
	for i, p := range paragraphs {
		idx, para := i, p
		job := func(ctx context.Context) error {
			res := adaptedParagraph{
				Index: idx,
				Text:  rewrite.Rewrite(para, a.Snapshot.Known, a.Snapshot.Readings, a.Mode),
			}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			submitErr = err
			cancel()
			break
		}
	}

	// Close waits for running jobs, so nothing sends on resultCh after this.
	wp.Close()
	close(resultCh)
	out := <-doneCh

	if submitErr == nil {
		submitErr = ctx.Err()
	}
	if submitErr != nil {
		return "", submitErr
	}
	if a.Logger != nil {
		a.Logger.Debug("document adapted",
			zap.Int("paragraphs", len(paragraphs)),
			zap.String("mode", a.Mode.String()),
			zap.Int("in_bytes", len(text)),
			zap.Int("out_bytes", len(out)))
	}
	return out, nil
}
