// Package generate produces reading exercises constrained to what a learner
// can read. The model is asked to stay within the learner's vocabulary, its
// reply is recovered with the extract package, and any kanji it slips in
// are handled at display time by the rewrite package.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/extract"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// Request is one chat completion call.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer returns the assistant text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Defaults used when the Generator fields are zero.
const (
	DefaultModel       = "openai/gpt-4o"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
	DefaultMaxAttempts = 3
	DefaultQuestions   = 10
)

// Result is a generated dialogue with the inputs that produced it.
type Result struct {
	Dialogue   *Dialogue
	Difficulty Difficulty
	Vocabulary Vocabulary
	Model      string
	Attempts   int
	Elapsed    time.Duration
}

// Generator builds prompts from learner snapshots and decodes the replies.
type Generator struct {
	Completer   Completer
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxAttempts bounds calls per Generate when replies cannot be decoded.
	MaxAttempts int
	Questions   int
	// Rand drives vocabulary sampling. nil uses the global source.
	Rand *rand.Rand
	// Logger receives per-attempt diagnostics. nil means no logging.
	Logger *zap.Logger
}

// NewGenerator returns a Generator with default settings.
func NewGenerator(c Completer) *Generator {
	return &Generator{
		Completer:   c,
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		MaxAttempts: DefaultMaxAttempts,
		Questions:   DefaultQuestions,
	}
}

// Generate asks the completer for a dialogue the learner described by snap
// can read. Replies without a recoverable payload, or whose payload fails
// Validate, are retried up to MaxAttempts; completer errors are returned
// immediately.
func (g *Generator) Generate(ctx context.Context, snap knowledge.Snapshot, d Difficulty) (*Result, error) {
	if g.Completer == nil {
		return nil, errors.New("generate: no completer configured")
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model := g.Model
	if model == "" {
		model = DefaultModel
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	questions := g.Questions
	if questions <= 0 {
		questions = DefaultQuestions
	}
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	start := time.Now()
	vocab := SampleVocabulary(snap, g.Rand)
	req := Request{
		Model:       model,
		System:      SystemPrompt(questions),
		User:        UserPrompt(d, vocab, questions),
		MaxTokens:   maxTokens,
		Temperature: g.Temperature,
	}
	logger.Info("generating dialogue",
		zap.String("difficulty", string(d)),
		zap.String("model", model),
		zap.Int("kanji", len(vocab.Kanji)),
		zap.Int("vocabulary", len(vocab.Safe)),
		zap.Int("phonetic", len(vocab.Phonetic)))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reply, err := g.Completer.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generate: completion: %w", err)
		}

		var dlg Dialogue
		err = extract.Decode(reply, &dlg)
		if err == nil {
			err = dlg.Validate()
		}
		if err == nil {
			return &Result{
				Dialogue:   &dlg,
				Difficulty: d,
				Vocabulary: vocab,
				Model:      model,
				Attempts:   attempt,
				Elapsed:    time.Since(start),
			}, nil
		}

		lastErr = err
		var xerr *extract.Error
		if errors.As(err, &xerr) {
			logger.Warn("unusable reply",
				zap.Int("attempt", attempt),
				zap.String("kind", xerr.Kind.Error()),
				zap.String("preview", xerr.Preview),
				zap.String("message", xerr.Message))
		} else {
			logger.Warn("unusable reply", zap.Int("attempt", attempt), zap.Error(err))
		}
	}
	return nil, fmt.Errorf("generate: no usable dialogue after %d attempts: %w", attempts, lastErr)
}
