package generate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

// ErrInvalidDialogue marks a decoded response that is missing required content.
var ErrInvalidDialogue = errors.New("invalid dialogue")

// Question is one multiple-choice comprehension question.
type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Dialogue is a generated reading exercise.
type Dialogue struct {
	Participants       []string   `json:"participants"`
	JapaneseText       string     `json:"japanese_text"`
	EnglishTranslation string     `json:"english_translation"`
	Questions          []Question `json:"questions"`
}

// Validate reports content a learner could not use.
func (d *Dialogue) Validate() error {
	var errs []error
	if strings.TrimSpace(d.JapaneseText) == "" {
		errs = append(errs, errors.New("japanese_text is empty"))
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Question) == "" {
			errs = append(errs, fmt.Errorf("question %d: empty text", i))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			errs = append(errs, fmt.Errorf("question %d: correct_index %d out of range for %d options", i, q.CorrectIndex, len(q.Options)))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDialogue, errors.Join(errs...))
	}
	return nil
}

// Line is one utterance. Speaker is empty for narration.
type Line struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

var speakerRe = regexp.MustCompile(`^(.+?)[:：]\s*(.+)$`)

// ParseDialogueLines splits text into utterances. A line of the form
// "speaker：text" (full-width or ASCII colon) is attributed; any other
// non-blank line is narration.
func ParseDialogueLines(text string) []Line {
	var out []Line
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := speakerRe.FindStringSubmatch(line); m != nil {
			out = append(out, Line{Speaker: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])})
			continue
		}
		out = append(out, Line{Text: line})
	}
	return out
}

// Rendered is a dialogue prepared for display to one learner.
type Rendered struct {
	Mode         rewrite.Mode `json:"mode"`
	Lines        []Line       `json:"lines"`
	UnknownKanji []string     `json:"unknown_kanji"`
}

// Render rewrites every line of d for the learner's snapshot and lists the
// kanji in the dialogue the learner has not studied.
func Render(ctx context.Context, d *Dialogue, snap knowledge.Snapshot, mode rewrite.Mode) (*Rendered, error) {
	lines := ParseDialogueLines(d.JapaneseText)
	out := make([]Line, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, l := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Line{
				Speaker: l.Speaker,
				Text:    rewrite.Rewrite(l.Text, snap.Known, snap.Readings, mode),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unknown := snap.Known.Unknown(d.JapaneseText)
	names := make([]string, len(unknown))
	for i, r := range unknown {
		names[i] = string(r)
	}
	return &Rendered{Mode: mode, Lines: out, UnknownKanji: names}, nil
}
