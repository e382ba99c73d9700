// Package rewrite adapts text for a learner: every occurrence of a
// vocabulary term that contains kanji the learner has not studied is either
// replaced by its reading or annotated with it.
//
// Matching is longest-term-first and overlap-free. A Plan is computed over
// the untouched input and applied in a single pass, so no replacement ever
// sees the output of another.
package rewrite

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/kanjiguard/pkg/kana"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// Range is a half-open byte span [Start, End) of the input text.
type Range struct {
	Start int
	End   int
}

// Len returns the span width in bytes.
func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether either range starts inside the other.
// Identical ranges overlap.
func (r Range) Overlaps(o Range) bool {
	return (r.Start <= o.Start && o.Start < r.End) ||
		(o.Start <= r.Start && r.Start < o.End) ||
		r == o
}

// Replacement swaps the input span Range for Text.
type Replacement struct {
	Range
	Term string
	Text string
}

// Ruby wraps term with its reading as an HTML ruby annotation.
func Ruby(term, reading string) string {
	return "<ruby>" + term + "<rt>" + reading + "</rt></ruby>"
}

// Rewrite returns text adapted for mode. Terms are taken from readings in
// order; the first entry for a term wins.
func Rewrite(text string, known knowledge.KnownSet, readings []knowledge.Term, mode Mode) string {
	plan := Plan(text, known, readings, mode)
	if len(plan) == 0 {
		return text
	}
	return Apply(text, plan)
}

// Plan computes the replacements Rewrite would make, sorted by position and
// pairwise non-overlapping. ModeNone and unrecognised modes plan nothing.
func Plan(text string, known knowledge.KnownSet, readings []knowledge.Term, mode Mode) []Replacement {
	if mode != ModePhoneticSubstitute && mode != ModeInlineAnnotate {
		return nil
	}
	unknown := make(map[rune]struct{})
	for _, r := range known.Unknown(text) {
		unknown[r] = struct{}{}
	}
	if len(unknown) == 0 {
		return nil
	}

	var committed []Replacement
	for _, c := range candidates(readings) {
		if !eligible(c.Term, unknown) {
			continue
		}
		replacement := render(mode, c)
		offset := 0
		for offset < len(text) {
			i := strings.Index(text[offset:], c.Term)
			if i < 0 {
				break
			}
			rng := Range{Start: offset + i, End: offset + i + len(c.Term)}
			if !overlapsAny(committed, rng) {
				committed = append(committed, Replacement{Range: rng, Term: c.Term, Text: replacement})
			}
			offset = rng.End
		}
	}

	sort.Slice(committed, func(i, j int) bool { return committed[i].Start < committed[j].Start })
	return committed
}

// Apply builds the output from text and a sorted, non-overlapping plan.
// A plan that violates those invariants is a programming error and panics.
func Apply(text string, plan []Replacement) string {
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, rep := range plan {
		if rep.Start < pos || rep.End < rep.Start || rep.End > len(text) {
			panic(fmt.Sprintf("rewrite: invalid replacement [%d,%d) at position %d of %d-byte text", rep.Start, rep.End, pos, len(text)))
		}
		b.WriteString(text[pos:rep.Start])
		b.WriteString(rep.Text)
		pos = rep.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// candidates drops blank and repeated terms and orders the rest by
// descending rune length, ties keeping input order.
func candidates(readings []knowledge.Term) []knowledge.Term {
	out := make([]knowledge.Term, 0, len(readings))
	seen := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		if r.Term == "" {
			continue
		}
		if _, ok := seen[r.Term]; ok {
			continue
		}
		seen[r.Term] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Term) > utf8.RuneCountInString(out[j].Term)
	})
	return out
}

// eligible reports whether term contains at least one unknown kanji. The
// same rule applies in every mode.
func eligible(term string, unknown map[rune]struct{}) bool {
	for _, r := range term {
		if !kana.IsKanji(r) {
			continue
		}
		if _, ok := unknown[r]; ok {
			return true
		}
	}
	return false
}

func render(mode Mode, t knowledge.Term) string {
	switch mode {
	case ModePhoneticSubstitute:
		return t.Reading
	case ModeInlineAnnotate:
		return Ruby(t.Term, t.Reading)
	}
	panic(fmt.Sprintf("rewrite: render called with %s", mode))
}

func overlapsAny(committed []Replacement, rng Range) bool {
	for _, c := range committed {
		if c.Overlaps(rng) {
			return true
		}
	}
	return false
}
