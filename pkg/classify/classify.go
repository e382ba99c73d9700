// Package classify partitions a learner's vocabulary into terms that can be
// written as-is and terms that must be written with their reading.
package classify

import (
	"strings"

	"github.com/japaniel/kanjiguard/pkg/kana"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// Result holds the two tiers. Safe lists terms in input order; PhoneticOnly
// lists the readings of terms containing unknown kanji. Rejected holds the
// input indices of malformed entries (blank term).
type Result struct {
	Safe         []string
	PhoneticOnly []string
	Rejected     []int
}

type options struct {
	dedupe bool
}

// Option configures Classify.
type Option func(*options)

// WithDedupe drops repeated strings from each tier, keeping the first.
func WithDedupe() Option {
	return func(o *options) { o.dedupe = true }
}

// Classify assigns every vocabulary term to at most one tier:
//
//   - no kanji, or only known kanji: Safe gets the term
//   - unknown kanji and a non-empty reading: PhoneticOnly gets the reading
//   - unknown kanji and no reading: dropped
//
// Dropping is expected and not an error.
func Classify(known knowledge.KnownSet, vocab []knowledge.Term, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	seenSafe := make(map[string]struct{})
	seenPhonetic := make(map[string]struct{})

	for i, v := range vocab {
		if strings.TrimSpace(v.Term) == "" {
			res.Rejected = append(res.Rejected, i)
			continue
		}
		if allKnown(known, v.Term) {
			if o.dedupe && seen(seenSafe, v.Term) {
				continue
			}
			res.Safe = append(res.Safe, v.Term)
			continue
		}
		reading := strings.TrimSpace(v.Reading)
		if reading == "" {
			continue
		}
		if o.dedupe && seen(seenPhonetic, reading) {
			continue
		}
		res.PhoneticOnly = append(res.PhoneticOnly, reading)
	}
	return res
}

// allKnown reports whether every kanji in term is known. Terms without
// kanji are trivially known.
func allKnown(known knowledge.KnownSet, term string) bool {
	for _, r := range kana.Kanji(term) {
		if !known.Has(r) {
			return false
		}
	}
	return true
}

func seen(m map[string]struct{}, s string) bool {
	if _, ok := m[s]; ok {
		return true
	}
	m[s] = struct{}{}
	return false
}
