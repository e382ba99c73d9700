// Package knowledge turns a learner's study records into the inputs the
// adaptation engine works from: the set of explicitly studied kanji, the
// vocabulary list, and the ordered term→reading list.
//
// Collaborators flatten every knowledge source (WaniKani subjects, Renshuu
// items, Anki cards, YAML lists) into []Record before calling in; nothing
// here knows how many sources exist.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/japaniel/kanjiguard/pkg/kana"
)

// Kind distinguishes atomic character records from vocabulary and the
// other study item types the sources report.
type Kind string

const (
	KindKanji          Kind = "kanji"
	KindVocabulary     Kind = "vocabulary"
	KindKanaVocabulary Kind = "kana_vocabulary"
	KindRadical        Kind = "radical"
	KindGrammar        Kind = "grammar"
	KindSentence       Kind = "sentence"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindKanji, KindVocabulary, KindKanaVocabulary, KindRadical, KindGrammar, KindSentence:
		return true
	}
	return false
}

// IsVocabulary reports whether records of kind k are vocabulary terms.
func (k Kind) IsVocabulary() bool {
	return k == KindVocabulary || k == KindKanaVocabulary
}

// ParseKind maps a source item type onto a Kind. Renshuu's "vocab" and
// WaniKani's "vocabulary" both map to KindVocabulary.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kanji":
		return KindKanji, nil
	case "vocab", "vocabulary":
		return KindVocabulary, nil
	case "kana_vocabulary":
		return KindKanaVocabulary, nil
	case "radical":
		return KindRadical, nil
	case "grammar":
		return KindGrammar, nil
	case "sentence":
		return KindSentence, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// Record is one study item: the (term, reading, item_kind) triple.
type Record struct {
	Term    string `yaml:"term"`
	Reading string `yaml:"reading,omitempty"`
	Kind    Kind   `yaml:"kind"`
}

// Term is a vocabulary entry. Reading, when non-empty, is a complete
// phonetic rendering usable in place of Term.
type Term struct {
	Term    string
	Reading string
}

// KnownSet is the set of kanji a learner has explicitly studied.
// The zero value is an empty set ready to use for lookups.
type KnownSet struct {
	m map[rune]struct{}
}

// NewKnownSet returns a set holding every kanji in chars.
func NewKnownSet(chars ...string) KnownSet {
	s := KnownSet{m: make(map[rune]struct{})}
	for _, c := range chars {
		for _, r := range kana.Kanji(c) {
			s.m[r] = struct{}{}
		}
	}
	return s
}

// Has reports whether r is known.
func (s KnownSet) Has(r rune) bool {
	_, ok := s.m[r]
	return ok
}

// Len returns the number of known kanji.
func (s KnownSet) Len() int { return len(s.m) }

// Sorted returns the known kanji in code point order.
func (s KnownSet) Sorted() []rune {
	out := make([]rune, 0, len(s.m))
	for r := range s.m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the known kanji as one-character strings in code point order.
func (s KnownSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, r := range sorted {
		out[i] = string(r)
	}
	return out
}

// Unknown returns the kanji in text missing from s, in first-seen order.
func (s KnownSet) Unknown(text string) []rune {
	var out []rune
	for _, r := range kana.Kanji(text) {
		if !s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Derive builds the known set from records. Only KindKanji records count;
// a kanji that appears only inside vocabulary is never treated as known.
// Each kanji record is decomposed rune by rune, so a malformed multi-kanji
// record still contributes every kanji it holds.
func Derive(records []Record) KnownSet {
	s := KnownSet{m: make(map[rune]struct{})}
	for _, rec := range records {
		if rec.Kind != KindKanji {
			continue
		}
		for _, r := range rec.Term {
			if kana.IsKanji(r) {
				s.m[r] = struct{}{}
			}
		}
	}
	return s
}

// Vocabulary returns the vocabulary records as terms, in input order.
func Vocabulary(records []Record) []Term {
	var out []Term
	for _, rec := range records {
		if !rec.Kind.IsVocabulary() {
			continue
		}
		out = append(out, Term{Term: rec.Term, Reading: rec.Reading})
	}
	return out
}

// Readings builds the term→reading list used for rewriting: vocabulary
// records with a non-empty reading, first reading per term winning.
// Empty readings are filtered here so the rewrite engine never deletes text.
func Readings(records []Record) []Term {
	var out []Term
	seen := make(map[string]struct{})
	for _, rec := range records {
		if !rec.Kind.IsVocabulary() {
			continue
		}
		term := strings.TrimSpace(rec.Term)
		reading := strings.TrimSpace(rec.Reading)
		if term == "" || reading == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, Term{Term: term, Reading: reading})
	}
	return out
}

// Snapshot is the knowledge a single learner brings to a request. It is
// built once per request by the owning collaborator and passed by value.
type Snapshot struct {
	Known      KnownSet
	Vocabulary []Term
	Readings   []Term
}

// NewSnapshot derives every view the engine needs from records.
func NewSnapshot(records []Record) Snapshot {
	return Snapshot{
		Known:      Derive(records),
		Vocabulary: Vocabulary(records),
		Readings:   Readings(records),
	}
}
