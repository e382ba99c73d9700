// Package kana holds the character-class helpers shared by the adaptation
// engine: kanji detection and reading normalisation.
package kana

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kanji block bounds. Only CJK Unified Ideographs U+4E00..U+9FAF count as
// kanji; kana, punctuation and latin text never do.
const (
	kanjiFirst = 0x4E00
	kanjiLast  = 0x9FAF
)

// IsKanji reports whether r is an atomic logographic character.
func IsKanji(r rune) bool {
	return r >= kanjiFirst && r <= kanjiLast
}

// Kanji returns the distinct kanji in s in first-seen order.
func Kanji(s string) []rune {
	var out []rune
	seen := make(map[rune]struct{})
	for _, r := range s {
		if !IsKanji(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// HasKanji reports whether s contains at least one kanji.
func HasKanji(s string) bool {
	return strings.IndexFunc(s, IsKanji) >= 0
}

// HasJapanese reports whether s contains hiragana, katakana or han script.
func HasJapanese(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
	}) >= 0
}

// ToHiragana maps katakana to the matching hiragana and leaves other runes alone.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// NormalizeReading applies NFKC (which composes half-width katakana and their
// voicing marks), converts the result to hiragana and trims surrounding
// whitespace. Readings imported from Anki decks and WaniKani exports mix all
// three forms.
func NormalizeReading(s string) string {
	return strings.TrimSpace(ToHiragana(norm.NFKC.String(s)))
}
