package rewrite

import (
	"fmt"
	"strings"
)

// Mode selects how terms with unknown kanji are displayed.
type Mode int

const (
	// ModeNone passes text through untouched.
	ModeNone Mode = iota
	// ModePhoneticSubstitute replaces the term with its reading.
	ModePhoneticSubstitute
	// ModeInlineAnnotate keeps the term and attaches the reading as ruby.
	ModeInlineAnnotate
)

// String returns the wire name of m.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePhoneticSubstitute:
		return "phonetic_substitute"
	case ModeInlineAnnotate:
		return "inline_annotate"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a wire name. The older names "hiragana" and "furigana"
// are accepted for settings stored before the rename.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ModeNone, nil
	case "phonetic_substitute", "hiragana":
		return ModePhoneticSubstitute, nil
	case "inline_annotate", "furigana":
		return ModeInlineAnnotate, nil
	}
	return ModeNone, fmt.Errorf("rewrite: unknown display mode %q; valid values: none, phonetic_substitute, inline_annotate", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
