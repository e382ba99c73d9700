// Package extract recovers a JSON object from free-form generator output.
//
// Generators wrap payloads in prose or markdown fences and often emit raw
// line breaks inside string values. Extract isolates the payload, repairs
// those control characters and parses the result. Failures are typed so a
// caller can decide whether to regenerate.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PreviewLimit bounds the candidate text carried by an Error.
const PreviewLimit = 500

var (
	// ErrNoPayload means the input held nothing that looks like JSON.
	ErrNoPayload = errors.New("no structured payload found")
	// ErrUnparseable means a candidate was found but did not parse after repair.
	ErrUnparseable = errors.New("structured payload unparseable")
)

// Error describes a failed extraction.
type Error struct {
	// Kind is ErrNoPayload or ErrUnparseable.
	Kind error
	// Message is the parser's message, empty for ErrNoPayload.
	Message string
	// Preview is at most PreviewLimit runes of the candidate.
	Preview string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "extract: " + e.Kind.Error()
	}
	return fmt.Sprintf("extract: %s: %s\n%s", e.Kind, e.Message, e.Preview)
}

func (e *Error) Unwrap() error { return e.Kind }

var (
	fenceRe  = regexp.MustCompile("(?s)```(?i:json)[ \t]*\\r?\\n?(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// Candidate isolates the payload text: the body of a ```json fence, else the
// span from the first '{' to the last '}', else the whole input when it is a
// bare JSON array. ok is false when nothing qualifies.
func Candidate(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, true
		}
	}
	if m := objectRe.FindString(raw); m != "" {
		return m, true
	}
	if trimmed := strings.TrimSpace(raw); strings.HasPrefix(trimmed, "[") {
		return trimmed, true
	}
	return "", false
}

// Decode extracts, repairs and unmarshals the payload in raw into v.
func Decode(raw string, v any) error {
	candidate, ok := Candidate(raw)
	if !ok {
		return &Error{Kind: ErrNoPayload}
	}
	repaired := Repair(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &Error{Kind: ErrUnparseable, Message: err.Error(), Preview: preview(candidate)}
	}
	return nil
}

// Extract returns the JSON object held in raw.
func Extract(raw string) (map[string]any, error) {
	var out map[string]any
	if err := Decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLimit-3]) + "..."
}
