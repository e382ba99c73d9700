package generate

import (
	"fmt"
	"strings"
)

// Difficulty selects grammar complexity and the study level range sampled.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// ParseDifficulty accepts the three level names case-insensitively. The
// empty string means Beginner.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Beginner, nil
	case Beginner, Intermediate, Advanced:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q (want beginner, intermediate or advanced)", s)
	}
}

// JLPT returns the JLPT label the difficulty targets.
func (d Difficulty) JLPT() string {
	switch d {
	case Intermediate:
		return "JLPT N4-N3"
	case Advanced:
		return "JLPT N2-N1"
	default:
		return "JLPT N5"
	}
}

// GrammarNotes is the grammar guideline line sent with the prompt.
func (d Difficulty) GrammarNotes() string {
	switch d {
	case Beginner:
		return "Use simple present/past tense, basic particles, polite です/ます form"
	case Intermediate:
		return "Use て-form, conditionals, mix of casual and polite speech"
	case Advanced:
		return "Use complex grammar, honorifics, humble forms, literary expressions"
	default:
		return "Use simple grammar"
	}
}

// Levels returns the inclusive study level range for the difficulty.
func (d Difficulty) Levels() (min, max int) {
	switch d {
	case Intermediate:
		return 11, 30
	case Advanced:
		return 31, 60
	default:
		return 1, 10
	}
}
