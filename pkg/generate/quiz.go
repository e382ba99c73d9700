package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// QuestionsPerAttempt is how many questions a quiz attempt draws from a
// dialogue.
const QuestionsPerAttempt = 4

// Attempt.Answer errors.
var (
	ErrQuestionRange   = errors.New("question index out of range")
	ErrAlreadyAnswered = errors.New("question already answered")
)

// Check reports whether selected is the correct option.
func (q Question) Check(selected int) bool {
	return selected == q.CorrectIndex
}

// CorrectAnswer returns the text of the correct option.
func (q Question) CorrectAnswer() (string, bool) {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return "", false
	}
	return q.Options[q.CorrectIndex], true
}

// SelectQuestions draws up to n distinct questions in random order. r nil
// uses the global source.
func SelectQuestions(r *rand.Rand, questions []Question, n int) []Question {
	if n <= 0 || len(questions) == 0 {
		return nil
	}
	perm := rand.Perm
	if r != nil {
		perm = r.Perm
	}
	idx := perm(len(questions))
	if len(idx) > n {
		idx = idx[:n]
	}
	out := make([]Question, len(idx))
	for i, j := range idx {
		out[i] = questions[j]
	}
	return out
}

// Attempt is one pass through a quiz. Answers holds the selected option
// per question, -1 while unanswered.
type Attempt struct {
	Questions []Question
	Answers   []int
}

// NewAttempt draws QuestionsPerAttempt questions from d.
func NewAttempt(d *Dialogue, r *rand.Rand) *Attempt {
	qs := SelectQuestions(r, d.Questions, QuestionsPerAttempt)
	answers := make([]int, len(qs))
	for i := range answers {
		answers[i] = -1
	}
	return &Attempt{Questions: qs, Answers: answers}
}

// Answer records selected for question i and reports whether it is correct.
func (a *Attempt) Answer(i, selected int) (bool, error) {
	if i < 0 || i >= len(a.Questions) {
		return false, fmt.Errorf("%w: %d", ErrQuestionRange, i)
	}
	if a.Answers[i] >= 0 {
		return false, fmt.Errorf("%w: %d", ErrAlreadyAnswered, i)
	}
	a.Answers[i] = selected
	return a.Questions[i].Check(selected), nil
}

// Total is the number of questions in the attempt.
func (a *Attempt) Total() int { return len(a.Questions) }

// CorrectCount counts correctly answered questions.
func (a *Attempt) CorrectCount() int {
	n := 0
	for i, q := range a.Questions {
		if a.Answers[i] >= 0 && q.Check(a.Answers[i]) {
			n++
		}
	}
	return n
}

// Completed reports whether every question has an answer.
func (a *Attempt) Completed() bool {
	for _, ans := range a.Answers {
		if ans < 0 {
			return false
		}
	}
	return true
}

// ScorePercentage is the rounded share of correct answers, 0 for an empty
// attempt. Unanswered questions count as wrong.
func (a *Attempt) ScorePercentage() int {
	if a.Total() == 0 {
		return 0
	}
	return int(math.Round(float64(a.CorrectCount()) / float64(a.Total()) * 100))
}
