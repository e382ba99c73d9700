package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/kanjiguard/pkg/generate"
)

func newGenerateCmd(a *app) *cobra.Command {
	var difficultyFlag, modeFlag string
	var asJSON, quiz bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a reading dialogue within the learner's vocabulary",
		Long: `Asks the configured chat completion endpoint (OpenRouter by default) for a
short dialogue with comprehension questions, using only the kanji and words
the learner knows. Any unstudied kanji the model still uses are rewritten in
the learner's display mode.

With --quiz, four of the questions are asked interactively and the attempt
is scored at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && quiz {
				return errors.New("--json and --quiz cannot be combined")
			}
			if a.cfg.LLM.APIKey == "" {
				return errors.New("llm.api_key is not configured (set OPENROUTER_API_KEY)")
			}
			difficulty, err := generate.ParseDifficulty(difficultyFlag)
			if err != nil {
				return err
			}
			mode, err := a.mode(modeFlag)
			if err != nil {
				return err
			}
			snap, err := a.snapshot()
			if err != nil {
				return err
			}

			completer, err := generate.NewOpenAICompleter(a.cfg.LLM.APIKey,
				generate.WithBaseURL(a.cfg.LLM.BaseURL),
				generate.WithTimeout(a.cfg.LLM.Timeout))
			if err != nil {
				return err
			}
			g := generate.NewGenerator(completer)
			g.Model = a.cfg.LLM.Model
			g.MaxTokens = a.cfg.LLM.MaxTokens
			g.Temperature = a.cfg.LLM.Temperature
			g.MaxAttempts = a.cfg.LLM.MaxAttempts
			g.Logger = a.logger

			res, err := g.Generate(cmd.Context(), snap, difficulty)
			if err != nil {
				return err
			}
			rendered, err := generate.Render(cmd.Context(), res.Dialogue, snap, mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(struct {
					Dialogue *generate.Dialogue `json:"dialogue"`
					Rendered *generate.Rendered `json:"rendered"`
				}{res.Dialogue, rendered})
			}
			printDialogue(out, res, rendered, !quiz)
			if quiz {
				return runQuiz(cmd.InOrStdin(), out, generate.NewAttempt(res.Dialogue, nil))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&difficultyFlag, "difficulty", "beginner", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "display mode for unstudied kanji")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&quiz, "quiz", false, "answer a comprehension quiz after reading")
	return cmd
}

func printDialogue(w io.Writer, res *generate.Result, r *generate.Rendered, withQuestions bool) {
	fmt.Fprintf(w, "%s dialogue (%s), %d attempt(s)\n\n", res.Difficulty, res.Difficulty.JLPT(), res.Attempts)
	for _, l := range r.Lines {
		if l.Speaker != "" {
			fmt.Fprintf(w, "%s：%s\n", l.Speaker, l.Text)
		} else {
			fmt.Fprintln(w, l.Text)
		}
	}
	if len(r.UnknownKanji) > 0 {
		fmt.Fprintf(w, "\nUnstudied kanji: %v\n", r.UnknownKanji)
	}
	fmt.Fprintf(w, "\n%s\n", res.Dialogue.EnglishTranslation)
	if !withQuestions {
		return
	}
	for i, q := range res.Dialogue.Questions {
		printQuestion(w, i, q)
	}
}

func printQuestion(w io.Writer, i int, q generate.Question) {
	fmt.Fprintf(w, "\nQ%d. %s\n", i+1, q.Question)
	for j, o := range q.Options {
		fmt.Fprintf(w, "   %c) %s\n", 'a'+j, o)
	}
}

// runQuiz asks each question of at on out and reads answers from in. Input
// ending early leaves the remaining questions unanswered.
func runQuiz(in io.Reader, out io.Writer, at *generate.Attempt) error {
	if at.Total() == 0 {
		fmt.Fprintln(out, "\nNo questions to ask.")
		return nil
	}
	sc := bufio.NewScanner(in)
questions:
	for i, q := range at.Questions {
		printQuestion(out, i, q)
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				fmt.Fprintln(out)
				break questions
			}
			sel, ok := parseChoice(sc.Text(), len(q.Options))
			if !ok {
				fmt.Fprintf(out, "answer a-%c or 1-%d\n", 'a'+len(q.Options)-1, len(q.Options))
				continue
			}
			correct, err := at.Answer(i, sel)
			if err != nil {
				return err
			}
			if correct {
				fmt.Fprintln(out, "Correct.")
			} else if ans, ok := q.CorrectAnswer(); ok {
				fmt.Fprintf(out, "Wrong, the answer is %c) %s.\n", 'a'+q.CorrectIndex, ans)
			}
			if q.Explanation != "" {
				fmt.Fprintln(out, q.Explanation)
			}
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	fmt.Fprintf(out, "\nScore: %d/%d (%d%%)\n", at.CorrectCount(), at.Total(), at.ScorePercentage())
	return nil
}

// parseChoice accepts a letter (a, b, ...) or a 1-based number.
func parseChoice(s string, options int) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > options {
			return 0, false
		}
		return n - 1, true
	}
	if len(s) == 1 && s[0] >= 'a' && int(s[0]-'a') < options {
		return int(s[0] - 'a'), true
	}
	return 0, false
}
