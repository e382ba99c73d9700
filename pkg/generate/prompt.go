package generate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/japaniel/kanjiguard/pkg/classify"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// Prompt sample caps.
const (
	MaxKanjiForPrompt    = 200
	MaxVocabForPrompt    = 300
	MaxPhoneticForPrompt = 100
)

// Character is a dialogue participant the model may choose.
type Character struct {
	Name        string
	Romaji      string
	AgeGroup    string
	Occupation  string
	Personality string
}

// Characters is the cast offered to the model.
var Characters = []Character{
	{"田中さん", "Tanaka-san", "young adult", "convenience store worker", "friendly, knows all the customers"},
	{"山田くん", "Yamada-kun", "high school student", "athlete", "friendly and excited"},
	{"ゆみちゃん", "Yumi-chan", "middle school student", "student", "nerd, shy but always happy to talk about her interests"},
	{"小川先生", "Ogawa-sensei", "retired", "retired university professor", "gruff but knowledgeable, gives great advice"},
}

// Vocabulary is the sampled learner knowledge a prompt is built from.
type Vocabulary struct {
	Kanji    []string
	Safe     []string
	Phonetic []string
}

// SampleVocabulary classifies the snapshot's vocabulary and draws random
// samples of each tier within the prompt caps. r nil uses the global source.
func SampleVocabulary(snap knowledge.Snapshot, r *rand.Rand) Vocabulary {
	tiers := classify.Classify(snap.Known, snap.Vocabulary, classify.WithDedupe())
	return Vocabulary{
		Kanji:    sample(r, snap.Known.Strings(), MaxKanjiForPrompt),
		Safe:     sample(r, tiers.Safe, MaxVocabForPrompt),
		Phonetic: sample(r, tiers.PhoneticOnly, MaxPhoneticForPrompt),
	}
}

func sample(r *rand.Rand, in []string, n int) []string {
	out := append([]string(nil), in...)
	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

const systemPrompt = `You are a Japanese language teacher creating reading comprehension exercises.
Your task is to generate a natural Japanese dialogue using ONLY the vocabulary and kanji provided by the user.

CRITICAL CONSTRAINT - VOCABULARY RESTRICTION:
You MUST use ONLY the kanji and vocabulary words provided in the user's message.
DO NOT use any kanji or vocabulary that is not explicitly listed.
If a kanji does NOT appear in either the "Available Kanji" list or within the "Available Vocabulary" lists, you MUST NOT use it.
The user is a language learner and can only read the words they have studied.

Requirements:
1. Choose EXACTLY 2 characters from the provided character list to participate in the dialogue
2. Keep the dialogue consistent with the chosen characters' personalities, age groups and occupations
3. STRICTLY USE ONLY the kanji and vocabulary words provided
4. Write one line per utterance in the form "Speaker：text"
5. Match the grammar complexity and formality to the difficulty level:
   - Beginner (N5): Simple present/past tense, basic particles (は、が、を、に、で), polite form (です/ます)
   - Intermediate (N4-N3): More complex particles, て-form, conditionals, casual and polite forms
   - Advanced (N2-N1): Complex grammar, honorifics/humble forms, nuanced expressions, literary style
6. Include EXACTLY %d comprehension questions with 4 multiple choice options each
7. Questions should test vocabulary, grammar, context and inference
8. Provide an English translation

Format your response as JSON with this structure:
{
  "participants": ["Character Name 1", "Character Name 2"],
  "japanese_text": "The dialogue in Japanese",
  "english_translation": "The English translation",
  "questions": [
    {
      "question": "Question in English",
      "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
      "correct_index": 0,
      "explanation": "Why this is correct"
    }
  ]
}`

// SystemPrompt returns the fixed instructions for a dialogue with n questions.
func SystemPrompt(n int) string {
	return fmt.Sprintf(systemPrompt, n)
}

// UserPrompt lists the learner's sampled knowledge for one request.
func UserPrompt(d Difficulty, v Vocabulary, questions int) string {
	minLevel, maxLevel := d.Levels()
	var b strings.Builder
	fmt.Fprintf(&b, "Difficulty Level: %s (%s)\n", d, d.JLPT())
	fmt.Fprintf(&b, "Study Levels: %d-%d\n\n", minLevel, maxLevel)

	b.WriteString("Available Characters (choose EXACTLY 2):\n")
	for _, c := range Characters {
		fmt.Fprintf(&b, "- %s (%s): %s, %s. %s\n", c.Name, c.Romaji, c.AgeGroup, c.Occupation, c.Personality)
	}

	fmt.Fprintf(&b, "\nAvailable Kanji (%d):\n%s\n", len(v.Kanji), strings.Join(v.Kanji, ", "))
	fmt.Fprintf(&b, "\nAvailable Vocabulary - WITH KANJI (%d words):\n%s\n", len(v.Safe), strings.Join(v.Safe, ", "))
	fmt.Fprintf(&b, "\nAvailable Vocabulary - HIRAGANA ONLY (%d words):\n%s\n", len(v.Phonetic), strings.Join(v.Phonetic, ", "))
	fmt.Fprintf(&b, "\nGrammar Guidelines: %s\n", d.GrammarNotes())

	fmt.Fprintf(&b, `
IMPORTANT INSTRUCTIONS:
1. Do NOT use any kanji that is not in the "Available Kanji" list or contained within the "Available Vocabulary - WITH KANJI" words
2. Do NOT use any vocabulary that is not in either vocabulary list
3. Words in "Available Vocabulary - HIRAGANA ONLY" MUST be written in hiragana. The learner has not studied their kanji yet.
4. Use grammar and formality appropriate for %s and the characters' relationship
5. Include EXACTLY %d comprehension questions
`, d.JLPT(), questions)
	return b.String()
}
