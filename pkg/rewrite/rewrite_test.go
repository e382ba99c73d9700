package rewrite

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

func terms(pairs ...string) []knowledge.Term {
	out := make([]knowledge.Term, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, knowledge.Term{Term: pairs[i], Reading: pairs[i+1]})
	}
	return out
}

func TestRewriteKnownTermLeftAlone(t *testing.T) {
	known := knowledge.NewKnownSet("一", "二")
	readings := terms("一二", "いちに", "三", "さん")
	got := Rewrite("一二三", known, readings, ModePhoneticSubstitute)
	assert.Equal(t, "一二さん", got)
}

func TestRewritePhoneticSubstitute(t *testing.T) {
	known := knowledge.NewKnownSet("一", "二", "三")
	readings := terms("勉強", "べんきょう", "買い物", "かいもの", "一二三", "いちにさん")

	tests := []struct {
		name, in, want string
	}{
		{"single word", "今日は勉強します", "今日はべんきょうします"},
		{"multiple words", "勉強と買い物", "べんきょうとかいもの"},
		{"all known", "一二三", "一二三"},
		{"no kanji", "ひらがなだけです", "ひらがなだけです"},
		{"repeated", "勉強、勉強、勉強", "べんきょう、べんきょう、べんきょう"},
		{"term absent", "今日は雨", "今日は雨"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in, known, readings, ModePhoneticSubstitute))
		})
	}
}

func TestRewriteInlineAnnotate(t *testing.T) {
	known := knowledge.NewKnownSet("一", "二", "三")
	readings := terms("勉強", "べんきょう", "買い物", "かいもの", "一二三", "いちにさん")

	got := Rewrite("今日は勉強します", known, readings, ModeInlineAnnotate)
	assert.Equal(t, "今日は<ruby>勉強<rt>べんきょう</rt></ruby>します", got)

	got = Rewrite("勉強と買い物", known, readings, ModeInlineAnnotate)
	assert.Equal(t, "<ruby>勉強<rt>べんきょう</rt></ruby>と<ruby>買い物<rt>かいもの</rt></ruby>", got)

	got = Rewrite("一二三", known, readings, ModeInlineAnnotate)
	assert.NotContains(t, got, "<ruby>")
}

func TestRewriteModeNoneIsIdentity(t *testing.T) {
	readings := terms("勉強", "べんきょう")
	assert.Equal(t, "勉強", Rewrite("勉強", knowledge.NewKnownSet(), readings, ModeNone))
	assert.Nil(t, Plan("勉強", knowledge.NewKnownSet(), readings, ModeNone))
	assert.Equal(t, "勉強", Rewrite("勉強", knowledge.NewKnownSet(), readings, Mode(9)))
}

func TestRewriteLongestFirst(t *testing.T) {
	readings := terms("勉", "べん", "勉強", "べんきょう")
	got := Rewrite("勉強する勉", knowledge.NewKnownSet(), readings, ModePhoneticSubstitute)
	assert.Equal(t, "べんきょうするべん", got)
}

func TestRewriteTiesKeepInputOrder(t *testing.T) {
	readings := terms("日本語", "にほんご", "本語学", "ほんごがく")
	got := Rewrite("日本語学", knowledge.NewKnownSet(), readings, ModePhoneticSubstitute)
	assert.Equal(t, "にほんご学", got)

	readings = terms("本語学", "ほんごがく", "日本語", "にほんご")
	got = Rewrite("日本語学", knowledge.NewKnownSet(), readings, ModePhoneticSubstitute)
	assert.Equal(t, "日ほんごがく", got)
}

func TestRewriteSkipsOnlyOverlappingOccurrence(t *testing.T) {
	readings := terms("日本語", "にほんご", "語学", "ごがく")
	got := Rewrite("日本語学、語学", knowledge.NewKnownSet(), readings, ModePhoneticSubstitute)
	assert.Equal(t, "にほんご学、ごがく", got)
}

func TestRewriteAnnotationNotReprocessed(t *testing.T) {
	readings := terms("勉強", "べんきょう", "強", "つよ")
	got := Rewrite("勉強", knowledge.NewKnownSet(), readings, ModeInlineAnnotate)
	assert.Equal(t, "<ruby>勉強<rt>べんきょう</rt></ruby>", got)
}

func TestRewriteIneligibleTermUntouched(t *testing.T) {
	// 一二 is fully known; only 三 is unknown in the text.
	known := knowledge.NewKnownSet("一", "二")
	readings := terms("一二", "いちに", "すし", "スシ")
	got := Rewrite("一二三すし", known, readings, ModePhoneticSubstitute)
	assert.Equal(t, "一二三すし", got)
}

func TestRewriteEmptyReadingDeletesSpan(t *testing.T) {
	readings := terms("勉強", "")
	got := Rewrite("今日勉強", knowledge.NewKnownSet("今", "日"), readings, ModePhoneticSubstitute)
	assert.Equal(t, "今日", got)
}

func TestRewriteFirstReadingWins(t *testing.T) {
	readings := terms("猫", "ねこ", "猫", "ネコ")
	assert.Equal(t, "ねこ", Rewrite("猫", knowledge.NewKnownSet(), readings, ModePhoneticSubstitute))
}

func TestRewritePassesSurroundingTextThrough(t *testing.T) {
	text := "«Ａ» 今日は\n勉強\tします 🙂"
	readings := terms("勉強", "べんきょう")
	known := knowledge.NewKnownSet("今", "日")
	plan := Plan(text, known, readings, ModePhoneticSubstitute)
	require.Len(t, plan, 1)
	assert.Equal(t, text[:plan[0].Start], "«Ａ» 今日は\n")
	assert.Equal(t, "«Ａ» 今日は\nべんきょう\tします 🙂", Apply(text, plan))
}

func TestRewritePhoneticIsIdempotent(t *testing.T) {
	known := knowledge.NewKnownSet("今", "日", "一")
	readings := terms("勉強", "べんきょう", "買い物", "かいもの", "一つ", "ひとつ", "物", "もの")
	for _, text := range []string{
		"今日は勉強と買い物をします",
		"物を一つ買い物",
		"勉強勉強物物",
		"ひらがな",
	} {
		once := Rewrite(text, known, readings, ModePhoneticSubstitute)
		twice := Rewrite(once, known, readings, ModePhoneticSubstitute)
		assert.Equal(t, once, twice, "second pass changed %q", text)
		assert.Empty(t, Plan(once, known, readings, ModePhoneticSubstitute))
	}
}

func TestRewriteDeterministic(t *testing.T) {
	readings := terms("日本語", "にほんご", "語学", "ごがく", "学", "がく")
	a := Rewrite("日本語学の語学", knowledge.NewKnownSet(), readings, ModeInlineAnnotate)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a, Rewrite("日本語学の語学", knowledge.NewKnownSet(), readings, ModeInlineAnnotate))
	}
}

func TestRewriteConcurrentCallers(t *testing.T) {
	known := knowledge.NewKnownSet("日")
	readings := terms("日本語", "にほんご", "学生", "がくせい")
	want := Rewrite("日本語の学生", known, readings, ModePhoneticSubstitute)

	const n = 16
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Rewrite("日本語の学生", known, readings, ModePhoneticSubstitute)
		}(i)
	}
	wg.Wait()
	for _, g := range got {
		assert.Equal(t, want, g)
	}
	assert.Equal(t, "にほんごのがくせい", want)
}

func TestPlanOverlapFree(t *testing.T) {
	alphabet := []rune("日本語学生先今山川のはをがい")
	rng := rand.New(rand.NewSource(42))
	randomText := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		return b.String()
	}

	for iter := 0; iter < 200; iter++ {
		text := randomText(30)
		runes := []rune(text)
		var readings []knowledge.Term
		for k := 0; k < 8; k++ {
			start := rng.Intn(len(runes))
			end := start + 1 + rng.Intn(4)
			if end > len(runes) {
				end = len(runes)
			}
			readings = append(readings, knowledge.Term{Term: string(runes[start:end]), Reading: "x"})
		}
		known := knowledge.NewKnownSet("の", "山")

		for _, mode := range []Mode{ModePhoneticSubstitute, ModeInlineAnnotate} {
			plan := Plan(text, known, readings, mode)
			for i := range plan {
				assert.Equal(t, plan[i].Term, text[plan[i].Start:plan[i].End])
				if i > 0 {
					assert.LessOrEqual(t, plan[i-1].End, plan[i].Start, "plan not sorted/disjoint for %q", text)
				}
				for j := i + 1; j < len(plan); j++ {
					assert.False(t, plan[i].Overlaps(plan[j].Range), "overlap in plan for %q", text)
				}
			}
			assert.NotPanics(t, func() { Apply(text, plan) })
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{Range{0, 3}, Range{3, 6}, false},
		{Range{0, 3}, Range{2, 5}, true},
		{Range{2, 5}, Range{0, 3}, true},
		{Range{0, 6}, Range{2, 3}, true},
		{Range{1, 4}, Range{1, 4}, true},
		{Range{4, 4}, Range{4, 4}, true},
		{Range{0, 1}, Range{5, 9}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Overlaps(tt.b), "%v vs %v", tt.a, tt.b)
		assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "%v vs %v", tt.b, tt.a)
	}
}

func TestApplyPanicsOnInvalidPlan(t *testing.T) {
	text := "abcdef"
	assert.Panics(t, func() {
		Apply(text, []Replacement{{Range: Range{0, 3}, Text: "x"}, {Range: Range{2, 4}, Text: "y"}})
	})
	assert.Panics(t, func() {
		Apply(text, []Replacement{{Range: Range{4, 2}, Text: "x"}})
	})
	assert.Panics(t, func() {
		Apply(text, []Replacement{{Range: Range{5, 10}, Text: "x"}})
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"none", ModeNone},
		{"", ModeNone},
		{"phonetic_substitute", ModePhoneticSubstitute},
		{"hiragana", ModePhoneticSubstitute},
		{"inline_annotate", ModeInlineAnnotate},
		{"FURIGANA", ModeInlineAnnotate},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseMode("romaji")
	assert.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("inline_annotate")))
	assert.Equal(t, ModeInlineAnnotate, m)
	b, err := ModePhoneticSubstitute.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "phonetic_substitute", string(b))
}
