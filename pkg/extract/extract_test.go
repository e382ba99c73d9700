package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFencedWithRawNewline(t *testing.T) {
	raw := "```json\n{\"a\": \"line1\nline2\"}\n```"
	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "line1\nline2"}, got)
}

func TestExtractNoPayload(t *testing.T) {
	for _, raw := range []string{
		"I'm sorry, I cannot produce a dialogue about that topic.",
		"",
		"   \n\t ",
	} {
		_, err := Extract(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoPayload), "got %v", err)
		assert.Contains(t, err.Error(), "no structured payload found")
	}
}

func TestExtractWrappedInProse(t *testing.T) {
	raw := "Here is your dialogue:\n{\"participants\": [\"田中さん\", \"山田くん\"], \"n\": 2}\nEnjoy!"
	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, []any{"田中さん", "山田くん"}, got["participants"])
	assert.Equal(t, float64(2), got["n"])
}

func TestExtractUppercaseFenceAndSurroundingText(t *testing.T) {
	raw := "Sure!\n```JSON\n{\"k\": \"v\"}\n```\nLet me know if you need more."
	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, got)
}

func TestExtractPlainFenceFallsBackToBraces(t *testing.T) {
	raw := "```\n{\"k\": \"v\"}\n```"
	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, "v", got["k"])
}

func TestExtractUnparseable(t *testing.T) {
	raw := "{\"a\": " + strings.Repeat("x", 2000) + "}"
	_, err := Extract(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseable))

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.NotEmpty(t, xerr.Message)
	assert.LessOrEqual(t, len([]rune(xerr.Preview)), PreviewLimit)
	assert.True(t, strings.HasPrefix(xerr.Preview, `{"a": xxx`))
}

func TestDecodeIntoStruct(t *testing.T) {
	type question struct {
		Question     string   `json:"question"`
		Options      []string `json:"options"`
		CorrectIndex int      `json:"correct_index"`
	}
	var out struct {
		JapaneseText string     `json:"japanese_text"`
		Questions    []question `json:"questions"`
	}
	raw := "```json\n{\n  \"japanese_text\": \"田中さん：おはよう\n山田くん：おはよう\",\n  \"questions\": [{\"question\": \"Who?\", \"options\": [\"a\",\"b\"], \"correct_index\": 1}]\n}\n```"
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, "田中さん：おはよう\n山田くん：おはよう", out.JapaneseText)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, 1, out.Questions[0].CorrectIndex)
}

func TestDecodeBareArray(t *testing.T) {
	var out []string
	require.NoError(t, Decode(" [\"a\", \"b\"] ", &out))
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestExtractRoundTrip(t *testing.T) {
	objects := []map[string]any{
		{"text": "一行目\n二行目\n三行目"},
		{"text": "tab\there", "nested": map[string]any{"line": "a\r\nb"}},
		{"quote": "she said \"hi\"\nthen left", "list": []any{"x\ny", "z"}},
	}
	for _, obj := range objects {
		b, err := json.Marshal(obj)
		require.NoError(t, err)
		// Undo the escaping of control characters to mimic a generator that
		// writes literal line breaks inside strings.
		broken := strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t").Replace(string(b))
		wrapped := "Here you go:\n```json\n" + broken + "\n```\nThanks."

		got, err := Extract(wrapped)
		require.NoError(t, err)
		assert.Equal(t, obj, got)
	}
}

func TestPreviewBounds(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	long := strings.Repeat("漢", PreviewLimit+10)
	p := preview(long)
	assert.Equal(t, PreviewLimit, len([]rune(p)))
	assert.True(t, strings.HasSuffix(p, "..."))
}
