package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

func testSnapshot() knowledge.Snapshot {
	return knowledge.NewSnapshot([]knowledge.Record{
		{Term: "学", Kind: knowledge.KindKanji},
		{Term: "学生", Reading: "がくせい", Kind: knowledge.KindVocabulary},
		{Term: "先生", Reading: "せんせい", Kind: knowledge.KindVocabulary},
		{Term: "日本", Reading: "にほん", Kind: knowledge.KindVocabulary},
	})
}

func TestAdaptDocumentMatchesPerLineRewrite(t *testing.T) {
	snap := testSnapshot()
	var lines []string
	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			lines = append(lines, "私は学生です。")
		case 1:
			lines = append(lines, "先生は日本にいます。")
		default:
			lines = append(lines, "")
		}
	}
	text := strings.Join(lines, "\n")

	for _, mode := range []rewrite.Mode{rewrite.ModePhoneticSubstitute, rewrite.ModeInlineAnnotate} {
		t.Run(mode.String(), func(t *testing.T) {
			a := NewAdapter(snap, mode)
			a.Workers = 3
			var last int
			a.OnProgress = func(cur, total int) {
				assert.Equal(t, last+1, cur)
				last = cur
				assert.Equal(t, len(lines), total)
			}
			got, err := a.AdaptDocument(context.Background(), text)
			require.NoError(t, err)

			want := make([]string, len(lines))
			for i, l := range lines {
				want[i] = rewrite.Rewrite(l, snap.Known, snap.Readings, mode)
			}
			assert.Equal(t, strings.Join(want, "\n"), got)
			assert.Equal(t, len(lines), last)
		})
	}
}

func TestAdaptDocumentPassThrough(t *testing.T) {
	a := NewAdapter(testSnapshot(), rewrite.ModeNone)
	got, err := a.AdaptDocument(context.Background(), "先生\n学生")
	require.NoError(t, err)
	assert.Equal(t, "先生\n学生", got)

	a.Mode = rewrite.ModePhoneticSubstitute
	got, err = a.AdaptDocument(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

type failingPool struct{ *WorkerPool }

func (p failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("queue rejected job")
}

func TestAdaptDocumentSubmitError(t *testing.T) {
	a := NewAdapter(testSnapshot(), rewrite.ModePhoneticSubstitute)
	a.PoolFactory = func(workers, queue int) Pool {
		return failingPool{NewWorkerPool(workers, queue)}
	}
	_, err := a.AdaptDocument(context.Background(), "先生\n学生")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue rejected job")
}

func TestAdaptDocumentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewAdapter(testSnapshot(), rewrite.ModePhoneticSubstitute)
	_, err := a.AdaptDocument(ctx, "先生\n学生")
	assert.ErrorIs(t, err, context.Canceled)
}
