package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

func setupStore(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestIngestWritesAndRejects(t *testing.T) {
	conn := setupStore(t)
	core, logs := observer.New(zap.WarnLevel)

	ig := NewIngester(conn)
	ig.BatchSize = 2
	ig.Logger = zap.New(core)
	var progress [][2]int
	ig.OnProgress = func(cur, total int) { progress = append(progress, [2]int{cur, total}) }

	items := []db.StudyItem{
		{Term: "一", Kind: knowledge.KindKanji},
		{Term: "  ", Kind: knowledge.KindVocabulary},
		{Term: "学生", Reading: "ガクセイ", Kind: knowledge.KindVocabulary},
		{Term: "本", Kind: knowledge.Kind("bogus")},
		{Term: "ﾃｽﾄ", Reading: "ﾃｽﾄ", Kind: knowledge.KindKanaVocabulary},
	}
	stats, err := ig.Ingest(context.Background(), "ann", "yaml", items)
	require.NoError(t, err)
	assert.Equal(t, Stats{Written: 3, Rejected: 2}, stats)
	assert.Equal(t, 2, logs.FilterMessage("rejecting study item").Len())
	require.NotEmpty(t, progress)
	assert.Equal(t, [2]int{5, 5}, progress[len(progress)-1])

	stored, err := db.ListStudyItems(conn, "ann")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "yaml", stored[0].Source)
	assert.Equal(t, "がくせい", stored[1].Reading)
	assert.Equal(t, "てすと", stored[2].Reading)

	// Ingesting again updates in place.
	stats, err = ig.Ingest(context.Background(), "ann", "yaml", items)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)
	n, err := db.CountStudyItems(conn, "ann")
	require.NoError(t, err)
	assert.Equal(t, 1, n[knowledge.KindKanji])
	assert.Equal(t, 1, n[knowledge.KindVocabulary])
}

func TestIngestRequiresLearnerAndSource(t *testing.T) {
	ig := NewIngester(setupStore(t))
	_, err := ig.Ingest(context.Background(), "", "yaml", nil)
	assert.Error(t, err)
	_, err = ig.Ingest(context.Background(), "ann", " ", nil)
	assert.Error(t, err)
}

func TestIngestSurfacesWriteErrors(t *testing.T) {
	conn := setupStore(t)
	_, err := conn.Exec("DROP TABLE study_items")
	require.NoError(t, err)

	ig := NewIngester(conn)
	ig.BatchSize = 1
	items := make([]db.StudyItem, 20)
	for i := range items {
		items[i] = db.StudyItem{Term: fmt.Sprintf("語%d", i), Kind: knowledge.KindVocabulary}
	}
	stats, err := ig.Ingest(context.Background(), "ann", "yaml", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist")
	assert.Equal(t, 0, stats.Written)
}

func TestIngestCanceledContext(t *testing.T) {
	ig := NewIngester(setupStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := ig.Ingest(ctx, "ann", "yaml", []db.StudyItem{{Term: "一", Kind: knowledge.KindKanji}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Written)
}
