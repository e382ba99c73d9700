package reader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<p>漢字</p>", "<p>漢字</p>"},
		{"rt", "<ruby>漢字<rt>かんじ</rt></ruby>", "<ruby>漢字</ruby>"},
		{"rp and rt", "<ruby>桜<rp>(</rp><rt>さくら</rt><rp>)</rp></ruby>", "<ruby>桜</ruby>"},
		{"attributes and case", `<RUBY>学<RT class="x">がく</RT></RUBY>`, "<RUBY>学</RUBY>"},
		{"multiline", "<ruby>生<rt>\nせい\n</rt></ruby>", "<ruby>生</ruby>"},
		{"rtc left alone", "<rtc>x</rtc>", "<rtc>x</rtc>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(SanitizeRuby([]byte(tc.in))))
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	assert.Nil(t, SplitParagraphs(""))
	assert.Equal(t, []string{"一"}, SplitParagraphs("一"))
	assert.Equal(t, []string{"一\n", "\n", "二"}, SplitParagraphs("一\n\n二"))
	assert.Equal(t, []string{"一\n"}, SplitParagraphs("一\n"))

	text := "学生です。\n先生です。\n\n終わり"
	assert.Equal(t, text, strings.Join(SplitParagraphs(text), ""))
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("今日は晴れ。本当？はい！\nまた")
	assert.Equal(t, []string{"今日は晴れ。", "本当？", "はい！", "\n", "また"}, got)
}

func TestFetchArticle(t *testing.T) {
	page, err := os.ReadFile("testdata/article.html")
	require.NoError(t, err)

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	art, err := FetchArticle(context.Background(), srv.Client(), srv.URL+"/spring", 0)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, art.Title, "春の散歩")
	assert.Contains(t, art.Text, "公園を散歩しました")
	assert.Contains(t, art.Text, "桜の花")
	assert.NotContains(t, art.Text, "さくら")
	assert.NotContains(t, art.Text, "がくせい")
	assert.Equal(t, srv.URL+"/spring", art.URL)
}

func TestFetchArticleErrors(t *testing.T) {
	big := strings.Repeat("あ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/big":
			// Chunked so Content-Length is not known up front.
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte(big))
		default:
			_, _ = w.Write([]byte("<html></html>"))
		}
	}))
	defer srv.Close()

	_, err := FetchArticle(context.Background(), srv.Client(), srv.URL+"/missing", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = FetchArticle(context.Background(), srv.Client(), srv.URL+"/big", 64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))

	_, err = FetchArticle(context.Background(), srv.Client(), "ftp://example.com/x", 0)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FetchArticle(ctx, srv.Client(), srv.URL, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
