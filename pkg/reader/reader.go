// Package reader turns imported documents into plain text ready for
// adaptation.
package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

// DefaultMaxBodyBytes caps fetched HTML when the caller passes no limit.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// ErrBodyTooLarge is returned when a response exceeds the size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Article is the readable part of a web page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// Ruby annotations may span lines and use any tag case.
var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby drops <rt> and <rp> elements and keeps the ruby base text,
// so an annotated 漢字 reads as 漢字 rather than 漢字かんじ once readability
// flattens the page. It works on raw bytes; the markup it matches is ASCII
// and cannot collide with Shift_JIS trail bytes.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// browserHeaders mimic a desktop browser; some sites refuse bare clients.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "ja,en-US;q=0.9,en;q=0.8",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Upgrade-Insecure-Requests": "1",
}

// FetchArticle downloads rawURL and extracts its readable text.
// maxBytes <= 0 means DefaultMaxBodyBytes.
func FetchArticle(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) (*Article, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", pageURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: Content-Length %d > %d", ErrBodyTooLarge, resp.ContentLength, maxBytes)
	}

	// Read one byte past the limit to tell "exactly at limit" from "truncated".
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, maxBytes)
	}
	return ParseArticle(bytes.NewReader(body), pageURL)
}

// ParseArticle extracts the readable text of an HTML document.
func ParseArticle(r io.Reader, pageURL *url.URL) (*Article, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(raw)), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	return &Article{
		URL:      pageURL.String(),
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Text:     strings.TrimSpace(article.TextContent),
	}, nil
}

// SplitParagraphs cuts text after every newline. The pieces keep their
// line breaks, so concatenating them yields text again.
func SplitParagraphs(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
	return out
}

// SplitSentences splits on Japanese sentence delimiters (。！？) and
// newlines, keeping each delimiter with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
