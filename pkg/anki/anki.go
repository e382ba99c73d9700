// Package anki reads vocabulary from Anki .apkg deck packages.
//
// An .apkg file is a zip archive holding a SQLite collection. Cards the
// learner knows well (review cards with an interval of at least three weeks)
// become vocabulary study items; everything else is counted as skipped.
package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/kana"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// Source is the study item source name for Anki imports.
const Source = "anki"

const (
	cardTypeReview = 2
	// WellKnownInterval is the minimum review interval, in days, for a card
	// to count as known.
	WellKnownInterval = 21
	fieldSeparator    = "\x1f"
)

// ErrInvalidPackage is returned for files that are not usable .apkg archives.
var ErrInvalidPackage = errors.New("invalid anki package")

// Card is one non-suspended card joined with its note.
type Card struct {
	CardID   int64
	NoteID   int64
	Deck     string
	Type     int
	Interval int
	Lapses   int
	Term     string
	Reading  string
	Meanings []string
	Tags     []string
}

// WellKnown reports whether the learner has mastered the card.
func (c Card) WellKnown() bool {
	return c.Type == cardTypeReview && c.Interval >= WellKnownInterval
}

// Result summarises an import.
type Result struct {
	Cards    []Card
	Items    []db.StudyItem
	Imported int
	Skipped  int
}

// Importer reads .apkg files.
type Importer struct {
	// Logger receives per-card diagnostics. nil means no logging.
	Logger *zap.Logger
	// TempDir is where the collection is unpacked; "" uses os.TempDir.
	TempDir string
}

// Import unpacks the package at apkgPath and converts its well-known cards.
func (im *Importer) Import(apkgPath string) (*Result, error) {
	logger := im.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.HasSuffix(strings.ToLower(apkgPath), ".apkg") {
		return nil, fmt.Errorf("%w: %s is not a .apkg file", ErrInvalidPackage, apkgPath)
	}

	dir, err := os.MkdirTemp(im.TempDir, "kanjiguard-anki-*")
	if err != nil {
		return nil, fmt.Errorf("anki: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	collection, err := extractCollection(apkgPath, dir)
	if err != nil {
		return nil, err
	}

	cards, err := readCards(collection)
	if err != nil {
		return nil, err
	}

	res := &Result{Cards: cards}
	for _, c := range cards {
		if !c.WellKnown() {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, db.StudyItem{
			Source:     Source,
			ExternalID: strconv.FormatInt(c.CardID, 10),
			Term:       c.Term,
			Reading:    kana.NormalizeReading(c.Reading),
			Kind:       knowledge.KindVocabulary,
		})
		res.Imported++
	}
	logger.Info("anki package read",
		zap.String("path", apkgPath),
		zap.Int("cards", len(cards)),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// extractCollection copies the SQLite collection out of the archive into dir.
func extractCollection(apkgPath, dir string) (string, error) {
	zr, err := zip.OpenReader(apkgPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	defer zr.Close()

	var best *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch path.Ext(f.Name) {
		case ".anki21":
			best = f
		case ".anki2":
			if best == nil {
				best = f
			}
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: no anki database found in %s", ErrInvalidPackage, apkgPath)
	}

	dest := filepath.Join(dir, "collection.db")
	rc, err := best.Open()
	if err != nil {
		return "", fmt.Errorf("anki: open %s: %w", best.Name, err)
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("anki: create collection: %w", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return "", fmt.Errorf("anki: extract collection: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

const cardsQuery = `SELECT cards.id, cards.nid, cards.did, cards.type, cards.ivl, cards.lapses, notes.flds, notes.tags
FROM cards JOIN notes ON cards.nid = notes.id
WHERE cards.queue != -1
ORDER BY cards.id`

func readCards(collection string) ([]Card, error) {
	conn, err := sql.Open("sqlite3", "file:"+collection+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("anki: open collection: %w", err)
	}
	defer conn.Close()

	decks, err := readDecks(conn)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(cardsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: read cards: %v", ErrInvalidPackage, err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var c Card
		var deckID int64
		var fields, tags string
		if err := rows.Scan(&c.CardID, &c.NoteID, &deckID, &c.Type, &c.Interval, &c.Lapses, &fields, &tags); err != nil {
			return nil, fmt.Errorf("anki: scan card: %w", err)
		}
		if !parseFields(&c, strings.Split(fields, fieldSeparator)) {
			continue
		}
		c.Tags = strings.Fields(tags)
		c.Deck = decks[deckID]
		if c.Deck == "" {
			c.Deck = "Unknown"
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// readDecks maps deck ids to names from the collection's JSON deck table.
// A missing or malformed table yields an empty map.
func readDecks(conn *sql.DB) (map[int64]string, error) {
	out := make(map[int64]string)
	var raw string
	err := conn.QueryRow(`SELECT decks FROM col LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read decks: %v", ErrInvalidPackage, err)
	}
	var decks map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(raw), &decks); err != nil {
		return out, nil
	}
	for id, d := range decks {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		out[n] = d.Name
	}
	return out, nil
}

// parseFields fills term, reading and meanings. Field 0 is the term and
// field 1 the reading; later non-Japanese fields are meanings. It reports
// false for notes whose term has no Japanese text.
func parseFields(c *Card, fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	c.Term = stripHTML(fields[0])
	if c.Term == "" || !kana.HasJapanese(c.Term) {
		return false
	}
	if len(fields) > 1 {
		c.Reading = stripHTML(fields[1])
	}
	seen := make(map[string]struct{})
	for _, f := range fields[1:] {
		m := stripHTML(f)
		if m == "" || kana.HasJapanese(m) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		c.Meanings = append(c.Meanings, m)
	}
	return true
}

// stripHTML turns a note field into plain text: tags dropped, entities
// decoded, <br> and non-breaking spaces folded to plain spaces.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(s))
	}
	var sb strings.Builder
	collectText(doc, &sb)
	text := strings.ReplaceAll(sb.String(), "\u00a0", " ")
	return strings.TrimSpace(text)
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "br":
			sb.WriteString(" ")
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
