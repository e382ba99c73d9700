package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

// DBExecutor is satisfied by both *sql.DB and *sql.Tx.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// UpsertStudyItem inserts the item or refreshes term, reading, kind and
// visibility of the existing row with the same (learner, source, external_id).
func UpsertStudyItem(db DBExecutor, item StudyItem) (int64, error) {
	learner := strings.TrimSpace(item.Learner)
	if learner == "" {
		return 0, fmt.Errorf("learner must be non-empty")
	}
	if strings.TrimSpace(item.Source) == "" {
		return 0, fmt.Errorf("source must be non-empty")
	}
	term := strings.TrimSpace(item.Term)
	if term == "" {
		return 0, fmt.Errorf("term must be non-empty")
	}
	if !item.Kind.IsValid() {
		return 0, fmt.Errorf("invalid kind %q", item.Kind)
	}
	externalID := item.ExternalID
	if externalID == "" {
		externalID = string(item.Kind) + ":" + term
	}

	var id int64
	err := db.QueryRow(`INSERT INTO study_items (learner, source, external_id, term, reading, kind, hidden_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(learner, source, external_id) DO UPDATE SET
	  term = excluded.term,
	  reading = COALESCE(NULLIF(excluded.reading, ''), study_items.reading),
	  kind = excluded.kind,
	  hidden_at = excluded.hidden_at,
	  updated_at = excluded.updated_at
	RETURNING id`,
		learner, item.Source, externalID, term, item.Reading, string(item.Kind), nullableTime(item.HiddenAt), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert study item: %w", err)
	}
	return id, nil
}

// ListStudyItems returns the learner's visible items ordered by insertion.
func ListStudyItems(db DBExecutor, learner string) ([]StudyItem, error) {
	rows, err := db.Query(`SELECT id, learner, source, external_id, term, reading, kind, updated_at
	FROM study_items WHERE learner = ? AND hidden_at IS NULL ORDER BY id`, learner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudyItem
	for rows.Next() {
		var it StudyItem
		var reading sql.NullString
		var kind string
		if err := rows.Scan(&it.ID, &it.Learner, &it.Source, &it.ExternalID, &it.Term, &reading, &kind, &it.UpdatedAt); err != nil {
			return nil, err
		}
		if reading.Valid {
			it.Reading = reading.String
		}
		it.Kind = knowledge.Kind(kind)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadRecords returns the learner's visible items as engine records.
func LoadRecords(db DBExecutor, learner string) ([]knowledge.Record, error) {
	items, err := ListStudyItems(db, learner)
	if err != nil {
		return nil, fmt.Errorf("list study items: %w", err)
	}
	records := make([]knowledge.Record, len(items))
	for i, it := range items {
		records[i] = it.Record()
	}
	return records, nil
}

// CountStudyItems returns visible item counts per kind for the learner.
func CountStudyItems(db DBExecutor, learner string) (map[knowledge.Kind]int, error) {
	rows, err := db.Query(`SELECT kind, COUNT(*) FROM study_items WHERE learner = ? AND hidden_at IS NULL GROUP BY kind`, learner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[knowledge.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[knowledge.Kind(kind)] = n
	}
	return out, rows.Err()
}

// GetDisplayMode returns the learner's stored display mode, ModeNone when unset.
func GetDisplayMode(db DBExecutor, learner string) (rewrite.Mode, error) {
	mode, _, err := LookupDisplayMode(db, learner)
	return mode, err
}

// LookupDisplayMode is GetDisplayMode that also reports whether a mode is stored.
func LookupDisplayMode(db DBExecutor, learner string) (rewrite.Mode, bool, error) {
	var s string
	err := db.QueryRow(`SELECT display_mode FROM learner_settings WHERE learner = ?`, learner).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return rewrite.ModeNone, false, nil
	}
	if err != nil {
		return rewrite.ModeNone, false, err
	}
	mode, err := rewrite.ParseMode(s)
	if err != nil {
		return rewrite.ModeNone, false, err
	}
	return mode, true, nil
}

// SetDisplayMode stores the learner's display mode.
func SetDisplayMode(db DBExecutor, learner string, mode rewrite.Mode) error {
	if strings.TrimSpace(learner) == "" {
		return fmt.Errorf("learner must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO learner_settings (learner, display_mode, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(learner) DO UPDATE SET display_mode = excluded.display_mode, updated_at = excluded.updated_at`,
		learner, mode.String(), time.Now().UTC())
	return err
}

// nullableTime returns nil for a nil pointer else the UTC value.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
