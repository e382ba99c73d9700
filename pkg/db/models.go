package db

import (
	"time"

	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

// StudyItem is one persisted study record for a learner.
type StudyItem struct {
	ID         int64
	Learner    string
	Source     string
	ExternalID string
	Term       string
	Reading    string
	Kind       knowledge.Kind
	HiddenAt   *time.Time
	UpdatedAt  time.Time
}

// Record flattens the item into the engine's boundary triple.
func (s StudyItem) Record() knowledge.Record {
	return knowledge.Record{Term: s.Term, Reading: s.Reading, Kind: s.Kind}
}

// ItemsFromRecords wraps records as study items keyed by kind and term.
func ItemsFromRecords(records []knowledge.Record) []StudyItem {
	items := make([]StudyItem, len(records))
	for i, r := range records {
		items[i] = StudyItem{Term: r.Term, Reading: r.Reading, Kind: r.Kind}
	}
	return items
}
