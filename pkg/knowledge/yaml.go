package knowledge

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// studyFile is the on-disk shape of a hand-maintained study list.
//
//	kanji: [一, 二, 三]
//	vocabulary:
//	  - term: 勉強
//	    reading: べんきょう
//	items:
//	  - {term: 猫, kind: kanji}
type studyFile struct {
	Kanji      []string `yaml:"kanji"`
	Vocabulary []Record `yaml:"vocabulary"`
	Items      []Record `yaml:"items"`
}

// LoadYAML decodes a study list. Entries under "vocabulary" default to
// KindVocabulary; entries under "items" must name a valid kind.
func LoadYAML(r io.Reader) ([]Record, error) {
	var f studyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: decode yaml: %w", err)
	}

	var out []Record
	for _, k := range f.Kanji {
		out = append(out, Record{Term: k, Kind: KindKanji})
	}
	for _, v := range f.Vocabulary {
		if v.Kind == "" {
			v.Kind = KindVocabulary
		}
		out = append(out, v)
	}
	var errs []error
	for i, it := range f.Items {
		kind, err := ParseKind(string(it.Kind))
		if err != nil {
			errs = append(errs, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		it.Kind = kind
		out = append(out, it)
	}
	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}
