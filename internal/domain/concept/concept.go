// Package concept models the controlled vocabulary: surface-form terms and
// the canonical concepts they refer to.
package concept

import "sort"

// Type classifies a concept.
type Type string

// Known concept types.
const (
	TypeOccupation Type = "occupation"
	TypeSkill      Type = "skill"
	TypeTrait      Type = "trait"
)

// Term is one surface string of the vocabulary. Many terms (synonyms,
// misspellings) may map to the same concept preferred label. Immutable
// once loaded.
type Term struct {
	Term       string `json:"term"`
	Concept    string `json:"concept"`
	Type       Type   `json:"type"`
	Misspelled bool   `json:"misspelled"`
}

// Extracted groups detected concept preferred labels by type. Each slice is
// sorted and free of duplicates.
type Extracted struct {
	Occupations []string `json:"occupations"`
	Skills      []string `json:"skills"`
	Traits      []string `json:"traits"`
}

// SortAll sorts every category in place.
func (e *Extracted) SortAll() {
	sort.Strings(e.Occupations)
	sort.Strings(e.Skills)
	sort.Strings(e.Traits)
}
