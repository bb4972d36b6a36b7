// Package catalog normalizes backend category records and groups them
// by content type for the selection step of the wizard.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ContentType classifies a category as live TV, video on demand, or series.
type ContentType string

const (
	Live   ContentType = "live"
	VOD    ContentType = "vod"
	Series ContentType = "series"
)

// Types lists every content type in display order.
var Types = []ContentType{Live, VOD, Series}

// Label returns the human-readable heading for a content type.
func (t ContentType) Label() string {
	switch t {
	case VOD:
		return "VOD"
	case Series:
		return "Series"
	default:
		return "Live TV"
	}
}

// Record is a raw category entry as returned by the backend. Backends
// are inconsistent about identifier types, so ID stays untyped until
// normalized by Load.
type Record struct {
	ID   any    `json:"category_id"`
	Name string `json:"category_name"`
	Type string `json:"content_type"`
}

// Category is a normalized catalog entry.
type Category struct {
	ID   string
	Name string
	Type ContentType
}

// Store holds the categories fetched for one session, partitioned by
// content type while preserving the backend's original order. A Store
// is never mutated after Load; a new fetch builds a new Store.
type Store struct {
	all      []Category
	sections map[ContentType][]Category
	index    map[string]Category
}

// Load normalizes raw records into a Store. Loading is deterministic
// and side-effect-free: the same records always produce the same
// grouping. Records missing a content type land in the live section,
// and records missing a name or id are kept as-is rather than dropped.
func Load(records []Record) *Store {
	s := &Store{
		all:      make([]Category, 0, len(records)),
		sections: make(map[ContentType][]Category, len(Types)),
		index:    make(map[string]Category, len(records)),
	}

	for _, r := range records {
		c := Category{
			ID:   idString(r.ID),
			Name: r.Name,
			Type: contentTypeOf(r.Type),
		}

		s.all = append(s.all, c)
		s.sections[c.Type] = append(s.sections[c.Type], c)
		s.index[c.ID] = c
	}

	return s
}

// All returns every category in original backend order.
func (s *Store) All() []Category { return s.all }

// Section returns the categories of one content type in original order.
func (s *Store) Section(t ContentType) []Category { return s.sections[t] }

// Len reports the total number of categories.
func (s *Store) Len() int { return len(s.all) }

// Has reports whether an identifier exists in the store.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Get looks up a category by identifier.
func (s *Store) Get(id string) (Category, bool) {
	c, ok := s.index[id]
	return c, ok
}

// Counts is a per-type category tally.
type Counts struct {
	Live   int
	VOD    int
	Series int
}

// Total sums the tally across content types.
func (c Counts) Total() int { return c.Live + c.VOD + c.Series }

// CountsByType tallies the stored categories per content type.
func (s *Store) CountsByType() Counts {
	return Counts{
		Live:   len(s.sections[Live]),
		VOD:    len(s.sections[VOD]),
		Series: len(s.sections[Series]),
	}
}

func contentTypeOf(raw string) ContentType {
	switch raw {
	case string(VOD):
		return VOD
	case string(Series):
		return Series
	default:
		return Live
	}
}

// idString renders a category id the way it appeared on the wire.
// JSON numbers decode as float64, so integral values need the
// fractional part stripped instead of rendering as "10.000000".
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
