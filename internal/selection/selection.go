// Package selection tracks which catalog categories the user has
// chosen and how that choice filters the generated playlist.
package selection

import (
	"fmt"
	"strings"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/shared"
)

// Mode decides whether selected categories are kept or dropped.
type Mode string

const (
	ModeInclude Mode = "include"
	ModeExclude Mode = "exclude"
)

// Selection tracks toggled category ids against one catalog store.
// An empty selection always means "no filter", whatever the mode.
// Only ids present in the bound store can ever be selected.
type Selection struct {
	store *catalog.Store
	ids   map[string]struct{}
	mode  Mode
}

// New creates an empty selection bound to a store. The initial mode
// is exclude. A replaced store needs a fresh Selection; ids from an
// older catalog must not survive a refetch.
func New(store *catalog.Store) *Selection {
	return &Selection{
		store: store,
		ids:   make(map[string]struct{}),
		mode:  ModeExclude,
	}
}

// Toggle flips membership of one category id. Ids the catalog does not
// contain are rejected without touching the selection.
func (s *Selection) Toggle(id string) error {
	if !s.store.Has(id) {
		return fmt.Errorf("%w: %s", shared.ErrUnknownCategory, id)
	}

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}

	return nil
}

// Selected reports whether a category id is currently toggled on.
func (s *Selection) Selected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Count returns the number of selected categories.
func (s *Selection) Count() int { return len(s.ids) }

// Mode returns the active filter mode.
func (s *Selection) Mode() Mode { return s.mode }

// SetMode replaces the filter mode without touching the selected ids.
func (s *Selection) SetMode(mode Mode) { s.mode = mode }

// ToggleMode switches between include and exclude.
func (s *Selection) ToggleMode() {
	if s.mode == ModeInclude {
		s.mode = ModeExclude
	} else {
		s.mode = ModeInclude
	}
}

// ToggleSection selects every category of one content type, or clears
// them all when each one is already selected. The all-or-nothing
// decision is recomputed from current membership on every call, so a
// section partially deselected by hand fills back up on the next call
// instead of clearing.
func (s *Selection) ToggleSection(t catalog.ContentType) {
	s.toggleGroup(s.store.Section(t))
}

// ToggleAll applies the same all-or-nothing toggle across the whole
// catalog regardless of section.
func (s *Selection) ToggleAll() {
	s.toggleGroup(s.store.All())
}

func (s *Selection) toggleGroup(categories []catalog.Category) {
	if len(categories) == 0 {
		return
	}

	all := true
	for _, c := range categories {
		if _, ok := s.ids[c.ID]; !ok {
			all = false
			break
		}
	}

	for _, c := range categories {
		if all {
			delete(s.ids, c.ID)
		} else {
			s.ids[c.ID] = struct{}{}
		}
	}
}

// Clear empties the selection. The mode is kept.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Summary is a display projection of the current selection. ByType
// only carries content types with at least one selected category.
type Summary struct {
	Count  int
	ByType map[catalog.ContentType]int
}

// Summary tallies the selection per content type.
func (s *Selection) Summary() Summary {
	sum := Summary{ByType: make(map[catalog.ContentType]int)}

	for id := range s.ids {
		c, ok := s.store.Get(id)
		if !ok {
			continue
		}
		sum.Count++
		sum.ByType[c.Type]++
	}

	return sum
}

// String renders the summary as, for example, "3 selected (2 live, 1 vod)".
func (s Summary) String() string {
	if s.Count == 0 {
		return "nothing selected"
	}

	parts := make([]string, 0, len(s.ByType))
	for _, ct := range catalog.Types {
		if n := s.ByType[ct]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, ct))
		}
	}

	return fmt.Sprintf("%d selected (%s)", s.Count, strings.Join(parts, ", "))
}

// Filter is the wire-ready form of a selection: the category names to
// keep or drop. An empty Groups slice means no filtering at all.
type Filter struct {
	Mode   Mode
	Groups []string
}

// Empty reports whether the filter restricts anything.
func (f Filter) Empty() bool { return len(f.Groups) == 0 }

// Filter resolves the selected ids to category names in catalog order.
// The backend matches groups by name, never by id.
func (s *Selection) Filter() Filter {
	f := Filter{Mode: s.mode}
	if len(s.ids) == 0 {
		return f
	}

	for _, c := range s.store.All() {
		if _, ok := s.ids[c.ID]; ok {
			f.Groups = append(f.Groups, c.Name)
		}
	}

	return f
}
