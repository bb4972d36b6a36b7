package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Generation records one playlist produced for an account: the filter
// that was applied and summary counts of the output. The latest
// generation doubles as the account's remembered filter for syncs.
type Generation struct {
	base
	accountID  string
	mode       string
	groups     []string
	includeVOD bool
	tracks     int
	groupCount int
	size       int64
	path       string
}

// NewGeneration records a playlist generation for an account. Mode is
// "include" or "exclude"; groups holds the filtered category names.
func NewGeneration(sequence int, accountID, mode string, groups []string, includeVOD bool) *Generation {
	return &Generation{
		base:       newBase(sequence),
		accountID:  accountID,
		mode:       mode,
		groups:     groups,
		includeVOD: includeVOD,
	}
}

func (g *Generation) AccountID() string { return g.accountID }
func (g *Generation) Mode() string      { return g.mode }
func (g *Generation) Groups() []string  { return g.groups }
func (g *Generation) IncludeVOD() bool  { return g.includeVOD }
func (g *Generation) Tracks() int       { return g.tracks }
func (g *Generation) GroupCount() int   { return g.groupCount }
func (g *Generation) Size() int64       { return g.size }
func (g *Generation) Path() string      { return g.path }

// SetCounts stores the track and distinct group tallies of the output.
func (g *Generation) SetCounts(tracks, groups int) {
	g.tracks = tracks
	g.groupCount = groups
}

func (g *Generation) SetSize(size int64)  { g.size = size }
func (g *Generation) SetPath(path string) { g.path = path }

// Validate checks the generation references an account and a known mode.
func (g *Generation) Validate() error {
	if g.accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if g.mode != "include" && g.mode != "exclude" {
		return fmt.Errorf("mode must be include or exclude, got %q", g.mode)
	}

	return nil
}

// MarshalJSON renders the generation for CLI output.
func (g *Generation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string    `json:"id"`
		Sequence   int       `json:"sequence"`
		AccountID  string    `json:"account_id"`
		Mode       string    `json:"mode"`
		Groups     []string  `json:"groups"`
		IncludeVOD bool      `json:"include_vod"`
		Tracks     int       `json:"tracks"`
		GroupCount int       `json:"group_count"`
		Size       int64     `json:"size"`
		Path       string    `json:"path"`
		CreatedAt  time.Time `json:"created_at"`
	}{
		ID:         g.id,
		Sequence:   g.sequence,
		AccountID:  g.accountID,
		Mode:       g.mode,
		Groups:     g.groups,
		IncludeVOD: g.includeVOD,
		Tracks:     g.tracks,
		GroupCount: g.groupCount,
		Size:       g.size,
		Path:       g.path,
		CreatedAt:  g.createdAt,
	})
}
