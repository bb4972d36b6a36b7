// Package wizard drives the three step flow from account credentials
// to a downloadable filtered playlist.
package wizard

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
)

// Step is the wizard's current page.
type Step int

const (
	StepCredentials Step = iota
	StepSelecting
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepSelecting:
		return "selecting"
	case StepResult:
		return "result"
	default:
		return "unknown"
	}
}

// Ticket pairs an in-flight backend call with the session state that
// issued it. A completion holding a stale ticket is dropped, so a late
// response can never mutate state the user has already moved past.
type Ticket struct {
	epoch uint64
}

// Session owns all wizard state: the current step, credentials, the
// fetched catalog with its selection, and any generated artifacts.
// It is not safe for concurrent use; callers drive it from a single
// event loop and run backend calls between a Begin/Finish pair.
type Session struct {
	svc     services.Service
	logger  *log.Logger
	tempDir string

	step       Step
	creds      services.Credentials
	includeVOD bool

	store *catalog.Store
	sel   *selection.Selection

	artifact *Artifact
	guide    *Artifact

	busy  bool
	epoch uint64
}

// SessionOpts configures a new Session.
type SessionOpts struct {
	Service services.Service
	Logger  *log.Logger
	TempDir string
}

// NewSession creates a session at the credentials step, filling nil
// options with defaults.
func NewSession(opts SessionOpts) *Session {
	if opts.Service == nil {
		opts.Service = services.NewBackendClient("", nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(os.Stderr)
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}

	return &Session{
		svc:     opts.Service,
		logger:  opts.Logger,
		tempDir: opts.TempDir,
		step:    StepCredentials,
	}
}

// Step returns the wizard's current page.
func (s *Session) Step() Step { return s.step }

// Service returns the backend the session was built with, for callers
// that run the network half of a Begin/Finish pair themselves.
func (s *Session) Service() services.Service { return s.svc }

// Busy reports whether a backend call is in flight.
func (s *Session) Busy() bool { return s.busy }

// Catalog returns the fetched category store, nil before the first
// successful fetch.
func (s *Session) Catalog() *catalog.Store { return s.store }

// Selection returns the selection bound to the current catalog, nil
// before the first successful fetch.
func (s *Session) Selection() *selection.Selection { return s.sel }

// Credentials returns the trimmed credentials of the last fetch.
func (s *Session) Credentials() services.Credentials { return s.creds }

// IncludeVOD reports whether VOD content is requested from the backend.
func (s *Session) IncludeVOD() bool { return s.includeVOD }

// SetIncludeVOD flips the VOD toggle for subsequent fetches.
func (s *Session) SetIncludeVOD(v bool) { s.includeVOD = v }

// Artifact returns the generated playlist, nil when none is held.
func (s *Session) Artifact() *Artifact { return s.artifact }

// Guide returns the downloaded guide, nil when none is held.
func (s *Session) Guide() *Artifact { return s.guide }

// CategoriesCall carries what the transport needs for a category fetch.
type CategoriesCall struct {
	Creds      services.Credentials
	IncludeVOD bool
}

// PlaylistCall carries what the transport needs for a generation call.
type PlaylistCall struct {
	Creds      services.Credentials
	IncludeVOD bool
	Filter     selection.Filter
}

// BeginCategories validates credentials and reserves the session for a
// category fetch. Validation runs before any network work: empty
// fields fail here and the session stays untouched. The returned
// ticket must come back through FinishCategories with the outcome.
func (s *Session) BeginCategories(raw services.Credentials) (Ticket, CategoriesCall, error) {
	if s.step != StepCredentials {
		return Ticket{}, CategoriesCall{}, shared.ErrInvalidStep
	}
	if s.busy {
		return Ticket{}, CategoriesCall{}, shared.ErrBusy
	}

	creds := raw.Trimmed()
	if err := creds.Validate(); err != nil {
		return Ticket{}, CategoriesCall{}, err
	}

	s.creds = creds
	s.busy = true
	s.epoch++

	return Ticket{epoch: s.epoch}, CategoriesCall{Creds: creds, IncludeVOD: s.includeVOD}, nil
}

// FinishCategories applies the outcome of a category fetch. The first
// return value reports whether the ticket was still current; stale
// completions are dropped without touching the session. On success the
// catalog is replaced and the selection reset, and the wizard moves to
// the selecting step. On failure the wizard stays on credentials.
func (s *Session) FinishCategories(t Ticket, records []catalog.Record, fetchErr error) (bool, error) {
	if !s.busy || t.epoch != s.epoch {
		return false, nil
	}
	s.busy = false

	if fetchErr != nil {
		s.logger.Error("category fetch failed", "error", fetchErr)
		return true, fetchErr
	}

	s.store = catalog.Load(records)
	s.sel = selection.New(s.store)
	s.step = StepSelecting
	s.logger.Info("categories loaded", "count", s.store.Len())

	return true, nil
}

// BeginPlaylist reserves the session for a playlist generation call,
// snapshotting the current selection as a wire-ready filter.
func (s *Session) BeginPlaylist() (Ticket, PlaylistCall, error) {
	if s.step != StepSelecting {
		return Ticket{}, PlaylistCall{}, shared.ErrInvalidStep
	}
	if s.busy {
		return Ticket{}, PlaylistCall{}, shared.ErrBusy
	}

	s.busy = true
	s.epoch++

	call := PlaylistCall{Creds: s.creds, IncludeVOD: s.includeVOD, Filter: s.sel.Filter()}

	return Ticket{epoch: s.epoch}, call, nil
}

// FinishPlaylist applies the outcome of a generation call. On success
// any previously held playlist is released before the new one is
// stored, and the wizard moves to the result step. On failure the
// wizard stays on selecting with the catalog and selection intact.
func (s *Session) FinishPlaylist(t Ticket, payload *services.Payload, genErr error) (bool, error) {
	if !s.busy || t.epoch != s.epoch {
		return false, nil
	}
	s.busy = false

	if genErr != nil {
		s.logger.Error("playlist generation failed", "error", genErr)
		return true, genErr
	}

	artifact, err := newArtifact(payload, s.tempDir, s.logger)
	if err != nil {
		s.logger.Error("could not store playlist", "error", err)
		return true, err
	}

	if s.artifact != nil {
		s.artifact.Release()
	}
	s.artifact = artifact
	s.step = StepResult
	s.logger.Info("playlist ready", "size", artifact.Size(), "tracks", artifact.Tracks())

	return true, nil
}

// BeginGuide reserves the session for an XMLTV guide download. The
// guide is an extra on the result page and uses the same credentials
// as the generated playlist.
func (s *Session) BeginGuide() (Ticket, services.Credentials, error) {
	if s.step != StepResult {
		return Ticket{}, services.Credentials{}, shared.ErrInvalidStep
	}
	if s.busy {
		return Ticket{}, services.Credentials{}, shared.ErrBusy
	}

	s.busy = true
	s.epoch++

	return Ticket{epoch: s.epoch}, s.creds, nil
}

// FinishGuide applies the outcome of a guide download.
func (s *Session) FinishGuide(t Ticket, payload *services.Payload, dlErr error) (bool, error) {
	if !s.busy || t.epoch != s.epoch {
		return false, nil
	}
	s.busy = false

	if dlErr != nil {
		s.logger.Error("guide download failed", "error", dlErr)
		return true, dlErr
	}

	guide, err := newArtifact(payload, s.tempDir, s.logger)
	if err != nil {
		s.logger.Error("could not store guide", "error", err)
		return true, err
	}

	if s.guide != nil {
		s.guide.Release()
	}
	s.guide = guide

	return true, nil
}

// Back steps one page towards the credentials form. The catalog,
// selection, and credentials all survive so the user can adjust and
// retry; artifacts are released only when re-entering the credentials
// step, where the next fetch would replace them anyway.
func (s *Session) Back() {
	s.cancelPending()

	switch s.step {
	case StepResult:
		s.step = StepSelecting
	case StepSelecting:
		s.releaseArtifacts()
		s.step = StepCredentials
	}
}

// UseOtherCredentials returns to the credentials form and clears the
// stored credentials. The catalog and selection are kept until the
// next successful fetch replaces them.
func (s *Session) UseOtherCredentials() {
	s.cancelPending()
	s.releaseArtifacts()
	s.creds = services.Credentials{}
	s.step = StepCredentials
}

// StartOver discards everything the wizard holds and returns to a
// blank credentials form.
func (s *Session) StartOver() {
	s.cancelPending()
	s.releaseArtifacts()
	s.creds = services.Credentials{}
	s.store = nil
	s.sel = nil
	s.includeVOD = false
	s.step = StepCredentials
}

// Cancel drops any in-flight call without changing the step. The
// pending completion becomes stale and is ignored when it arrives.
func (s *Session) Cancel() {
	s.cancelPending()
}

// Close releases any artifacts the session still owns.
func (s *Session) Close() error {
	s.cancelPending()
	s.releaseArtifacts()
	return nil
}

func (s *Session) cancelPending() {
	s.busy = false
	s.epoch++
}

func (s *Session) releaseArtifacts() {
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}
	if s.guide != nil {
		s.guide.Release()
		s.guide = nil
	}
}

// Fetch runs the credentials step synchronously against the backend.
func (s *Session) Fetch(ctx context.Context, raw services.Credentials) error {
	ticket, call, err := s.BeginCategories(raw)
	if err != nil {
		return err
	}

	records, fetchErr := s.svc.Categories(ctx, call.Creds, call.IncludeVOD)
	_, err = s.FinishCategories(ticket, records, fetchErr)

	return err
}

// Generate runs the playlist step synchronously against the backend.
func (s *Session) Generate(ctx context.Context) error {
	ticket, call, err := s.BeginPlaylist()
	if err != nil {
		return err
	}

	payload, genErr := s.svc.Playlist(ctx, call.Creds, call.IncludeVOD, call.Filter)
	_, err = s.FinishPlaylist(ticket, payload, genErr)

	return err
}

// DownloadGuide runs the guide download synchronously against the backend.
func (s *Session) DownloadGuide(ctx context.Context) error {
	ticket, creds, err := s.BeginGuide()
	if err != nil {
		return err
	}

	payload, dlErr := s.svc.Guide(ctx, creds)
	_, err = s.FinishGuide(ticket, payload, dlErr)

	return err
}

// SavePlaylist copies the generated playlist to path.
func (s *Session) SavePlaylist(path string) error {
	if s.artifact == nil {
		return shared.ErrNoArtifact
	}
	return s.artifact.SaveTo(path)
}

// SaveGuide copies the downloaded guide to path.
func (s *Session) SaveGuide(path string) error {
	if s.guide == nil {
		return shared.ErrNoArtifact
	}
	return s.guide.SaveTo(path)
}
