package wizard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jamesnetherton/m3u"

	"github.com/m3usift/m3usift/internal/services"
)

// Artifact is a generated file spooled to a temp location until the
// user saves or discards it. The session is its only owner: replacing
// or resetting releases the backing file.
type Artifact struct {
	name     string
	path     string
	size     int64
	tracks   int
	groups   int
	released bool
}

// newArtifact writes a payload to a temp file and, for playlists,
// summarizes its contents.
func newArtifact(p *services.Payload, dir string, logger *log.Logger) (*Artifact, error) {
	pattern := "m3usift-*" + filepath.Ext(p.Filename)

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact file: %w", err)
	}

	if _, err := f.Write(p.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}

	a := &Artifact{
		name: p.Filename,
		path: f.Name(),
		size: int64(len(p.Data)),
	}

	if strings.HasSuffix(p.Filename, ".m3u") {
		a.analyze(logger)
	}

	return a, nil
}

// analyze counts tracks and distinct group titles in the playlist.
// Parse failures leave the counts at zero; the file itself is kept.
func (a *Artifact) analyze(logger *log.Logger) {
	playlist, err := m3u.Parse(a.path)
	if err != nil {
		logger.Warn("could not summarize playlist", "error", err)
		return
	}

	groups := make(map[string]struct{})
	for _, track := range playlist.Tracks {
		for _, tag := range track.Tags {
			if tag.Name == "group-title" {
				groups[tag.Value] = struct{}{}
			}
		}
	}

	a.tracks = len(playlist.Tracks)
	a.groups = len(groups)
}

// Name returns the suggested download filename.
func (a *Artifact) Name() string { return a.name }

// Path returns the temp file location backing the artifact.
func (a *Artifact) Path() string { return a.path }

// Size returns the artifact size in bytes.
func (a *Artifact) Size() int64 { return a.size }

// Tracks returns the number of playlist entries, zero for non-playlists.
func (a *Artifact) Tracks() int { return a.tracks }

// Groups returns the number of distinct group titles, zero for non-playlists.
func (a *Artifact) Groups() int { return a.groups }

// SaveTo copies the artifact to path, creating parent directories.
func (a *Artifact) SaveTo(path string) error {
	if a.released {
		return fmt.Errorf("artifact already released")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	src, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy artifact: %w", err)
	}

	return nil
}

// Release deletes the backing temp file. Safe to call more than once.
func (a *Artifact) Release() {
	if a.released {
		return
	}
	a.released = true
	os.Remove(a.path)
}

// Released reports whether the backing file has been deleted.
func (a *Artifact) Released() bool { return a.released }
