package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
	"github.com/m3usift/m3usift/internal/ui"
	"github.com/m3usift/m3usift/internal/wizard"
)

// Wizard launches the interactive three page flow.
func (r *Runner) Wizard(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Logging.Path
	if logPath == "" {
		logPath = "tmp/m3usift.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	session := wizard.NewSession(wizard.SessionOpts{
		Service: r.backend,
		Logger:  fileLogger,
	})
	defer session.Close()

	savePath := filepath.Join(r.config.Output.Dir, r.config.Output.PlaylistName)
	record := func(creds services.Credentials, includeVOD bool, filter selection.Filter, artifact *wizard.Artifact) {
		r.recordGeneration(creds, includeVOD, filter, artifact, savePath)
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Session:      session,
		OutputDir:    r.config.Output.Dir,
		PlaylistName: r.config.Output.PlaylistName,
		GuideName:    r.config.Output.GuideName,
		Record:       record,
	})

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running wizard: %w", err)
	}

	return nil
}

// wizardCommand launches the interactive TUI.
func wizardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wizard",
		Aliases: []string{"tui", "interactive"},
		Usage:   "Interactive credentials, selection, and download flow",
		Action:  r.Wizard,
	}
}
