package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/repositories"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
	"github.com/m3usift/m3usift/internal/wizard"
)

// Playlist generates a filtered playlist without the TUI. The session
// runs the same credentials, selection, and generation steps the wizard
// does, driven by flags.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	groups := splitGroupsFlag(cmd.String("groups"))
	output := cmd.String("output")
	open := cmd.Bool("open")

	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	mode, err := parseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	creds, includeVOD, err := r.credsFromCmd(cmd)
	if err != nil {
		return err
	}

	session := wizard.NewSession(wizard.SessionOpts{
		Service: r.backend,
		Logger:  r.logger,
	})
	defer session.Close()

	session.SetIncludeVOD(includeVOD)

	r.logger.Info("fetching categories", "url", creds.URL)
	if err := session.Fetch(ctx, creds); err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}

	sel := session.Selection()
	sel.SetMode(mode)

	for _, raw := range groups {
		id, err := resolveCategory(session.Catalog(), raw)
		if err != nil {
			return err
		}
		if err := sel.Toggle(id); err != nil {
			return err
		}
	}

	r.logger.Info("generating playlist", "mode", sel.Mode(), "selected", sel.Count())

	if err := session.Generate(ctx); err != nil {
		return fmt.Errorf("playlist generation failed: %w", err)
	}

	if output == "" {
		output = filepath.Join(r.config.Output.Dir, r.config.Output.PlaylistName)
	}
	if err := session.SavePlaylist(output); err != nil {
		return err
	}

	artifact := session.Artifact()
	r.writePlain("✓ Playlist saved to %s\n", output)
	r.writePlain("  Size: %s\n", shared.FormatBytes(artifact.Size()))
	r.writePlain("  Tracks: %d\n", artifact.Tracks())
	r.writePlain("  Groups: %d\n", artifact.Groups())

	r.recordGeneration(session.Credentials(), includeVOD, sel.Filter(), artifact, output)

	if open {
		if err := shared.OpenPath(output); err != nil {
			r.logger.Warn("could not open playlist", "error", err)
		}
	}

	return nil
}

// recordGeneration appends a history row when the credentials belong to
// a saved account. Ad hoc credentials leave no history; generation rows
// reference an account. Best effort: failures only log.
func (r *Runner) recordGeneration(creds services.Credentials, includeVOD bool, filter selection.Filter, artifact *wizard.Artifact, path string) {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("history not recorded, database unavailable", "error", err)
		return
	}
	defer db.Close()

	account, err := findAccount(repositories.NewAccountRepository(db), creds)
	if err != nil || account == nil {
		return
	}

	record := models.NewGeneration(0, account.ID(), string(filter.Mode), filter.Groups, includeVOD)
	record.SetCounts(artifact.Tracks(), artifact.Groups())
	record.SetSize(artifact.Size())
	record.SetPath(path)

	if err := repositories.NewGenerationRepository(db).Create(record); err != nil {
		r.logger.Warn("could not record generation", "error", err)
		return
	}

	r.logger.Info("generation recorded", "account", account.Name(), "tracks", record.Tracks())
}

// playlistCommand generates a playlist in one shot.
func playlistCommand(r *Runner) *cli.Command {
	flags := append(credentialFlags(),
		includeVODFlag(),
		&cli.StringFlag{
			Name:    "groups",
			Aliases: []string{"g"},
			Usage:   "Comma separated category names or ids to filter by",
		},
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "Filter mode: exclude drops the groups, include keeps only them",
			Value:   "exclude",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Hand the saved playlist to the default player",
		},
	)

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"m3u"},
		Usage:   "Generate a filtered playlist and save it",
		Flags:   flags,
		Action:  r.Playlist,
	}
}
