package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/repositories"
	"github.com/m3usift/m3usift/internal/shared"
	"github.com/m3usift/m3usift/internal/tasks"
)

// Sync regenerates playlists for saved accounts, re-applying each
// account's most recent recorded filter.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	outputDir := cmd.String("output-dir")
	workers := cmd.Int("workers")
	withGuide := cmd.Bool("with-guide")
	accountName := cmd.String("account")

	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if accountName != "" {
		criteria["name"] = accountName
	}

	accounts, err := repositories.NewAccountRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	if len(accounts) == 0 {
		r.writePlain("No saved accounts to sync. Add one with 'm3usift accounts add'.\n")
		return nil
	}

	engine := tasks.NewSyncEngine(r.backend, repositories.NewGenerationRepository(db))

	r.logger.Info("starting sync", "accounts", len(accounts), "workers", workers)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.SyncStart:
				r.writePlain("%s\n\n", update.Message)
			case tasks.GeneratePlaylist, tasks.AccountComplete, tasks.AccountFailed:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Sync(ctx, progressCh, accounts, tasks.SyncOpts{
		OutputDir:  outputDir,
		NumWorkers: int(workers),
		RateLimit:  r.config.Backend.RatePerSecond,
		WithGuide:  withGuide,
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Accounts: %d\n", result.TotalAccounts)
	r.writePlain("Succeeded: %d\n", result.SuccessfulSyncs)
	r.writePlain("Failed: %d\n", result.FailedSyncs)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedSyncs > 0 {
		r.writePlain("\nFailed accounts:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.AccountName, res.Error)
			}
		}
	}

	return nil
}

// syncCommand regenerates playlists for saved accounts.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Regenerate playlists for saved accounts with their last filters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for regenerated playlists (default: m3usift_sync_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers",
				Value: 3,
			},
			&cli.BoolFlag{
				Name:  "with-guide",
				Usage: "Also download each account's XMLTV guide",
			},
			&cli.StringFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   "Only sync this saved account",
			},
		},
		Action: r.Sync,
	}
}
