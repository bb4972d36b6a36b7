package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/repositories"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
)

// AccountsAdd saves a named credential profile.
func (r *Runner) AccountsAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: account name", shared.ErrMissingArgument)
	}

	var creds services.Credentials
	if portal := cmd.String("portal"); portal != "" {
		var err error
		if creds, err = services.ParsePortalURL(portal); err != nil {
			return err
		}
	} else {
		creds = services.Credentials{
			URL:      stringOrEnv(cmd, "url", envURL),
			Username: stringOrEnv(cmd, "username", envUsername),
			Password: stringOrEnv(cmd, "password", envPassword),
		}
	}
	creds = creds.Trimmed()
	if err := creds.Validate(); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewAccountRepository(db)

	// The name is the lookup key for --account flags, so duplicates are
	// refused here rather than left to shadow each other.
	if existing, err := repo.GetByName(name); err == nil && existing != nil {
		return fmt.Errorf("%w: account %q already exists", shared.ErrInvalidArgument, name)
	}

	account := models.NewAccount(0, name, creds.URL, creds.Username, creds.Password)
	account.SetIncludeVOD(cmd.Bool("include-vod"))

	if err := repo.Create(account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	r.logger.Info("account saved", "name", name)

	r.writePlain("✓ Account %q saved\n", name)
	r.writePlain("  Portal: %s\n", account.Portal())
	r.writePlain("  Username: %s\n", account.Username())
	if account.IncludeVOD() {
		r.writePlain("  VOD: included\n")
	}

	return nil
}

// AccountsList lists the saved accounts.
func (r *Runner) AccountsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts, err := repositories.NewAccountRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if useJSON {
		return r.writeJSON(accounts, pretty)
	}

	if len(accounts) == 0 {
		r.writePlain("No saved accounts yet. Add one with 'm3usift accounts add'.\n")
		return nil
	}

	r.writePlain("Found %d accounts:\n\n", len(accounts))
	for i, account := range accounts {
		r.writePlain("%d. %s\n", i+1, account.Name())
		r.writePlain("   Portal: %s\n", account.Portal())
		r.writePlain("   Username: %s\n", account.Username())
		if account.IncludeVOD() {
			r.writePlain("   VOD: included\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// AccountsRemove soft-deletes a saved account by name or id.
func (r *Runner) AccountsRemove(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: account name", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewAccountRepository(db)

	account, err := repo.GetByName(name)
	if err != nil {
		if account, err = repo.Get(name); err != nil {
			return err
		}
	}

	if err := repo.Delete(account.ID()); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	r.logger.Info("account removed", "name", account.Name())
	r.writePlain("✓ Account %q removed\n", account.Name())

	return nil
}

// accountsCommand handles saved credential profiles.
func accountsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "accounts",
		Aliases: []string{"acct"},
		Usage:   "Manage saved portal accounts",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Save credentials under a friendly name",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Portal base URL (env " + envURL + ")",
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username (env " + envUsername + ")",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (env " + envPassword + ")",
					},
					&cli.StringFlag{
						Name:  "portal",
						Usage: "Full portal link (get.php?username=...&password=...) instead of url/username/password",
					},
					includeVODFlag(),
				},
				Action: r.AccountsAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.AccountsList,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove a saved account",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Action: r.AccountsRemove,
			},
		},
	}
}
