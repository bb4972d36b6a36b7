// submodule cmd contains flag and credential helpers shared across commands
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/repositories"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
)

// Environment fallbacks for the credential flags. A .env file in the
// working directory is loaded into the environment at startup.
const (
	envURL      = "M3USIFT_URL"
	envUsername = "M3USIFT_USERNAME"
	envPassword = "M3USIFT_PASSWORD"
)

// credentialFlags returns the flags every backend-facing command accepts.
// Credentials resolve with precedence: --portal link, then a saved
// --account, then url/username/password flags with their environment
// fallbacks.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
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
		&cli.StringFlag{
			Name:    "account",
			Aliases: []string{"a"},
			Usage:   "Saved account to load credentials from",
		},
	}
}

// includeVODFlag returns the VOD toggle shared by category and playlist commands.
func includeVODFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "include-vod",
		Usage: "Ask the backend for VOD categories too",
	}
}

// credsFromCmd resolves credentials for a command, also reporting the
// VOD preference (a saved account's stored preference, or the
// --include-vod flag).
func (r *Runner) credsFromCmd(cmd *cli.Command) (services.Credentials, bool, error) {
	if portal := cmd.String("portal"); portal != "" {
		creds, err := services.ParsePortalURL(portal)
		if err != nil {
			return services.Credentials{}, false, err
		}
		return creds, cmd.Bool("include-vod"), nil
	}

	if name := cmd.String("account"); name != "" {
		account, err := r.lookupAccount(name)
		if err != nil {
			return services.Credentials{}, false, err
		}

		creds := services.Credentials{
			URL:      account.Portal(),
			Username: account.Username(),
			Password: account.Password(),
		}
		return creds, account.IncludeVOD() || cmd.Bool("include-vod"), nil
	}

	creds := services.Credentials{
		URL:      stringOrEnv(cmd, "url", envURL),
		Username: stringOrEnv(cmd, "username", envUsername),
		Password: stringOrEnv(cmd, "password", envPassword),
	}
	return creds, cmd.Bool("include-vod"), nil
}

// stringOrEnv reads a flag value, falling back to an environment
// variable when the flag is empty.
func stringOrEnv(cmd *cli.Command, flag, env string) string {
	if v := cmd.String(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}

// lookupAccount loads a saved account by name, then by id.
func (r *Runner) lookupAccount(nameOrID string) (*models.Account, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := repositories.NewAccountRepository(db)
	if account, err := repo.GetByName(nameOrID); err == nil {
		return account, nil
	}

	return repo.Get(nameOrID)
}

// findAccount matches credentials against the saved accounts by portal
// and username. Returns nil without error when nothing matches.
func findAccount(repo *repositories.AccountRepository, creds services.Credentials) (*models.Account, error) {
	accounts, err := repo.List(nil)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		if account.Portal() == creds.URL && account.Username() == creds.Username {
			return account, nil
		}
	}

	return nil, nil
}

// parseMode maps the --mode flag to a selection mode. Empty means exclude.
func parseMode(raw string) (selection.Mode, error) {
	switch raw {
	case "", string(selection.ModeExclude):
		return selection.ModeExclude, nil
	case string(selection.ModeInclude):
		return selection.ModeInclude, nil
	default:
		return "", fmt.Errorf("%w: mode must be include or exclude, got %q", shared.ErrInvalidFlag, raw)
	}
}

// resolveCategory maps a --groups value to a category id: by id first,
// then exact name, then case-insensitive name.
func resolveCategory(store *catalog.Store, raw string) (string, error) {
	if store.Has(raw) {
		return raw, nil
	}

	for _, c := range store.All() {
		if c.Name == raw {
			return c.ID, nil
		}
	}
	for _, c := range store.All() {
		if strings.EqualFold(c.Name, raw) {
			return c.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %s", shared.ErrUnknownCategory, raw)
}

// splitGroupsFlag splits a comma separated --groups value, trimming
// whitespace and dropping empty entries.
func splitGroupsFlag(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var groups []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			groups = append(groups, part)
		}
	}
	return groups
}
