package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/repositories"
	"github.com/m3usift/m3usift/internal/shared"
)

// History lists past playlist generations, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	accountName := cmd.String("account")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := repositories.NewAccountRepository(db)

	criteria := map[string]any{}
	if limit > 0 {
		criteria["limit"] = int(limit)
	}
	if accountName != "" {
		account, err := accounts.GetByName(accountName)
		if err != nil {
			return err
		}
		criteria["account_id"] = account.ID()
	}

	generations, err := repositories.NewGenerationRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list generations: %w", err)
	}

	if useJSON {
		return r.writeJSON(generations, pretty)
	}

	if len(generations) == 0 {
		r.writePlain("No generations recorded yet.\n")
		return nil
	}

	names := map[string]string{}
	if all, err := accounts.List(nil); err == nil {
		for _, account := range all {
			names[account.ID()] = account.Name()
		}
	}

	r.writePlain("Found %d generations:\n\n", len(generations))
	for i, g := range generations {
		name := names[g.AccountID()]
		if name == "" {
			name = g.AccountID()
		}

		r.writePlain("%d. %s - %s\n", i+1, g.CreatedAt().Format("2006-01-02 15:04"), name)
		if len(g.Groups()) > 0 {
			r.writePlain("   Filter: %s %s\n", g.Mode(), strings.Join(g.Groups(), ", "))
		} else {
			r.writePlain("   Filter: none\n")
		}
		r.writePlain("   Tracks: %d in %d groups, %s\n", g.Tracks(), g.GroupCount(), shared.FormatBytes(g.Size()))
		if g.Path() != "" {
			r.writePlain("   File: %s\n", g.Path())
		}
		r.writePlain("\n")
	}

	return nil
}

// historyCommand lists generation history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past playlist generations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   "Only show generations for this saved account",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of generations to show",
				Value: 20,
			},
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
		Action: r.History,
	}
}
