package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/formatter"
	"github.com/m3usift/m3usift/internal/shared"
)

// Categories fetches an account's category catalog and renders it.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")
	save := cmd.Bool("save")

	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	creds, includeVOD, err := r.credsFromCmd(cmd)
	if err != nil {
		return err
	}
	creds = creds.Trimmed()
	if err := creds.Validate(); err != nil {
		return err
	}

	r.logger.Info("fetching categories", "url", creds.URL, "include_vod", includeVOD)

	records, err := r.backend.Categories(ctx, creds, includeVOD)
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}

	store := catalog.Load(records)
	r.logger.Info("categories loaded", "count", store.Len())

	if output != "" || save {
		path, err := formatter.WriteCatalogExport(store, format, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d categories to %s\n", store.Len(), path)
		return nil
	}

	data, err := formatter.RenderCatalog(store, format)
	if err != nil {
		return err
	}

	return r.writePlain("%s", data)
}

// categoriesCommand fetches and renders the category catalog.
func categoriesCommand(r *Runner) *cli.Command {
	flags := append(credentialFlags(),
		includeVODFlag(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, csv, markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the rendered catalog to a file",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save to categories.{ext} in the working directory",
		},
	)

	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cats"},
		Usage:   "List the categories available to an account",
		Flags:   flags,
		Action:  r.Categories,
	}
}
