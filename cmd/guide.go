package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/shared"
)

// Guide downloads the XMLTV guide for an account.
func (r *Runner) Guide(ctx context.Context, cmd *cli.Command) error {
	output := cmd.String("output")

	if r.backend == nil {
		return fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	creds, _, err := r.credsFromCmd(cmd)
	if err != nil {
		return err
	}
	creds = creds.Trimmed()
	if err := creds.Validate(); err != nil {
		return err
	}

	r.logger.Info("downloading guide", "url", creds.URL)

	payload, err := r.backend.Guide(ctx, creds)
	if err != nil {
		return fmt.Errorf("guide download failed: %w", err)
	}

	if output == "" {
		output = filepath.Join(r.config.Output.Dir, r.config.Output.GuideName)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, payload.Data, 0644); err != nil {
		return fmt.Errorf("failed to write guide: %w", err)
	}

	r.writePlain("✓ Guide saved to %s (%s)\n", output, shared.FormatBytes(int64(len(payload.Data))))

	return nil
}

// guideCommand downloads the XMLTV guide.
func guideCommand(r *Runner) *cli.Command {
	flags := append(credentialFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path",
		},
	)

	return &cli.Command{
		Name:    "guide",
		Aliases: []string{"xmltv", "epg"},
		Usage:   "Download the XMLTV program guide",
		Flags:   flags,
		Action:  r.Guide,
	}
}
