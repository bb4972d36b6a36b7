package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("could not load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	baseURL := config.Backend.BaseURL
	if env := os.Getenv("M3USIFT_BACKEND"); env != "" {
		baseURL = env
	}

	httpClient := &http.Client{}
	if config.Backend.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(config.Backend.TimeoutSeconds) * time.Second
	}

	backend := services.NewBackendClient(baseURL, httpClient)
	backend.SetRateLimit(config.Backend.RatePerSecond)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Backend:    backend,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "m3usift",
		Usage:    "Filter IPTV playlists by category before you download them",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
