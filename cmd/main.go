package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/imx/internal/services"
	"github.com/desertthunder/imx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	controller := services.NewRegistryService(config.Client.BaseURL, nil, logger)
	apiService := services.NewAPIService(config.Client.BaseURL, nil)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Service: controller,
		API:     apiService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "imx",
		Usage:    "Browse and manage container images across the fleet",
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
