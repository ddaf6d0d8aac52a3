package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/imx/internal/server"
	"github.com/desertthunder/imx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the controller API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app := server.NewApp(config, db, r.logger)

	if cmd.Bool("seed") {
		n := config.Server.SeedDemoRecords
		if n <= 0 {
			n = 25
		}
		if err := app.Seed(n); err != nil {
			return fmt.Errorf("failed to seed demo records: %w", err)
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(runCtx)
}
