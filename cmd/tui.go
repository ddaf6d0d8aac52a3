package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/imx/internal/mirror"
	"github.com/desertthunder/imx/internal/shared"
	"github.com/desertthunder/imx/internal/tasks"
	"github.com/desertthunder/imx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI for the fleet image listing.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: controller service not initialized", shared.ErrServiceUnavailable)
	}

	config := r.loadConfig(cmd.String("config"))

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/imx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	snapshots := ui.NewSnapshotChannel()
	listing := mirror.NewView(mirror.ViewOpts{
		PageSize: config.Client.PageSize,
		Policy:   mirror.Policy{ShowUnplaced: config.Client.ShowUnplaced},
		Logger:   fileLogger,
		OnRender: ui.Renderer(snapshots),
	})
	defer listing.Close()

	feed := tasks.NewImageFeed(listing, r.service, tasks.FeedOpts{
		RateLimit:    config.Client.RateLimit,
		RefreshEvery: config.Client.RefreshInterval(),
		Logger:       fileLogger,
	})

	model := ui.NewModel(ctx, listing, feed, snapshots)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
