package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/imx/internal/formatter"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/services"
	"github.com/desertthunder/imx/internal/shared"
	"github.com/desertthunder/imx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ImagesList fetches the complete listing from the controller and renders it
// to stdout, or to a file when --output is set.
func (r *Runner) ImagesList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	format := cmd.String("format")
	output := cmd.String("output")
	includeDeleted := cmd.Bool("deleted")

	opts := tasks.SnapshotOpts{
		Format:    format,
		Output:    output,
		PageSize:  config.Client.PageSize,
		RateLimit: config.Client.RateLimit,
	}

	prog := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Debug("progress", "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()

	if output != "" {
		result, err := tasks.SnapshotExport(ctx, r.service, prog, opts)
		close(prog)
		<-done
		if err != nil {
			return fmt.Errorf("listing export failed: %w", err)
		}
		r.writePlainln("Exported %d images (%d deleted) to %s", result.TotalImages, result.DeletedCount, result.OutputFile)
		return nil
	}

	images, err := tasks.Snapshot(ctx, r.service, prog, opts)
	close(prog)
	<-done
	if err != nil {
		return fmt.Errorf("listing fetch failed: %w", err)
	}

	if !includeDeleted {
		active := make([]models.Image, 0, len(images))
		for _, img := range images {
			if !img.Deleted() {
				active = append(active, img)
			}
		}
		images = active
	}

	rendered, err := renderListing(images, format)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(rendered); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ImagesDelete submits a bulk deletion for the given image ids and reports
// which ids the controller accepted.
func (r *Runner) ImagesDelete(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one image id is required", shared.ErrMissingArgument)
	}

	r.logger.Info("submitting deletion", "count", len(ids))

	result, err := r.service.DeleteImages(ctx, ids)
	if err != nil {
		var mutErr *services.MutationError
		if !errors.As(err, &mutErr) {
			return fmt.Errorf("delete request failed: %w", err)
		}
		if result == nil {
			result = &services.DeleteResult{Rejected: mutErr.Rejected}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader("Deletion Result")
	r.writePlain("Accepted: %d\n", len(result.Accepted))
	for _, id := range result.Accepted {
		r.writePlain("  ✓ %s\n", id)
	}
	if len(result.Rejected) > 0 {
		r.writePlain("Rejected: %d\n", len(result.Rejected))
		for _, id := range result.Rejected {
			r.writePlain("  ✗ %s\n", id)
		}
	}
	return nil
}

// ImagesStatus checks controller availability.
func (r *Runner) ImagesStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.service.Health(ctx); err != nil {
		return fmt.Errorf("controller unavailable: %w", err)
	}
	r.writePlain("✓ Controller is healthy\n")
	return nil
}

// renderListing formats images for stdout in the requested format.
func renderListing(images []models.Image, format string) ([]byte, error) {
	switch format {
	case "csv":
		return formatter.ListingToCSV(images)
	case "markdown", "md":
		return formatter.ListingToMarkdown(images, "Fleet Images")
	case "json":
		return formatter.ListingToJSON(images)
	case "txt", "text", "":
		return formatter.ListingToText(images)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}
