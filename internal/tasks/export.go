package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/imx/internal/formatter"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/services"
	"github.com/desertthunder/imx/internal/shared"
	"golang.org/x/time/rate"
)

// SnapshotOpts contains configuration for one-shot listing exports.
type SnapshotOpts struct {
	Format    string  // Export format: json, csv, markdown, txt
	Output    string  // Output file path (default: images.{ext})
	PageSize  int     // Images per page (default: 50)
	RateLimit float64 // Requests per second (default: 5)
}

// SnapshotResult summarizes a completed listing export.
type SnapshotResult struct {
	TotalImages  int
	DeletedCount int
	OutputFile   string
}

// Snapshot collects the complete listing from the controller, one page at a
// time. Pages are fetched strictly in sequence so earlier deletions are
// reflected in later offsets.
func Snapshot(ctx context.Context, svc services.Service, prog chan<- ProgressUpdate, opts SnapshotOpts) ([]models.Image, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var images []models.Image
	seen := make(map[string]bool)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := svc.FetchPage(ctx, len(images), opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot fetch failed at offset %d: %v", shared.ErrTransport, len(images), err)
		}

		for _, img := range page {
			if img.ID == "" || seen[img.ID] {
				continue
			}
			seen[img.ID] = true
			images = append(images, img)
		}

		sendProgress(prog, snapshotUpdate(len(images)))

		if len(page) < opts.PageSize {
			return images, nil
		}
	}
}

// SnapshotExport collects the complete listing and writes it to a file in the
// requested format.
func SnapshotExport(ctx context.Context, svc services.Service, prog chan<- ProgressUpdate, opts SnapshotOpts) (*SnapshotResult, error) {
	images, err := Snapshot(ctx, svc, prog, opts)
	if err != nil {
		return nil, err
	}

	path, err := formatter.WriteListing(images, opts.Format, opts.Output)
	if err != nil {
		return nil, err
	}

	result := &SnapshotResult{
		TotalImages: len(images),
		OutputFile:  path,
	}
	for _, img := range images {
		if img.Deleted() {
			result.DeletedCount++
		}
	}
	return result, nil
}

// sendProgress sends an update without blocking when no one is listening.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
