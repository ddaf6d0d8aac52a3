// package tasks implements the client-side drivers that feed a live image listing.
//
// The core abstraction is FeedEngine, which orchestrates backlog fills, periodic refreshes,
// deletion stream subscriptions, and delete submissions against a controller.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/mirror"
	"github.com/desertthunder/imx/internal/services"
	"github.com/desertthunder/imx/internal/shared"
	"golang.org/x/time/rate"
)

// FeedEngine defines the operations that keep a listing view current.
type FeedEngine interface {
	// Run subscribes to the deletion stream, fills the backlog, and keeps
	// refreshing the known range until ctx is cancelled.
	Run(ctx context.Context, progress chan<- ProgressUpdate) error

	// FillBacklog fetches pages in strict sequence until the listing is exhausted.
	FillBacklog(ctx context.Context, progress chan<- ProgressUpdate) error

	// Refresh re-walks the listing from offset zero so deletions missed while
	// the stream was down are picked up from page data.
	Refresh(ctx context.Context, progress chan<- ProgressUpdate) error

	// SubmitDelete sends the view's confirmed batch to the controller and
	// resolves the delete workflow with the outcome.
	SubmitDelete(ctx context.Context, progress chan<- ProgressUpdate) error
}

// FeedOpts configures an ImageFeed.
type FeedOpts struct {
	RateLimit    float64       // Page fetches per second (default: 5)
	RefreshEvery time.Duration // Interval between range refreshes (default: 30s)
	Logger       *log.Logger
}

// ImageFeed implements FeedEngine against a mirror.View and a controller client.
type ImageFeed struct {
	view    *mirror.View
	svc     services.Service
	limiter *rate.Limiter
	refresh time.Duration
	logger  *log.Logger
}

// NewImageFeed wires a view to a controller service.
func NewImageFeed(view *mirror.View, svc services.Service, opts FeedOpts) *ImageFeed {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ImageFeed{
		view:    view,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		refresh: opts.RefreshEvery,
		logger:  logger,
	}
}

// Run drives the feed until ctx is cancelled. The deletion stream stays
// subscribed for the lifetime of the run; page fetches never overlap.
func (f *ImageFeed) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	if f.svc == nil {
		return fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	release, err := f.svc.Subscribe(ctx, f.view.IngestDeletion)
	if err != nil {
		return fmt.Errorf("%w: deletion stream unavailable: %v", shared.ErrTransport, err)
	}
	f.view.SetUnsubscribe(release)
	sendProgress(progress, watchUpdate("Subscribed to deletion stream"))

	if err := f.FillBacklog(ctx, progress); err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Warn("initial backlog fill failed", "error", err)
	}

	ticker := time.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.Refresh(ctx, progress); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				f.logger.Warn("refresh failed", "error", err)
			}
		}
	}
}

// FillBacklog fetches the next page repeatedly until the view reports the
// listing exhausted. Offsets derive from the view's known size after each
// merge, so fetches are strictly sequential.
func (f *ImageFeed) FillBacklog(ctx context.Context, progress chan<- ProgressUpdate) error {
	for {
		offset, ok := f.view.NextOffset()
		if !ok {
			return nil
		}

		count, err := f.fetchAt(ctx, offset)
		if err != nil {
			return err
		}
		sendProgress(progress, pageFetchUpdate(offset, count))
	}
}

// Refresh re-walks the listing from offset zero. Re-fetched pages merge
// asymmetrically, so a deletion applied locally is never undone by stale page
// data; deletions the client missed arrive as terminal records in the pages.
func (f *ImageFeed) Refresh(ctx context.Context, progress chan<- ProgressUpdate) error {
	known := f.view.KnownLen()
	f.view.ResetExhausted()

	offset := 0
	for {
		sendProgress(progress, refreshUpdate(offset, known))

		count, err := f.fetchAt(ctx, offset)
		if err != nil {
			return err
		}
		if count < f.view.PageSize() {
			return nil
		}
		offset += count
	}
}

// SubmitDelete moves the view's confirmed batch through the controller.
// A partial rejection resolves the workflow normally with the rejected ids
// recorded; only transport failures resolve it with an error.
func (f *ImageFeed) SubmitDelete(ctx context.Context, progress chan<- ProgressUpdate) error {
	ids, ok := f.view.ConfirmDelete()
	if !ok {
		return fmt.Errorf("%w: no confirmed deletion to submit", shared.ErrInvalidInput)
	}

	result, err := f.svc.DeleteImages(ctx, ids)

	var mutErr *services.MutationError
	switch {
	case errors.As(err, &mutErr):
		f.view.ResolveDelete(mutErr.Rejected, nil)
		sendProgress(progress, deleteSubmitUpdate(len(ids), len(mutErr.Rejected)))
		f.logger.Warn("deletion partially rejected", "requested", len(ids), "rejected", len(mutErr.Rejected))
		return nil
	case err != nil:
		f.view.ResolveDelete(nil, err)
		return fmt.Errorf("%w: delete submission failed: %v", shared.ErrTransport, err)
	default:
		var rejected []string
		if result != nil {
			rejected = result.Rejected
		}
		f.view.ResolveDelete(rejected, nil)
		sendProgress(progress, deleteSubmitUpdate(len(ids), len(rejected)))
		return nil
	}
}

// fetchAt performs one rate-limited page fetch and merges it into the view.
func (f *ImageFeed) fetchAt(ctx context.Context, offset int) (int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	size := f.view.PageSize()
	page, err := f.svc.FetchPage(ctx, offset, size)
	if err != nil {
		f.view.IngestFetchError(err)
		return 0, err
	}

	f.view.IngestPage(page, size)
	return len(page), nil
}
