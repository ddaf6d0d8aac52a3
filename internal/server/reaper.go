package server

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/repositories"
)

// Reaper drives flagged records through the deletion lifecycle.
//
// Each sweep advances every flagged record one stage. A record is first
// stamped terminal and its deletion event published while its locations are
// still listed; the next sweep drains the locations as the fleet would.
// Records are never removed from the table, so listing pages keep serving
// them annotated.
type Reaper struct {
	repo   *repositories.ImageRepository
	hub    *Hub
	logger *log.Logger
	tick   time.Duration
}

// NewReaper creates a Reaper sweeping at the given interval.
func NewReaper(repo *repositories.ImageRepository, hub *Hub, logger *log.Logger, tick time.Duration) *Reaper {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if tick <= 0 {
		tick = 5 * time.Second
	}
	return &Reaper{repo: repo, hub: hub, logger: logger, tick: tick}
}

// Run sweeps on a timer until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(); err != nil {
				r.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep advances every flagged record one lifecycle stage.
func (r *Reaper) Sweep() error {
	records, err := r.repo.ListPendingDeletion()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, rec := range records {
		switch {
		case rec.DeletedAt() == nil:
			rec.MarkDeleted(now)
			if err := r.repo.Update(rec); err != nil {
				r.logger.Error("failed to stamp record", "id", rec.ID(), "error", err)
				continue
			}
			r.hub.Publish(models.DeletionEvent{ID: rec.ID(), DeletedAt: *rec.DeletedAt()})
			r.logger.Info("image deleted", "id", rec.ID(), "name", rec.Name())

		case len(rec.Locations()) > 0:
			rec.SetLocations(nil)
			if err := r.repo.Update(rec); err != nil {
				r.logger.Error("failed to drain locations", "id", rec.ID(), "error", err)
				continue
			}
			r.logger.Debug("locations drained", "id", rec.ID())
		}
	}

	return nil
}
