// package services defines interface Service for interacting with the controller HTTP API
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/shared"
)

// Service defines the client-side contract against the fleet controller.
type Service interface {
	// FetchPage retrieves one page of image records starting at offset.
	// Deleted records are included so clients can render terminal states.
	FetchPage(ctx context.Context, offset, limit int) ([]models.Image, error)

	// DeleteImages submits one bulk-delete request for all ids atomically.
	// A partial rejection returns the result together with a [*MutationError].
	DeleteImages(ctx context.Context, ids []string) (*DeleteResult, error)

	// Subscribe delivers deletion events to fn until the returned release
	// function is called or ctx is cancelled. Delivery is at-least-once and
	// the stream reconnects transparently after transport interruptions.
	Subscribe(ctx context.Context, fn func(models.DeletionEvent)) (func(), error)

	// Health checks controller reachability.
	Health(ctx context.Context) error

	// Name returns the name of the service (e.g. "controller")
	Name() string
}

// DeleteResult reports the controller's answer to a bulk-delete submission.
//
// Acceptance is an acknowledgment only: images disappear from lists when their
// deletion events arrive, not when this result does.
type DeleteResult struct {
	Accepted []string `json:"accepted"`
	Rejected []string `json:"rejected,omitempty"`
}

// MutationError reports ids the controller rejected from a bulk delete.
type MutationError struct {
	Rejected []string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%v: rejected ids: %s", shared.ErrMutation, strings.Join(e.Rejected, ", "))
}

func (e *MutationError) Unwrap() error { return shared.ErrMutation }
