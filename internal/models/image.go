package models

import (
	"fmt"
	"strings"
	"time"
)

// Location identifies one fleet node an image currently resides on.
type Location struct {
	Node      string `json:"node"`
	Namespace string `json:"namespace"`
}

func (l Location) String() string {
	if l.Namespace == "" {
		return l.Node
	}
	return l.Namespace + "/" + l.Node
}

// Image represents one image record as exchanged with the controller API.
//
// The ID is controller-issued, immutable, and never reused. DeletedAt is nil
// while the image is active; once set it never reverts.
type Image struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Locations []Location `json:"locations"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the image has entered its terminal state.
func (i Image) Deleted() bool {
	return i.DeletedAt != nil
}

// Placed reports whether the image resides on at least one node.
func (i Image) Placed() bool {
	return len(i.Locations) > 0
}

// LocationNames returns a comma-separated list of locations for display.
func (i Image) LocationNames() string {
	names := make([]string, len(i.Locations))
	for idx, loc := range i.Locations {
		names[idx] = loc.String()
	}
	return strings.Join(names, ", ")
}

// DeletionEvent announces that an image began or completed deletion.
//
// Events are delivered at least once over the subscription stream and always
// reflect current controller truth for the referenced image.
type DeletionEvent struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// PersistedImage is the controller-side database entity backing [Image].
//
// Follows the soft-delete convention: rows are never removed, deleted_at
// marks the terminal state.
type PersistedImage struct {
	id           string
	sequence     int
	name         string
	locations    []Location
	shouldDelete bool
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewPersistedImage creates a new controller-side image entity.
// The ID is assigned by the repository on Create.
func NewPersistedImage(name string, locations []Location) *PersistedImage {
	now := time.Now().UTC()
	return &PersistedImage{
		name:      name,
		locations: locations,
		createdAt: now,
		updatedAt: now,
	}
}

// RestorePersistedImage rebuilds an entity from stored column values.
func RestorePersistedImage(id string, sequence int, name string, locations []Location, shouldDelete bool, createdAt, updatedAt time.Time, deletedAt *time.Time) *PersistedImage {
	return &PersistedImage{
		id:           id,
		sequence:     sequence,
		name:         name,
		locations:    locations,
		shouldDelete: shouldDelete,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		deletedAt:    deletedAt,
	}
}

func (i *PersistedImage) ID() string            { return i.id }
func (i *PersistedImage) Sequence() int         { return i.sequence }
func (i *PersistedImage) Name() string          { return i.name }
func (i *PersistedImage) Locations() []Location { return i.locations }
func (i *PersistedImage) ShouldDelete() bool    { return i.shouldDelete }
func (i *PersistedImage) CreatedAt() time.Time  { return i.createdAt }
func (i *PersistedImage) UpdatedAt() time.Time  { return i.updatedAt }
func (i *PersistedImage) DeletedAt() *time.Time { return i.deletedAt }

// SetID assigns the controller-issued identifier. Used by the repository on Create.
func (i *PersistedImage) SetID(id string) { i.id = id }

// SetSequence assigns the per-table sequence number. Used by the repository on Create.
func (i *PersistedImage) SetSequence(seq int) { i.sequence = seq }

// MarkShouldDelete flags the image for the deletion reaper.
func (i *PersistedImage) MarkShouldDelete() {
	i.shouldDelete = true
	i.updatedAt = time.Now().UTC()
}

// MarkDeleted records the terminal state. The timestamp is set once; later
// calls are ignored so deleted_at stays monotonic.
func (i *PersistedImage) MarkDeleted(at time.Time) {
	if i.deletedAt != nil {
		return
	}
	t := at.UTC()
	i.deletedAt = &t
	i.updatedAt = t
}

// SetLocations replaces the location set. Used by the reaper as it drains nodes.
func (i *PersistedImage) SetLocations(locations []Location) {
	i.locations = locations
	i.updatedAt = time.Now().UTC()
}

// SetLocationsUnstamped replaces the location set without touching updated_at.
// Used by repositories when hydrating rows.
func (i *PersistedImage) SetLocationsUnstamped(locations []Location) {
	i.locations = locations
}

// Validate checks if the image's data is valid.
func (i *PersistedImage) Validate() error {
	if i.name == "" {
		return fmt.Errorf("image name is required")
	}
	for _, loc := range i.locations {
		if loc.Node == "" {
			return fmt.Errorf("location node is required")
		}
	}
	return nil
}

// ToImage converts the persistent entity to its API DTO.
func (i *PersistedImage) ToImage() Image {
	return Image{
		ID:        i.id,
		Name:      i.name,
		Locations: i.locations,
		CreatedAt: i.createdAt,
		DeletedAt: i.deletedAt,
	}
}
