package mirror

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
)

// KnownSet is the client's authoritative mapping from image id to record.
//
// It grows through page merges and is patched by deletion events. Records are
// never removed: a deleted image keeps its row with deleted_at set so the view
// can annotate it. Not safe for concurrent use; [View] serializes access.
type KnownSet struct {
	items   map[string]models.Image
	pending map[string]time.Time
	version uint64
	logger  *log.Logger
}

// NewKnownSet creates an empty KnownSet. The logger receives data-integrity
// warnings from the merge path and may be nil.
func NewKnownSet(logger *log.Logger) *KnownSet {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &KnownSet{
		items:   make(map[string]models.Image),
		pending: make(map[string]time.Time),
		logger:  logger,
	}
}

// Len returns the number of known images, deleted included.
func (s *KnownSet) Len() int { return len(s.items) }

// Version returns the state version, bumped on every effective mutation.
func (s *KnownSet) Version() uint64 { return s.version }

// Get returns the record for id, if known.
func (s *KnownSet) Get(id string) (models.Image, bool) {
	img, ok := s.items[id]
	return img, ok
}

// Items returns a snapshot slice of all known records in unspecified order.
func (s *KnownSet) Items() []models.Image {
	out := make([]models.Image, 0, len(s.items))
	for _, img := range s.items {
		out = append(out, img)
	}
	return out
}

// MergePage folds one fetched page into the set and reports whether anything
// changed.
//
// Unknown ids are inserted, picking up any buffered deletion event. Known ids
// are only replaced when the incoming record is terminal and the existing one
// is not: a fetch snapshot is always at least as old as a deletion event, so a
// non-terminal fetch must never clobber a patched record. Conflicting
// immutable fields on a known id are a data-integrity fault: logged, first
// seen wins, and the merge carries on so one bad record cannot blank the list.
func (s *KnownSet) MergePage(page []models.Image) bool {
	changed := false

	for _, incoming := range page {
		if incoming.ID == "" {
			s.logger.Warn("dropping record with empty id", "name", incoming.Name)
			continue
		}

		existing, ok := s.items[incoming.ID]
		if !ok {
			if at, buffered := s.pending[incoming.ID]; buffered && incoming.DeletedAt == nil {
				t := at
				incoming.DeletedAt = &t
				delete(s.pending, incoming.ID)
			} else if buffered {
				delete(s.pending, incoming.ID)
			}
			s.items[incoming.ID] = incoming
			changed = true
			continue
		}

		if !existing.CreatedAt.Equal(incoming.CreatedAt) {
			s.logger.Warn("conflicting created_at for known image, keeping first seen",
				"id", incoming.ID, "have", existing.CreatedAt, "got", incoming.CreatedAt)
		}

		if incoming.DeletedAt != nil && existing.DeletedAt == nil {
			existing.DeletedAt = incoming.DeletedAt
			existing.Locations = incoming.Locations
			s.items[incoming.ID] = existing
			changed = true
		}
	}

	if changed {
		s.version++
	}
	return changed
}

// ApplyDeletion applies one deletion event and reports whether state changed.
//
// Events reflect current controller truth, so a known id is stamped
// unconditionally — this is the one place where source, not timestamp, decides
// the winner. Events for unknown ids are buffered and consumed by the first
// page merge that introduces the id; re-deliveries are idempotent.
func (s *KnownSet) ApplyDeletion(ev models.DeletionEvent) bool {
	if ev.ID == "" {
		return false
	}

	existing, ok := s.items[ev.ID]
	if !ok {
		if _, buffered := s.pending[ev.ID]; buffered {
			return false
		}
		s.pending[ev.ID] = ev.DeletedAt
		return false
	}

	if existing.DeletedAt != nil && existing.DeletedAt.Equal(ev.DeletedAt) {
		return false
	}

	t := ev.DeletedAt
	existing.DeletedAt = &t
	s.items[ev.ID] = existing
	s.version++
	return true
}
