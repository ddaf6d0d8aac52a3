package mirror

import (
	"sort"

	"github.com/desertthunder/imx/internal/models"
)

// Policy derives the display sequence from a [KnownSet].
//
// Derivation is pure and deterministic: the same set always yields the same
// sequence, byte for byte, so renders are stable and tests reproducible.
type Policy struct {
	// ShowUnplaced includes images that no longer reside on any node.
	// The default hides them, matching the fleet browser's list behavior.
	ShowUnplaced bool
}

// Derive filters and orders the known records for display.
//
// Active images precede terminal ones. Active images order by created_at
// descending, terminal ones by deleted_at descending, and ties break by id
// ascending.
func (p Policy) Derive(s *KnownSet) []models.Image {
	items := s.Items()

	out := items[:0]
	for _, img := range items {
		if !img.Placed() && !p.ShowUnplaced {
			continue
		}
		out = append(out, img)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if a.Deleted() != b.Deleted() {
			return !a.Deleted()
		}

		if a.Deleted() {
			if !a.DeletedAt.Equal(*b.DeletedAt) {
				return a.DeletedAt.After(*b.DeletedAt)
			}
		} else {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}

		return a.ID < b.ID
	})

	return out
}
