package mirror

import (
	"sort"

	"github.com/desertthunder/imx/internal/models"
)

// Selection tracks the set of user-chosen image ids.
//
// Membership is independent of list contents; Prune reconciles the set against
// the current display sequence and must run before any read so ids that left
// the sequence never leak into the delete workflow.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection creates an empty Selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership for id and returns the new membership state.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id is currently selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Prune drops every selected id that is absent from the given sequence.
func (s *Selection) Prune(sequence []models.Image) {
	present := make(map[string]struct{}, len(sequence))
	for _, img := range sequence {
		present[img.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := present[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Count returns the number of selected ids.
func (s *Selection) Count() int { return len(s.ids) }

// IDs returns the selected ids sorted ascending for deterministic output.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
