package mirror

import (
	"testing"
	"time"

	"github.com/desertthunder/imx/internal/models"
)

func TestDerive(t *testing.T) {
	t.Run("Newest Active First", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("1", "alpine", t0, "node-a"),
			testImage("2", "debian", t0.Add(time.Minute), "node-b"),
		})

		seq := Policy{}.Derive(set)
		if len(seq) != 2 {
			t.Fatalf("expected 2 images, got %d", len(seq))
		}
		if seq[0].ID != "2" || seq[1].ID != "1" {
			t.Errorf("expected order [2 1], got [%s %s]", seq[0].ID, seq[1].ID)
		}
	})

	t.Run("Terminal Images Sort Last But Stay Present", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("1", "alpine", t0, "node-a"),
			testImage("2", "debian", t0.Add(time.Minute), "node-b"),
		})
		set.ApplyDeletion(models.DeletionEvent{ID: "2", DeletedAt: t0.Add(time.Hour)})

		seq := Policy{}.Derive(set)
		if len(seq) != 2 {
			t.Fatalf("deleted image dropped from sequence: %d entries", len(seq))
		}
		if seq[0].ID != "1" {
			t.Errorf("expected active image first, got %s", seq[0].ID)
		}
		if seq[1].ID != "2" || !seq[1].Deleted() {
			t.Errorf("expected terminal image last with deleted annotation")
		}
	})

	t.Run("Terminal Group Orders By DeletedAt Descending", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("1", "alpine", t0, "node-a"),
			testImage("2", "debian", t0.Add(time.Minute), "node-b"),
			testImage("3", "ubuntu", t0.Add(2*time.Minute), "node-c"),
		})
		set.ApplyDeletion(models.DeletionEvent{ID: "1", DeletedAt: t0.Add(2 * time.Hour)})
		set.ApplyDeletion(models.DeletionEvent{ID: "3", DeletedAt: t0.Add(time.Hour)})

		seq := Policy{}.Derive(set)
		got := []string{seq[0].ID, seq[1].ID, seq[2].ID}
		want := []string{"2", "1", "3"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})

	t.Run("Ties Break By Id Ascending", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("b", "beta", t0, "node-a"),
			testImage("a", "alpha", t0, "node-a"),
		})

		seq := Policy{}.Derive(set)
		if seq[0].ID != "a" || seq[1].ID != "b" {
			t.Errorf("expected id tiebreak [a b], got [%s %s]", seq[0].ID, seq[1].ID)
		}
	})

	t.Run("Unplaced Images Hidden By Default", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("1", "alpine", t0, "node-a"),
			testImage("2", "orphan", t0.Add(time.Minute)),
		})

		seq := Policy{}.Derive(set)
		if len(seq) != 1 || seq[0].ID != "1" {
			t.Errorf("expected only placed image, got %d entries", len(seq))
		}

		all := Policy{ShowUnplaced: true}.Derive(set)
		if len(all) != 2 {
			t.Errorf("expected both images with ShowUnplaced, got %d", len(all))
		}
	})

	t.Run("Derive Is Deterministic", func(t *testing.T) {
		set := NewKnownSet(nil)
		set.MergePage([]models.Image{
			testImage("3", "c", t0, "node-a"),
			testImage("1", "a", t0, "node-a"),
			testImage("2", "b", t0.Add(time.Minute), "node-b"),
		})
		set.ApplyDeletion(models.DeletionEvent{ID: "2", DeletedAt: t0.Add(time.Hour)})

		first := Policy{}.Derive(set)
		second := Policy{}.Derive(set)

		if len(first) != len(second) {
			t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("position %d differs: %s vs %s", i, first[i].ID, second[i].ID)
			}
		}
	})
}
