package mirror

import (
	"testing"
	"time"

	"github.com/desertthunder/imx/internal/models"
)

func TestSelection(t *testing.T) {
	t.Run("Toggle Flips Membership", func(t *testing.T) {
		sel := NewSelection()

		if !sel.Toggle("1") {
			t.Error("first toggle should select")
		}
		if !sel.Has("1") {
			t.Error("expected id to be selected")
		}
		if sel.Toggle("1") {
			t.Error("second toggle should deselect")
		}
		if sel.Count() != 0 {
			t.Errorf("expected empty selection, got %d", sel.Count())
		}
	})

	t.Run("Prune Drops Ids Absent From Sequence", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("1")
		sel.Toggle("3")

		sequence := []models.Image{
			{ID: "1", CreatedAt: time.Now()},
			{ID: "2", CreatedAt: time.Now()},
		}
		sel.Prune(sequence)

		ids := sel.IDs()
		if len(ids) != 1 || ids[0] != "1" {
			t.Errorf("expected selection {1}, got %v", ids)
		}
	})

	t.Run("Prune Against Empty Sequence Clears", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("1")
		sel.Prune(nil)

		if sel.Count() != 0 {
			t.Errorf("expected empty selection, got %d", sel.Count())
		}
	})

	t.Run("IDs Are Sorted", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("c")
		sel.Toggle("a")
		sel.Toggle("b")

		ids := sel.IDs()
		if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
			t.Errorf("expected sorted ids, got %v", ids)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("1")
		sel.Toggle("2")
		sel.Clear()

		if sel.Count() != 0 {
			t.Errorf("expected empty selection after clear, got %d", sel.Count())
		}
	})
}

func TestWorkflow(t *testing.T) {
	t.Run("Full Cycle", func(t *testing.T) {
		w := NewWorkflow()

		if !w.Request() {
			t.Fatal("request from idle should succeed")
		}
		if w.State() != WorkflowConfirming {
			t.Fatalf("expected confirming, got %s", w.State())
		}
		if !w.Confirm([]string{"1", "2"}) {
			t.Fatal("confirm from confirming should succeed")
		}
		if w.State() != WorkflowSubmitting {
			t.Fatalf("expected submitting, got %s", w.State())
		}
		if len(w.Inflight()) != 2 {
			t.Errorf("expected 2 inflight ids, got %d", len(w.Inflight()))
		}
		if !w.Resolve() {
			t.Fatal("resolve from submitting should succeed")
		}
		if w.State() != WorkflowIdle || w.Inflight() != nil {
			t.Error("expected idle with no inflight ids after resolve")
		}
	})

	t.Run("Cancel Returns To Idle", func(t *testing.T) {
		w := NewWorkflow()
		w.Request()

		if !w.Cancel() {
			t.Fatal("cancel from confirming should succeed")
		}
		if w.State() != WorkflowIdle {
			t.Errorf("expected idle, got %s", w.State())
		}
	})

	t.Run("Invalid Transitions Are Rejected", func(t *testing.T) {
		w := NewWorkflow()

		if w.Cancel() {
			t.Error("cancel from idle should fail")
		}
		if w.Confirm([]string{"1"}) {
			t.Error("confirm from idle should fail")
		}
		if w.Resolve() {
			t.Error("resolve from idle should fail")
		}

		w.Request()
		if w.Request() {
			t.Error("request from confirming should fail")
		}
		if w.Confirm(nil) {
			t.Error("confirm with no ids should fail")
		}
	})
}
