package server

import (
	"testing"

	"github.com/desertthunder/imx/internal/models"
)

func TestReaperSweep(t *testing.T) {
	app, repo := setupApp(t)
	ids := seedImages(t, repo, "app:v1", "app:v2")

	if rejected, err := repo.MarkShouldDelete([]string{ids["app:v1"]}); err != nil || len(rejected) != 0 {
		t.Fatalf("failed to flag record: rejected=%v err=%v", rejected, err)
	}

	events, release := app.hub.Subscribe()
	defer release()

	// First sweep stamps the record and publishes its event while locations
	// are still listed.
	if err := app.reaper.Sweep(); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	var ev models.DeletionEvent
	select {
	case ev = <-events:
	default:
		t.Fatal("sweep should have published a deletion event")
	}
	if ev.ID != ids["app:v1"] || ev.DeletedAt.IsZero() {
		t.Errorf("unexpected event: %+v", ev)
	}

	rec, err := repo.Get(ids["app:v1"])
	if err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	if rec.DeletedAt() == nil {
		t.Fatal("record should be stamped terminal")
	}
	if len(rec.Locations()) == 0 {
		t.Error("locations should survive the stamping sweep")
	}
	stamped := *rec.DeletedAt()

	// Second sweep drains locations without publishing again or moving the
	// timestamp.
	if err := app.reaper.Sweep(); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	select {
	case <-events:
		t.Error("drain sweep must not republish the event")
	default:
	}

	rec, err = repo.Get(ids["app:v1"])
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if len(rec.Locations()) != 0 {
		t.Errorf("locations should be drained, got %v", rec.Locations())
	}
	if !rec.DeletedAt().Equal(stamped) {
		t.Error("deleted_at must not move once set")
	}

	// The untouched record is unaffected and the deleted one stays listed.
	page, err := repo.ListPage(0, 10)
	if err != nil {
		t.Fatalf("failed to list page: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected both records listed, got %d", len(page))
	}
	for _, p := range page {
		if p.ID() == ids["app:v2"] && p.DeletedAt() != nil {
			t.Error("untouched record should remain active")
		}
	}
}
