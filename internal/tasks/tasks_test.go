package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/imx/internal/mirror"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/services"
)

type mockService struct {
	mu           sync.Mutex
	images       []models.Image // server-side listing, newest first
	offsets      []int          // recorded fetch offsets, in order
	failAtOffset int            // fetch at this offset fails (-1 disables)
	fetchErr     error
	rejectIDs    map[string]bool
	deleteErr    error
	subscribeErr error
	handler      func(models.DeletionEvent)
	released     bool
}

func newMockService(images ...models.Image) *mockService {
	return &mockService{images: images, failAtOffset: -1}
}

func (m *mockService) FetchPage(ctx context.Context, offset, limit int) ([]models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.offsets = append(m.offsets, offset)
	if m.failAtOffset >= 0 && offset == m.failAtOffset {
		if m.fetchErr != nil {
			return nil, m.fetchErr
		}
		return nil, fmt.Errorf("fetch failed")
	}

	if offset >= len(m.images) {
		return []models.Image{}, nil
	}
	end := offset + limit
	if end > len(m.images) {
		end = len(m.images)
	}
	page := make([]models.Image, end-offset)
	copy(page, m.images[offset:end])
	return page, nil
}

func (m *mockService) DeleteImages(ctx context.Context, ids []string) (*services.DeleteResult, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}

	result := &services.DeleteResult{}
	for _, id := range ids {
		if m.rejectIDs[id] {
			result.Rejected = append(result.Rejected, id)
		} else {
			result.Accepted = append(result.Accepted, id)
		}
	}
	if len(result.Rejected) > 0 {
		return result, &services.MutationError{Rejected: result.Rejected}
	}
	return result, nil
}

func (m *mockService) Subscribe(ctx context.Context, handler func(models.DeletionEvent)) (func(), error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.released = true
		m.mu.Unlock()
	}, nil
}

func (m *mockService) Health(ctx context.Context) error { return nil }

func (m *mockService) Name() string { return "mock" }

// markDeleted stamps an image terminal server-side, as the reaper would.
func (m *mockService) markDeleted(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.images {
		if m.images[i].ID == id {
			m.images[i].DeletedAt = &at
		}
	}
}

func (m *mockService) fetchOffsets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.offsets))
	copy(out, m.offsets)
	return out
}

func fleetImage(id string, created time.Time) models.Image {
	return models.Image{
		ID:        id,
		Name:      "registry.local/app:" + id,
		Locations: []models.Location{{Node: "node-a", Namespace: "prod"}},
		CreatedAt: created,
	}
}

func fixtureImages(n int) []models.Image {
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	images := make([]models.Image, n)
	for i := 0; i < n; i++ {
		// Newest first, matching controller ordering
		images[i] = fleetImage(fmt.Sprintf("img-%02d", i), base.Add(-time.Duration(i)*time.Minute))
	}
	return images
}

func TestFillBacklog(t *testing.T) {
	t.Run("Sequential Offsets Until Exhausted", func(t *testing.T) {
		svc := newMockService(fixtureImages(5)...)
		view := mirror.NewView(mirror.ViewOpts{PageSize: 2})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})

		if err := feed.FillBacklog(context.Background(), nil); err != nil {
			t.Fatalf("FillBacklog failed: %v", err)
		}

		offsets := svc.fetchOffsets()
		want := []int{0, 2, 4}
		if len(offsets) != len(want) {
			t.Fatalf("expected offsets %v, got %v", want, offsets)
		}
		for i := range want {
			if offsets[i] != want[i] {
				t.Errorf("expected offsets %v, got %v", want, offsets)
				break
			}
		}

		snap := view.Snapshot()
		if !snap.Exhausted {
			t.Error("view should be exhausted after the short page")
		}
		if len(snap.Sequence) != 5 {
			t.Errorf("expected 5 images in sequence, got %d", len(snap.Sequence))
		}
	})

	t.Run("Exact Multiple Needs Empty Page", func(t *testing.T) {
		svc := newMockService(fixtureImages(4)...)
		view := mirror.NewView(mirror.ViewOpts{PageSize: 2})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})

		if err := feed.FillBacklog(context.Background(), nil); err != nil {
			t.Fatalf("FillBacklog failed: %v", err)
		}

		offsets := svc.fetchOffsets()
		if len(offsets) != 3 || offsets[2] != 4 {
			t.Errorf("expected a final empty fetch at offset 4, got %v", offsets)
		}
	})

	t.Run("Fetch Error Surfaces On View", func(t *testing.T) {
		svc := newMockService(fixtureImages(5)...)
		svc.failAtOffset = 2
		view := mirror.NewView(mirror.ViewOpts{PageSize: 2})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})

		if err := feed.FillBacklog(context.Background(), nil); err == nil {
			t.Fatal("expected error from failing fetch")
		}

		snap := view.Snapshot()
		if snap.Err == nil {
			t.Error("view should carry the fetch error")
		}
		if len(snap.Sequence) != 2 {
			t.Errorf("first page should remain visible, got %d images", len(snap.Sequence))
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("Recovers Missed Deletions From Page Data", func(t *testing.T) {
		svc := newMockService(fixtureImages(5)...)
		view := mirror.NewView(mirror.ViewOpts{PageSize: 2})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})

		if err := feed.FillBacklog(context.Background(), nil); err != nil {
			t.Fatalf("FillBacklog failed: %v", err)
		}

		// Deletion happens server-side; the stream event never arrives.
		svc.markDeleted("img-01", time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC))

		if err := feed.Refresh(context.Background(), nil); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		var found bool
		for _, img := range view.Snapshot().Sequence {
			if img.ID == "img-01" {
				found = true
				if !img.Deleted() {
					t.Error("refresh should have picked up the terminal record")
				}
			}
		}
		if !found {
			t.Error("deleted image should remain in the sequence, annotated")
		}
	})

	t.Run("Discovers New Tail", func(t *testing.T) {
		svc := newMockService(fixtureImages(2)...)
		view := mirror.NewView(mirror.ViewOpts{PageSize: 2})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})

		if err := feed.FillBacklog(context.Background(), nil); err != nil {
			t.Fatalf("FillBacklog failed: %v", err)
		}

		svc.mu.Lock()
		svc.images = append(svc.images, fixtureImages(5)[2:]...)
		svc.mu.Unlock()

		if err := feed.Refresh(context.Background(), nil); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if got := len(view.Snapshot().Sequence); got != 5 {
			t.Errorf("expected refresh to discover 5 images, got %d", got)
		}
	})
}

func TestSubmitDelete(t *testing.T) {
	setup := func(t *testing.T, svc *mockService) (*mirror.View, *ImageFeed) {
		t.Helper()
		view := mirror.NewView(mirror.ViewOpts{PageSize: 10})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000})
		if err := feed.FillBacklog(context.Background(), nil); err != nil {
			t.Fatalf("FillBacklog failed: %v", err)
		}
		return view, feed
	}

	t.Run("All Accepted", func(t *testing.T) {
		svc := newMockService(fixtureImages(3)...)
		view, feed := setup(t, svc)

		view.ToggleSelect("img-00")
		view.ToggleSelect("img-02")
		view.RequestDelete()

		if err := feed.SubmitDelete(context.Background(), nil); err != nil {
			t.Fatalf("SubmitDelete failed: %v", err)
		}

		snap := view.Snapshot()
		if snap.Workflow != mirror.WorkflowIdle {
			t.Errorf("workflow should return to idle, got %v", snap.Workflow)
		}
		if len(snap.Selected) != 0 {
			t.Error("selection should clear after resolution")
		}
		if len(snap.Rejected) != 0 {
			t.Errorf("no rejections expected, got %v", snap.Rejected)
		}
	})

	t.Run("Partial Rejection Resolves Normally", func(t *testing.T) {
		svc := newMockService(fixtureImages(3)...)
		svc.rejectIDs = map[string]bool{"img-01": true}
		view, feed := setup(t, svc)

		view.ToggleSelect("img-00")
		view.ToggleSelect("img-01")
		view.RequestDelete()

		if err := feed.SubmitDelete(context.Background(), nil); err != nil {
			t.Fatalf("partial rejection should not fail the submission: %v", err)
		}

		snap := view.Snapshot()
		if snap.Workflow != mirror.WorkflowIdle {
			t.Errorf("workflow should return to idle, got %v", snap.Workflow)
		}
		if len(snap.Rejected) != 1 || snap.Rejected[0] != "img-01" {
			t.Errorf("expected rejected {img-01}, got %v", snap.Rejected)
		}
	})

	t.Run("Transport Failure Resolves With Error", func(t *testing.T) {
		svc := newMockService(fixtureImages(3)...)
		svc.deleteErr = errors.New("controller unreachable")
		view, feed := setup(t, svc)

		view.ToggleSelect("img-00")
		view.RequestDelete()

		if err := feed.SubmitDelete(context.Background(), nil); err == nil {
			t.Fatal("expected error from failing delete")
		}

		snap := view.Snapshot()
		if snap.Workflow != mirror.WorkflowIdle {
			t.Errorf("workflow should return to idle, got %v", snap.Workflow)
		}
		if snap.Err == nil {
			t.Error("view should carry the submission error")
		}
	})

	t.Run("Nothing Confirmed", func(t *testing.T) {
		svc := newMockService(fixtureImages(3)...)
		_, feed := setup(t, svc)

		if err := feed.SubmitDelete(context.Background(), nil); err == nil {
			t.Error("expected error when no confirmation is pending")
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Subscribes Fills And Pumps Events", func(t *testing.T) {
		svc := newMockService(fixtureImages(3)...)
		view := mirror.NewView(mirror.ViewOpts{PageSize: 10})
		feed := NewImageFeed(view, svc, FeedOpts{RateLimit: 1000, RefreshEvery: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- feed.Run(ctx, nil) }()

		deadline := time.Now().Add(2 * time.Second)
		for view.KnownLen() < 3 {
			if time.Now().After(deadline) {
				t.Fatal("backlog never filled")
			}
			time.Sleep(5 * time.Millisecond)
		}

		// Events pushed by the service land on the view.
		svc.mu.Lock()
		handler := svc.handler
		svc.mu.Unlock()
		if handler == nil {
			t.Fatal("feed never subscribed")
		}
		handler(models.DeletionEvent{ID: "img-00", DeletedAt: time.Now().UTC()})

		var annotated bool
		for _, img := range view.Snapshot().Sequence {
			if img.ID == "img-00" && img.Deleted() {
				annotated = true
			}
		}
		if !annotated {
			t.Error("stream event should mark the image deleted")
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not stop on cancel")
		}

		// Closing the view releases the subscription.
		view.Close()
		svc.mu.Lock()
		released := svc.released
		svc.mu.Unlock()
		if !released {
			t.Error("subscription should be released on close")
		}
	})

	t.Run("Subscription Failure", func(t *testing.T) {
		svc := newMockService(fixtureImages(1)...)
		svc.subscribeErr = errors.New("stream refused")
		view := mirror.NewView(mirror.ViewOpts{PageSize: 10})
		feed := NewImageFeed(view, svc, FeedOpts{})

		if err := feed.Run(context.Background(), nil); err == nil {
			t.Error("expected error when subscription fails")
		}
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("Collects Complete Listing", func(t *testing.T) {
		svc := newMockService(fixtureImages(7)...)
		images, err := Snapshot(context.Background(), svc, nil, SnapshotOpts{PageSize: 3, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(images) != 7 {
			t.Errorf("expected 7 images, got %d", len(images))
		}

		offsets := svc.fetchOffsets()
		want := []int{0, 3, 6}
		for i := range want {
			if i >= len(offsets) || offsets[i] != want[i] {
				t.Errorf("expected offsets %v, got %v", want, offsets)
				break
			}
		}
	})

	t.Run("Nil Service", func(t *testing.T) {
		if _, err := Snapshot(context.Background(), nil, nil, SnapshotOpts{}); err == nil {
			t.Error("expected error for nil service")
		}
	})
}

func TestSnapshotExport(t *testing.T) {
	svc := newMockService(fixtureImages(3)...)
	svc.markDeleted("img-02", time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC))

	out := t.TempDir() + "/listing.csv"
	result, err := SnapshotExport(context.Background(), svc, nil, SnapshotOpts{Format: "csv", Output: out, RateLimit: 1000})
	if err != nil {
		t.Fatalf("SnapshotExport failed: %v", err)
	}
	if result.TotalImages != 3 {
		t.Errorf("expected 3 images, got %d", result.TotalImages)
	}
	if result.DeletedCount != 1 {
		t.Errorf("expected 1 deleted image, got %d", result.DeletedCount)
	}
	if result.OutputFile != out {
		t.Errorf("expected output %s, got %s", out, result.OutputFile)
	}
}
