package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/imx/internal/models"
)

func TestHub(t *testing.T) {
	t.Run("Publishes To All Subscribers", func(t *testing.T) {
		hub := NewHub(nil)
		ch1, release1 := hub.Subscribe()
		ch2, release2 := hub.Subscribe()
		defer release1()
		defer release2()

		ev := models.DeletionEvent{ID: "img-1", DeletedAt: time.Now().UTC()}
		hub.Publish(ev)

		for _, ch := range []<-chan models.DeletionEvent{ch1, ch2} {
			select {
			case got := <-ch:
				if got.ID != "img-1" {
					t.Errorf("unexpected event: %+v", got)
				}
			default:
				t.Error("subscriber missed the event")
			}
		}
	})

	t.Run("Release Removes Subscriber", func(t *testing.T) {
		hub := NewHub(nil)
		_, release := hub.Subscribe()

		if hub.SubscriberCount() != 1 {
			t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
		}
		release()
		release() // idempotent
		if hub.SubscriberCount() != 0 {
			t.Errorf("expected 0 subscribers after release, got %d", hub.SubscriberCount())
		}
	})

	t.Run("Slow Subscriber Does Not Block Publish", func(t *testing.T) {
		hub := NewHub(nil)
		_, release := hub.Subscribe()
		defer release()

		// Overflow the subscriber buffer; Publish must keep returning.
		done := make(chan struct{})
		go func() {
			for i := 0; i < 64; i++ {
				hub.Publish(models.DeletionEvent{ID: "img-1", DeletedAt: time.Now().UTC()})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("publish blocked on a slow subscriber")
		}
	})
}

func TestSSEHandler(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub.SSEHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event-stream content type, got %s", ct)
	}

	reader := bufio.NewReader(resp.Body)

	// The opening comment confirms the subscription is live.
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if !strings.HasPrefix(line, ":") {
		t.Errorf("expected comment line, got %q", line)
	}

	// Wait for the handler's subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(models.DeletionEvent{ID: "img-9", DeletedAt: time.Now().UTC()})

	var data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended early: %v", err)
		}
		if strings.HasPrefix(line, "data:") {
			data = line
			break
		}
	}
	if !strings.Contains(data, `"id":"img-9"`) {
		t.Errorf("event payload missing id, got %q", data)
	}
}
