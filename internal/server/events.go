package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
)

// Hub fans deletion events out to connected event-stream subscribers.
//
// Publishing never blocks: a subscriber whose buffer is full misses the event
// and recovers it through the client's periodic refresh.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan models.DeletionEvent]struct{}
	logger *log.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		subs:   make(map[chan models.DeletionEvent]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// release function. Release is idempotent.
func (h *Hub) Subscribe() (<-chan models.DeletionEvent, func()) {
	ch := make(chan models.DeletionEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
	return ch, release
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(ev models.DeletionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping event for slow subscriber", "id", ev.ID)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// SSEHandler streams deletion events to the client as server-sent events.
//
// Each event is written as an "event: deletion" block with a JSON payload.
// The stream stays open until the client disconnects.
func (h *Hub) SSEHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// Open the stream immediately so clients see the connection succeed.
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		events, release := h.Subscribe()
		defer release()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-events:
				payload, err := json.Marshal(ev)
				if err != nil {
					h.logger.Error("failed to marshal event", "id", ev.ID, "error", err)
					continue
				}
				fmt.Fprintf(w, "event: deletion\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
