// Controller API implementation of [Service]
package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/shared"
)

const (
	imagesPath = "/api/images"
	deletePath = "/api/images/delete"
	eventsPath = "/api/events"
	healthPath = "/api/health"

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// RegistryService implements [Service] against the controller's JSON/SSE API.
type RegistryService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewRegistryService creates a controller API client.
func NewRegistryService(baseURL string, client *http.Client, logger *log.Logger) *RegistryService {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &RegistryService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// Name returns the service name.
func (r *RegistryService) Name() string { return "controller" }

type pageResponse struct {
	Images []models.Image `json:"images"`
}

// FetchPage retrieves one page of image records.
func (r *RegistryService) FetchPage(ctx context.Context, offset, limit int) ([]models.Image, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+imagesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page: %v", shared.ErrTransport, err)
	}

	return page.Images, nil
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteImages submits one bulk-delete batch. Rejected ids come back with a
// [*MutationError] alongside the result.
func (r *RegistryService) DeleteImages(ctx context.Context, ids []string) (*DeleteResult, error) {
	payload, err := json.Marshal(deleteRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+deletePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result DeleteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode result: %v", shared.ErrTransport, err)
	}

	if len(result.Rejected) > 0 {
		return &result, &MutationError{Rejected: result.Rejected}
	}
	return &result, nil
}

// Subscribe consumes the controller's SSE stream, invoking fn for every
// deletion event. The stream reconnects with capped exponential backoff until
// the release function runs or ctx ends; outages drop events silently.
func (r *RegistryService) Subscribe(ctx context.Context, fn func(models.DeletionEvent)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	go func() {
		delay := reconnectBaseDelay
		for {
			err := r.consumeStream(streamCtx, fn)
			if streamCtx.Err() != nil {
				return
			}
			if err != nil {
				r.logger.Debug("event stream interrupted, reconnecting", "delay", delay, "error", err)
			}

			select {
			case <-streamCtx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
		}
	}()

	return cancel, nil
}

// consumeStream reads one SSE connection until it drops.
func (r *RegistryService) consumeStream(ctx context.Context, fn func(models.DeletionEvent)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+eventsPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrTransport, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var ev models.DeletionEvent
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			r.logger.Warn("skipping malformed event", "data", data, "error", err)
			continue
		}
		fn(ev)
	}
	return scanner.Err()
}

// Health checks controller reachability.
func (r *RegistryService) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrTransport, resp.StatusCode)
	}
	return nil
}
