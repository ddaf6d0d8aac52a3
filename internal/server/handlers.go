package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/repositories"
	"github.com/desertthunder/imx/internal/shared"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 200
)

// ImageHandler serves the listing and deletion endpoints.
type ImageHandler struct {
	repo   *repositories.ImageRepository
	logger *log.Logger
}

// NewImageHandler creates an ImageHandler backed by repo.
func NewImageHandler(repo *repositories.ImageRepository, logger *log.Logger) *ImageHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ImageHandler{repo: repo, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *ImageHandler) Routes() []string {
	return []string{"/api/images", "/api/images/delete"}
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/images" && r.Method == http.MethodGet:
		h.listPage(w, r)
	case r.URL.Path == "/api/images/delete" && r.Method == http.MethodPost:
		h.deleteBatch(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type pageResponse struct {
	Images []models.Image `json:"images"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
}

// listPage returns one page of the listing, newest first, with deleted records
// included so clients can annotate rather than hide them.
func (h *ImageHandler) listPage(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultPageLimit)
	if offset < 0 || limit <= 0 {
		writeError(w, http.StatusBadRequest, "offset and limit must be non-negative")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	records, err := h.repo.ListPage(offset, limit)
	if err != nil {
		h.logger.Error("failed to list page", "offset", offset, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	total, err := h.repo.Count()
	if err != nil {
		h.logger.Error("failed to count images", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	images := make([]models.Image, 0, len(records))
	for _, rec := range records {
		images = append(images, rec.ToImage())
	}

	writeJSON(w, http.StatusOK, pageResponse{Images: images, Total: total, Offset: offset})
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type deleteResponse struct {
	Accepted []string `json:"accepted"`
	Rejected []string `json:"rejected,omitempty"`
}

// deleteBatch flags the requested records for deletion. Unknown ids and
// already-deleted records are rejected; the rest are accepted atomically.
func (h *ImageHandler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	rejected, err := h.repo.MarkShouldDelete(req.IDs)
	if err != nil {
		h.logger.Error("failed to flag deletions", "count", len(req.IDs), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to flag deletions")
		return
	}

	rejectedSet := make(map[string]bool, len(rejected))
	for _, id := range rejected {
		rejectedSet[id] = true
	}
	accepted := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if !rejectedSet[id] {
			accepted = append(accepted, id)
		}
	}

	h.logger.Info("deletion batch flagged", "accepted", len(accepted), "rejected", len(rejected))
	writeJSON(w, http.StatusOK, deleteResponse{Accepted: accepted, Rejected: rejected})
}

// ConfigHandler reports server-suggested client defaults.
func ConfigHandler(cfg shared.ClientConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"page_size":             cfg.PageSize,
			"refresh_interval_secs": cfg.RefreshIntervalSecs,
		})
	}
}

// HealthHandler reports availability.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
