package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/repositories"
	"github.com/desertthunder/imx/internal/shared"
)

func setupApp(t *testing.T) (*App, *repositories.ImageRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	app := NewApp(shared.DefaultConfig(), db, nil)
	return app, app.repo
}

func seedImages(t *testing.T, repo *repositories.ImageRepository, names ...string) map[string]string {
	t.Helper()

	ids := make(map[string]string, len(names))
	for _, name := range names {
		img := models.NewPersistedImage(name, []models.Location{{Node: "node-a", Namespace: "prod"}})
		if err := repo.Create(img); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		ids[name] = img.ID()
	}
	return ids
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) pageResponse {
	t.Helper()

	var page pageResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	return page
}

func TestListPage(t *testing.T) {
	t.Run("Pages Through Listing", func(t *testing.T) {
		app, repo := setupApp(t)
		seedImages(t, repo, "app:v1", "app:v2", "app:v3")

		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images?offset=0&limit=2", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		page := decodePage(t, rec)
		if len(page.Images) != 2 {
			t.Errorf("expected 2 images, got %d", len(page.Images))
		}
		if page.Total != 3 {
			t.Errorf("expected total 3, got %d", page.Total)
		}

		rec = httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images?offset=2&limit=2", nil))
		if page := decodePage(t, rec); len(page.Images) != 1 {
			t.Errorf("expected short final page of 1, got %d", len(page.Images))
		}
	})

	t.Run("Includes Deleted Records", func(t *testing.T) {
		app, repo := setupApp(t)
		ids := seedImages(t, repo, "app:v1", "app:v2")

		if err := repo.Delete(ids["app:v1"]); err != nil {
			t.Fatalf("failed to soft-delete: %v", err)
		}

		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images", nil))

		page := decodePage(t, rec)
		if len(page.Images) != 2 {
			t.Fatalf("deleted records must stay listed, got %d images", len(page.Images))
		}

		var foundDeleted bool
		for _, img := range page.Images {
			if img.ID == ids["app:v1"] {
				foundDeleted = true
				if img.DeletedAt == nil {
					t.Error("deleted record should carry its deleted_at timestamp")
				}
			}
		}
		if !foundDeleted {
			t.Error("deleted record missing from page")
		}
	})

	t.Run("Invalid Parameters", func(t *testing.T) {
		app, _ := setupApp(t)

		for _, query := range []string{"?offset=-1", "?limit=0", "?offset=abc"} {
			rec := httptest.NewRecorder()
			app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images"+query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("query %q: expected 400, got %d", query, rec.Code)
			}
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		app, _ := setupApp(t)

		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/images", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestDeleteBatch(t *testing.T) {
	post := func(app *App, body any) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/images/delete", bytes.NewReader(payload))
		app.Router().ServeHTTP(rec, req)
		return rec
	}

	t.Run("Flags Known Records", func(t *testing.T) {
		app, repo := setupApp(t)
		ids := seedImages(t, repo, "app:v1", "app:v2")

		rec := post(app, deleteRequest{IDs: []string{ids["app:v1"]}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		var resp deleteResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Accepted) != 1 || resp.Accepted[0] != ids["app:v1"] {
			t.Errorf("expected accepted {%s}, got %v", ids["app:v1"], resp.Accepted)
		}

		pending, err := repo.ListPendingDeletion()
		if err != nil {
			t.Fatalf("failed to list pending: %v", err)
		}
		if len(pending) != 1 {
			t.Errorf("expected 1 flagged record, got %d", len(pending))
		}
	})

	t.Run("Rejects Unknown And Already Deleted", func(t *testing.T) {
		app, repo := setupApp(t)
		ids := seedImages(t, repo, "app:v1", "app:v2")
		if err := repo.Delete(ids["app:v2"]); err != nil {
			t.Fatalf("failed to soft-delete: %v", err)
		}

		rec := post(app, deleteRequest{IDs: []string{ids["app:v1"], ids["app:v2"], "no-such-id"}})

		var resp deleteResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Accepted) != 1 {
			t.Errorf("expected 1 accepted, got %v", resp.Accepted)
		}
		if len(resp.Rejected) != 2 {
			t.Errorf("expected 2 rejected, got %v", resp.Rejected)
		}
	})

	t.Run("Empty Batch", func(t *testing.T) {
		app, _ := setupApp(t)
		if rec := post(app, deleteRequest{}); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Invalid Body", func(t *testing.T) {
		app, _ := setupApp(t)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/images/delete", bytes.NewReader([]byte("{")))
		app.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuxiliaryEndpoints(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		app, _ := setupApp(t)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Config", func(t *testing.T) {
		app, _ := setupApp(t)
		rec := httptest.NewRecorder()
		app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

		var cfg map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
			t.Fatalf("failed to decode config: %v", err)
		}
		if _, ok := cfg["page_size"]; !ok {
			t.Error("config response missing page_size")
		}
	})
}

func TestSeed(t *testing.T) {
	app, repo := setupApp(t)

	if err := app.Seed(5); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 seeded records, got %d", count)
	}

	// Seeding a populated database is a no-op.
	if err := app.Seed(5); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if count, _ = repo.Count(); count != 5 {
		t.Errorf("expected seed to be idempotent, got %d records", count)
	}
}
