package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/repositories"
	"github.com/desertthunder/imx/internal/shared"
)

// App bundles the controller's HTTP surface, deletion reaper, and storage.
type App struct {
	cfg    *shared.Config
	db     *sql.DB
	repo   *repositories.ImageRepository
	hub    *Hub
	router *BasicRouter
	reaper *Reaper
	logger *log.Logger
}

// NewApp wires the controller from configuration and an open database.
func NewApp(cfg *shared.Config, db *sql.DB, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	repo := repositories.NewImageRepository(db)
	hub := NewHub(logger)

	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	router.Handler(NewImageHandler(repo, logger))
	router.HandleFunc(http.MethodGet, "/api/events", hub.SSEHandler())
	router.HandleFunc(http.MethodGet, "/api/config", ConfigHandler(cfg.Client))
	router.HandleFunc(http.MethodGet, "/api/health", HealthHandler())

	return &App{
		cfg:    cfg,
		db:     db,
		repo:   repo,
		hub:    hub,
		router: router,
		reaper: NewReaper(repo, hub, logger, cfg.Server.ReaperTick()),
		logger: logger,
	}
}

// Router exposes the HTTP handler, mainly for tests.
func (a *App) Router() http.Handler { return a.router }

// Run starts the reaper and serves the API until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go a.reaper.Run(reaperCtx)

	srv := &http.Server{
		Addr:    a.cfg.Server.Addr(),
		Handler: a.router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("controller listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Seed populates the database with demo records when it is empty. Useful for
// exercising the TUI against a local controller.
func (a *App) Seed(n int) error {
	if n <= 0 {
		return nil
	}

	count, err := a.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	nodes := []string{"node-a", "node-b", "node-c"}
	for i := 0; i < n; i++ {
		locations := []models.Location{
			{Node: nodes[i%len(nodes)], Namespace: "default"},
		}
		if i%3 == 0 {
			locations = append(locations, models.Location{Node: nodes[(i+1)%len(nodes)], Namespace: "default"})
		}

		img := models.NewPersistedImage(fmt.Sprintf("registry.local/demo/service-%02d:v%d", i%7, i), locations)
		if err := a.repo.Create(img); err != nil {
			return fmt.Errorf("failed to seed record %d: %w", i, err)
		}
	}

	a.logger.Info("seeded demo records", "count", n)
	return nil
}
