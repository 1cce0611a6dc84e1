// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/backup"
	"github.com/starford/dagaz/internal/search"
	"github.com/starford/dagaz/internal/security"
	"github.com/starford/dagaz/internal/session"
	"github.com/starford/dagaz/internal/settings"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("snapshots_dir", cfg.Storage.Snapshots),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the data directory exists.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// A wipe requested through the security gate takes effect here, before
	// the artifact is opened.
	wiped, err := store.ApplyPendingWipe(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("apply pending wipe: %w", err)
	}
	if wiped {
		logger.Warn("pending wipe applied, starting with a fresh artifact",
			slog.String("storage_path", cfg.Storage.Path))
	}

	// Initialize storage.
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer db.Close()

	settingsFile := settings.NewFile(cfg.SettingsPath())

	gate, err := security.New(db, func() error {
		return store.ScheduleWipe(cfg.Storage.Path)
	})
	if err != nil {
		return fmt.Errorf("init security gate: %w", err)
	}

	ix := search.New(db)
	coord := session.New(db)

	// Restore surface cursors persisted by the previous session.
	if st, err := settingsFile.Load(); err == nil {
		for name, surfaceState := range st.Surfaces {
			coord.Restore(session.Surface(name), surfaceState)
		}
	}

	mgr := backup.New(cfg.Storage.Path, cfg.Storage.Snapshots, func() int {
		s, err := settingsFile.Load()
		if err != nil {
			return settings.DefaultBackupRetention
		}
		return s.BackupRetention
	})

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Restoring a snapshot swaps the artifact out from under every open
	// handle, so surfaces are saved and closed first and the connection is
	// reopened after the copy.
	restore := func(name string) error {
		for _, sf := range []session.Surface{session.SurfacePopup, session.SurfaceWindow} {
			if _, err := coord.Close(sf); err != nil {
				return fmt.Errorf("close surface %s: %w", sf, err)
			}
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
		if err := mgr.Restore(name); err != nil {
			return err
		}
		return db.Reopen()
	}

	// Build API handler and router.
	h := api.NewHandler(db, ix, gate, coord, mgr, broker, settingsFile, restore)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic snapshots; interval and retention come from the settings file.
	g.Go(func() error {
		return backup.RunScheduler(gCtx, mgr, settingsFile, coord, logger)
	})

	// Watch the artifact so out-of-band replacements reach connected clients.
	g.Go(func() error {
		return backup.WatchArtifact(gCtx, cfg.Storage.Path, logger, func() {
			broker.Publish(sse.Event{Type: sse.EventStorageReplaced, Data: map[string]string{}})
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Persist surface state before the process goes away.
		if err := closeSurfaces(coord, settingsFile); err != nil {
			logger.Error("Surface shutdown error", slog.String("error", err.Error()))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// closeSurfaces saves both surfaces and writes their session state to the
// settings file.
func closeSurfaces(coord *session.Coordinator, settingsFile *settings.File) error {
	st, err := settingsFile.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if st.Surfaces == nil {
		st.Surfaces = make(map[string]settings.SurfaceState)
	}
	for _, sf := range []session.Surface{session.SurfacePopup, session.SurfaceWindow} {
		surfaceState, err := coord.Close(sf)
		if err != nil {
			return fmt.Errorf("close surface %s: %w", sf, err)
		}
		st.Surfaces[string(sf)] = surfaceState
	}
	return settingsFile.Save(st)
}
