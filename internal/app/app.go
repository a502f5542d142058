package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

// OpenStore opens the configured backend and loads the trips from it
func OpenStore(cfg Config) (*store.TripStore, store.Backend, error) {
	backend, err := cfg.OpenBackend()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	s := store.New(backend)
	s.Load()
	return s, backend, nil
}

// Serve runs the HTTP API until ctx is cancelled
func Serve(ctx context.Context, cfg Config) error {
	authFile, err := cfg.ResolveAuthFile()
	if err != nil {
		return err
	}
	auth, err := LoadAuthenticator(authFile)
	if err != nil {
		return fmt.Errorf("failed to load auth credentials: %w", err)
	}

	backend, err := cfg.OpenBackend()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	s := store.New(backend)
	unsubscribe := s.Subscribe(logChange)
	defer unsubscribe()
	s.Load()

	if fb, ok := backend.(*store.FileBackend); ok && cfg.Watch {
		if err := store.NewWatcher(s, fb).Start(ctx); err != nil {
			log.Warnw("failed to start file watcher, external edits need a restart", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewServer(s, auth).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting residency counter", "addr", fmt.Sprintf("http://localhost:%d", cfg.Port), "storage", backend.Describe())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// logChange logs every change with the resulting rolling window status
func logChange(ev store.ChangeEvent) {
	stats := residency.RollingStats(ev.Trips, residency.Today())
	log.Infow("trips changed",
		"kind", ev.Kind,
		"trip_id", ev.TripID,
		"count", len(ev.Trips),
		"rolling_france_days", stats.FranceDaysInWindow,
		"remaining_days", stats.RemainingDays,
		"status", stats.Status,
	)
}
