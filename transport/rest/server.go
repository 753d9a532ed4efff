package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Handler - routes of the health server.
func Handler(logger *slog.Logger, stats statsProvider) http.Handler {
	health := NewHealthHandler(logger, stats)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", health.PingHandler)
	mux.HandleFunc("/stats", health.StatsHandler)

	return mux
}

// Start - serves the health endpoints until ctx is canceled.
func Start(ctx context.Context, logger *slog.Logger, port string, stats statsProvider) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Handler(logger, stats),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
