package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/vanishing-tictactoe/transport/websocket"
)

type statsProvider interface {
	Stats() websocket.Stats
}

type HealthHandler interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	StatsHandler(w http.ResponseWriter, _ *http.Request)
}

type healthHandler struct {
	logger *slog.Logger
	stats  statsProvider
}

func NewHealthHandler(logger *slog.Logger, stats statsProvider) HealthHandler {
	return &healthHandler{
		logger: logger.With("component", "health"),
		stats:  stats,
	}
}

func (that *healthHandler) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

// StatsHandler - reports how many rooms and connections the relay holds.
func (that *healthHandler) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(that.stats.Stats()); err != nil {
		that.logger.Error("failed to write stats", "error", err)
	}
}
