package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/pkg"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/protocol"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type roomRepo interface {
	Reserve(ctx context.Context, roomID, ownerID string) error
	Release(ctx context.Context, roomID string) error
}

// Stats - live counters of the relay.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

type Server struct {
	logger   *slog.Logger
	roomRepo roomRepo
	upgrader websocket.Upgrader

	codeLength   int
	codeAttempts int

	roomsMu sync.RWMutex
	rooms   map[string]*room

	connectionsMu sync.RWMutex
	connections   map[string]*connection

	handlers map[string]func(ctx context.Context, conn *connection, msg protocol.Message) error
}

func New(logger *slog.Logger, roomRepo roomRepo, codeLength, codeAttempts int) *Server {
	server := &Server{
		logger:   logger.With("component", "relay"),
		roomRepo: roomRepo,
		upgrader: websocket.Upgrader{
			// players open the page from anywhere, the relay trusts both ends
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		codeLength:   max(codeLength, 1),
		codeAttempts: max(codeAttempts, 1),

		rooms:       make(map[string]*room),
		connections: make(map[string]*connection),

		handlers: make(map[string]func(context.Context, *connection, protocol.Message) error),
	}

	server.handlers[protocol.TypeCreateRoom] = server.handleCreateRoom
	server.handlers[protocol.TypeJoinRoom] = server.handleJoinRoom
	server.handlers[protocol.TypeMove] = server.handleMove
	server.handlers[protocol.TypeRestart] = server.handleRestart

	return server
}

// Handler - serves the relay on the root path and on /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", that.upgradeToWebSocket)
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and blocks until ctx is canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("relay listening", "addr", srv.Addr)

		urls, err := listenURLs(port)
		if err != nil {
			log.Warn("failed to list interface addresses", "error", err)
		}

		for _, url := range urls {
			log.Info("relay reachable", "url", url)
		}

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
		log.Error("failed to shut down relay", "error", err)
	}

	that.closeConnections()

	return nil
}

func (that *Server) Stats() Stats {
	that.roomsMu.RLock()
	rooms := len(that.rooms)
	that.roomsMu.RUnlock()

	that.connectionsMu.RLock()
	connections := len(that.connections)
	that.connectionsMu.RUnlock()

	return Stats{Rooms: rooms, Connections: connections}
}

// upgradeToWebSocket - upgrades the connection and serves it until it closes.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(pkg.GenerateConnectionID(), ws)

	that.connectionsMu.Lock()
	that.connections[conn.id] = conn
	that.connectionsMu.Unlock()

	log.Info("connection established", "connID", conn.id, "remote", req.RemoteAddr)

	ctx := context.WithoutCancel(req.Context())

	defer func() {
		that.leaveRoom(ctx, conn)

		that.connectionsMu.Lock()
		delete(that.connections, conn.id)
		that.connectionsMu.Unlock()

		_ = conn.close()

		log.Info("connection closed", "connID", conn.id)
	}()

	that.handleMessages(ctx, conn)
}

// handleMessages - processes messages of one connection in arrival order.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages", "connID", conn.id)

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection dropped", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug("rejected message", "error", err)
			that.sendError(conn, err)
			continue
		}

		handler, ok := that.handlers[msg.Type]
		if !ok {
			log.Debug("unknown message type", "type", msg.Type)
			that.sendError(conn, fmt.Errorf("%w: %q", apperror.ErrUnknownMessageType, msg.Type))
			continue
		}

		if err = handler(ctx, conn, msg); err != nil {
			log.Error("error processing message", "type", msg.Type, "error", err)
		}
	}
}

func (that *Server) sendError(conn *connection, err error) {
	if sendErr := conn.send(protocol.NewError(protocol.TextFor(err))); sendErr != nil {
		that.logger.Warn("failed to send error", "connID", conn.id, "error", sendErr)
	}
}

func (that *Server) closeConnections() {
	that.connectionsMu.RLock()
	defer that.connectionsMu.RUnlock()

	for _, conn := range that.connections {
		_ = conn.close()
	}
}
