package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/config"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/repository"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/vanishing-tictactoe/transport/rest"
	"github.com/rocketscienceinc/vanishing-tictactoe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the relay until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	roomRepo, closeRepo, err := newRoomRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	relay := websocket.New(logger, roomRepo, conf.Room.CodeLength, conf.Room.CodeAttempts)

	return serve(ctx, log, conf, relay)
}

// newRoomRepository picks the Redis registry when enabled, the in-process one otherwise.
func newRoomRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomRepository, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("Using in-memory room registry")
		return repository.NewMemoryRoomRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis room registry", "addr", redisAddrString)

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRoomRepository(redisStorage, conf.Room.TTL), closeFn, nil
}

func serve(ctx context.Context, log *slog.Logger, conf *config.Config, relay *websocket.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	// run HTTP server
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := rest.Start(ctx, log, conf.HTTPPort, relay); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	// run Websocket server
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if err := relay.Start(ctx, conf.SocketPort); err != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", err)
			return
		}
		errCh <- nil
	}()

	var err error
	running := 2

	select {
	case err = <-errCh:
		running--
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	cancel()

	// both servers drain before the registry closes
	for ; running > 0; running-- {
		if stopErr := <-errCh; err == nil {
			err = stopErr
		}
	}

	return err
}
