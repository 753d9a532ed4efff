package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/config"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/logger"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/service"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/vanishing-tictactoe/transport/client"
)

// main - plays one networked match against a human using the heuristic opponent.
func main() {
	configPath := flag.String("config", "./config.yml", "path to the config file")
	addr := flag.String("addr", "", "relay address host:port, overrides client.server-address")
	roomID := flag.String("room", "", "room code to join; a new room is created when empty")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if *addr != "" {
		conf.Client.ServerAddress = *addr
	}

	log := logger.New(conf.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, conf, *roomID); err != nil {
		fmt.Fprintf(os.Stderr, "botclient: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, conf *config.Config, roomID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relay := client.New(log, conf.Client.ConnectTimeout)
	match := usecase.NewMatch(log, usecase.ModeNetwork, usecase.Options{Peer: relay})
	relay.Bind(match)
	defer match.Close()

	bot := service.NewBotService(nil)

	changed := make(chan struct{}, 1)
	match.Subscribe(func(entity.MatchState) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	relay.OnStateChange(func(state client.State, err error) {
		log.Info("connection state", "state", state, "error", err)

		if errors.Is(err, apperror.ErrOpponentLeft) || errors.Is(err, apperror.ErrRoomNotFound) || errors.Is(err, apperror.ErrRoomFull) {
			cancel()
		}
	})

	if err := relay.Connect(ctx, conf.Client.ServerAddress); err != nil {
		return err
	}
	defer relay.Close()

	var err error
	if roomID != "" {
		err = relay.JoinRoom(ctx, roomID)
	} else {
		err = relay.CreateRoom(ctx)
	}

	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-relay.Done():
			return nil
		case <-changed:
		}

		state := match.State()
		if !state.IsInProgress() {
			log.Info("match over", "status", state.Status, "winner", state.Winner)
			return nil
		}

		assignment := match.Assignment()
		if !assignment.Started || !assignment.IsLocalTurn {
			continue
		}

		if !sleep(ctx, conf.Client.BotDelay) {
			return nil
		}

		cell, ok := bot.ChooseMove(state, assignment.LocalSide)
		if !ok {
			continue
		}

		if _, err = match.Click(ctx, cell); err != nil {
			log.Warn("move refused", "cell", cell, "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
