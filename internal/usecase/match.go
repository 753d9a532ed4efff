package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/service"
)

const DefaultBotDelay = 500 * time.Millisecond

type Mode string

const (
	ModeLocal   Mode = "local"
	ModeBot     Mode = "bot"
	ModeNetwork Mode = "network"
)

// Peer - sends the local player's actions to the opponent in a networked match.
type Peer interface {
	SendMove(ctx context.Context, cell int, side entity.Side) error
	SendRestart(ctx context.Context) error
}

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// TurnAssignment - which side this device plays in a networked match.
type TurnAssignment struct {
	LocalSide   entity.Side
	IsLocalTurn bool
	Started     bool
}

type Options struct {
	Bot       service.BotService
	BotDelay  time.Duration
	Peer      Peer
	Scheduler Scheduler
}

// Match - coordinates one match on this device: it decides whose clicks are
// legal in the current mode and pushes every accepted change to observers.
type Match struct {
	logger   *slog.Logger
	mode     Mode
	bot      service.BotService
	botDelay time.Duration
	peer     Peer
	schedule Scheduler

	mu         sync.Mutex
	state      entity.MatchState
	assignment TurnAssignment
	generation uint64
	closed     bool
	cancelBot  func()
	observers  []func(entity.MatchState)
}

func NewMatch(logger *slog.Logger, mode Mode, opts Options) *Match {
	if opts.Scheduler == nil {
		opts.Scheduler = afterFunc
	}

	if opts.BotDelay <= 0 {
		opts.BotDelay = DefaultBotDelay
	}

	if mode == ModeBot && opts.Bot == nil {
		opts.Bot = service.NewBotService(nil)
	}

	return &Match{
		logger:   logger.With("component", "match", "mode", mode),
		mode:     mode,
		bot:      opts.Bot,
		botDelay: opts.BotDelay,
		peer:     opts.Peer,
		schedule: opts.Scheduler,
		state:    entity.NewMatchState(),
	}
}

func afterFunc(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}

func (that *Match) Mode() Mode {
	return that.mode
}

// State returns a snapshot of the current match.
func (that *Match) State() entity.MatchState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

func (that *Match) Assignment() TurnAssignment {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.assignment
}

// Subscribe registers fn to receive a snapshot after every state change.
func (that *Match) Subscribe(fn func(entity.MatchState)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.observers = append(that.observers, fn)
}

// Click - the local player selects a cell.
func (that *Match) Click(ctx context.Context, cell int) (entity.MatchState, error) {
	log := that.logger.With("method", "Click", "cell", cell)

	that.mu.Lock()

	side, err := that.clickingSide()
	if err != nil {
		snapshot := that.state.Clone()
		that.mu.Unlock()
		return snapshot, err
	}

	next, err := that.state.PlaceAt(side, cell)
	if err != nil {
		snapshot := that.state.Clone()
		that.mu.Unlock()
		log.Debug("move rejected", "side", side, "error", err)
		return snapshot, err
	}

	if that.mode == ModeNetwork {
		return that.sendMove(ctx, cell, side)
	}

	that.state = next

	if that.mode == ModeBot && next.IsInProgress() && next.Turn == entity.PlayerO {
		that.scheduleBot()
	}

	return that.commit(), nil
}

// sendMove sends a networked move without holding the lock and commits it
// once the peer has it. Caller holds mu; the turn is given up before the
// send so a second click can't race it. A restart or a lost opponent while
// sending wins over the move.
func (that *Match) sendMove(ctx context.Context, cell int, side entity.Side) (entity.MatchState, error) {
	log := that.logger.With("method", "sendMove", "cell", cell, "side", side)

	generation := that.generation
	peer := that.peer
	that.assignment.IsLocalTurn = false
	that.mu.Unlock()

	sendErr := peer.SendMove(ctx, cell, side)

	that.mu.Lock()

	if that.closed {
		snapshot := that.state.Clone()
		that.mu.Unlock()
		return snapshot, apperror.ErrMatchClosed
	}

	if generation != that.generation || !that.assignment.Started {
		snapshot := that.state.Clone()
		that.mu.Unlock()
		log.Debug("match moved on while sending", "error", sendErr)
		return snapshot, nil
	}

	if sendErr != nil {
		that.assignment.IsLocalTurn = true
		snapshot := that.state.Clone()
		that.mu.Unlock()
		log.Error("failed to send move", "error", sendErr)
		return snapshot, fmt.Errorf("failed to send move: %w", sendErr)
	}

	next, err := that.state.PlaceAt(side, cell)
	if err != nil {
		snapshot := that.state.Clone()
		that.mu.Unlock()
		log.Warn("sent move no longer fits the board", "error", err)
		return snapshot, err
	}

	that.state = next

	return that.commit(), nil
}

// clickingSide returns the side a local click plays for, or why the click is not allowed.
func (that *Match) clickingSide() (entity.Side, error) {
	if that.closed {
		return entity.EmptyCell, apperror.ErrMatchClosed
	}

	switch that.mode {
	case ModeBot:
		if that.state.Turn != entity.PlayerX {
			return entity.EmptyCell, apperror.ErrNotYourTurn
		}
		return entity.PlayerX, nil
	case ModeNetwork:
		if that.peer == nil {
			return entity.EmptyCell, apperror.ErrNotConnected
		}
		if !that.assignment.Started {
			return entity.EmptyCell, apperror.ErrGameIsNotStarted
		}
		if !that.assignment.IsLocalTurn || that.state.Turn != that.assignment.LocalSide {
			return entity.EmptyCell, apperror.ErrNotYourTurn
		}
		return that.assignment.LocalSide, nil
	default:
		return that.state.Turn, nil
	}
}

func (that *Match) scheduleBot() {
	if that.cancelBot != nil {
		that.cancelBot()
	}

	generation := that.generation
	that.cancelBot = that.schedule(that.botDelay, func() {
		that.playBot(generation)
	})
}

func (that *Match) playBot(generation uint64) {
	log := that.logger.With("method", "playBot")

	that.mu.Lock()

	if that.closed || generation != that.generation || !that.state.IsInProgress() || that.state.Turn != entity.PlayerO {
		that.mu.Unlock()
		log.Debug("stale bot move discarded")
		return
	}

	cell, ok := that.bot.ChooseMove(that.state, entity.PlayerO)
	if !ok {
		that.mu.Unlock()
		return
	}

	next, err := that.state.PlaceAt(entity.PlayerO, cell)
	if err != nil {
		that.mu.Unlock()
		log.Error("bot chose an illegal move", "cell", cell, "error", err)
		return
	}

	that.state = next
	that.commit()
}

// ApplyRemoteMove - applies the opponent's move as received from the relay.
// The peer is trusted, so the only check is the engine's own.
func (that *Match) ApplyRemoteMove(cell int, side entity.Side) error {
	log := that.logger.With("method", "ApplyRemoteMove", "cell", cell, "side", side)

	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return apperror.ErrMatchClosed
	}

	next, err := that.state.PlaceAt(side, cell)
	if err != nil {
		that.mu.Unlock()
		log.Warn("remote move rejected", "error", err)
		return fmt.Errorf("failed to apply remote move: %w", err)
	}

	that.state = next
	that.assignment.IsLocalTurn = true
	that.commit()

	return nil
}

// StartNetworked - both players are in the room; localSide opens if it is X.
func (that *Match) StartNetworked(localSide entity.Side) error {
	if !localSide.IsValid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidSide, localSide)
	}

	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return apperror.ErrMatchClosed
	}

	that.assignment = TurnAssignment{
		LocalSide:   localSide,
		IsLocalTurn: localSide == entity.PlayerX,
		Started:     true,
	}
	that.reset()
	that.commit()

	return nil
}

// StopNetworked - the opponent is gone; the board stays visible but no more moves are accepted.
func (that *Match) StopNetworked() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.assignment.Started = false
	that.assignment.IsLocalTurn = false
}

// Restart - starts a fresh match; in a networked match the opponent is told to do the same.
func (that *Match) Restart(ctx context.Context) error {
	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return apperror.ErrMatchClosed
	}

	if that.mode == ModeNetwork && that.assignment.Started {
		if that.peer == nil {
			that.mu.Unlock()
			return apperror.ErrNotConnected
		}

		peer := that.peer
		that.mu.Unlock()

		if err := peer.SendRestart(ctx); err != nil {
			return fmt.Errorf("failed to send restart: %w", err)
		}

		that.mu.Lock()

		if that.closed {
			that.mu.Unlock()
			return apperror.ErrMatchClosed
		}
	}

	that.reset()
	that.commit()

	return nil
}

// RemoteRestart - the opponent restarted the match.
func (that *Match) RemoteRestart() {
	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return
	}

	that.reset()
	that.commit()
}

// Close - leaves the match; pending bot moves are dropped.
func (that *Match) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	that.generation++

	if that.cancelBot != nil {
		that.cancelBot()
		that.cancelBot = nil
	}
}

func (that *Match) reset() {
	that.generation++

	if that.cancelBot != nil {
		that.cancelBot()
		that.cancelBot = nil
	}

	that.state = that.state.Reset()
	that.assignment.IsLocalTurn = that.assignment.Started && that.assignment.LocalSide == entity.PlayerX
}

// commit releases the lock and then notifies observers with the new snapshot.
func (that *Match) commit() entity.MatchState {
	snapshot := that.state.Clone()
	observers := make([]func(entity.MatchState), len(that.observers))
	copy(observers, that.observers)

	that.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot.Clone())
	}

	return snapshot
}
