package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/service"
	mockedUseCase "github.com/rocketscienceinc/vanishing-tictactoe/mocks/usecase"
)

var errConnectionLost = errors.New("connection lost")

type fakeScheduler struct {
	mu        sync.Mutex
	pending   []func()
	cancelled []bool
	delays    []time.Duration
}

func (that *fakeScheduler) schedule(d time.Duration, fn func()) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	idx := len(that.pending)
	that.pending = append(that.pending, fn)
	that.cancelled = append(that.cancelled, false)
	that.delays = append(that.delays, d)

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		that.cancelled[idx] = true
	}
}

// fireAll runs every scheduled callback, cancelled ones included, so the stale guard is exercised.
func (that *fakeScheduler) fireAll() {
	that.mu.Lock()
	pending := that.pending
	that.pending = nil
	that.cancelled = nil
	that.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (that *fakeScheduler) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.pending)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newBotMatch(t *testing.T) (*Match, *fakeScheduler) {
	t.Helper()

	scheduler := &fakeScheduler{}
	match := NewMatch(newTestLogger(), ModeBot, Options{
		Bot:       service.NewBotService(rand.New(rand.NewSource(1))),
		Scheduler: scheduler.schedule,
	})

	return match, scheduler
}

func TestMatch_LocalMode(t *testing.T) {
	ctx := context.Background()

	t.Run("Sides alternate", func(t *testing.T) {
		// Given: a local match with an observer
		match := NewMatch(newTestLogger(), ModeLocal, Options{})

		var snapshots []entity.MatchState
		match.Subscribe(func(state entity.MatchState) {
			snapshots = append(snapshots, state)
		})

		// When: two clicks are made
		_, err := match.Click(ctx, 0)
		require.NoError(t, err)
		state, err := match.Click(ctx, 4)
		require.NoError(t, err)

		// Then: X and O were placed and the observer saw both changes
		assert.Equal(t, entity.PlayerX, state.Board[0])
		assert.Equal(t, entity.PlayerO, state.Board[4])
		assert.Equal(t, entity.PlayerX, state.Turn)
		require.Len(t, snapshots, 2)
		assert.Equal(t, state, snapshots[1])
	})

	t.Run("Occupied cell is rejected", func(t *testing.T) {
		// Given: a local match with X on cell 0
		match := NewMatch(newTestLogger(), ModeLocal, Options{})
		_, err := match.Click(ctx, 0)
		require.NoError(t, err)

		// When: O clicks the same cell
		state, err := match.Click(ctx, 0)

		// Then: the move is illegal and nothing changes
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.True(t, apperror.IsIllegalMove(err))
		assert.Equal(t, entity.PlayerO, state.Turn)
		assert.Equal(t, 1, state.TurnCount)
	})

	t.Run("Clicks after a win are refused", func(t *testing.T) {
		// Given: X wins on the left column
		match := NewMatch(newTestLogger(), ModeLocal, Options{})
		for _, cell := range []int{0, 1, 3, 2, 6} {
			_, err := match.Click(ctx, cell)
			require.NoError(t, err)
		}
		require.True(t, match.State().IsWon())

		// When: another click is made
		_, err := match.Click(ctx, 8)

		// Then: the match is finished
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Closed match", func(t *testing.T) {
		// Given: a closed match
		match := NewMatch(newTestLogger(), ModeLocal, Options{})
		match.Close()

		// When: the player clicks or restarts
		_, clickErr := match.Click(ctx, 0)
		restartErr := match.Restart(ctx)

		// Then: both are refused
		require.ErrorIs(t, clickErr, apperror.ErrMatchClosed)
		require.ErrorIs(t, restartErr, apperror.ErrMatchClosed)
	})
}

func TestMatch_BotMode(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot answers after the delay", func(t *testing.T) {
		// Given: a bot match
		match, scheduler := newBotMatch(t)

		// When: the human plays a corner
		state, err := match.Click(ctx, 0)

		// Then: the bot move is scheduled, not applied
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, state.Turn)
		require.Equal(t, 1, scheduler.count())
		assert.Equal(t, DefaultBotDelay, scheduler.delays[0])

		// And: the human can't move for the bot
		_, err = match.Click(ctx, 1)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		// When: the delay elapses
		scheduler.fireAll()

		// Then: the bot takes the center and it is X's turn again
		state = match.State()
		assert.Equal(t, entity.PlayerO, state.Board[entity.CenterCell])
		assert.Equal(t, entity.PlayerX, state.Turn)
		assert.Equal(t, 2, state.TurnCount)
	})

	t.Run("Bot blocks the human", func(t *testing.T) {
		// Given: X on 0, bot on 4
		match, scheduler := newBotMatch(t)
		_, err := match.Click(ctx, 0)
		require.NoError(t, err)
		scheduler.fireAll()

		// When: X threatens the top row
		_, err = match.Click(ctx, 1)
		require.NoError(t, err)
		scheduler.fireAll()

		// Then: the bot blocks on cell 2
		assert.Equal(t, entity.PlayerO, match.State().Board[2])
	})

	t.Run("Restart discards the pending bot move", func(t *testing.T) {
		// Given: a bot move is pending
		match, scheduler := newBotMatch(t)
		_, err := match.Click(ctx, 0)
		require.NoError(t, err)

		// When: the match is restarted before the delay elapses
		require.NoError(t, match.Restart(ctx))
		scheduler.fireAll()

		// Then: the fresh board stays untouched
		assert.Equal(t, entity.NewMatchState(), match.State())
	})

	t.Run("Close discards the pending bot move", func(t *testing.T) {
		// Given: a bot move is pending
		match, scheduler := newBotMatch(t)
		_, err := match.Click(ctx, 0)
		require.NoError(t, err)

		// When: the player returns to the menu
		match.Close()
		scheduler.fireAll()

		// Then: the bot never moved
		state := match.State()
		assert.Equal(t, 1, state.TurnCount)
		assert.Equal(t, entity.PlayerO, state.Turn)
	})
}

func TestMatch_NetworkMode(t *testing.T) {
	ctx := context.Background()

	t.Run("Moves before the opponent joins are refused", func(t *testing.T) {
		// Given: a networked match nobody joined yet
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})

		// When: the host clicks
		_, err := match.Click(ctx, 4)

		// Then: the match is not started and nothing is sent
		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Without a peer", func(t *testing.T) {
		// Given: a networked match with no connection
		match := NewMatch(newTestLogger(), ModeNetwork, Options{})

		// When: the player clicks
		_, err := match.Click(ctx, 4)

		// Then: the match is not connected
		require.ErrorIs(t, err, apperror.ErrNotConnected)
	})

	t.Run("Host move is sent then applied", func(t *testing.T) {
		// Given: a started match where this device is the host
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))

		peer.EXPECT().
			SendMove(mock.Anything, 4, entity.PlayerX).
			Return(nil).
			Once()

		// When: the host clicks the center
		state, err := match.Click(ctx, 4)

		// Then: the move is on the board and it is the guest's turn
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, state.Board[4])
		assert.False(t, match.Assignment().IsLocalTurn)

		// And: a second click waits for the guest
		_, err = match.Click(ctx, 0)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		// When: the guest's move arrives
		require.NoError(t, match.ApplyRemoteMove(0, entity.PlayerO))

		// Then: it is the host's turn again
		assert.True(t, match.Assignment().IsLocalTurn)
		assert.Equal(t, entity.PlayerO, match.State().Board[0])
	})

	t.Run("Failed send leaves the board unchanged", func(t *testing.T) {
		// Given: a started host match whose connection fails
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))

		peer.EXPECT().
			SendMove(mock.Anything, 4, entity.PlayerX).
			Return(errConnectionLost).
			Once()

		// When: the host clicks
		_, err := match.Click(ctx, 4)

		// Then: the error is returned and the host may try again
		require.ErrorIs(t, err, errConnectionLost)
		assert.Equal(t, entity.NewMatchState(), match.State())
		assert.True(t, match.Assignment().IsLocalTurn)
	})

	t.Run("Guest waits for the host", func(t *testing.T) {
		// Given: a started match where this device is the guest
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerO))

		// When: the guest clicks first
		_, err := match.Click(ctx, 4)

		// Then: it is not the guest's turn
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Remote move on an occupied cell", func(t *testing.T) {
		// Given: the host played the center
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))
		peer.EXPECT().SendMove(mock.Anything, 4, entity.PlayerX).Return(nil).Once()
		_, err := match.Click(ctx, 4)
		require.NoError(t, err)

		// When: the guest's move targets the same cell
		err = match.ApplyRemoteMove(4, entity.PlayerO)

		// Then: the engine rejects it and the turn stays with the guest
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.False(t, match.Assignment().IsLocalTurn)
		assert.Equal(t, 1, match.State().TurnCount)
	})

	t.Run("Restart is sent to the opponent", func(t *testing.T) {
		// Given: a started host match with one move played
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))
		peer.EXPECT().SendMove(mock.Anything, 4, entity.PlayerX).Return(nil).Once()
		_, err := match.Click(ctx, 4)
		require.NoError(t, err)

		peer.EXPECT().SendRestart(mock.Anything).Return(nil).Once()

		// When: the host restarts
		err = match.Restart(ctx)

		// Then: the board is fresh and the host opens again
		require.NoError(t, err)
		assert.Equal(t, entity.NewMatchState(), match.State())
		assert.True(t, match.Assignment().IsLocalTurn)
	})

	t.Run("Remote restart", func(t *testing.T) {
		// Given: a guest whose move was just played
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerO))
		require.NoError(t, match.ApplyRemoteMove(4, entity.PlayerX))
		require.True(t, match.Assignment().IsLocalTurn)

		// When: the host restarts
		match.RemoteRestart()

		// Then: the guest waits for the host again
		assert.Equal(t, entity.NewMatchState(), match.State())
		assert.False(t, match.Assignment().IsLocalTurn)
		assert.Equal(t, entity.PlayerO, match.Assignment().LocalSide)
	})

	t.Run("Opponent left", func(t *testing.T) {
		// Given: a started host match
		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))

		// When: the opponent disconnects
		match.StopNetworked()

		// Then: further clicks are refused
		_, err := match.Click(ctx, 4)
		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Invalid side", func(t *testing.T) {
		match := NewMatch(newTestLogger(), ModeNetwork, Options{})

		require.ErrorIs(t, match.StartNetworked(entity.EmptyCell), entity.ErrInvalidSide)
	})
}

func TestMatch_MoveInFlight(t *testing.T) {
	ctx := context.Background()

	// inFlight starts a host click whose send blocks until release is closed.
	inFlight := func(t *testing.T) (*Match, chan struct{}, chan error) {
		t.Helper()

		peer := mockedUseCase.NewMockPeer(t)
		match := NewMatch(newTestLogger(), ModeNetwork, Options{Peer: peer})
		require.NoError(t, match.StartNetworked(entity.PlayerX))

		sending := make(chan struct{})
		release := make(chan struct{})

		peer.EXPECT().
			SendMove(mock.Anything, 4, entity.PlayerX).
			RunAndReturn(func(context.Context, int, entity.Side) error {
				close(sending)
				<-release
				return nil
			}).
			Once()
		peer.EXPECT().SendRestart(mock.Anything).Return(nil).Maybe()

		clicked := make(chan error, 1)
		go func() {
			_, err := match.Click(ctx, 4)
			clicked <- err
		}()

		<-sending

		return match, release, clicked
	}

	t.Run("The match stays readable while a move is sent", func(t *testing.T) {
		// Given: a host move waiting on a slow connection
		match, release, clicked := inFlight(t)

		// When: the state is read and the host clicks again
		state := match.State()
		_, err := match.Click(ctx, 0)

		// Then: the board is untouched and the turn is already given up
		assert.Equal(t, entity.NewMatchState(), state)
		assert.False(t, match.Assignment().IsLocalTurn)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		// When: the send completes
		close(release)

		// Then: the move is committed
		require.NoError(t, <-clicked)
		assert.Equal(t, entity.PlayerX, match.State().Board[4])
		assert.False(t, match.Assignment().IsLocalTurn)
	})

	t.Run("A restart while sending wins", func(t *testing.T) {
		// Given: a host move waiting on a slow connection
		match, release, clicked := inFlight(t)

		// When: the host restarts before the send completes
		require.NoError(t, match.Restart(ctx))
		close(release)

		// Then: the sent move is not committed on the fresh board
		require.NoError(t, <-clicked)
		assert.Equal(t, entity.NewMatchState(), match.State())
		assert.True(t, match.Assignment().IsLocalTurn)
	})
}
