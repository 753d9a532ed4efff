package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/protocol"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	writeWait             = 10 * time.Second
)

// State - connection status shown to the player.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateWaiting      State = "waiting-for-opponent"
	StateError        State = "error"
)

type Role string

const (
	RoleNone  Role = ""
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Side - the host always plays X.
func (that Role) Side() entity.Side {
	switch that {
	case RoleHost:
		return entity.PlayerX
	case RoleGuest:
		return entity.PlayerO
	default:
		return entity.EmptyCell
	}
}

type matchDep interface {
	StartNetworked(localSide entity.Side) error
	StopNetworked()
	ApplyRemoteMove(cell int, side entity.Side) error
	RemoteRestart()
}

// Client - one player's connection to the relay. It turns relay messages
// into calls on the bound match and sends the match's moves to the relay.
type Client struct {
	logger         *slog.Logger
	connectTimeout time.Duration

	mu        sync.Mutex
	ws        *websocket.Conn
	closing   bool
	state     State
	lastErr   error
	role      Role
	roomID    string
	joining   string
	match     matchDep
	listeners []func(State, error)

	writeMu sync.Mutex
	done    chan struct{}
}

func New(logger *slog.Logger, connectTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	return &Client{
		logger:         logger.With("component", "client"),
		connectTimeout: connectTimeout,
		state:          StateDisconnected,
	}
}

// Bind - the match that receives the opponent's actions.
func (that *Client) Bind(match matchDep) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.match = match
}

// OnStateChange registers fn to be called after every state change.
func (that *Client) OnStateChange(fn func(State, error)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, fn)
}

func (that *Client) State() (State, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state, that.lastErr
}

func (that *Client) RoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomID
}

func (that *Client) Role() Role {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.role
}

// Done is closed once the connection is gone.
func (that *Client) Done() <-chan struct{} {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.done
}

// Connect - dials the relay at address (host:port) and starts reading from it.
func (that *Client) Connect(ctx context.Context, address string) error {
	log := that.logger.With("method", "Connect", "address", address)

	if err := ValidateAddress(address); err != nil {
		that.setState(StateError, err)
		return err
	}

	that.mu.Lock()
	if that.ws != nil {
		that.mu.Unlock()
		return nil
	}
	that.mu.Unlock()

	that.setState(StateConnecting, nil)

	dialCtx, cancel := context.WithTimeout(ctx, that.connectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: that.connectTimeout}

	ws, resp, err := dialer.DialContext(dialCtx, "ws://"+address, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		if isTimeout(dialCtx, err) {
			err = fmt.Errorf("%w after %s", apperror.ErrConnectTimeout, that.connectTimeout)
		} else {
			err = fmt.Errorf("failed to connect: %w", err)
		}

		log.Warn("connect failed", "error", err)
		that.setState(StateError, err)

		return err
	}

	done := make(chan struct{})

	that.mu.Lock()
	that.ws = ws
	that.closing = false
	that.done = done
	that.mu.Unlock()

	log.Info("connected")
	that.setState(StateConnected, nil)

	go that.readLoop(ws, done)

	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// CreateRoom - asks the relay for a new room; this player becomes the host.
func (that *Client) CreateRoom(ctx context.Context) error {
	that.mu.Lock()
	that.role = RoleHost
	that.roomID = ""
	that.joining = ""
	that.mu.Unlock()

	return that.send(ctx, protocol.Message{Type: protocol.TypeCreateRoom, Version: protocol.Version})
}

// JoinRoom - asks to join the room with the given code as the guest.
// Role and room stay as they are until the relay answers with player_joined.
func (that *Client) JoinRoom(ctx context.Context, roomID string) error {
	that.mu.Lock()
	if that.role == RoleHost && roomID == that.roomID {
		that.mu.Unlock()
		that.setState(StateError, apperror.ErrSelfJoin)
		return apperror.ErrSelfJoin
	}

	that.joining = roomID
	that.mu.Unlock()

	err := that.send(ctx, protocol.Message{Type: protocol.TypeJoinRoom, Version: protocol.Version, RoomID: roomID})
	if err != nil {
		that.mu.Lock()
		if that.joining == roomID {
			that.joining = ""
		}
		that.mu.Unlock()
	}

	return err
}

func (that *Client) SendMove(ctx context.Context, cell int, side entity.Side) error {
	return that.send(ctx, protocol.NewMove(that.RoomID(), cell, side.String()))
}

func (that *Client) SendRestart(ctx context.Context) error {
	return that.send(ctx, protocol.NewRestart(that.RoomID()))
}

// Close - disconnects from the relay.
func (that *Client) Close() error {
	that.mu.Lock()
	ws := that.ws
	that.closing = true
	that.mu.Unlock()

	if ws == nil {
		return nil
	}

	that.writeMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	that.writeMu.Unlock()

	if err := ws.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}

func (that *Client) send(ctx context.Context, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.Lock()
	ws := that.ws
	that.mu.Unlock()

	if ws == nil {
		return apperror.ErrNotConnected
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrNotConnected, err)
	}

	return nil
}

func (that *Client) readLoop(ws *websocket.Conn, done chan struct{}) {
	log := that.logger.With("method", "readLoop")

	defer close(done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			that.disconnected(ws, err)
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Warn("bad message from relay", "error", err)
			continue
		}

		that.handleMessage(msg)
	}
}

func (that *Client) handleMessage(msg protocol.Message) {
	log := that.logger.With("method", "handleMessage", "type", msg.Type)

	that.mu.Lock()
	match := that.match
	that.mu.Unlock()

	switch msg.Type {
	case protocol.TypeRoomCreated:
		that.mu.Lock()
		that.roomID = msg.RoomID
		that.mu.Unlock()

		log.Info("room created", "roomID", msg.RoomID)
		that.setState(StateWaiting, nil)

	case protocol.TypePlayerJoined:
		role := that.seated(msg.RoomID)
		log.Info("opponent found", "roomID", msg.RoomID, "role", role)

		if match != nil {
			if err := match.StartNetworked(role.Side()); err != nil {
				log.Error("failed to start match", "error", err)
			}
		}

		that.setState(StateConnected, nil)

	case protocol.TypeMove:
		if match == nil || msg.CellIndex == nil {
			return
		}

		if err := match.ApplyRemoteMove(*msg.CellIndex, entity.Side(msg.CurrentPlayer)); err != nil {
			log.Warn("remote move not applied", "error", err)
		}

	case protocol.TypeRestart:
		if match != nil {
			match.RemoteRestart()
		}

	case protocol.TypeError:
		err := protocol.ErrorFor(msg.Message)

		opponentLeft := errors.Is(err, apperror.ErrOpponentLeft)

		that.mu.Lock()
		if opponentLeft {
			that.roomID = ""
			that.role = RoleNone
		} else {
			// a refused join leaves the seat held before it
			that.joining = ""
		}
		that.mu.Unlock()

		if opponentLeft && match != nil {
			match.StopNetworked()
		}

		log.Warn("relay error", "error", err)
		that.setState(StateError, err)

	default:
		log.Debug("ignored message")
	}
}

// seated commits the role for a player_joined in roomID. A join this client
// asked for makes it the guest. Anything else is a guest arriving in its own room.
func (that *Client) seated(roomID string) Role {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.joining != "" && (roomID == "" || roomID == that.joining) {
		that.role = RoleGuest
		that.roomID = that.joining
		that.joining = ""
	}

	return that.role
}

func (that *Client) disconnected(ws *websocket.Conn, err error) {
	that.mu.Lock()
	if that.ws != ws {
		that.mu.Unlock()
		return
	}

	closing := that.closing
	match := that.match
	that.ws = nil
	that.roomID = ""
	that.role = RoleNone
	that.joining = ""
	that.mu.Unlock()

	if match != nil {
		match.StopNetworked()
	}

	if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		that.setState(StateDisconnected, nil)
		return
	}

	that.logger.Warn("connection lost", "error", err)
	that.setState(StateError, fmt.Errorf("%w: %w", apperror.ErrNotConnected, err))
}

func (that *Client) setState(state State, err error) {
	that.mu.Lock()
	that.state = state
	that.lastErr = err
	listeners := make([]func(State, error), len(that.listeners))
	copy(listeners, that.listeners)
	that.mu.Unlock()

	for _, listener := range listeners {
		listener(state, err)
	}
}
