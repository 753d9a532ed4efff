package apperror

import "errors"

// illegal moves.
var (
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrNoPiecesLeft = errors.New("no pieces left")
	ErrInvalidCell  = errors.New("invalid cell index")
)

// match flow.
var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrMatchClosed      = errors.New("match is closed")
)

// protocol.
var (
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
)

// rooms.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrSelfJoin            = errors.New("can't join a room you created")
	ErrRoomCodeUnavailable = errors.New("no free room code")
)

// connection.
var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnectTimeout = errors.New("connection timed out")
	ErrOpponentLeft   = errors.New("opponent disconnected")
	ErrInvalidAddress = errors.New("invalid server address")
)

// IsIllegalMove reports whether err rejects a placement without affecting the match.
func IsIllegalMove(err error) bool {
	return errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrNoPiecesLeft) ||
		errors.Is(err, ErrInvalidCell)
}
