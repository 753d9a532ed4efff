package websocket

import (
	"sync"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

type room struct {
	id string

	mu     sync.Mutex
	host   *connection
	guest  *connection
	closed bool
}

func newRoom(id string, host *connection) *room {
	return &room{
		id:   id,
		host: host,
	}
}

// canJoin reports why conn can't take the guest seat. Caller holds mu.
func (that *room) canJoin(conn *connection) error {
	switch {
	case that.closed:
		return apperror.ErrRoomNotFound
	case that.host == conn:
		return apperror.ErrSelfJoin
	case that.guest != nil:
		return apperror.ErrRoomFull
	default:
		return nil
	}
}

func (that *room) checkJoin(conn *connection) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.canJoin(conn)
}

// seatGuest gives conn the guest seat and records the room on conn in the
// same critical section, so a close that follows always finds the guest.
func (that *room) seatGuest(conn *connection) (*connection, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.canJoin(conn); err != nil {
		return nil, err
	}

	that.guest = conn
	conn.setRoom(that.id)

	return that.host, nil
}

// whileOpen runs fn under the room lock unless the room is closed.
// A close waits for fn, so its notifications come after fn's.
func (that *room) whileOpen(fn func()) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	fn()

	return true
}

// opponentOf returns the other occupant, nil if there is none or conn is not seated here.
func (that *room) opponentOf(conn *connection) *connection {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil
	}

	switch conn {
	case that.host:
		return that.guest
	case that.guest:
		return that.host
	default:
		return nil
	}
}

// close marks the room gone and returns the occupant other than conn.
func (that *room) close(conn *connection) *connection {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	if conn == that.host {
		return that.guest
	}

	if conn == that.guest {
		return that.host
	}

	return nil
}
