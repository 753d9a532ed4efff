package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/protocol"
)

const writeWait = 10 * time.Second

// connection is one accepted client. Rooms only keep a pointer to it; the
// read loop owning it is the only one that closes it.
type connection struct {
	id string
	ws *websocket.Conn

	writeMu sync.Mutex

	roomMu sync.Mutex
	roomID string
}

func newConnection(id string, ws *websocket.Conn) *connection {
	return &connection{
		id: id,
		ws: ws,
	}
}

func (that *connection) send(msg protocol.Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) close() error {
	that.writeMu.Lock()
	_ = that.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	that.writeMu.Unlock()

	return that.ws.Close()
}

func (that *connection) room() string {
	that.roomMu.Lock()
	defer that.roomMu.Unlock()

	return that.roomID
}

func (that *connection) setRoom(roomID string) {
	that.roomMu.Lock()
	defer that.roomMu.Unlock()

	that.roomID = roomID
}

// takeRoom clears the seat and returns the room it was in.
func (that *connection) takeRoom() string {
	that.roomMu.Lock()
	defer that.roomMu.Unlock()

	roomID := that.roomID
	that.roomID = ""

	return roomID
}

// clearRoom forgets roomID only if the connection still sits in it.
func (that *connection) clearRoom(roomID string) {
	that.roomMu.Lock()
	defer that.roomMu.Unlock()

	if that.roomID == roomID {
		that.roomID = ""
	}
}
