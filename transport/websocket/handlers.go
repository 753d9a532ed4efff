package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/pkg"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/protocol"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/repository"
)

func (that *Server) handleCreateRoom(ctx context.Context, conn *connection, _ protocol.Message) error {
	log := that.logger.With("method", "handleCreateRoom", "connID", conn.id)

	that.leaveRoom(ctx, conn)

	roomID, err := that.reserveRoomID(ctx, conn.id)
	if err != nil {
		log.Error("failed to reserve room id", "error", err)
		that.sendError(conn, err)
		return nil
	}

	that.roomsMu.Lock()
	that.rooms[roomID] = newRoom(roomID, conn)
	that.roomsMu.Unlock()

	conn.setRoom(roomID)

	log.Info("room created", "roomID", roomID)

	if err = conn.send(protocol.NewRoomCreated(roomID)); err != nil {
		return fmt.Errorf("failed to send room_created: %w", err)
	}

	return nil
}

// reserveRoomID draws fresh codes until the registry accepts one.
func (that *Server) reserveRoomID(ctx context.Context, ownerID string) (string, error) {
	for attempt := 0; attempt < that.codeAttempts; attempt++ {
		roomID, err := pkg.GenerateRoomID(that.codeLength)
		if err != nil {
			return "", err
		}

		err = that.roomRepo.Reserve(ctx, roomID, ownerID)
		if err == nil {
			return roomID, nil
		}

		if !errors.Is(err, repository.ErrRoomExists) {
			return "", fmt.Errorf("%w: %w", apperror.ErrRoomCodeUnavailable, err)
		}
	}

	return "", fmt.Errorf("%w after %d attempts", apperror.ErrRoomCodeUnavailable, that.codeAttempts)
}

func (that *Server) handleJoinRoom(ctx context.Context, conn *connection, msg protocol.Message) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", conn.id, "roomID", msg.RoomID)

	target := that.getRoom(msg.RoomID)
	if target == nil {
		that.sendError(conn, apperror.ErrRoomNotFound)
		return nil
	}

	if err := target.checkJoin(conn); err != nil {
		log.Debug("join refused", "error", err)
		that.sendError(conn, err)
		return nil
	}

	that.leaveRoom(ctx, conn)

	host, err := target.seatGuest(conn)
	if err != nil {
		log.Debug("join refused", "error", err)
		that.sendError(conn, err)
		return nil
	}

	log.Info("player joined")

	joined := protocol.NewPlayerJoined(target.id)

	var guestErr error

	announced := target.whileOpen(func() {
		if err := host.send(joined); err != nil {
			log.Warn("failed to notify host", "error", err)
		}

		guestErr = conn.send(joined)
	})
	if !announced {
		log.Debug("room closed before the join was announced")
		return nil
	}

	if guestErr != nil {
		return fmt.Errorf("failed to send player_joined: %w", guestErr)
	}

	return nil
}

// handleMove - forwards a move to the other occupant of the room.
func (that *Server) handleMove(_ context.Context, conn *connection, msg protocol.Message) error {
	if msg.CellIndex == nil {
		that.sendError(conn, apperror.ErrInvalidMessage)
		return nil
	}

	opponent := that.opponentIn(msg.RoomID, conn)
	if opponent == nil {
		that.logger.Debug("move dropped", "connID", conn.id, "roomID", msg.RoomID)
		return nil
	}

	if err := opponent.send(protocol.NewMove(msg.RoomID, *msg.CellIndex, msg.CurrentPlayer)); err != nil {
		return fmt.Errorf("failed to forward move: %w", err)
	}

	return nil
}

func (that *Server) handleRestart(_ context.Context, conn *connection, msg protocol.Message) error {
	opponent := that.opponentIn(msg.RoomID, conn)
	if opponent == nil {
		that.logger.Debug("restart dropped", "connID", conn.id, "roomID", msg.RoomID)
		return nil
	}

	if err := opponent.send(protocol.NewRestart(msg.RoomID)); err != nil {
		return fmt.Errorf("failed to forward restart: %w", err)
	}

	return nil
}

// leaveRoom - removes conn from its room, if any; the room is gone and the
// other occupant is told the opponent left.
func (that *Server) leaveRoom(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "leaveRoom", "connID", conn.id)

	roomID := conn.takeRoom()
	if roomID == "" {
		return
	}

	current := that.getRoom(roomID)
	if current == nil {
		return
	}

	opponent := current.close(conn)

	that.roomsMu.Lock()
	delete(that.rooms, roomID)
	that.roomsMu.Unlock()

	if err := that.roomRepo.Release(ctx, roomID); err != nil {
		log.Error("failed to release room id", "roomID", roomID, "error", err)
	}

	log.Info("room closed", "roomID", roomID)

	if opponent == nil {
		return
	}

	opponent.clearRoom(roomID)

	if err := opponent.send(protocol.NewError(protocol.TextOpponentLeft)); err != nil {
		log.Warn("failed to notify opponent", "error", err)
	}
}

func (that *Server) getRoom(roomID string) *room {
	that.roomsMu.RLock()
	defer that.roomsMu.RUnlock()

	return that.rooms[roomID]
}

func (that *Server) opponentIn(roomID string, conn *connection) *connection {
	current := that.getRoom(roomID)
	if current == nil {
		return nil
	}

	return current.opponentOf(conn)
}
