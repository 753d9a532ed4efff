package repository

import (
	"context"
	"fmt"
	"sync"
)

type memoryRoom struct {
	mu    sync.Mutex
	rooms map[string]string
}

// NewMemoryRoomRepository keeps reservations in process; used when Redis is disabled.
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		rooms: make(map[string]string),
	}
}

func (that *memoryRoom) Reserve(_ context.Context, roomID, ownerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[roomID]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, roomID)
	}

	that.rooms[roomID] = ownerID

	return nil
}

func (that *memoryRoom) Release(_ context.Context, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, roomID)

	return nil
}
