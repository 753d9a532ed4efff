package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRoomExists = errors.New("room code already taken")

// RoomRepository reserves room codes so two live rooms never share one.
type RoomRepository interface {
	Reserve(ctx context.Context, roomID, ownerID string) error
	Release(ctx context.Context, roomID string) error
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository keeps reservations in Redis. ttl bounds how long a code
// stays taken if the relay dies without releasing it; zero means forever.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRoom) Reserve(ctx context.Context, roomID, ownerID string) error {
	roomKey := "room:" + roomID

	ok, err := that.client.SetNX(ctx, roomKey, ownerID, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve room: %w", err)
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, roomID)
	}

	return nil
}

func (that *dbRoom) Release(ctx context.Context, roomID string) error {
	roomKey := "room:" + roomID

	if err := that.client.Del(ctx, roomKey).Err(); err != nil {
		return fmt.Errorf("failed to release room: %w", err)
	}

	return nil
}
