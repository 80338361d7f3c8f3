package redis

import (
	"context"
	"time"

	"quickchallenge/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomTracker mirrors room liveness into Redis so operators (or a future
// cross-instance fan-out layer) can see which access codes have open
// connections. Best effort only; room membership itself stays in memory.
type RoomTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomTracker(client *redis.Client, ttl time.Duration) *RoomTracker {
	return &RoomTracker{client: client, ttl: ttl}
}

func (t *RoomTracker) MarkRoom(accessCode string, size int) {
	_ = t.client.Set(context.Background(), t.key(accessCode), size, t.ttl).Err()
}

func (t *RoomTracker) ClearRoom(accessCode string) {
	_ = t.client.Del(context.Background(), t.key(accessCode)).Err()
}

func (t *RoomTracker) key(accessCode string) string {
	return "room:" + domain.NormalizeAccessCode(accessCode)
}
