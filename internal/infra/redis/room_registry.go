package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomRegistry marks live rooms in Redis so other instances and operators can
// see them. Each room is a hash at arena:room:{id} with a TTL as a backstop for
// rooms whose process died without unregistering.
type RoomRegistry struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRoomRegistry(client redis.UniversalClient, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{client: client, ttl: ttl}
}

func (r *RoomRegistry) Register(ctx context.Context, roomID string, players [2]string) error {
	key := r.key(roomID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, "player1", players[0], "player2", players[1], "createdAt", time.Now().Unix())
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register room %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRegistry) Unregister(ctx context.Context, roomID string) error {
	if err := r.client.Del(ctx, r.key(roomID)).Err(); err != nil {
		return fmt.Errorf("unregister room %s: %w", roomID, err)
	}
	return nil
}

func (r *RoomRegistry) Lookup(ctx context.Context, roomID string) ([2]string, bool, error) {
	vals, err := r.client.HMGet(ctx, r.key(roomID), "player1", "player2").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return [2]string{}, false, nil
		}
		return [2]string{}, false, fmt.Errorf("lookup room %s: %w", roomID, err)
	}
	var players [2]string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return [2]string{}, false, nil
		}
		players[i] = s
	}
	return players, true, nil
}

func (r *RoomRegistry) key(roomID string) string {
	return "arena:room:" + roomID
}
