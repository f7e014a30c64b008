package memory

import (
	"context"
	"sync"
)

// RoomRegistry is an in-memory implementation of multiplayer.RoomRegistry.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string][2]string
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string][2]string)}
}

func (r *RoomRegistry) Register(_ context.Context, roomID string, players [2]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = players
	return nil
}

func (r *RoomRegistry) Unregister(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
	return nil
}

func (r *RoomRegistry) Lookup(_ context.Context, roomID string) ([2]string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players, ok := r.rooms[roomID]
	return players, ok, nil
}

func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
