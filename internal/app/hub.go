package app

import (
	"sync"
)

// Message is an outbound envelope for a connected player.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans messages out to every connection a player has open. It implements
// the Notifier interfaces of the session and multiplayer packages.
type Hub struct {
	buffer int

	mu          sync.Mutex
	subscribers map[string]map[chan Message]struct{}
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		buffer:      buffer,
		subscribers: make(map[string]map[chan Message]struct{}),
	}
}

// Subscribe returns a channel that receives messages for playerID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(playerID string) (<-chan Message, func()) {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	subs, ok := h.subscribers[playerID]
	if !ok {
		subs = make(map[chan Message]struct{})
		h.subscribers[playerID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[playerID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, playerID)
		}
	}
	return ch, cancel
}

func (h *Hub) Notify(playerID, msgType string, payload any) {
	msg := Message{Type: msgType, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[playerID] {
		select {
		case ch <- msg:
		default:
			// slow client: drop the oldest queued message
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
}

// Connected reports whether playerID has at least one open subscription.
func (h *Hub) Connected(playerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[playerID]) > 0
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, id)
	}
}
