package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Hub owns the room registry: topic id → set of connections. It is the only
// place that state lives, and only Join/Leave/Disconnect/broadcast touch it.
// Everything here is process-local; there is no cross-process fan-out.
type Hub struct {
	mu sync.Mutex
	// rooms maps topicID → members.
	rooms map[uuid.UUID]map[*Client]struct{}
	// joined is the reverse index used on disconnect.
	joined map[*Client]map[uuid.UUID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		joined: make(map[*Client]map[uuid.UUID]struct{}),
	}
}

// Join adds the connection to a room and tells the other members. The joiner
// gets no presence event for itself, only the ack from its own handler.
func (h *Hub) Join(c *Client, topicID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[topicID] == nil {
		h.rooms[topicID] = make(map[*Client]struct{})
	}
	h.rooms[topicID][c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[uuid.UUID]struct{})
	}
	h.joined[c][topicID] = struct{}{}

	h.notifyRoomLocked(topicID, EventUserJoined, c)
	log.Printf("ws hub: user %s joined topic %s (%d members)", c.principal.ID, topicID, len(h.rooms[topicID]))
}

// Leave removes the connection from a room and tells the remaining members.
func (h *Hub) Leave(c *Client, topicID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c, topicID)
}

// Disconnect removes the connection from every room it joined, emitting a
// leave-presence event to each. Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topicID := range h.joined[c] {
		h.removeFromRoomLocked(c, topicID)
	}
}

// BroadcastToRoom sends an event to every member of a room. A nil exclude
// reaches everyone, including the sender.
func (h *Hub) BroadcastToRoom(topicID uuid.UUID, event *Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for member := range h.rooms[topicID] {
		if member == exclude {
			continue
		}
		h.deliverLocked(member, data)
	}
}

// removeFromRoomLocked drops the membership and notifies whoever is left.
func (h *Hub) removeFromRoomLocked(c *Client, topicID uuid.UUID) {
	members, ok := h.rooms[topicID]
	if !ok {
		return
	}
	if _, member := members[c]; !member {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, topicID)
	}
	if set := h.joined[c]; set != nil {
		delete(set, topicID)
		if len(set) == 0 {
			delete(h.joined, c)
		}
	}

	h.notifyRoomLocked(topicID, EventUserLeft, c)
}

// notifyRoomLocked emits a presence event about c to every member except c.
func (h *Hub) notifyRoomLocked(topicID uuid.UUID, eventType string, c *Client) {
	evt, err := NewEvent(eventType, &topicID, PresencePayload{
		UserID:      c.principal.ID,
		DisplayName: c.principal.DisplayName,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for member := range h.rooms[topicID] {
		if member == c {
			continue
		}
		h.deliverLocked(member, data)
	}
}

// deliverLocked enqueues data on a member's send buffer. A member that can't
// keep up gets disconnected rather than stalling the room.
func (h *Hub) deliverLocked(member *Client, data []byte) {
	select {
	case member.send <- data:
	default:
		for topicID := range h.joined[member] {
			h.removeFromRoomLocked(member, topicID)
		}
		member.close()
		log.Printf("ws hub: dropped slow connection for user %s", member.principal.ID)
	}
}
