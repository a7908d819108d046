package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gukii/tanStartMultiUserAgent/internal/room"
)

// Room pairs one room's state store with its live connection registry. The
// hub owns the mapping from room id to Room; nothing else creates one.
type Room struct {
	ID    string
	State *room.Store

	mu         sync.RWMutex
	clients    map[*Conn]struct{}
	byUser     map[string]int // open connections per bound userId
	emptySince time.Time      // zero while the room has members
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		State:   room.NewStore(),
		clients: map[*Conn]struct{}{},
		byUser:  map[string]int{},
	}
}

// Join adds a connection to the room
func (r *Room) Join(c *Conn) {
	r.mu.Lock()
	r.joinLocked(c)
	r.mu.Unlock()
}

func (r *Room) joinLocked(c *Conn) {
	r.clients[c] = struct{}{}
	r.byUser[c.userID]++
	r.emptySince = time.Time{}
}

// JoinWithSnapshot seeds the user in the store, enqueues the RoomState frame,
// and registers the connection for fanout, all atomically with respect to
// Deliver. The joiner therefore never receives an event that its snapshot
// does not already cover. Returns the join broadcasts for the other members.
func (r *Room) JoinWithSnapshot(c *Conn, name, color string) []room.Broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, joined := r.State.Join(c.userID, name, color)
	if frame, err := json.Marshal(room.RoomStateEvent{Type: room.TypeRoomState, Snapshot: snap}); err == nil {
		c.Send(frame)
	}
	r.joinLocked(c)
	return joined
}

// Leave removes a connection and reports whether it was the last one bound
// to its userId. Only then may user-scoped state be evicted: a stale socket
// draining after a reconnect must not wipe the live connection's state.
func (r *Room) Leave(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return false
	}
	delete(r.clients, c)
	last := false
	if n := r.byUser[c.userID]; n <= 1 {
		delete(r.byUser, c.userID)
		last = true
	} else {
		r.byUser[c.userID] = n - 1
	}
	if len(r.clients) == 0 {
		r.emptySince = time.Now()
	}
	return last
}

// touch clears the empty timer so a room resolved for an imminent join is
// not swept out from under it.
func (r *Room) touch() {
	r.mu.Lock()
	r.emptySince = time.Time{}
	r.mu.Unlock()
}

// MemberCount is the number of open connections.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// reclaimable reports whether the room has been empty for longer than grace.
func (r *Room) reclaimable(grace time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0 && !r.emptySince.IsZero() && time.Since(r.emptySince) > grace
}

// Deliver serializes each broadcast once and fans it out, honoring the
// event's scope relative to origin. Delivery is fire-and-forget: a dead peer
// is cleaned up by its own disconnect callback, not here. The serialized
// frames are returned so the caller can relay them cross-instance.
func (r *Room) Deliver(bs []room.Broadcast, origin *Conn) [][]byte {
	if len(bs) == 0 {
		return nil
	}
	frames := make([][]byte, 0, len(bs))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range bs {
		data, err := json.Marshal(b.Event)
		if err != nil {
			continue
		}
		frames = append(frames, data)
		for c := range r.clients {
			if b.Scope == room.ExcludeOrigin && c == origin {
				continue
			}
			c.Send(data)
		}
	}
	return frames
}

// DeliverRaw fans an already-serialized frame out to every connection. Used
// for frames relayed from other instances, where the originator is remote.
func (r *Room) DeliverRaw(frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		c.Send(frame)
	}
}
