package ws

import (
	"context"
	"hash/fnv"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gukii/tanStartMultiUserAgent/pkg/metrics"
)

// cursorPalette colors peers that connect without choosing one. Picked by a
// stable hash of the userId so the same peer gets the same color back.
var cursorPalette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

// Hub owns the room registry: one state store + connection set per room id,
// created lazily on first join and reclaimed once empty. It is the only
// writer of the registry.
type Hub struct {
	log *slog.Logger
	bus *RedisBus // nil when cross-instance relay is disabled

	sweepInterval time.Duration
	emptyGrace    time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewHub sets up the hub. bus may be nil for single-instance deployments.
func NewHub(logger *slog.Logger, bus *RedisBus, sweepInterval, emptyGrace time.Duration) *Hub {
	return &Hub{
		log:           logger,
		bus:           bus,
		sweepInterval: sweepInterval,
		emptyGrace:    emptyGrace,
		rooms:         map[string]*Room{},
	}
}

// Run forwards bus frames to local rooms and sweeps empty rooms on a fixed
// interval until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, func(roomID string, frame []byte) {
			if rm, ok := h.Lookup(roomID); ok {
				rm.DeliverRaw(frame)
			}
		})
	}

	t := time.NewTicker(h.sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			h.sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Room returns the Room for an id, creating it if needed. The WS join path
// is the only production caller; rooms are never created implicitly
// elsewhere.
func (h *Hub) Room(id string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm := h.rooms[id]
	if rm == nil {
		rm = newRoom(id)
		h.rooms[id] = rm
		metrics.RoomsActive.Inc()
		h.log.Info("room.created", "room", id)
	} else {
		// Keep the sweeper off a room that is between resolve and join.
		rm.touch()
	}
	return rm
}

// Lookup returns an existing room without creating one.
func (h *Hub) Lookup(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.rooms[id]
	return rm, ok
}

// RoomInfo is a summary row for the inspection API.
type RoomInfo struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// Rooms lists the currently active rooms.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for id, rm := range h.rooms {
		out = append(out, RoomInfo{ID: id, Members: rm.MemberCount()})
	}
	return out
}

// sweep discards rooms that have been empty past the grace period, bounding
// memory by concurrently active rooms rather than historical ones.
func (h *Hub) sweep() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, rm := range h.rooms {
		if rm.reclaimable(h.emptyGrace) {
			delete(h.rooms, id)
			metrics.RoomsActive.Dec()
			h.log.Info("room.reclaimed", "room", id)
		}
	}
}

// ServeWS handles a new /ws connection: resolves the room, binds the
// connection identity from query params (with generated fallbacks), sends
// the snapshot to the joiner, then pumps inbound messages until disconnect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	roomID := q.Get("roomId")
	if roomID == "" {
		http.Error(w, "roomId required", http.StatusBadRequest)
		return
	}
	userID := q.Get("userId")
	if userID == "" {
		userID = uuid.NewString()
	}
	name := q.Get("name")
	if name == "" {
		name = "guest-" + shortID(userID)
	}
	color := q.Get("color")
	if color == "" {
		color = pickColor(userID)
	}

	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	rm := h.Room(roomID)
	c := NewConn(conn, userID)
	metrics.ConnectionsActive.Inc()
	h.log.Debug("ws.join", "room", roomID, "user", userID)

	go c.WriteLoop(ctx)

	// Seed identity and register for fanout; the RoomState frame is enqueued
	// before the connection becomes visible to Deliver, so the joiner's first
	// frame is always its snapshot. UserJoin goes to the rest.
	joined := rm.JoinWithSnapshot(c, name, color)
	h.relay(ctx, roomID, rm.Deliver(joined, c))

	// One message at a time per connection; ordering within a connection is
	// preserved, ordering across connections is arrival order at the store.
	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		m, ok := decodeClientMessage(payload)
		if !ok {
			continue // malformed frame, connection stays open
		}
		metrics.MessagesTotal.WithLabelValues(metricType(m.Type)).Inc()
		h.relay(ctx, roomID, rm.Deliver(dispatch(rm.State, userID, m), c))
	}

	last := rm.Leave(c)
	metrics.ConnectionsActive.Dec()
	if last {
		// Detached from the request context: leave events must reach the bus
		// even though the peer's context is gone.
		h.relay(context.Background(), roomID, rm.Deliver(rm.State.Leave(userID), c))
	}
	h.log.Debug("ws.leave", "room", roomID, "user", userID, "last", last)
	_ = c.Close()
}

// relay publishes serialized frames to the cross-instance bus, if any.
func (h *Hub) relay(ctx context.Context, roomID string, frames [][]byte) {
	if h.bus == nil {
		return
	}
	for _, f := range frames {
		_ = h.bus.Publish(ctx, roomID, f)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pickColor(userID string) string {
	f := fnv.New32a()
	_, _ = f.Write([]byte(userID))
	return cursorPalette[f.Sum32()%uint32(len(cursorPalette))]
}
