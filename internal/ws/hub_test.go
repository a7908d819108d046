package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gukii/tanStartMultiUserAgent/internal/room"
)

func testConn(userID string) *Conn {
	return &Conn{userID: userID, out: make(chan []byte, 16)}
}

func recvAll(c *Conn) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-c.out:
			out = append(out, b)
		default:
			return out
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoomDeliver_Scopes(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")
	origin, other := testConn("a"), testConn("b")
	rm.Join(origin)
	rm.Join(other)

	frames := rm.Deliver([]room.Broadcast{
		{Scope: room.ExcludeOrigin, Event: room.FieldUnlockedEvent{Type: room.TypeFieldUnlocked, FieldID: "f1"}},
		{Scope: room.Everyone, Event: room.FieldUnlockedEvent{Type: room.TypeFieldUnlocked, FieldID: "f2"}},
	}, origin)

	req.Len(frames, 2)
	req.Len(recvAll(origin), 1) // only the Everyone frame
	req.Len(recvAll(other), 2)
}

func TestRoomDeliver_SerializesOnce(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")
	a, b := testConn("a"), testConn("b")
	rm.Join(a)
	rm.Join(b)

	frames := rm.Deliver([]room.Broadcast{
		{Scope: room.Everyone, Event: room.UserLeaveEvent{Type: room.TypeUserLeave, UserID: "x"}},
	}, nil)
	req.Len(frames, 1)

	var ev map[string]any
	req.NoError(json.Unmarshal(frames[0], &ev))
	req.Equal("userLeave", ev["type"])
	req.Equal(frames[0], recvAll(a)[0])
	req.Equal(frames[0], recvAll(b)[0])
}

func TestRoomDeliver_FullBufferDropsFrame(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")
	slow := &Conn{userID: "slow", out: make(chan []byte)} // unbuffered, nobody reading
	rm.Join(slow)

	// must not block; the frame is simply dropped for the slow peer
	done := make(chan struct{})
	go func() {
		rm.Deliver([]room.Broadcast{
			{Scope: room.Everyone, Event: room.UserLeaveEvent{Type: room.TypeUserLeave, UserID: "x"}},
		}, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Deliver blocked on a dead peer")
	}
}

func TestRoomLeave_LastConnectionPerUser(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")
	a1, a2, b := testConn("alice"), testConn("alice"), testConn("bob")
	rm.Join(a1)
	rm.Join(a2)
	rm.Join(b)

	// alice still has an open connection
	req.False(rm.Leave(a1))
	req.True(rm.Leave(a2))

	// users with one connection evict on their only leave
	req.True(rm.Leave(b))

	// a connection already removed reports nothing to evict
	req.False(rm.Leave(a1))
}

func TestReconnect_StaleSocketKeepsLiveUser(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")

	// browser refresh: a second socket for the same user joins the room
	// while the first is still draining
	stale := testConn("alice")
	rm.JoinWithSnapshot(stale, "Alice", "#f00")
	rm.State.SetReady("alice", true)
	rm.State.FocusField("alice", "email")

	live := testConn("alice")
	rm.JoinWithSnapshot(live, "Alice", "#f00")

	// the stale socket closes; it is not the user's last connection, so
	// user-scoped state survives and no leave runs against the store
	req.False(rm.Leave(stale))
	req.Equal(1, rm.State.UserCount())
	snap := rm.State.Snapshot()
	req.Contains(snap.Users, "alice")
	req.True(snap.ReadyStates["alice"])
	req.Equal("alice", snap.FieldLocks["email"])

	// the live socket closing is the last one: now the store leave runs
	req.True(rm.Leave(live))
	out := rm.State.Leave("alice")
	var leaves int
	for _, b := range out {
		if _, ok := b.Event.(room.UserLeaveEvent); ok {
			leaves++
		}
	}
	req.Equal(1, leaves)
	req.Equal(0, rm.State.UserCount())
}

func TestJoinWithSnapshot_SnapshotPrecedesEvents(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")
	rm.State.Join("a", "Alice", "#f00")
	rm.State.UpdateField("a", "email", "a@x.com", 5)

	c := testConn("b")
	joined := rm.JoinWithSnapshot(c, "Bob", "#0f0")
	req.Len(joined, 1) // the UserJoin for everyone else

	rm.Deliver([]room.Broadcast{
		{Scope: room.Everyone, Event: room.FieldUnlockedEvent{Type: room.TypeFieldUnlocked, FieldID: "email"}},
	}, nil)

	frames := recvAll(c)
	req.GreaterOrEqual(len(frames), 2)

	// the joiner's first frame is always its snapshot, and the snapshot
	// covers every mutation that preceded the join
	var first map[string]any
	req.NoError(json.Unmarshal(frames[0], &first))
	req.Equal("roomState", first["type"])
	req.Contains(string(frames[0]), "a@x.com")

	var second map[string]any
	req.NoError(json.Unmarshal(frames[len(frames)-1], &second))
	req.Equal("fieldUnlocked", second["type"])
}

func TestRoomLifecycle_EmptyGrace(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1")

	// a never-joined room is not reclaimable, absorbing create/join races
	req.False(rm.reclaimable(0))

	c := testConn("a")
	rm.Join(c)
	req.False(rm.reclaimable(0))

	req.True(rm.Leave(c))
	time.Sleep(5 * time.Millisecond)
	req.True(rm.reclaimable(time.Millisecond))
	req.False(rm.reclaimable(time.Minute))

	// rejoin within the grace window rescues the room
	rm.Join(c)
	req.False(rm.reclaimable(0))
}

func TestHub_LazyCreateAndSweep(t *testing.T) {
	req := require.New(t)
	h := NewHub(testLogger(), nil, time.Minute, time.Millisecond)

	_, ok := h.Lookup("r1")
	req.False(ok)

	rm := h.Room("r1")
	req.NotNil(rm)
	again := h.Room("r1")
	req.Same(rm, again)

	infos := h.Rooms()
	req.Len(infos, 1)
	req.Equal("r1", infos[0].ID)

	// occupied rooms survive the sweep
	c := testConn("a")
	rm.Join(c)
	h.sweep()
	_, ok = h.Lookup("r1")
	req.True(ok)

	// empty past grace - reclaimed
	rm.Leave(c)
	time.Sleep(5 * time.Millisecond)
	h.sweep()
	_, ok = h.Lookup("r1")
	req.False(ok)
}

func TestHub_StateIsolationAcrossRooms(t *testing.T) {
	req := require.New(t)
	h := NewHub(testLogger(), nil, time.Minute, time.Minute)

	r1, r2 := h.Room("r1"), h.Room("r2")
	r1.State.Join("a", "Alice", "#f00")
	r1.State.UpdateField("a", "email", "a@x.com", 1)

	req.Empty(r2.State.Snapshot().FieldValues)
	req.Equal(0, r2.State.UserCount())
	req.Equal(1, r1.State.UserCount())
}

func TestPickColor_Stable(t *testing.T) {
	req := require.New(t)
	req.Equal(pickColor("user-1"), pickColor("user-1"))
	req.Contains(cursorPalette, pickColor("anything"))
}
