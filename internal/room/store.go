// Package room holds the authoritative per-room state for a collaborative
// form session and the pure state transitions that mutate it. It performs no
// I/O; the ws package feeds it decoded messages and fans out the broadcasts
// it returns.
package room

import (
	"sync"
	"time"
)

// Store is the state of a single room. All mutations are serialized behind
// one mutex so lock and last-write-wins decisions are atomic with the write
// they guard. A Store never touches another room's state.
type Store struct {
	mu sync.Mutex

	users       map[string]User
	cursors     map[string]Cursor
	cursorMsgs  map[string]string // pending annotation, attached to the next cursor move
	fieldValues map[string]FieldValue
	fieldLocks  map[string]string // fieldId -> holder userId
	fieldSeen   map[string]int64  // fieldId -> last activity, room clock
	drafts      map[string]Draft
	schema      []SchemaField
	submitMode  SubmitMode
	ready       map[string]bool

	now func() int64 // room-local clock, unix ms
}

// NewStore returns an empty room in "any" submit mode.
func NewStore() *Store {
	return &Store{
		users:       map[string]User{},
		cursors:     map[string]Cursor{},
		cursorMsgs:  map[string]string{},
		fieldValues: map[string]FieldValue{},
		fieldLocks:  map[string]string{},
		fieldSeen:   map[string]int64{},
		drafts:      map[string]Draft{},
		submitMode:  SubmitAny,
		ready:       map[string]bool{},
		now:         func() int64 { return time.Now().UnixMilli() },
	}
}

// Join seeds the user entry for a new connection and returns the snapshot to
// send to the joiner together with the UserJoin broadcast for everyone else.
func (s *Store) Join(userID, name, color string) (Snapshot, []Broadcast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := User{ID: userID, Name: name, Color: color}
	s.users[userID] = u
	return s.snapshotLocked(), []Broadcast{{
		Scope: ExcludeOrigin,
		Event: UserJoinEvent{Type: TypeUserJoin, User: u},
	}}
}

// Leave evicts everything scoped to the connection: the cursor, the ready
// flag, and every field lock the user held. Field values, drafts, and the
// schema survive the disconnect.
func (s *Store) Leave(userID string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	delete(s.cursors, userID)
	delete(s.cursorMsgs, userID)
	delete(s.ready, userID)

	var out []Broadcast
	for fieldID, holder := range s.fieldLocks {
		if holder != userID {
			continue
		}
		delete(s.fieldLocks, fieldID)
		out = append(out, Broadcast{
			Scope: Everyone,
			Event: FieldUnlockedEvent{Type: TypeFieldUnlocked, FieldID: fieldID},
		})
	}
	out = append(out, Broadcast{
		Scope: Everyone,
		Event: UserLeaveEvent{Type: TypeUserLeave, UserID: userID},
	})
	return out
}

// Identify upserts the user entry unconditionally. Peers that authenticate
// after the socket handshake use this to claim their identity; it is the only
// operation that honors a payload-supplied userId. No broadcast.
func (s *Store) Identify(userID, name, color string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = User{ID: userID, Name: name, Color: color}
	return nil
}

// UpdateUser renames/recolors an existing user and the cached cursor copy.
// Unknown user is a silent no-op.
func (s *Store) UpdateUser(userID, name, color string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil
	}
	s.users[userID] = User{ID: userID, Name: name, Color: color}
	if c, ok := s.cursors[userID]; ok {
		c.Name, c.Color = name, color
		s.cursors[userID] = c
	}
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: UserUpdatedEvent{Type: TypeUserUpdated, UserID: userID, Name: name, Color: color},
	}}
}

// SetCursorMessage stores an ephemeral annotation that rides along with the
// user's subsequent cursor moves. Not itself broadcast.
func (s *Store) SetCursorMessage(userID, message string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		delete(s.cursorMsgs, userID)
	} else {
		s.cursorMsgs[userID] = message
	}
	return nil
}

// MoveCursor records a fresh cursor for the user, stamped with the room
// clock and carrying the last stored cursor message. A move that races ahead
// of the user's own identify is dropped.
func (s *Store) MoveCursor(userID string, pos CursorPosition) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	c := Cursor{
		User:     u,
		Position: pos,
		Message:  s.cursorMsgs[userID],
		LastSeen: s.now(),
	}
	s.cursors[userID] = c
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: RemoteCursorEvent{
			Type: TypeRemoteCursor, UserID: userID, Position: pos,
			Name: u.Name, Color: u.Color, Message: c.Message,
		},
	}}
}

// FocusField assigns the field lock to the caller, last focus wins. The
// client already ran its own eviction check; the store does not
// compare-and-swap here.
func (s *Store) FocusField(userID, fieldID string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldLocks[fieldID] = userID
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: FieldLockedEvent{
			Type: TypeFieldLocked, FieldID: fieldID,
			UserID: userID, UserName: s.users[userID].Name,
		},
	}}
}

// ForceFocusField takes the lock over from whoever holds it. The unlock goes
// to everyone (so the ousted client can tell eviction apart from its own
// blur) before the lock lands for everyone but the new owner.
func (s *Store) ForceFocusField(userID, fieldID string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldLocks[fieldID] = userID
	return []Broadcast{
		{
			Scope: Everyone,
			Event: FieldUnlockedEvent{Type: TypeFieldUnlocked, FieldID: fieldID},
		},
		{
			Scope: ExcludeOrigin,
			Event: FieldLockedEvent{
				Type: TypeFieldLocked, FieldID: fieldID,
				UserID: userID, UserName: s.users[userID].Name,
			},
		},
	}
}

// BlurField releases the lock only if the caller holds it. The single
// compare-protected mutation in the protocol.
func (s *Store) BlurField(userID, fieldID string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fieldLocks[fieldID] != userID {
		return nil
	}
	delete(s.fieldLocks, fieldID)
	return []Broadcast{{
		Scope: Everyone,
		Event: FieldUnlockedEvent{Type: TypeFieldUnlocked, FieldID: fieldID},
	}}
}

// RecordFieldActivity stamps the field's last-activity time and relays it.
// Consumers use the stamp to gate their own lock-eviction heuristics; the
// store enforces nothing with it.
func (s *Store) RecordFieldActivity(userID, fieldID string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	s.fieldSeen[fieldID] = ts
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: FieldActivityEvent{
			Type: TypeFieldActivity, FieldID: fieldID, UserID: userID, Timestamp: ts,
		},
	}}
}

// UpdateField applies a last-write-wins edit: accepted iff the origin
// timestamp is >= the stored one (or no value exists). A stale write is
// silently dropped. An accepted write clears any outstanding draft for the
// field, so peers never see a draft for a value that was since overwritten.
func (s *Store) UpdateField(userID, fieldID, value string, timestamp int64) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.fieldValues[fieldID]; ok && timestamp < prev.UpdatedAt {
		return nil
	}
	s.fieldValues[fieldID] = FieldValue{Value: value, UpdatedBy: userID, UpdatedAt: timestamp}
	delete(s.drafts, fieldID)
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: RemoteFieldUpdateEvent{
			Type: TypeRemoteFieldUpdate, FieldID: fieldID,
			Value: value, UserID: userID, Timestamp: timestamp,
		},
	}}
}

// SetPageSchema wholesale-replaces the page schema. No merge, no ordering
// check: the latest scan wins.
func (s *Store) SetPageSchema(userID string, schema []SchemaField) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: RemotePageSchemaEvent{Type: TypeRemotePageSchema, Schema: schema, UserID: userID},
	}}
}

// ProposeDraft upserts the single outstanding draft for the field, last
// proposal wins.
func (s *Store) ProposeDraft(userID, fieldID, value, source, reason string) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Draft{FieldID: fieldID, Value: value, Source: source, Reason: reason}
	s.drafts[fieldID] = d
	return []Broadcast{{
		Scope: ExcludeOrigin,
		Event: RemoteDraftEvent{
			Type: TypeRemoteDraft, FieldID: fieldID,
			Value: value, Source: source, Reason: reason,
		},
	}}
}

// ResolveDraft removes the draft, idempotently, and confirms the resolution
// to everyone including the origin, which needs the echo to clear its own
// pending UI state.
func (s *Store) ResolveDraft(userID, fieldID string, accepted bool) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, fieldID)
	typ := TypeDraftRejected
	if accepted {
		typ = TypeDraftAccepted
	}
	return []Broadcast{{
		Scope: Everyone,
		Event: DraftResolvedEvent{Type: typ, FieldID: fieldID, UserID: userID},
	}}
}

// SetReady flips the user's ready flag for the consensus gate.
func (s *Store) SetReady(userID string, isReady bool) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready[userID] = isReady
	return []Broadcast{{
		Scope: Everyone,
		Event: ReadyStateChangeEvent{Type: TypeReadyStateChange, UserID: userID, IsReady: isReady},
	}}
}

// SetSubmitMode replaces the submit mode and clears every ready flag: a mode
// change invalidates all prior consensus signals.
func (s *Store) SetSubmitMode(mode SubmitMode) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitMode = mode
	s.ready = map[string]bool{}
	return []Broadcast{{
		Scope: Everyone,
		Event: SubmitModeChangeEvent{Type: TypeSubmitModeChange, Mode: mode},
	}}
}

// SubmitAuthorized evaluates the submission gate: trivially true in "any"
// mode, and true in consensus mode only when every current member has marked
// itself ready.
func (s *Store) SubmitAuthorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitMode == SubmitAny {
		return true
	}
	if len(s.users) == 0 {
		return false
	}
	for id := range s.users {
		if !s.ready[id] {
			return false
		}
	}
	return true
}

// Snapshot returns a deep copy of the full room state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Users:       make(map[string]User, len(s.users)),
		Cursors:     make(map[string]Cursor, len(s.cursors)),
		FieldValues: make(map[string]FieldValue, len(s.fieldValues)),
		FieldLocks:  make(map[string]string, len(s.fieldLocks)),
		Drafts:      make(map[string]Draft, len(s.drafts)),
		PageSchema:  make([]SchemaField, len(s.schema)),
		SubmitMode:  s.submitMode,
		ReadyStates: make(map[string]bool, len(s.ready)),
	}
	for k, v := range s.users {
		snap.Users[k] = v
	}
	for k, v := range s.cursors {
		snap.Cursors[k] = v
	}
	for k, v := range s.fieldValues {
		snap.FieldValues[k] = v
	}
	for k, v := range s.fieldLocks {
		snap.FieldLocks[k] = v
	}
	for k, v := range s.drafts {
		snap.Drafts[k] = v
	}
	copy(snap.PageSchema, s.schema)
	for k, v := range s.ready {
		snap.ReadyStates[k] = v
	}
	return snap
}

// LockHolder reports the current holder of a field lock, if any.
func (s *Store) LockHolder(fieldID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holder, ok := s.fieldLocks[fieldID]
	return holder, ok
}

// UserCount is the number of identified members.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
