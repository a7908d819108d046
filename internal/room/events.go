package room

// Outbound event type tags, as they appear on the wire.
const (
	TypeRoomState         = "roomState"
	TypeUserJoin          = "userJoin"
	TypeUserLeave         = "userLeave"
	TypeUserUpdated       = "userUpdated"
	TypeRemoteCursor      = "remoteCursor"
	TypeFieldLocked       = "fieldLocked"
	TypeFieldUnlocked     = "fieldUnlocked"
	TypeFieldActivity     = "fieldActivity"
	TypeRemoteFieldUpdate = "remoteFieldUpdate"
	TypeRemotePageSchema  = "remotePageSchema"
	TypeRemoteDraft       = "remoteDraft"
	TypeDraftAccepted     = "draftAccepted"
	TypeDraftRejected     = "draftRejected"
	TypeReadyStateChange  = "readyStateChange"
	TypeSubmitModeChange  = "submitModeChange"
)

// Scope says who in the room receives a broadcast.
type Scope int

const (
	// Everyone delivers to all connections, including the originator.
	Everyone Scope = iota
	// ExcludeOrigin delivers to all connections except the originator.
	ExcludeOrigin
)

// Broadcast pairs an outbound event with its delivery scope. Store
// operations return the broadcasts they produce; the transport layer
// serializes each event once and fans it out.
type Broadcast struct {
	Scope Scope
	Event any
}

type RoomStateEvent struct {
	Type     string   `json:"type"`
	Snapshot Snapshot `json:"snapshot"`
}

type UserJoinEvent struct {
	Type string `json:"type"`
	User User   `json:"user"`
}

type UserLeaveEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type UserUpdatedEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type RemoteCursorEvent struct {
	Type     string         `json:"type"`
	UserID   string         `json:"userId"`
	Position CursorPosition `json:"position"`
	Name     string         `json:"name"`
	Color    string         `json:"color"`
	Message  string         `json:"message,omitempty"`
}

type FieldLockedEvent struct {
	Type     string `json:"type"`
	FieldID  string `json:"fieldId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type FieldUnlockedEvent struct {
	Type    string `json:"type"`
	FieldID string `json:"fieldId"`
}

type FieldActivityEvent struct {
	Type      string `json:"type"`
	FieldID   string `json:"fieldId"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

type RemoteFieldUpdateEvent struct {
	Type      string `json:"type"`
	FieldID   string `json:"fieldId"`
	Value     string `json:"value"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

type RemotePageSchemaEvent struct {
	Type   string        `json:"type"`
	Schema []SchemaField `json:"schema"`
	UserID string        `json:"userId"`
}

type RemoteDraftEvent struct {
	Type    string `json:"type"`
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
	Source  string `json:"source"`
	Reason  string `json:"reason,omitempty"`
}

type DraftResolvedEvent struct {
	Type    string `json:"type"` // draftAccepted or draftRejected
	FieldID string `json:"fieldId"`
	UserID  string `json:"userId"`
}

type ReadyStateChangeEvent struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	IsReady bool   `json:"isReady"`
}

type SubmitModeChangeEvent struct {
	Type string     `json:"type"`
	Mode SubmitMode `json:"mode"`
}
