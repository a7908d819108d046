package ws

import (
	"encoding/json"

	"github.com/gukii/tanStartMultiUserAgent/internal/room"
)

// Inbound message type tags. The wire format is a flat JSON envelope with a
// "type" discriminator, matching what the browser client sends.
const (
	msgIdentify         = "identify"
	msgUpdateUser       = "updateUser"
	msgSetCursorMessage = "setCursorMessage"
	msgCursorMove       = "cursorMove"
	msgFieldFocus       = "fieldFocus"
	msgFieldBlur        = "fieldBlur"
	msgFieldActivity    = "fieldActivity"
	msgForceFieldFocus  = "forceFieldFocus"
	msgUpdateField      = "updateField"
	msgPageSchema       = "pageSchema"
	msgDraftField       = "draftField"
	msgAcceptDraft      = "acceptDraft"
	msgRejectDraft      = "rejectDraft"
	msgMarkReady        = "markReady"
	msgUnmarkReady      = "unmarkReady"
	msgSetSubmitMode    = "setSubmitMode"
)

// ClientMessage is the decoded inbound envelope. Only the fields relevant to
// the tagged type are populated; the rest stay zero.
type ClientMessage struct {
	Type string `json:"type"`

	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Color  string `json:"color,omitempty"`

	Message  string              `json:"message,omitempty"`
	Position room.CursorPosition `json:"position"`

	FieldID   string `json:"fieldId,omitempty"`
	Value     string `json:"value,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	Schema []room.SchemaField `json:"schema,omitempty"`

	Source string `json:"source,omitempty"`
	Reason string `json:"reason,omitempty"`

	Mode string `json:"mode,omitempty"`
}

// metricType collapses anything outside the known inbound tags to a single
// value, keeping client-supplied strings out of metric label cardinality.
func metricType(t string) string {
	switch t {
	case msgIdentify, msgUpdateUser, msgSetCursorMessage, msgCursorMove,
		msgFieldFocus, msgFieldBlur, msgFieldActivity, msgForceFieldFocus,
		msgUpdateField, msgPageSchema, msgDraftField, msgAcceptDraft,
		msgRejectDraft, msgMarkReady, msgUnmarkReady, msgSetSubmitMode:
		return t
	}
	return "unknown"
}

// decodeClientMessage parses an inbound frame. A malformed or untagged frame
// returns ok=false and is dropped by the caller; the connection stays open.
func decodeClientMessage(raw []byte) (ClientMessage, bool) {
	var m ClientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ClientMessage{}, false
	}
	if m.Type == "" {
		return ClientMessage{}, false
	}
	return m, true
}
