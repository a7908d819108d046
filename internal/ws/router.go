package ws

import (
	"github.com/gukii/tanStartMultiUserAgent/internal/room"
)

// dispatch routes one decoded message to exactly one store operation and
// returns the broadcasts it produced. userID is the identity bound to the
// connection at accept time; every operation is attributed to it regardless
// of what the payload claims, except identify, which is how a peer claims an
// identity in the first place. Unknown types and semantic no-ops fall
// through to nil.
func dispatch(store *room.Store, userID string, m ClientMessage) []room.Broadcast {
	switch m.Type {
	case msgIdentify:
		id := m.UserID
		if id == "" {
			id = userID
		}
		return store.Identify(id, m.Name, m.Color)
	case msgUpdateUser:
		return store.UpdateUser(userID, m.Name, m.Color)
	case msgSetCursorMessage:
		return store.SetCursorMessage(userID, m.Message)
	case msgCursorMove:
		return store.MoveCursor(userID, m.Position)
	case msgFieldFocus:
		return store.FocusField(userID, m.FieldID)
	case msgFieldBlur:
		return store.BlurField(userID, m.FieldID)
	case msgFieldActivity:
		return store.RecordFieldActivity(userID, m.FieldID)
	case msgForceFieldFocus:
		return store.ForceFocusField(userID, m.FieldID)
	case msgUpdateField:
		return store.UpdateField(userID, m.FieldID, m.Value, m.Timestamp)
	case msgPageSchema:
		return store.SetPageSchema(userID, m.Schema)
	case msgDraftField:
		return store.ProposeDraft(userID, m.FieldID, m.Value, m.Source, m.Reason)
	case msgAcceptDraft:
		return store.ResolveDraft(userID, m.FieldID, true)
	case msgRejectDraft:
		return store.ResolveDraft(userID, m.FieldID, false)
	case msgMarkReady:
		return store.SetReady(userID, true)
	case msgUnmarkReady:
		return store.SetReady(userID, false)
	case msgSetSubmitMode:
		if !room.ValidSubmitMode(m.Mode) {
			return nil
		}
		return store.SetSubmitMode(room.SubmitMode(m.Mode))
	}
	return nil
}
