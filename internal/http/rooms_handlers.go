package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/gukii/tanStartMultiUserAgent/internal/room"
	"github.com/gukii/tanStartMultiUserAgent/internal/ws"
)

type RoomsAPI struct{ Hub *ws.Hub }

type roomResponse struct {
	ID               string        `json:"id"`
	Members          int           `json:"members"`
	SubmitAuthorized bool          `json:"submitAuthorized"`
	State            room.Snapshot `json:"state"`
}

// List returns the currently active rooms with member counts
func (a *RoomsAPI) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.Hub.Rooms())
}

// Get returns a full snapshot of one room's live state
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rm, ok := a.Hub.Lookup(id)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, roomResponse{
		ID:               id,
		Members:          rm.MemberCount(),
		SubmitAuthorized: rm.State.SubmitAuthorized(),
		State:            rm.State.Snapshot(),
	})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
