package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gukii/tanStartMultiUserAgent/internal/store"
	"github.com/gukii/tanStartMultiUserAgent/internal/ws"
)

// SubmissionsAPI archives completed form submissions. DB is nil when PG_URL
// is unset; the endpoints then report the archive as unavailable.
type SubmissionsAPI struct {
	DB  *store.Postgres
	Hub *ws.Hub
}

type createSubmissionReq struct {
	SubmittedBy string `json:"submittedBy"`
}

type submissionResponse struct {
	ID          string            `json:"id"`
	RoomID      string            `json:"roomId"`
	Values      map[string]string `json:"values"`
	SubmittedBy string            `json:"submittedBy"`
	SubmitMode  string            `json:"submitMode"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Create archives the room's current field values. Refused while the room's
// submit gate is not satisfied, which is how consensus mode bites on the
// HTTP side.
func (a *SubmissionsAPI) Create(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	rm, ok := a.Hub.Lookup(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	var req createSubmissionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmittedBy == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if !rm.State.SubmitAuthorized() {
		http.Error(w, "submission not authorized", http.StatusConflict)
		return
	}
	if a.DB == nil {
		http.Error(w, "submission archive disabled", http.StatusServiceUnavailable)
		return
	}

	snap := rm.State.Snapshot()
	values := make(map[string]string, len(snap.FieldValues))
	for fieldID, fv := range snap.FieldValues {
		values[fieldID] = fv.Value
	}

	s, err := a.DB.CreateSubmission(r.Context(), roomID, values, req.SubmittedBy, string(snap.SubmitMode))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toSubmissionResponse(s))
}

// List returns a room's archived submissions, newest first
func (a *SubmissionsAPI) List(w http.ResponseWriter, r *http.Request) {
	if a.DB == nil {
		http.Error(w, "submission archive disabled", http.StatusServiceUnavailable)
		return
	}
	subs, err := a.DB.ListSubmissions(r.Context(), r.PathValue("id"), 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		resp = append(resp, toSubmissionResponse(s))
	}
	writeJSON(w, resp)
}

func toSubmissionResponse(s store.Submission) submissionResponse {
	return submissionResponse{
		ID: s.ID, RoomID: s.RoomID, Values: s.Values,
		SubmittedBy: s.SubmittedBy, SubmitMode: s.SubmitMode, CreatedAt: s.CreatedAt,
	}
}
