package store

import "time"

// Submission is an archived form submission: the field values a room held
// at the moment a peer submitted, plus the gate that authorized it. Live
// room state is never read back from here.
type Submission struct {
	ID          string
	RoomID      string
	Values      map[string]string
	SubmittedBy string
	SubmitMode  string
	CreatedAt   time.Time
}
