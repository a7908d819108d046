package room

// SubmitMode controls when a form submission is considered authorized.
type SubmitMode string

const (
	// SubmitAny lets any single peer trigger a submission.
	SubmitAny SubmitMode = "any"
	// SubmitConsensus requires every current member to be marked ready.
	SubmitConsensus SubmitMode = "consensus"
)

// ValidSubmitMode reports whether s names a known submit mode.
func ValidSubmitMode(s string) bool {
	return s == string(SubmitAny) || s == string(SubmitConsensus)
}

// User is a room participant, human or agent. The ID is peer-chosen and
// stable across reconnects; name and color are last-writer-wins.
type User struct {
	ID    string `json:"userId"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CursorPosition is a page-normalized pointer location, optionally anchored
// to a field so remote peers can render the cursor relative to the field
// even when their layout differs.
type CursorPosition struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ActiveField string  `json:"activeField,omitempty"`
	FieldX      float64 `json:"fieldX,omitempty"`
	FieldY      float64 `json:"fieldY,omitempty"`
}

// Cursor is the live pointer of a connected user. It exists only while the
// owning connection is open.
type Cursor struct {
	User
	Position CursorPosition `json:"position"`
	Message  string         `json:"message,omitempty"`
	LastSeen int64          `json:"lastSeen"` // room-local clock, unix ms
}

// FieldValue is the committed value of a form field under last-write-wins.
// UpdatedAt is the origin-supplied logical timestamp and is non-decreasing
// across accepted writes.
type FieldValue struct {
	Value     string `json:"value"`
	UpdatedBy string `json:"updatedBy"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Draft is a proposed field value awaiting accept/reject. At most one draft
// is outstanding per field.
type Draft struct {
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
	Source  string `json:"source"`
	Reason  string `json:"reason,omitempty"`
}

// SchemaField describes one field of the scanned page, in page order.
type SchemaField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label,omitempty"`
	Type     string   `json:"type,omitempty"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required,omitempty"`
}

// Snapshot is an immutable copy of a room's full state, sent to a peer on
// join.
type Snapshot struct {
	Users       map[string]User       `json:"users"`
	Cursors     map[string]Cursor     `json:"cursors"`
	FieldValues map[string]FieldValue `json:"fieldValues"`
	FieldLocks  map[string]string     `json:"fieldLocks"`
	Drafts      map[string]Draft      `json:"drafts"`
	PageSchema  []SchemaField         `json:"pageSchema"`
	SubmitMode  SubmitMode            `json:"submitMode"`
	ReadyStates map[string]bool       `json:"readyStates"`
}
