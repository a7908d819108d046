package store

import (
	"context"
)

// CreateSubmission archives one submission for a room
func (p *Postgres) CreateSubmission(ctx context.Context, roomID string, values map[string]string, submittedBy, submitMode string) (Submission, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO submissions (room_id, field_values, submitted_by, submit_mode)
		VALUES ($1, $2, $3, $4)
		RETURNING id, room_id, field_values, submitted_by, submit_mode, created_at
	`, roomID, values, submittedBy, submitMode)

	var s Submission
	if err := row.Scan(&s.ID, &s.RoomID, &s.Values, &s.SubmittedBy, &s.SubmitMode, &s.CreatedAt); err != nil {
		return Submission{}, err
	}
	p.log.Info("submission.archived", "room", roomID, "by", submittedBy, "fields", len(values))
	return s, nil
}

// ListSubmissions returns a room's archived submissions, newest first
func (p *Postgres) ListSubmissions(ctx context.Context, roomID string, limit int) ([]Submission, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, field_values, submitted_by, submit_mode, created_at
		FROM submissions
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.RoomID, &s.Values, &s.SubmittedBy, &s.SubmitMode, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
