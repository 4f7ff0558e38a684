package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Event is a durable attendance record. Events are created exactly once per
// verified capture and never mutated. ProfileID is nullable because profiles
// may be removed after the fact.
type Event struct {
	ID         int64      `json:"id"`
	ProfileID  *string    `json:"profile_id"`
	PhotoURL   string     `json:"photo_url"`
	CapturedAt time.Time  `json:"captured_at"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Repository persists attendance events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new event. recorded_at is assigned by the database so a
// skewed or forged client clock cannot move the authoritative write time.
// There is no read-before-write and no retry here.
func (r *Repository) Insert(ctx context.Context, profileID, photoURL string, capturedAt time.Time) (Event, error) {
	evt := Event{ProfileID: &profileID, PhotoURL: photoURL, CapturedAt: capturedAt}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (profile_id, photo_url, captured_at)
		VALUES ($1, $2, $3)
		RETURNING id, recorded_at
	`, profileID, photoURL, capturedAt)
	if err := row.Scan(&evt.ID, &evt.RecordedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// RecentEvent returns the newest event for a profile within the window, or
// nil when there is none.
func (r *Repository) RecentEvent(ctx context.Context, profileID string, window time.Duration) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, profile_id, photo_url, captured_at, recorded_at
		FROM attendance
		WHERE profile_id = $1 AND recorded_at >= NOW() - ($2 * interval '1 second')
		ORDER BY recorded_at DESC
		LIMIT 1
	`, profileID, window.Seconds())
	var evt Event
	if err := row.Scan(&evt.ID, &evt.ProfileID, &evt.PhotoURL, &evt.CapturedAt, &evt.RecordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &evt, nil
}

// ListByAdmin returns events for every profile owned by an admin, newest
// first.
func (r *Repository) ListByAdmin(ctx context.Context, adminID string, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.profile_id, a.photo_url, a.captured_at, a.recorded_at
		FROM attendance a
		JOIN profiles p ON p.profile_id = a.profile_id
		WHERE p.admin_id = $1
		ORDER BY a.captured_at DESC
		LIMIT $2 OFFSET $3
	`, adminID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ProfileID, &evt.PhotoURL, &evt.CapturedAt, &evt.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}
