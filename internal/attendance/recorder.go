package attendance

import (
	"context"
	"errors"
	"time"
)

// EventStore is the slice of the repository the recorder writes through.
type EventStore interface {
	Insert(ctx context.Context, profileID, photoURL string, capturedAt time.Time) (Event, error)
	RecentEvent(ctx context.Context, profileID string, window time.Duration) (*Event, error)
}

// Recorder appends verified attendance events. It performs a single insert
// and reports failures upward; retry policy belongs to the caller.
type Recorder struct {
	repo        EventStore
	dedupWindow time.Duration
}

// NewRecorder creates a recorder. A zero dedupWindow disables the duplicate
// guard, in which case client retries can produce duplicate rows.
func NewRecorder(repo EventStore, dedupWindow time.Duration) *Recorder {
	return &Recorder{repo: repo, dedupWindow: dedupWindow}
}

// Record durably appends an attendance event for a verified capture. When the
// dedup window is set, a second verification for the same profile inside the
// window is treated as already recorded.
func (s *Recorder) Record(ctx context.Context, profileID, photoURL string, capturedAt time.Time) error {
	if profileID == "" {
		return errors.New("profile id required")
	}
	if s.dedupWindow > 0 {
		if recent, err := s.repo.RecentEvent(ctx, profileID, s.dedupWindow); err != nil {
			return err
		} else if recent != nil {
			return nil
		}
	}
	_, err := s.repo.Insert(ctx, profileID, photoURL, capturedAt)
	return err
}
