package attendance

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeEventStore struct {
	recent    *Event
	recentErr error
	insertErr error

	recentCalls int
	inserts     int

	gotWindow     time.Duration
	gotProfileID  string
	gotPhotoURL   string
	gotCapturedAt time.Time
}

func (f *fakeEventStore) Insert(_ context.Context, profileID, photoURL string, capturedAt time.Time) (Event, error) {
	f.inserts++
	f.gotProfileID = profileID
	f.gotPhotoURL = photoURL
	f.gotCapturedAt = capturedAt
	if f.insertErr != nil {
		return Event{}, f.insertErr
	}
	return Event{ID: 1, ProfileID: &profileID, PhotoURL: photoURL, CapturedAt: capturedAt}, nil
}

func (f *fakeEventStore) RecentEvent(_ context.Context, profileID string, window time.Duration) (*Event, error) {
	f.recentCalls++
	f.gotProfileID = profileID
	f.gotWindow = window
	return f.recent, f.recentErr
}

func TestRecordRecentEventSuppressesInsert(t *testing.T) {
	store := &fakeEventStore{recent: &Event{ID: 7}}
	rec := NewRecorder(store, 5*time.Minute)

	if err := rec.Record(context.Background(), "P100", "https://b.s3.x.amazonaws.com/k.jpg", time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if store.recentCalls != 1 {
		t.Errorf("recentCalls = %d, want 1", store.recentCalls)
	}
	if store.inserts != 0 {
		t.Errorf("inserts = %d, want 0 when a recent event exists", store.inserts)
	}
	if store.gotWindow != 5*time.Minute {
		t.Errorf("window = %v, want 5m", store.gotWindow)
	}
}

func TestRecordNoRecentEventInserts(t *testing.T) {
	store := &fakeEventStore{}
	rec := NewRecorder(store, 5*time.Minute)

	captured := time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC)
	if err := rec.Record(context.Background(), "P100", "https://b.s3.x.amazonaws.com/k.jpg", captured); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if store.recentCalls != 1 {
		t.Errorf("recentCalls = %d, want 1", store.recentCalls)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", store.inserts)
	}
	if store.gotProfileID != "P100" || !store.gotCapturedAt.Equal(captured) {
		t.Errorf("insert got (%q, %v)", store.gotProfileID, store.gotCapturedAt)
	}
}

func TestRecordZeroWindowSkipsDedupLookup(t *testing.T) {
	store := &fakeEventStore{recent: &Event{ID: 7}}
	rec := NewRecorder(store, 0)

	if err := rec.Record(context.Background(), "P100", "url", time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if store.recentCalls != 0 {
		t.Errorf("recentCalls = %d, want 0 with dedup disabled", store.recentCalls)
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
}

func TestRecordRecentEventErrorPropagates(t *testing.T) {
	store := &fakeEventStore{recentErr: errors.New("db down")}
	rec := NewRecorder(store, time.Minute)

	if err := rec.Record(context.Background(), "P100", "url", time.Now()); err == nil {
		t.Fatal("want error from recent-event lookup")
	}
	if store.inserts != 0 {
		t.Errorf("inserts = %d, want 0 after lookup failure", store.inserts)
	}
}

func TestRecordInsertErrorPropagates(t *testing.T) {
	store := &fakeEventStore{insertErr: errors.New("unique violation")}
	rec := NewRecorder(store, 0)

	if err := rec.Record(context.Background(), "P100", "url", time.Now()); err == nil {
		t.Fatal("want insert error")
	}
}

func TestRecordRequiresProfileID(t *testing.T) {
	store := &fakeEventStore{}
	rec := NewRecorder(store, 0)

	if err := rec.Record(context.Background(), "", "url", time.Now()); err == nil {
		t.Fatal("want error for empty profile id")
	}
	if store.inserts != 0 {
		t.Errorf("inserts = %d, want 0", store.inserts)
	}
}
