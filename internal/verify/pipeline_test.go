package verify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceattend/internal/verify"
)

const goodPath = "https://captures.s3.ca-central-1.amazonaws.com/admin1/attendance_P100_2026-08-31_09-15-00.jpg"

type fakeResolver struct {
	ref   string
	err   error
	calls int
}

func (f *fakeResolver) ReferenceImage(ctx context.Context, adminID, profileID string) (string, error) {
	f.calls++
	return f.ref, f.err
}

type fakeComparer struct {
	outcome verify.Outcome
	err     error
	calls   int
	source  verify.Image
	target  verify.Image
}

func (f *fakeComparer) Compare(ctx context.Context, source, target verify.Image) (verify.Outcome, error) {
	f.calls++
	f.source, f.target = source, target
	return f.outcome, f.err
}

type fakeRecorder struct {
	err        error
	calls      int
	profileID  string
	photoURL   string
	capturedAt time.Time
}

func (f *fakeRecorder) Record(ctx context.Context, profileID, photoURL string, capturedAt time.Time) error {
	f.calls++
	f.profileID, f.photoURL, f.capturedAt = profileID, photoURL, capturedAt
	return f.err
}

func newPipeline(r *fakeResolver, c *fakeComparer, rec *fakeRecorder) *verify.Pipeline {
	return verify.NewPipeline(r, c, rec, "captures", "pfp")
}

func TestRun_MatchRecordsAttendance(t *testing.T) {
	resolver := &fakeResolver{ref: "https://pfp.s3.ca-central-1.amazonaws.com/P100.jpg"}
	comparer := &fakeComparer{outcome: verify.Outcome{SourceFaces: 1, TargetFaces: 1, MatchedPairs: 1, TopSimilarity: 98}}
	recorder := &fakeRecorder{}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Face match successful, attendance recorded", res.Body)

	require.Equal(t, 1, recorder.calls)
	assert.Equal(t, "P100", recorder.profileID)
	assert.Equal(t, goodPath, recorder.photoURL)
	assert.Equal(t, time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC), recorder.capturedAt)

	// Buckets and keys handed to the comparer.
	assert.Equal(t, verify.Image{Bucket: "captures", Key: "admin1/attendance_P100_2026-08-31_09-15-00.jpg"}, comparer.source)
	assert.Equal(t, verify.Image{Bucket: "pfp", Key: "P100.jpg"}, comparer.target)
}

func TestRun_UnknownProfileSkipsComparison(t *testing.T) {
	resolver := &fakeResolver{ref: ""}
	comparer := &fakeComparer{}
	recorder := &fakeRecorder{}

	path := "https://captures.s3.ca-central-1.amazonaws.com/admin1/attendance_P999_2026-08-31_09-15-00.jpg"
	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), path)

	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Equal(t, "Profile picture with ID P999 not found", res.Body)
	assert.Zero(t, comparer.calls, "comparison must not run for an unknown profile")
	assert.Zero(t, recorder.calls)
}

func TestRun_NoMatchWritesNothing(t *testing.T) {
	resolver := &fakeResolver{ref: "https://pfp.s3.ca-central-1.amazonaws.com/P100.jpg"}
	comparer := &fakeComparer{outcome: verify.Outcome{SourceFaces: 1, TargetFaces: 1, MatchedPairs: 0}}
	recorder := &fakeRecorder{}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Equal(t, "Face match failed", res.Body)
	assert.Zero(t, recorder.calls, "no attendance row on a failed match")
}

func TestRun_AmbiguousMatchWritesNothing(t *testing.T) {
	resolver := &fakeResolver{ref: "https://pfp.s3.ca-central-1.amazonaws.com/P100.jpg"}
	comparer := &fakeComparer{outcome: verify.Outcome{SourceFaces: 2, TargetFaces: 1, MatchedPairs: 2}}
	recorder := &fakeRecorder{}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Zero(t, recorder.calls)
}

func TestRun_ComparisonErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "no face in capture",
			err:      &verify.NoFaceError{Image: "source"},
			wantCode: 400,
			wantBody: "No face detected in one or both images",
		},
		{
			name:     "no face in reference",
			err:      &verify.NoFaceError{Image: "target"},
			wantCode: 400,
			wantBody: "No face detected in one or both images",
		},
		{
			name:     "object missing",
			err:      &verify.ObjectNotFoundError{Message: "key does not exist"},
			wantCode: 404,
			wantBody: "One or both of the S3 objects could not be found: key does not exist",
		},
		{
			name:     "access denied",
			err:      &verify.AccessDeniedError{Message: "nope"},
			wantCode: 403,
			wantBody: "Access denied. Check your S3 bucket permissions.",
		},
		{
			name:     "transient provider fault",
			err:      &verify.ProviderError{Code: "ThrottlingException", Message: "slow down", Transient: true},
			wantCode: 500,
			wantBody: "A Rekognition error occurred: slow down",
		},
		{
			name:     "unknown provider fault",
			err:      &verify.ProviderError{Code: "InternalServerError", Message: "boom"},
			wantCode: 500,
			wantBody: "A Rekognition error occurred: boom",
		},
		{
			name:     "untyped error",
			err:      errors.New("wire torn"),
			wantCode: 500,
			wantBody: "An error occurred: wire torn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{ref: "https://pfp.s3.ca-central-1.amazonaws.com/P100.jpg"}
			comparer := &fakeComparer{err: tt.err}
			recorder := &fakeRecorder{}

			res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

			assert.Equal(t, tt.wantCode, res.StatusCode)
			assert.Equal(t, "failure", res.Status)
			assert.Equal(t, tt.wantBody, res.Body)
			assert.Zero(t, recorder.calls)
		})
	}
}

func TestRun_InsertFailureIsNotRetried(t *testing.T) {
	resolver := &fakeResolver{ref: "https://pfp.s3.ca-central-1.amazonaws.com/P100.jpg"}
	comparer := &fakeComparer{outcome: verify.Outcome{SourceFaces: 1, TargetFaces: 1, MatchedPairs: 1}}
	recorder := &fakeRecorder{err: errors.New("connection refused")}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Equal(t, "Error inserting data: connection refused", res.Body)
	assert.Equal(t, 1, comparer.calls, "the match itself is not re-attempted")
	assert.Equal(t, 1, recorder.calls)
}

func TestRun_MalformedPath(t *testing.T) {
	resolver := &fakeResolver{}
	comparer := &fakeComparer{}
	recorder := &fakeRecorder{}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), "not a capture path")

	assert.Equal(t, 500, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Contains(t, res.Body, "An error occurred:")
	assert.Zero(t, resolver.calls)
	assert.Zero(t, comparer.calls)
}

func TestRun_ResolverFault(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("db down")}
	comparer := &fakeComparer{}
	recorder := &fakeRecorder{}

	res := newPipeline(resolver, comparer, recorder).Run(context.Background(), goodPath)

	assert.Equal(t, 500, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Contains(t, res.Body, "db down")
	assert.Zero(t, comparer.calls)
}

type panickyResolver struct{}

func (panickyResolver) ReferenceImage(ctx context.Context, adminID, profileID string) (string, error) {
	panic("nil map write")
}

func TestRun_PanicIsCaughtAtTheBoundary(t *testing.T) {
	res := verify.NewPipeline(panickyResolver{}, &fakeComparer{}, &fakeRecorder{}, "captures", "pfp").
		Run(context.Background(), goodPath)

	assert.Equal(t, 500, res.StatusCode)
	assert.Equal(t, "failure", res.Status)
	assert.Contains(t, res.Body, "An error occurred:")
}
