package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"faceattend/internal/metrics"
	"faceattend/internal/storage"
)

// Image locates a photo in object storage.
type Image struct {
	Bucket string
	Key    string
}

// Resolver looks up the stored reference image for a claimed identity. An
// empty locator with a nil error means the profile is unknown.
type Resolver interface {
	ReferenceImage(ctx context.Context, adminID, profileID string) (string, error)
}

// Comparer runs the two-stage detect-then-compare protocol against the
// external comparison capability and normalizes its failures into the local
// error taxonomy.
type Comparer interface {
	Compare(ctx context.Context, source, target Image) (Outcome, error)
}

// Recorder durably appends an attendance event for a verified capture.
type Recorder interface {
	Record(ctx context.Context, profileID, photoURL string, capturedAt time.Time) error
}

// Result is the structured response every invocation terminates in, fault or
// not.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Body       string `json:"body"`
}

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Pipeline composes resolver, comparer, and recorder into the
// verification-and-commit flow. Each run is an independent, stateless unit of
// work; nothing is retried internally and no state is shared between runs.
type Pipeline struct {
	resolver Resolver
	comparer Comparer
	recorder Recorder

	attendBucket  string
	profileBucket string
}

// NewPipeline wires a pipeline over its collaborators. attendBucket holds
// captured photos, profileBucket the reference photos.
func NewPipeline(resolver Resolver, comparer Comparer, recorder Recorder, attendBucket, profileBucket string) *Pipeline {
	return &Pipeline{
		resolver:      resolver,
		comparer:      comparer,
		recorder:      recorder,
		attendBucket:  attendBucket,
		profileBucket: profileBucket,
	}
}

// Run verifies one captured photo and records attendance on a match. Every
// failure class maps to exactly one structured result; no error crosses this
// boundary unmapped.
func (p *Pipeline) Run(ctx context.Context, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("verify: panic processing %s: %v", path, r)
			res = p.done("panic", Result{
				StatusCode: http.StatusInternalServerError,
				Status:     statusFailure,
				Body:       fmt.Sprintf("An error occurred: %v", r),
			})
		}
	}()

	req, err := DecodeRequest(path)
	if err != nil {
		return p.done("protocol_error", Result{
			StatusCode: http.StatusInternalServerError,
			Status:     statusFailure,
			Body:       fmt.Sprintf("An error occurred: %v", err),
		})
	}

	refURL, err := p.resolver.ReferenceImage(ctx, req.AdminID, req.ProfileID)
	if err != nil {
		return p.done("resolver_error", Result{
			StatusCode: http.StatusInternalServerError,
			Status:     statusFailure,
			Body:       fmt.Sprintf("An error occurred: %v", err),
		})
	}
	if refURL == "" {
		return p.done("not_found", Result{
			StatusCode: http.StatusNotFound,
			Status:     statusFailure,
			Body:       fmt.Sprintf("Profile picture with ID %s not found", req.ProfileID),
		})
	}

	outcome, err := p.comparer.Compare(ctx,
		Image{Bucket: p.attendBucket, Key: req.ObjectKey},
		Image{Bucket: p.profileBucket, Key: storage.ObjectKey(refURL)},
	)
	if err != nil {
		return p.compareFailure(err)
	}

	if Classify(outcome) != Match {
		log.Printf("verify: face match failed for profile %s (%d matched pairs)", req.ProfileID, outcome.MatchedPairs)
		return p.done("no_match", Result{
			StatusCode: http.StatusOK,
			Status:     statusFailure,
			Body:       "Face match failed",
		})
	}

	if err := p.recorder.Record(ctx, req.ProfileID, req.RawPath, req.CapturedAt); err != nil {
		perr := &PersistenceError{Cause: err}
		log.Printf("verify: recording attendance for profile %s failed: %v", req.ProfileID, perr)
		return p.done("persistence_error", Result{
			StatusCode: http.StatusBadRequest,
			Status:     statusFailure,
			Body:       fmt.Sprintf("Error inserting data: %v", err),
		})
	}

	log.Printf("verify: face match successful for profile %s, attendance recorded", req.ProfileID)
	return p.done("match", Result{
		StatusCode: http.StatusOK,
		Status:     statusSuccess,
		Body:       "Face match successful, attendance recorded",
	})
}

// compareFailure maps the comparison error taxonomy exhaustively onto wire
// responses.
func (p *Pipeline) compareFailure(err error) Result {
	var (
		notFound *ObjectNotFoundError
		noFace   *NoFaceError
		denied   *AccessDeniedError
		provider *ProviderError
	)
	switch {
	case errors.As(err, &notFound):
		return p.done("object_missing", Result{
			StatusCode: http.StatusNotFound,
			Status:     statusFailure,
			Body:       fmt.Sprintf("One or both of the S3 objects could not be found: %s", notFound.Message),
		})
	case errors.As(err, &noFace):
		return p.done("no_face", Result{
			StatusCode: http.StatusBadRequest,
			Status:     statusFailure,
			Body:       "No face detected in one or both images",
		})
	case errors.As(err, &denied):
		return p.done("access_denied", Result{
			StatusCode: http.StatusForbidden,
			Status:     statusFailure,
			Body:       "Access denied. Check your S3 bucket permissions.",
		})
	case errors.As(err, &provider):
		return p.done("provider_error", Result{
			StatusCode: http.StatusInternalServerError,
			Status:     statusFailure,
			Body:       fmt.Sprintf("A Rekognition error occurred: %s", provider.Message),
		})
	default:
		return p.done("error", Result{
			StatusCode: http.StatusInternalServerError,
			Status:     statusFailure,
			Body:       fmt.Sprintf("An error occurred: %v", err),
		})
	}
}

func (p *Pipeline) done(outcome string, res Result) Result {
	metrics.Verifications.WithLabelValues(outcome).Inc()
	return res
}
