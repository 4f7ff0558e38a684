// Package rekog wraps AWS Rekognition as the face comparison capability.
package rekog

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"faceattend/internal/verify"
)

// SimilarityThreshold is the provider-side similarity floor in percent. The
// provider only returns matches above it; the match policy further filters on
// pair count.
const SimilarityThreshold float32 = 80

// API is the subset of the Rekognition client the verifier calls. Narrowed so
// tests can substitute a fake.
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	CompareFaces(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
}

// Client implements the comparison protocol: detect faces in each image, then
// request a similarity comparison. It holds no local state beyond the SDK
// client.
type Client struct {
	api API
}

// New creates a client against the real Rekognition service using static
// credentials.
func New(region, keyID, secret string) *Client {
	return &Client{api: rekognition.New(rekognition.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(keyID, secret, ""),
	})}
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API) *Client {
	return &Client{api: api}
}

// Compare runs the two-stage protocol. The detect pre-checks exist because a
// bare comparison against a faceless image fails with a parameter error that
// is indistinguishable from "no match"; detecting absence first yields an
// actionable error and skips the wasted comparison call. Source is checked
// before target, and the first failure wins.
func (c *Client) Compare(ctx context.Context, source, target verify.Image) (verify.Outcome, error) {
	sourceFaces, err := c.detect(ctx, source)
	if err != nil {
		return verify.Outcome{}, translate(err)
	}
	if sourceFaces == 0 {
		return verify.Outcome{}, &verify.NoFaceError{Image: "source"}
	}

	targetFaces, err := c.detect(ctx, target)
	if err != nil {
		return verify.Outcome{}, translate(err)
	}
	if targetFaces == 0 {
		return verify.Outcome{}, &verify.NoFaceError{Image: "target"}
	}

	out, err := c.api.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SimilarityThreshold: aws.Float32(SimilarityThreshold),
		SourceImage:         s3Image(source),
		TargetImage:         s3Image(target),
	})
	if err != nil {
		return verify.Outcome{}, translate(err)
	}

	outcome := verify.Outcome{
		SourceFaces:  sourceFaces,
		TargetFaces:  targetFaces,
		MatchedPairs: len(out.FaceMatches),
	}
	for _, m := range out.FaceMatches {
		if m.Similarity != nil && *m.Similarity > outcome.TopSimilarity {
			outcome.TopSimilarity = *m.Similarity
		}
	}
	return outcome, nil
}

func (c *Client) detect(ctx context.Context, img verify.Image) (int, error) {
	out, err := c.api.DetectFaces(ctx, &rekognition.DetectFacesInput{Image: s3Image(img)})
	if err != nil {
		return 0, err
	}
	return len(out.FaceDetails), nil
}

func s3Image(img verify.Image) *types.Image {
	return &types.Image{S3Object: &types.S3Object{
		Bucket: aws.String(img.Bucket),
		Name:   aws.String(img.Key),
	}}
}

// translate maps provider error codes onto the local taxonomy. Unrecognized
// codes never fall through unmapped; they become an unknown ProviderError.
func translate(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return &verify.ProviderError{Code: "RequestFailure", Message: err.Error(), Transient: true}
	}
	switch apiErr.ErrorCode() {
	case "InvalidS3ObjectException":
		return &verify.ObjectNotFoundError{Message: apiErr.ErrorMessage()}
	case "InvalidParameterException":
		// The provider rejects comparisons it cannot run; after the detect
		// gate this only happens when a face is unusable.
		return &verify.NoFaceError{}
	case "AccessDeniedException":
		return &verify.AccessDeniedError{Message: apiErr.ErrorMessage()}
	case "ThrottlingException", "ProvisionedThroughputExceededException", "LimitExceededException":
		return &verify.ProviderError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Transient: true}
	default:
		return &verify.ProviderError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
}

var _ verify.Comparer = (*Client)(nil)
