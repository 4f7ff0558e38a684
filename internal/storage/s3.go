// Package storage handles photo objects in S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client uploads capture photos and presigns reads of reference photos.
type Client struct {
	s3      *s3.Client
	presign *s3.PresignClient
	region  string
}

// New creates a client with static credentials.
func New(region, keyID, secret string) *Client {
	client := s3.New(s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			keyID, secret, "",
		),
	})
	return &Client{
		s3:      client,
		presign: s3.NewPresignClient(client),
		region:  region,
	}
}

// Upload writes data under key and returns the object's public URL.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return ObjectURL(bucket, c.region, key), nil
}

// PresignGet generates a presigned GET URL for a stored photo.
func (c *Client) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	result, err := c.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject %s/%s: %w", bucket, key, err)
	}
	return result.URL, nil
}

// ObjectURL builds the public https URL for an object.
func ObjectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// ObjectKey extracts the key from a public object URL by stripping everything
// up to and including the first ".com/". Bare keys pass through unchanged.
func ObjectKey(url string) string {
	if i := strings.Index(url, ".com/"); i >= 0 {
		return url[i+len(".com/"):]
	}
	return url
}
