// Package s3store is the S3-backed alternate mediastore.Store
// implementation, for deployments where the remote blob store
// collaborator of spec.md §6.3 is a bucket rather than an HTTP service.
package s3store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gvasels/pcg-analyzer/internal/models"
)

// Client is the subset of the S3 API the store needs, narrowed for
// testability the way the teacher's S3Client interface is.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store fetches WAV bytes from S3, keyed by media ID. Bearer auth is
// ignored; access control for this backend is IAM, not request tokens.
type Store struct {
	client Client
	bucket string
	prefix string
}

// New constructs an S3-backed Store. prefix is prepended to mediaID to
// form the object key (e.g. "recordings/").
func New(client Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) Fetch(ctx context.Context, mediaID, _ string) ([]byte, error) {
	key := s.prefix + mediaID
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 get %s: %v", models.ErrMediaFetch, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading s3 object %s: %v", models.ErrMediaFetch, key, err)
	}
	return data, nil
}
