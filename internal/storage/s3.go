package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pwisniewski/hipokrates/internal/common"
)

// S3Remote stores blobs in an S3-compatible bucket. The object ETag is the
// version token; conditional writes use the If-Match precondition.
type S3Remote struct {
	client *s3.Client
	bucket string
}

// NewS3Remote builds a client for the given endpoint. Static credentials
// and a custom base endpoint keep MinIO and other S3-compatible backends
// working identically to AWS.
func NewS3Remote(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string) (*S3Remote, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Remote{client: client, bucket: bucket}, nil
}

func (r *S3Remote) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", fmt.Errorf("%w: %s", common.ErrNotFound, key)
		}
		return nil, "", fmt.Errorf("%w: get %s: %v", common.ErrBackendUnavailable, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", common.ErrBackendUnavailable, key, err)
	}
	return content, aws.ToString(out.ETag), nil
}

func (r *S3Remote) Put(ctx context.Context, key string, content []byte, expectedVersion string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/csv; charset=utf-8"),
	}
	if expectedVersion != "" {
		in.IfMatch = aws.String(expectedVersion)
	}

	if _, err := r.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailure(err) {
			return fmt.Errorf("%w: %s", common.ErrVersionConflict, key)
		}
		return fmt.Errorf("%w: put %s: %v", common.ErrBackendUnavailable, key, err)
	}
	return nil
}

// isPreconditionFailure inspects the typed API error code, never the error
// message text.
func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
