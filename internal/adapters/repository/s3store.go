package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the subset of the S3 client the store needs.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads datasets from an S3 bucket using the same layout as the data
// directory, below an optional key prefix.
type S3Store struct {
	blobStore
	client objectAPI
	bucket string
	prefix string
}

// NewS3Store loads the default AWS configuration for region and returns a store
// for bucket.
func NewS3Store(ctx context.Context, region, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3StoreWithClient(client objectAPI, bucket, prefix string) *S3Store {
	s := &S3Store{client: client, bucket: bucket, prefix: prefix}
	s.read = s.readObject
	return s
}

func (s *S3Store) readObject(ctx context.Context, key string) ([]byte, error) {
	fullKey := key
	if s.prefix != "" {
		fullKey = path.Join(s.prefix, key)
	}

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &fullKey,
	})
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, fullKey)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func isMissing(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var responseError *awshttp.ResponseError
	return errors.As(err, &responseError) && responseError.HTTPStatusCode() == http.StatusNotFound
}
