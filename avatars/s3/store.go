// Package s3 keeps avatars in an S3 compatible bucket via aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jrsteele09/go-account-service/avatars"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
)

// s3API is the subset of *s3.Client used by the store
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Options struct {
	Region       string
	Bucket       string
	BaseEndpoint string // optional, for MinIO or localstack
	AccessKey    string // optional, falls back to the default credential chain
	SecretKey    string
}

var _ avatars.Store = (*Store)(nil)

type Store struct {
	api    s3API
	bucket string
}

func Connect(ctx context.Context, opts Options) (*Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, opts.Bucket), nil
}

func newStore(api s3API, bucket string) *Store {
	return &Store{api: api, bucket: bucket}
}

func (s *Store) Put(ctx context.Context, userID string, png []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(avatars.ObjectKey(userID)),
		Body:          bytes.NewReader(png),
		ContentLength: aws.Int64(int64(len(png))),
		ContentType:   aws.String(avatars.ContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload avatar: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(avatars.ObjectKey(userID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	return data, nil
}

// Delete is idempotent; S3 reports success for missing keys
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(avatars.ObjectKey(userID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
