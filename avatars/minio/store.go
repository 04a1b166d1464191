// Package minio keeps avatars in a MinIO bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-account-service/avatars"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

var _ avatars.Store = (*Store)(nil)

type Store struct {
	api    minioAPI
	bucket string
}

// Connect builds a MinIO client from static credentials and prepares bucket
func Connect(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewStoreWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

// NewStoreWithAPI allows injecting a mockable API (used in tests).
func NewStoreWithAPI(ctx context.Context, api minioAPI, bucket string) (*Store, error) {
	s := &Store{
		api:    api,
		bucket: bucket,
	}
	if err := s.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return s, nil
}

func (s *Store) ensureBucketExists(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *Store) Put(ctx context.Context, userID string, png []byte) error {
	_, err := s.api.PutObject(ctx, s.bucket, avatars.ObjectKey(userID), bytes.NewReader(png), int64(len(png)),
		minio.PutObjectOptions{ContentType: avatars.ContentType})
	if err != nil {
		return fmt.Errorf("failed to upload avatar: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, avatars.ObjectKey(userID), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer obj.Close()

	// minio reports a missing key on the first read, not on GetObject
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	err := s.api.RemoveObject(ctx, s.bucket, avatars.ObjectKey(userID), minio.RemoveObjectOptions{})
	if err != nil {
		if translate(err) == apperrors.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}

func translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("failed to get avatar: %w", err)
}
