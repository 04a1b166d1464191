package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	putIn   *s3.PutObjectInput
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.putIn = in
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	s := newStore(api, "avatars")

	_, err := s.Get(ctx, "u-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.Put(ctx, "u-1", []byte("png")))
	assert.Equal(t, "avatars", aws.ToString(api.putIn.Bucket))
	assert.Equal(t, "avatars/u-1.png", aws.ToString(api.putIn.Key))
	assert.Equal(t, "image/png", aws.ToString(api.putIn.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(api.putIn.ContentLength))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), got)

	require.NoError(t, s.Delete(ctx, "u-1"))
	_, err = s.Get(ctx, "u-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, s.Delete(ctx, "u-1"))
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	api.err = errors.New("access denied")
	s := newStore(api, "avatars")

	require.ErrorContains(t, s.Put(ctx, "u-1", []byte("png")), "failed to upload avatar")
	_, err := s.Get(ctx, "u-1")
	require.ErrorContains(t, err, "failed to get avatar")
	require.NotErrorIs(t, err, apperrors.ErrNotFound)
	require.ErrorContains(t, s.Delete(ctx, "u-1"), "failed to delete avatar")
}
