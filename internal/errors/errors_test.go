package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidationError_IsErrValidation(t *testing.T) {
	err := apperrors.NewValidationError("email", "invalid email format")

	require.True(t, stderrors.Is(err, apperrors.ErrValidation))
	require.False(t, stderrors.Is(err, apperrors.ErrUnauthenticated))

	wrapped := fmt.Errorf("signup: %w", err)
	require.True(t, apperrors.Is(wrapped, apperrors.ErrValidation))

	var ve *apperrors.ValidationError
	require.True(t, apperrors.As(wrapped, &ve))
	require.Equal(t, "invalid email format", ve.Fields["email"])
}

func TestValidationError_AddKeepsFirstMessage(t *testing.T) {
	var ve apperrors.ValidationError
	require.True(t, ve.Empty())
	require.NoError(t, ve.OrNil())

	ve.Add("password", "too short")
	ve.Add("password", "too common")
	ve.Add("age", "must be a positive number")

	require.False(t, ve.Empty())
	require.Equal(t, "too short", ve.Fields["password"])
	require.Equal(t, "validation failed: age: must be a positive number; password: too short", ve.Error())
}

func TestWrapf(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "ignored"))

	err := apperrors.Wrapf(apperrors.ErrNotFound, "user %s", "u-1")
	require.EqualError(t, err, "user u-1: not found")
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
