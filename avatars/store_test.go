package avatars_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-account-service/avatars"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	fakeuserrepo "github.com/jrsteele09/go-account-service/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "avatars/u-1.png", avatars.ObjectKey("u-1"))
}

func TestInlineStore(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	u := &users.User{Name: "Andrew", Email: "andrew@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	store := avatars.NewInlineStore(repo)

	_, err := store.Get(ctx, u.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, store.Put(ctx, u.ID, []byte("first")))
	require.NoError(t, store.Put(ctx, u.ID, []byte("second")))
	got, err := store.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)

	require.NoError(t, store.Delete(ctx, u.ID))
	_, err = store.Get(ctx, u.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "missing-user"))
	require.ErrorIs(t, store.Put(ctx, "missing-user", []byte("x")), apperrors.ErrNotFound)
}
