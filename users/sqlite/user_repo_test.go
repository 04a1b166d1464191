package sqlite_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/jrsteele09/go-account-service/users/sqlite"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *sqlite.UserRepo {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createUser(t *testing.T, repo *sqlite.UserRepo, email string) *users.User {
	t.Helper()
	u := &users.User{Name: "Andrew", Email: email, Age: 27, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	u := createUser(t, repo, "andrew@example.com")
	require.NotEmpty(t, u.ID)

	byEmail, err := repo.GetByEmail(ctx, "andrew@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, 27, byEmail.Age)
	require.Equal(t, "hash", byEmail.PasswordHash)
	require.Empty(t, byEmail.Tokens)
	require.WithinDuration(t, u.CreatedAt, byEmail.CreatedAt, time.Second)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.Create(ctx, &users.User{Name: "Other", Email: "andrew@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestUserRepo_Update(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	a := createUser(t, repo, "a@example.com")
	createUser(t, repo, "b@example.com")

	a.Email = "b@example.com"
	require.ErrorIs(t, repo.Update(ctx, a), apperrors.ErrDuplicateEmail)

	a.Email = "c@example.com"
	a.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, "c@example.com", got.Email)

	require.ErrorIs(t, repo.Update(ctx, &users.User{ID: "missing", Email: "x@example.com"}), apperrors.ErrNotFound)
}

func TestUserRepo_TokensKeepOrder(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	u := createUser(t, repo, "andrew@example.com")

	for _, tok := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.AppendToken(ctx, u.ID, tok))
	}
	require.NoError(t, repo.RemoveToken(ctx, u.ID, "t2"))
	require.NoError(t, repo.RemoveToken(ctx, u.ID, "never-issued"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t3"}, got.Tokens)

	require.NoError(t, repo.ClearTokens(ctx, u.ID))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tokens)

	require.ErrorIs(t, repo.AppendToken(ctx, "missing", "t"), apperrors.ErrNotFound)
}

func TestUserRepo_AvatarAndCascadeDelete(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	u := createUser(t, repo, "andrew@example.com")

	_, err := repo.GetAvatar(ctx, u.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.SetAvatar(ctx, u.ID, []byte{0x89, 'P', 'N', 'G'}))
	avatar, err := repo.GetAvatar(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, avatar)

	require.NoError(t, repo.SetAvatar(ctx, u.ID, nil))
	_, err = repo.GetAvatar(ctx, u.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.AppendToken(ctx, u.ID, "t1"))
	require.NoError(t, repo.Delete(ctx, u.ID))
	require.ErrorIs(t, repo.Delete(ctx, u.ID), apperrors.ErrNotFound)

	// a new user with the same email starts without the old tokens
	again := createUser(t, repo, "andrew@example.com")
	got, err := repo.GetByID(ctx, again.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tokens)
	require.ErrorIs(t, repo.SetAvatar(ctx, u.ID, []byte{1}), apperrors.ErrNotFound)
}
