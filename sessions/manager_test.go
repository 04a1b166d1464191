package sessions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/sessions"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/jrsteele09/go-account-service/users"
	fakeuserrepo "github.com/jrsteele09/go-account-service/users/repofake"
	"github.com/stretchr/testify/require"
)

const secretStr = "1234"

type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	manager  *sessions.Manager
	user     *users.User
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ur := fakeuserrepo.NewFakeUserRepo()
	tm := token.New(token.NewHMACSigner(secretStr), token.WithTTL(time.Hour), token.WithNowFunc(func() time.Time { return now }))

	user := &users.User{Name: "Andrew", Email: "andrew@example.com", PasswordHash: "hash"}
	require.NoError(t, ur.Create(context.Background(), user))

	return &testFixture{
		userRepo: ur,
		manager:  sessions.NewManager(ur, tm),
		user:     user,
		now:      now,
	}
}

func TestManager_IssueAndValidate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	tok, err := f.manager.IssueToken(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, []string{tok}, f.user.Tokens)

	got, err := f.manager.ValidateToken(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, got.ID)
	require.True(t, got.HasToken(tok))
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.manager.IssueToken(ctx, f.user)
	require.NoError(t, err)
	second, err := f.manager.IssueToken(ctx, f.user)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, f.manager.RevokeToken(ctx, f.user, first))
	require.Equal(t, []string{second}, f.user.Tokens)

	_, err = f.manager.ValidateToken(ctx, first)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = f.manager.ValidateToken(ctx, second)
	require.NoError(t, err)
}

func TestManager_RevokeAll(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	var toks []string
	for i := 0; i < 3; i++ {
		tok, err := f.manager.IssueToken(ctx, f.user)
		require.NoError(t, err)
		toks = append(toks, tok)
	}

	require.NoError(t, f.manager.RevokeAll(ctx, f.user))
	require.Empty(t, f.user.Tokens)
	for _, tok := range toks {
		_, err := f.manager.ValidateToken(ctx, tok)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	}
}

func TestManager_ValidateRejects(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := f.manager.ValidateToken(ctx, "garbage")
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("wrong signature", func(t *testing.T) {
		other := token.New(token.NewHMACSigner("other"), token.WithNowFunc(func() time.Time { return f.now }))
		raw, _, err := other.Create(f.user.ID)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.AppendToken(ctx, f.user.ID, raw))

		_, err = f.manager.ValidateToken(ctx, raw)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		past := token.New(token.NewHMACSigner(secretStr), token.WithTTL(time.Minute),
			token.WithNowFunc(func() time.Time { return f.now.Add(-time.Hour) }))
		raw, _, err := past.Create(f.user.ID)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.AppendToken(ctx, f.user.ID, raw))

		_, err = f.manager.ValidateToken(ctx, raw)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost := &users.User{Name: "Ghost", Email: "ghost@example.com", PasswordHash: "hash"}
		require.NoError(t, f.userRepo.Create(ctx, ghost))
		raw, err := f.manager.IssueToken(ctx, ghost)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.Delete(ctx, ghost.ID))

		_, err = f.manager.ValidateToken(ctx, raw)
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestManager_ConcurrentLoginsKeepEveryToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	const logins = 25
	toks := make(chan string, logins)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := f.userRepo.GetByID(ctx, f.user.ID)
			if err != nil {
				return
			}
			tok, err := f.manager.IssueToken(ctx, u)
			if err == nil {
				toks <- tok
			}
		}()
	}
	wg.Wait()
	close(toks)

	count := 0
	for tok := range toks {
		_, err := f.manager.ValidateToken(ctx, tok)
		require.NoError(t, err)
		count++
	}
	require.Equal(t, logins, count)
}
