// Package sessions ties bearer tokens to users. A token is live while it is
// correctly signed, unexpired and still present in its owner's token list.
package sessions

import (
	"context"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Manager struct {
	userRepo users.UserRepo
	tokens   *token.Manager
}

func NewManager(userRepo users.UserRepo, tokens *token.Manager) *Manager {
	return &Manager{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// IssueToken signs a new token for user and appends it to the stored token list
func (m *Manager) IssueToken(ctx context.Context, user *users.User) (string, error) {
	raw, _, err := m.tokens.Create(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.IssueToken] Create")
	}
	if err := m.userRepo.AppendToken(ctx, user.ID, raw); err != nil {
		return "", errors.Wrap(err, "[Manager.IssueToken] AppendToken")
	}
	user.Tokens = append(user.Tokens, raw)
	return raw, nil
}

// ValidateToken returns the owner of a live token. Bad signatures, expired
// tokens, unknown users and revoked tokens all yield ErrUnauthenticated.
func (m *Manager) ValidateToken(ctx context.Context, raw string) (*users.User, error) {
	claims, err := m.tokens.Parse(raw)
	if err != nil {
		log.Debug().Err(err).Msg("rejected bearer token")
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := m.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[Manager.ValidateToken] GetByID")
	}

	if !user.HasToken(raw) {
		log.Debug().Str("user_id", user.ID).Msg("token no longer in session list")
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

// RevokeToken ends exactly one session
func (m *Manager) RevokeToken(ctx context.Context, user *users.User, raw string) error {
	if err := m.userRepo.RemoveToken(ctx, user.ID, raw); err != nil {
		return errors.Wrap(err, "[Manager.RevokeToken] RemoveToken")
	}
	for i, t := range user.Tokens {
		if t == raw {
			user.Tokens = append(user.Tokens[:i:i], user.Tokens[i+1:]...)
			break
		}
	}
	return nil
}

// RevokeAll ends every session of user
func (m *Manager) RevokeAll(ctx context.Context, user *users.User) error {
	if err := m.userRepo.ClearTokens(ctx, user.ID); err != nil {
		return errors.Wrap(err, "[Manager.RevokeAll] ClearTokens")
	}
	user.Tokens = nil
	return nil
}
