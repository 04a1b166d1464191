package avatars

import (
	"context"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

// Store keeps one PNG per user. Get returns ErrNotFound when there is none.
// Delete of a missing avatar is not an error.
type Store interface {
	Put(ctx context.Context, userID string, png []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

// ObjectKey names a user's avatar in bucket backends
func ObjectKey(userID string) string {
	return "avatars/" + userID + ".png"
}

var _ Store = (*InlineStore)(nil)

// InlineStore keeps the avatar on the user record itself
type InlineStore struct {
	userRepo users.UserRepo
}

func NewInlineStore(userRepo users.UserRepo) *InlineStore {
	return &InlineStore{userRepo: userRepo}
}

func (s *InlineStore) Put(ctx context.Context, userID string, png []byte) error {
	return s.userRepo.SetAvatar(ctx, userID, png)
}

func (s *InlineStore) Get(ctx context.Context, userID string) ([]byte, error) {
	return s.userRepo.GetAvatar(ctx, userID)
}

// Delete clears the avatar. The record itself may already be gone.
func (s *InlineStore) Delete(ctx context.Context, userID string) error {
	err := s.userRepo.SetAvatar(ctx, userID, nil)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}
