package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.UserRepo. Callers always receive copies,
// so mutating a returned user never changes stored state.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	avatars  map[string][]byte
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		avatars:  make(map[string][]byte),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return apperrors.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	ur.users[user.ID] = user.Clone()
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored, ok := ur.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if owner, taken := ur.emailIds[user.Email]; taken && owner != user.ID {
		return apperrors.ErrDuplicateEmail
	}

	delete(ur.emailIds, stored.Email)
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Age = user.Age
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = time.Now().UTC()
	ur.emailIds[stored.Email] = stored.ID

	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.emailIds, user.Email)
	delete(ur.users, id)
	delete(ur.avatars, id)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[id].Clone(), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) AppendToken(_ context.Context, id, token string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Tokens = append(user.Tokens, token)
	return nil
}

func (ur *FakeUserRepo) RemoveToken(_ context.Context, id, token string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	for i, t := range user.Tokens {
		if t == token {
			user.Tokens = append(user.Tokens[:i:i], user.Tokens[i+1:]...)
			break
		}
	}
	return nil
}

func (ur *FakeUserRepo) ClearTokens(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Tokens = nil
	return nil
}

func (ur *FakeUserRepo) SetAvatar(_ context.Context, id string, avatar []byte) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	if avatar == nil {
		delete(ur.avatars, id)
		return nil
	}
	ur.avatars[id] = append([]byte(nil), avatar...)
	return nil
}

func (ur *FakeUserRepo) GetAvatar(_ context.Context, id string) ([]byte, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, apperrors.ErrNotFound
	}
	avatar, ok := ur.avatars[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return append([]byte(nil), avatar...), nil
}
