package users

import "context"

// UserRepo is the credential store. Token operations are single atomic store
// operations so that concurrent logins never lose an appended token.
type UserRepo interface {
	// Create stores a new user, assigning an ID when empty. ErrDuplicateEmail on collision.
	Create(ctx context.Context, user *User) error
	// Update replaces the profile fields (name, email, age, password hash).
	Update(ctx context.Context, user *User) error
	// Delete removes the user together with its tokens and inline avatar.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	AppendToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error

	// SetAvatar replaces the inline avatar; nil clears it.
	SetAvatar(ctx context.Context, id string, avatar []byte) error
	GetAvatar(ctx context.Context, id string) ([]byte, error)
}
