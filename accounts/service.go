// Package accounts implements the account lifecycle: signup, login, logout,
// profile reads and updates, avatars and account deletion.
package accounts

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/go-account-service/avatars"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/sessions"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Notifier is the fire-and-forget lifecycle mailer
type Notifier interface {
	SendWelcome(address, name string)
	SendGoodbye(address, name string)
}

type SignupRequest struct {
	Name     users.FlexString `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Age      int              `json:"age"`
}

type Service struct {
	userRepo       users.UserRepo
	sessions       *sessions.Manager
	avatars        avatars.Store
	notifier       Notifier
	policy         users.PasswordPolicy
	maxAvatarBytes int64

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithPasswordPolicy(policy users.PasswordPolicy) Option {
	return func(s *Service) {
		s.policy = policy.Normalized()
	}
}

func WithAvatarMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAvatarBytes = n
		}
	}
}

func New(userRepo users.UserRepo, sessionManager *sessions.Manager, avatarStore avatars.Store, notifier Notifier, options ...Option) *Service {
	s := &Service{
		userRepo:       userRepo,
		sessions:       sessionManager,
		avatars:        avatarStore,
		notifier:       notifier,
		policy:         users.DefaultPasswordPolicy(),
		maxAvatarBytes: avatars.DefaultMaxBytes,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create signs a user up and opens their first session
func (s *Service) Create(ctx context.Context, req SignupRequest) (*users.User, string, error) {
	user := &users.User{
		Name:  strings.TrimSpace(req.Name.String()),
		Email: users.NormalizeEmail(req.Email),
		Age:   req.Age,
	}

	ve := &apperrors.ValidationError{}
	if err := users.ValidateName(user.Name); err != nil {
		ve.Add(users.FieldName, err.Error())
	}
	if err := users.ValidateEmail(user.Email); err != nil {
		ve.Add(users.FieldEmail, err.Error())
	}
	if err := s.policy.Validate(req.Password); err != nil {
		ve.Add(users.FieldPassword, err.Error())
	}
	if err := users.ValidateAge(user.Age); err != nil {
		ve.Add(users.FieldAge, err.Error())
	}
	if err := ve.OrNil(); err != nil {
		return nil, "", err
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Service.Create] HashPassword")
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, "", apperrors.NewValidationError(users.FieldEmail, "email is already in use")
		}
		return nil, "", errors.Wrap(err, "[Service.Create] Create")
	}

	token, err := s.sessions.IssueToken(ctx, user)
	if err != nil {
		// drop the half-created account so the email can sign up again
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			log.Error().Err(delErr).Str("user_id", user.ID).Msg("failed to roll back signup")
		}
		return nil, "", errors.Wrap(err, "[Service.Create] IssueToken")
	}

	s.notifier.SendWelcome(user.Email, user.Name)
	return user, token, nil
}

// Authenticate logs a user in. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// burn a comparison so timing does not reveal the unknown email
			users.CheckPasswordHash(password, s.dummyPasswordHash())
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "[Service.Authenticate] GetByEmail")
	}

	if !user.CheckPassword(password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.sessions.IssueToken(ctx, user)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Service.Authenticate] IssueToken")
	}
	return user, token, nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := users.HashPassword("not-a-real-account-password")
		if err != nil {
			log.Err(err).Msg("failed to build dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Logout ends the session identified by token
func (s *Service) Logout(ctx context.Context, user *users.User, token string) error {
	return s.sessions.RevokeToken(ctx, user, token)
}

// LogoutAll ends every session of user
func (s *Service) LogoutAll(ctx context.Context, user *users.User) error {
	return s.sessions.RevokeAll(ctx, user)
}

// Me returns the owner of token
func (s *Service) Me(ctx context.Context, token string) (*users.User, error) {
	return s.sessions.ValidateToken(ctx, token)
}

// MeUser is Me for a user whose token was already validated
func (s *Service) MeUser(_ context.Context, user *users.User) (*users.User, error) {
	return user, nil
}

func (s *Service) Update(ctx context.Context, token string, fields map[string]json.RawMessage) (*users.User, error) {
	user, err := s.sessions.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.UpdateUser(ctx, user, fields)
}

// UpdateUser applies a partial profile update. Either every field is applied
// or none is.
func (s *Service) UpdateUser(ctx context.Context, user *users.User, fields map[string]json.RawMessage) (*users.User, error) {
	if err := rejectUnknownFields(fields); err != nil {
		return nil, err
	}

	updated := user.Clone()
	newPassword := ""
	ve := &apperrors.ValidationError{}

	for key, raw := range fields {
		switch key {
		case users.FieldName:
			var name users.FlexString
			if err := json.Unmarshal(raw, &name); err != nil {
				ve.Add(key, "name must be a string")
				continue
			}
			updated.Name = strings.TrimSpace(name.String())
			if err := users.ValidateName(updated.Name); err != nil {
				ve.Add(key, err.Error())
			}
		case users.FieldEmail:
			var email string
			if err := json.Unmarshal(raw, &email); err != nil {
				ve.Add(key, "email must be a string")
				continue
			}
			updated.Email = users.NormalizeEmail(email)
			if err := users.ValidateEmail(updated.Email); err != nil {
				ve.Add(key, err.Error())
			}
		case users.FieldPassword:
			var password string
			if err := json.Unmarshal(raw, &password); err != nil {
				ve.Add(key, "password must be a string")
				continue
			}
			if err := s.policy.Validate(password); err != nil {
				ve.Add(key, err.Error())
				continue
			}
			newPassword = password
		case users.FieldAge:
			var age int
			if err := json.Unmarshal(raw, &age); err != nil {
				ve.Add(key, "age must be a whole number")
				continue
			}
			updated.Age = age
			if err := users.ValidateAge(age); err != nil {
				ve.Add(key, err.Error())
			}
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if newPassword != "" {
		hash, err := users.HashPassword(newPassword)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.UpdateUser] HashPassword")
		}
		updated.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, updated); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, apperrors.NewValidationError(users.FieldEmail, "email is already in use")
		}
		return nil, errors.Wrap(err, "[Service.UpdateUser] Update")
	}
	return updated, nil
}

func rejectUnknownFields(fields map[string]json.RawMessage) error {
	var unknown []string
	for key := range fields {
		if !users.IsUpdatableField(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	ve := &apperrors.ValidationError{}
	for _, key := range unknown {
		ve.Add(key, "invalid update, allowed fields are "+strings.Join(users.UpdatableFields, ", "))
	}
	return ve
}

func (s *Service) Remove(ctx context.Context, token string) (*users.User, error) {
	user, err := s.sessions.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.RemoveUser(ctx, user)
}

// RemoveUser deletes the account. Nothing changes when the record delete
// fails; sessions and the avatar are cleaned up afterwards and the goodbye
// email is sent last.
func (s *Service) RemoveUser(ctx context.Context, user *users.User) (*users.User, error) {
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return nil, errors.Wrap(err, "[Service.RemoveUser] Delete")
	}

	if err := s.avatars.Delete(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to delete avatar of removed user")
	}
	// stores drop tokens together with the user, so NotFound is the normal outcome
	if err := s.sessions.RevokeAll(ctx, user); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to clear sessions of removed user")
	}
	user.Tokens = nil

	s.notifier.SendGoodbye(user.Email, user.Name)
	return user, nil
}

func (s *Service) SetAvatar(ctx context.Context, token string, data []byte) error {
	user, err := s.sessions.ValidateToken(ctx, token)
	if err != nil {
		return err
	}
	return s.SetAvatarUser(ctx, user, data)
}

// SetAvatarUser validates and normalises data, then replaces the user's avatar
func (s *Service) SetAvatarUser(ctx context.Context, user *users.User, data []byte) error {
	png, err := avatars.Process(data, s.maxAvatarBytes)
	if err != nil {
		var problem *avatars.Problem
		if errors.As(err, &problem) {
			return apperrors.NewValidationError("avatar", problem.Message)
		}
		return errors.Wrap(err, "[Service.SetAvatarUser] Process")
	}
	if err := s.avatars.Put(ctx, user.ID, png); err != nil {
		return errors.Wrap(err, "[Service.SetAvatarUser] Put")
	}
	return nil
}

func (s *Service) DeleteAvatar(ctx context.Context, user *users.User) error {
	if err := s.avatars.Delete(ctx, user.ID); err != nil {
		return errors.Wrap(err, "[Service.DeleteAvatar] Delete")
	}
	return nil
}

// Avatar returns the PNG avatar of any user. ErrNotFound when the user or
// the avatar does not exist.
func (s *Service) Avatar(ctx context.Context, userID string) ([]byte, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[Service.Avatar] GetByID")
	}
	data, err := s.avatars.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "[Service.Avatar] Get")
	}
	return data, nil
}
