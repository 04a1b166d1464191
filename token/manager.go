// Package token signs and parses the bearer tokens that identify a session.
// A token only proves who it was issued to and until when; whether the
// session is still live is decided by the owner's stored token list.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultTTL = 7 * 24 * time.Hour

// Claims carried by every session token
type Claims struct {
	UserID    string    // sub
	ID        string    // jti, unique per token
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
}

type Manager struct {
	signer  Signer
	ttl     time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create signs a new token for userID. Every call yields a distinct token.
func (m *Manager) Create(userID string) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("[Manager.Create] empty user id")
	}
	now := m.nowFunc().UTC().Truncate(time.Second)
	claims := &Claims{
		UserID:    userID,
		ID:        uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	signed, err := m.signer.Sign(jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ID:        claims.ID,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "[Manager.Create] Sign")
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of rawToken and returns its claims
func (m *Manager) Parse(rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, errors.New("[Manager.Parse] empty token")
	}

	registered := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	token, err := parser.ParseWithClaims(rawToken, registered, m.signer.GetVerificationKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Parse] ParseWithClaims")
	}
	if !token.Valid {
		return nil, errors.New("[Manager.Parse] invalid token")
	}
	if registered.Subject == "" {
		return nil, errors.New("[Manager.Parse] token has no subject")
	}

	claims := &Claims{
		UserID: registered.Subject,
		ID:     registered.ID,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
