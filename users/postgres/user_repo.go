package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (id, name, email, age, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Age, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `UPDATE users SET name = $2, email = $3, age = $4, password_hash = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Age, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// Delete removes the user; tokens go with it through the cascade
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	query := `SELECT id, name, email, age, password_hash, created_at, updated_at
		FROM users WHERE id = $1`
	return r.getUser(ctx, query, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `SELECT id, name, email, age, password_hash, created_at, updated_at
		FROM users WHERE email = $1`
	return r.getUser(ctx, query, email)
}

func (r *UserRepo) getUser(ctx context.Context, query string, arg string) (*users.User, error) {
	user := &users.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Age, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}

	tokens, err := r.tokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens
	return user, nil
}

func (r *UserRepo) tokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT token FROM user_tokens WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

func (r *UserRepo) AppendToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_tokens (user_id, token) VALUES ($1, $2)`, id, token)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepo) RemoveToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`, id, token)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepo) ClearTokens(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *UserRepo) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar = $2 WHERE id = $1`, id, avatar)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *UserRepo) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotFound
	}
	var avatar []byte
	if err := r.db.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = $1`, id).Scan(&avatar); err != nil {
		return nil, translate(err)
	}
	if len(avatar) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return avatar, nil
}

// translate maps driver errors onto the shared error taxonomy
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperrors.ErrDuplicateEmail
		case foreignKeyViolation:
			return apperrors.ErrNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
