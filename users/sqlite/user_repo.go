// Package sqlite stores users in a SQLite file through sqlx and go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ users.UserRepo = (*UserRepo)(nil)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Age          int       `db:"age"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toUser() *users.User {
	return &users.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Age:          r.Age,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func fromUser(u *users.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Age:          u.Age,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type UserRepo struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path (":memory:" works) and migrates it.
// SQLite allows a single writer, so the pool is limited to one connection.
func Open(ctx context.Context, path string) (*UserRepo, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &UserRepo{db: db}, nil
}

func (r *UserRepo) Close() error {
	return r.db.Close()
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (id, name, email, age, password_hash, created_at, updated_at)
		VALUES (:id, :name, :email, :age, :password_hash, :created_at, :updated_at)`, fromUser(user))
	return translate(err)
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.NamedExecContext(ctx, `UPDATE users
		SET name = :name, email = :email, age = :age, password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`, fromUser(user))
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, age, password_hash, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, age, password_hash, created_at, updated_at FROM users WHERE email = ?`, email)
}

func (r *UserRepo) getUser(ctx context.Context, query, arg string) (*users.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, translate(err)
	}
	user := row.toUser()
	if err := r.db.SelectContext(ctx, &user.Tokens, `SELECT token FROM user_tokens WHERE user_id = ? ORDER BY id`, user.ID); err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *UserRepo) AppendToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_tokens (user_id, token) VALUES (?, ?)`, id, token)
	return translate(err)
}

func (r *UserRepo) RemoveToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ? AND token = ?`, id, token)
	return translate(err)
}

func (r *UserRepo) ClearTokens(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ?`, id)
	return translate(err)
}

func (r *UserRepo) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, id)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func (r *UserRepo) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	var avatar []byte
	if err := r.db.GetContext(ctx, &avatar, `SELECT avatar FROM users WHERE id = ?`, id); err != nil {
		return nil, translate(err)
	}
	if len(avatar) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return avatar, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return apperrors.ErrDuplicateEmail
		case sqlite3.ErrConstraintForeignKey:
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
