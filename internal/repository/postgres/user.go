package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
)

const (
	insertUserSQL = `
INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`

	selectUserByUsernameSQL = `
SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE username=$1`

	selectUserByIDSQL = `
SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE id=$1`
)

// CreateUser inserts a new user row; a taken username is DuplicateUser.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := db.Pool.Exec(ctx, insertUserSQL, u.ID, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperror.DuplicateUser(u.Username)
	}
	if err != nil {
		return fmt.Errorf("postgres: inserting user %q: %w", u.Username, err)
	}
	return nil
}

// GetByUsername selects a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, selectUserByUsernameSQL, username)
}

// GetUserByID selects a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, selectUserByIDSQL, id)
}

func (db *DB) getUser(ctx context.Context, q, key string) (*model.User, error) {
	var u model.User
	err := db.Pool.QueryRow(ctx, q, key).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user %q: %w", key, err)
	}
	return &u, nil
}
