// Package repository declares the storage interfaces the services depend on.
// Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sakif/contract-auditor/internal/model"
)

// UserRepository is the credential store.
//
// CreateUser returns an error matching apperror.ErrDuplicateUser when the
// username is taken. GetByUsername and GetUserByID return apperror.ErrNotFound
// when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuditRepository is the audit recorder. Audits are insert-only.
//
// ListAuditsByUser returns the user's audits newest first, with no pagination.
// GetAuditByID only returns an audit owned by userID; anything else is NotFound.
type AuditRepository interface {
	CreateAudit(ctx context.Context, audit *model.Audit) error
	ListAuditsByUser(ctx context.Context, userID string) ([]model.Audit, error)
	GetAuditByID(ctx context.Context, userID, id string) (*model.Audit, error)
}

// Store bundles both repositories plus lifecycle, so the server can own one
// handle regardless of backend.
type Store interface {
	UserRepository
	AuditRepository
	Close() error
}
