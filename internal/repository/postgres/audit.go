package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
)

const (
	insertAuditSQL = `
INSERT INTO audits (id, user_id, contract_name, solidity_code, github_url, audit_result, patched_code, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listAuditsSQL = `
SELECT id, user_id, contract_name, solidity_code, github_url, audit_result, patched_code, created_at
FROM audits WHERE user_id=$1
ORDER BY created_at DESC, id DESC`

	selectAuditSQL = `
SELECT id, user_id, contract_name, solidity_code, github_url, audit_result, patched_code, created_at
FROM audits WHERE id=$1 AND user_id=$2`
)

// CreateAudit inserts one immutable audit row.
func (db *DB) CreateAudit(ctx context.Context, a *model.Audit) error {
	a.ID = xid.New().String()
	a.CreatedAt = time.Now().UTC()

	_, err := db.Pool.Exec(ctx, insertAuditSQL,
		a.ID, a.UserID, a.ContractName, a.SolidityCode, a.GitHubURL, a.AuditResult, a.PatchedCode, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: creating audit: %w", err)
	}
	return nil
}

// ListAuditsByUser returns the user's audits newest first.
func (db *DB) ListAuditsByUser(ctx context.Context, userID string) ([]model.Audit, error) {
	rows, err := db.Pool.Query(ctx, listAuditsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing audits for user %s: %w", userID, err)
	}
	defer rows.Close()

	audits := make([]model.Audit, 0)
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning audit row: %w", err)
		}
		audits = append(audits, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating audits: %w", err)
	}
	return audits, nil
}

// GetAuditByID returns the audit if it belongs to userID.
func (db *DB) GetAuditByID(ctx context.Context, userID, id string) (*model.Audit, error) {
	a, err := scanAudit(db.Pool.QueryRow(ctx, selectAuditSQL, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("audit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting audit %s: %w", id, err)
	}
	return a, nil
}

// scanAudit reads one row; pgx.Rows and pgx.Row both satisfy pgx.Row.
func scanAudit(row pgx.Row) (*model.Audit, error) {
	var (
		a       model.Audit
		patched sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.ContractName, &a.SolidityCode,
		&a.GitHubURL, &a.AuditResult, &patched, &a.CreatedAt); err != nil {
		return nil, err
	}
	if patched.Valid {
		p := patched.String
		a.PatchedCode = &p
	}
	return &a, nil
}
