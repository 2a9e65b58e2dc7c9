package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/contract-auditor/internal/apperror"
	"github.com/sakif/contract-auditor/internal/model"
	"github.com/sakif/contract-auditor/internal/repository"
)

var _ repository.AuditRepository = (*DB)(nil)

const auditColumns = `id, user_id, contract_name, solidity_code, github_url, audit_result, patched_code, created_at`

// CreateAudit inserts one immutable audit record and fills in its ID and
// CreatedAt. It is a single INSERT: nothing else is written, so a failed
// call leaves no trace.
//
// NULLABLE COLUMNS:
// patched_code is NULL when the model produced no patch. database/sql maps a
// nil *string argument to NULL, so PatchedCode can be passed straight through.
func (db *DB) CreateAudit(ctx context.Context, audit *model.Audit) error {
	// xid IDs sort by creation time, which makes them a stable tiebreaker
	// for audits created within the same timestamp tick.
	audit.ID = xid.New().String()
	audit.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO audits (`+auditColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		audit.ID,
		audit.UserID,
		audit.ContractName,
		audit.SolidityCode,
		audit.GitHubURL,
		audit.AuditResult,
		audit.PatchedCode,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating audit: %w", err)
	}
	return nil
}

// ListAuditsByUser returns every audit owned by userID, newest first.
// An unknown user simply has no audits; the result is an empty slice, not an error.
func (db *DB) ListAuditsByUser(ctx context.Context, userID string) ([]model.Audit, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+auditColumns+`
		 FROM audits
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing audits for user %s: %w", userID, err)
	}
	defer rows.Close()

	audits := make([]model.Audit, 0)
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning audit row: %w", err)
		}
		audits = append(audits, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating audits: %w", err)
	}

	return audits, nil
}

// GetAuditByID returns the audit only if it belongs to userID. Someone else's
// audit is reported as NotFound, so IDs can't be probed for existence.
func (db *DB) GetAuditByID(ctx context.Context, userID, id string) (*model.Audit, error) {
	a, err := scanAudit(db.conn.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("audit", id)
		}
		return nil, fmt.Errorf("sqlite: getting audit %s: %w", id, err)
	}
	return a, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(s scanner) (*model.Audit, error) {
	var (
		a       model.Audit
		patched sql.NullString
	)
	if err := s.Scan(
		&a.ID, &a.UserID, &a.ContractName, &a.SolidityCode,
		&a.GitHubURL, &a.AuditResult, &patched, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if patched.Valid {
		p := patched.String
		a.PatchedCode = &p
	}
	return &a, nil
}
