// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/dberr"
)

// # SQL Queries

const (
	queryFindApproval = `
		SELECT identity, status, name, four_char_id, created_at, updated_at
		FROM portal.approval
		WHERE identity = $1`

	queryInsertApproval = `
		INSERT INTO portal.approval (identity, status, name, four_char_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	queryReopenApproval = `
		UPDATE portal.approval
		SET status = $2, name = $3, updated_at = now()
		WHERE identity = $1
		RETURNING identity, status, name, four_char_id, created_at, updated_at`

	queryUpdateApprovalStatus = `
		UPDATE portal.approval
		SET status = $2, updated_at = now()
		WHERE identity = $1`

	queryListUsers = `
		SELECT a.identity,
		       COALESCE(NULLIF(a.name, ''), p.name, '') AS name,
		       a.four_char_id,
		       a.status
		FROM portal.approval a
		LEFT JOIN portal.user_profile p ON p.identity = a.identity
		ORDER BY a.created_at DESC`

	queryGetRole = `
		SELECT role
		FROM portal.user_role
		WHERE identity = $1`

	queryUpsertRole = `
		INSERT INTO portal.user_role (identity, role)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET role = EXCLUDED.role, updated_at = now()`

	queryEnsureMemberRole = `
		INSERT INTO portal.user_role (identity, role)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO NOTHING`

	queryLockAdminRows = `
		SELECT identity
		FROM portal.user_role
		WHERE role = $1
		FOR UPDATE`
)

// PostgresRepository is the pgx-backed implementation of [Repository].
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository bound to a connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Compile-time interface check.
var _ Repository = (*PostgresRepository)(nil)

// FindApproval implements [Repository].
func (r *PostgresRepository) FindApproval(ctx context.Context, identity string) (*ApprovalRecord, error) {
	record := &ApprovalRecord{}
	err := r.pool.QueryRow(ctx, queryFindApproval, identity).Scan(
		&record.Identity,
		&record.Status,
		&record.Name,
		&record.FourCharID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return record, nil
}

// CreateApproval implements [Repository].
func (r *PostgresRepository) CreateApproval(ctx context.Context, record *ApprovalRecord) error {
	err := r.pool.QueryRow(ctx, queryInsertApproval,
		record.Identity,
		record.Status,
		record.Name,
		record.FourCharID,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "An access request already exists")
	}
	return nil
}

// ReopenApproval implements [Repository].
func (r *PostgresRepository) ReopenApproval(ctx context.Context, identity string, name string) (*ApprovalRecord, error) {
	record := &ApprovalRecord{}
	err := r.pool.QueryRow(ctx, queryReopenApproval, identity, StatusPending, name).Scan(
		&record.Identity,
		&record.Status,
		&record.Name,
		&record.FourCharID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return record, nil
}

// UpdateApprovalStatus implements [Repository].
func (r *PostgresRepository) UpdateApprovalStatus(ctx context.Context, identity string, status ApprovalStatus) error {
	tag, err := r.pool.Exec(ctx, queryUpdateApprovalStatus, identity, status)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("No access request found for this identity")
	}
	return nil
}

// ListUsers implements [Repository].
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*UserSummary, error) {
	rows, err := r.pool.Query(ctx, queryListUsers)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	defer rows.Close()

	summaries := make([]*UserSummary, 0)
	for rows.Next() {
		summary := &UserSummary{}
		if err := rows.Scan(&summary.Identity, &summary.Name, &summary.FourCharID, &summary.Status); err != nil {
			return nil, dberr.Wrap(err, "")
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return summaries, nil
}

// GetRole implements [Repository]. Absent bindings resolve to guest.
func (r *PostgresRepository) GetRole(ctx context.Context, identity string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, queryGetRole, identity).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleGuest, nil
		}
		return "", dberr.Wrap(err, "")
	}
	return role, nil
}

// AssignRole implements [Repository].
//
// The admin-count floor is enforced inside a transaction: all admin bindings
// are locked, counted, and the demotion is refused when the target is the
// only administrator left.
func (r *PostgresRepository) AssignRole(ctx context.Context, identity string, role Role) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return dberr.Wrap(err, "")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if role != RoleAdmin {
		admins, err := lockAdminIdentities(ctx, tx)
		if err != nil {
			return err
		}
		if len(admins) == 1 && admins[0] == identity {
			return apperr.Conflict("Cannot remove the last administrator")
		}
	}

	if _, err := tx.Exec(ctx, queryUpsertRole, identity, role); err != nil {
		return dberr.Wrap(err, "")
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "")
	}
	return nil
}

// EnsureMemberRole implements [Repository].
func (r *PostgresRepository) EnsureMemberRole(ctx context.Context, identity string) error {
	if _, err := r.pool.Exec(ctx, queryEnsureMemberRole, identity, RoleUser); err != nil {
		return dberr.Wrap(err, "")
	}
	return nil
}

// GrantAdmin implements [Repository].
func (r *PostgresRepository) GrantAdmin(ctx context.Context, identity string) error {
	if _, err := r.pool.Exec(ctx, queryUpsertRole, identity, RoleAdmin); err != nil {
		return dberr.Wrap(err, "")
	}
	return nil
}

// Reset implements [Repository].
//
// Runs as a single transaction so a half-wiped portal is never observable.
// Admin role bindings are the only rows that survive.
func (r *PostgresRepository) Reset(ctx context.Context) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return dberr.Wrap(err, "")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	statements := []string{
		`DELETE FROM portal.custom_module`,
		`DELETE FROM portal.user_profile`,
		`DELETE FROM portal.approval`,
		`DELETE FROM portal.user_role WHERE role <> 'admin'`,
	}
	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			return dberr.Wrap(err, "")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "")
	}
	return nil
}

// lockAdminIdentities locks and returns every identity holding the admin role.
func lockAdminIdentities(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(ctx, queryLockAdminRows, RoleAdmin)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	defer rows.Close()

	identities := make([]string, 0, 4)
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, dberr.Wrap(err, "")
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("access: locking admin rows: %w", dberr.Wrap(err, ""))
	}
	return identities, nil
}
