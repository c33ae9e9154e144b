// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package modules

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/dberr"
)

// # SQL Queries

const (
	queryListModules = `
		SELECT module_id, title, content_type, created_at
		FROM portal.custom_module
		ORDER BY created_at ASC`

	queryFindModule = `
		SELECT module_id, title, content_type, image, created_at, updated_at
		FROM portal.custom_module
		WHERE module_id = $1`

	queryInsertModule = `
		INSERT INTO portal.custom_module (module_id, title, content_type, image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	queryDeleteModule = `
		DELETE FROM portal.custom_module
		WHERE module_id = $1`
)

// PostgresRepository is the pgx-backed implementation of [Repository].
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository bound to a connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

// List implements [Repository].
func (r *PostgresRepository) List(ctx context.Context) ([]*ModuleSummary, error) {
	rows, err := r.pool.Query(ctx, queryListModules)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	defer rows.Close()

	summaries := make([]*ModuleSummary, 0)
	for rows.Next() {
		summary := &ModuleSummary{}
		if err := rows.Scan(&summary.ModuleID, &summary.Title, &summary.ContentType, &summary.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "")
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return summaries, nil
}

// Find implements [Repository].
func (r *PostgresRepository) Find(ctx context.Context, moduleID string) (*CustomModule, error) {
	module := &CustomModule{}
	err := r.pool.QueryRow(ctx, queryFindModule, moduleID).Scan(
		&module.ModuleID,
		&module.Title,
		&module.ContentType,
		&module.Image,
		&module.CreatedAt,
		&module.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return module, nil
}

// Create implements [Repository].
func (r *PostgresRepository) Create(ctx context.Context, module *CustomModule) error {
	err := r.pool.QueryRow(ctx, queryInsertModule,
		module.ModuleID,
		module.Title,
		module.ContentType,
		module.Image,
	).Scan(&module.CreatedAt, &module.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "A module with this title already exists")
	}
	return nil
}

// Delete implements [Repository].
func (r *PostgresRepository) Delete(ctx context.Context, moduleID string) error {
	tag, err := r.pool.Exec(ctx, queryDeleteModule, moduleID)
	if err != nil {
		return dberr.Wrap(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Module")
	}
	return nil
}
