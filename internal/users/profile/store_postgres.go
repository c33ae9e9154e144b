// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package profile

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tranquang/staffdesk/internal/platform/dberr"
)

// # SQL Queries

const (
	queryFindProfile = `
		SELECT identity, name, created_at, updated_at
		FROM portal.user_profile
		WHERE identity = $1`

	queryUpsertProfile = `
		INSERT INTO portal.user_profile (identity, name)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET name = EXCLUDED.name, updated_at = now()
		RETURNING identity, name, created_at, updated_at`
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

// Find implements [Repository].
func (r *PostgresRepository) Find(ctx context.Context, identity string) (*UserProfile, error) {
	record := &UserProfile{}
	err := r.pool.QueryRow(ctx, queryFindProfile, identity).Scan(
		&record.Identity,
		&record.Name,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return record, nil
}

// Upsert implements [Repository].
func (r *PostgresRepository) Upsert(ctx context.Context, identity string, name string) (*UserProfile, error) {
	record := &UserProfile{}
	err := r.pool.QueryRow(ctx, queryUpsertProfile, identity, name).Scan(
		&record.Identity,
		&record.Name,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return record, nil
}
