// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package access

import "context"

// # Storage Contract

// Repository defines the persistence operations for the access domain.
//
// The interface is owned by the domain; the concrete PostgreSQL
// implementation lives in store_postgres.go. Tests substitute an in-memory
// fake.
type Repository interface {
	// FindApproval returns the approval record for an identity, or
	// apperr.ErrNotFound when the identity has never requested access.
	FindApproval(ctx context.Context, identity string) (*ApprovalRecord, error)

	// CreateApproval inserts a brand-new approval record. Returns a
	// conflict error when a record for the identity already exists.
	CreateApproval(ctx context.Context, record *ApprovalRecord) error

	// ReopenApproval moves a rejected record back to pending and refreshes
	// the display name. The FourCharID is left untouched.
	ReopenApproval(ctx context.Context, identity string, name string) (*ApprovalRecord, error)

	// UpdateApprovalStatus overwrites the status of an existing record.
	// Returns apperr.ErrNotFound when no record exists for the identity.
	UpdateApprovalStatus(ctx context.Context, identity string, status ApprovalStatus) error

	// ListUsers returns the administrator snapshot: every approval record
	// joined with its profile name, newest request first.
	ListUsers(ctx context.Context) ([]*UserSummary, error)

	// GetRole returns the stored role binding for an identity. Identities
	// without a binding are guests.
	GetRole(ctx context.Context, identity string) (Role, error)

	// AssignRole upserts a role binding. When the change would demote the
	// last remaining administrator it fails without mutating anything.
	AssignRole(ctx context.Context, identity string, role Role) error

	// EnsureMemberRole upserts a "user" binding unless the identity already
	// holds a stored role. Used when an approval is granted.
	EnsureMemberRole(ctx context.Context, identity string) error

	// GrantAdmin binds the admin role to an identity unconditionally.
	GrantAdmin(ctx context.Context, identity string) error

	// Reset wipes profiles, approvals, modules, and non-admin role bindings.
	// Admin role bindings survive so the system never locks itself out.
	Reset(ctx context.Context) error
}
