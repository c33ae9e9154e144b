// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

/*
Package access implements the portal's access-approval workflow.

It defines the core domain entities (ApprovalRecord, Role) and the logic
governing a caller's progression from first request to administrator decision.

# Architecture

This layer is the "Truth" of the system. Every consistency guarantee the
clients rely on — at most one approval record per identity, the admin-count
floor, reset survivability of admin bindings — is enforced here and in the
storage layer beneath it, never in a client.
*/
package access

import "time"

// # Domain Entities

// ApprovalStatus is the closed set of approval decisions.
type ApprovalStatus string

const (
	// StatusPending means the request is waiting for an administrator.
	StatusPending ApprovalStatus = "pending"

	// StatusApproved grants access to the portal surface.
	StatusApproved ApprovalStatus = "approved"

	// StatusRejected denies access. A rejected identity may submit again.
	StatusRejected ApprovalStatus = "rejected"
)

// Valid reports whether the status is one of the known decisions.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Role is the authorization level bound to an identity.
type Role string

const (
	// RoleAdmin can mutate approvals, roles, content, and modules.
	RoleAdmin Role = "admin"

	// RoleUser is the default role for an approved identity.
	RoleUser Role = "user"

	// RoleGuest is the implicit role before approval. Guest bindings are
	// never stored; the absence of a role row means guest.
	RoleGuest Role = "guest"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// ApprovalRecord tracks one identity's access request.
//
// # Invariants
//
//   - At most one record exists per identity (primary key).
//   - FourCharID is assigned exactly once, server-side, and never changes —
//     administrators use it to tell apart concurrent requesters with the
//     same display name.
type ApprovalRecord struct {
	Identity   string         `json:"identity"`
	Status     ApprovalStatus `json:"status"`
	Name       string         `json:"name"`
	FourCharID string         `json:"four_char_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// UserSummary is one row of the administrator snapshot.
type UserSummary struct {
	Identity   string         `json:"identity"`
	Name       string         `json:"name"`
	FourCharID string         `json:"four_char_id"`
	Status     ApprovalStatus `json:"status"`
}

// RequestReceipt is returned to a caller who submitted an access request.
// The name and code echo the server-authoritative record, never client input.
type RequestReceipt struct {
	Name       string `json:"name"`
	FourCharID string `json:"four_char_id"`
}

// # Field Identifiers

// Global field names for validation and JSON mapping in the access domain.
const (
	FieldName     = "name"
	FieldStatus   = "status"
	FieldRole     = "role"
	FieldIdentity = "identity"
	FieldToken    = "token"
)
