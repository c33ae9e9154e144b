// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

/*
Package profile manages the self-service user profile of the portal.

A profile is created implicitly the first time an identity saves its display
name (typically alongside the first access request) and is owned entirely by
that identity. Administrators read profiles to resolve display names in the
console.
*/
package profile

import "time"

// UserProfile is the self-managed record for one identity.
type UserProfile struct {
	Identity  string    `json:"identity"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxNameLength bounds the display name.
const MaxNameLength = 80

// Field identifiers for validation and JSON mapping.
const (
	FieldName     = "name"
	FieldIdentity = "identity"
)
