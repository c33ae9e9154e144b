// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package profile

import "context"

// Repository defines the persistence operations for user profiles.
type Repository interface {
	// Find returns the profile for an identity, or apperr.ErrNotFound.
	Find(ctx context.Context, identity string) (*UserProfile, error)

	// Upsert creates the profile on first save and overwrites the name on
	// subsequent saves.
	Upsert(ctx context.Context, identity string, name string) (*UserProfile, error)
}
