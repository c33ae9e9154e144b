// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package modules

import "context"

// Repository defines the persistence operations for custom modules.
type Repository interface {
	// List returns every module, oldest first, without image bytes.
	List(ctx context.Context) ([]*ModuleSummary, error)

	// Find returns a full module including its image bytes, or
	// apperr.ErrNotFound.
	Find(ctx context.Context, moduleID string) (*CustomModule, error)

	// Create inserts a new module. Returns a conflict error when a module
	// with the same ID already exists.
	Create(ctx context.Context, module *CustomModule) error

	// Delete removes a module. Returns apperr.ErrNotFound when absent.
	Delete(ctx context.Context, moduleID string) error
}
