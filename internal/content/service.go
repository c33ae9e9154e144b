// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package content

import (
	"context"
	"log/slog"
)

// Service implements the content domain logic.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService wires the content service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Get returns the published entry under a key. Callers treat NOT_FOUND as
// "nothing published", not as a failure.
func (s *Service) Get(ctx context.Context, key string) (*Entry, error) {
	return s.store.Get(ctx, key)
}

// Publish overwrites the value under a key.
func (s *Service) Publish(ctx context.Context, key string, value string) (*Entry, error) {
	entry, err := s.store.Set(ctx, key, value)
	if err != nil {
		return nil, err
	}

	s.logger.Info("content_published",
		slog.String("key", key),
		slog.Int("value_len", len(value)),
	)
	return entry, nil
}

// ClearAll wipes every published entry. Exposed for the portal reset.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}
