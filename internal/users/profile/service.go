// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package profile

import (
	"context"
	"log/slog"
)

// Service implements the profile domain logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService wires the profile service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the profile for an identity.
func (s *Service) Get(ctx context.Context, identity string) (*UserProfile, error) {
	return s.repo.Find(ctx, identity)
}

// Save creates or overwrites the caller's profile.
func (s *Service) Save(ctx context.Context, identity string, name string) (*UserProfile, error) {
	record, err := s.repo.Upsert(ctx, identity, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile_saved", slog.String("identity", identity))
	return record, nil
}
