// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package access

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/constants"
	"github.com/tranquang/staffdesk/internal/platform/dberr"
	"github.com/tranquang/staffdesk/internal/platform/sec"
)

// # Service Layer

// ContentResetter wipes the key/value content store during a portal reset.
// Implemented by the content domain's Redis store.
type ContentResetter interface {
	ClearAll(ctx context.Context) error
}

// Service implements the access-approval workflow on top of [Repository].
//
// It also satisfies middleware.AccessChecker, making the database — not
// token claims — the source of truth for authorization.
type Service struct {
	repo          Repository
	content       ContentResetter
	bootstrapHash string
	logger        *slog.Logger
}

// NewService wires the access service.
//
// # Parameters
//   - repo: Persistence for approvals and role bindings.
//   - content: Content store to wipe on reset. May be nil in tests.
//   - bootstrapHash: bcrypt hash guarding the admin bootstrap. Empty disables it.
//   - logger: Structured logger.
func NewService(repo Repository, content ContentResetter, bootstrapHash string, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		content:       content,
		bootstrapHash: bootstrapHash,
		logger:        logger,
	}
}

// # Caller Operations

// RequestApproval submits (or re-submits) an access request for an identity.
//
// # Flow
//  1. No record yet → create one in pending with a fresh four-char code.
//  2. Pending record → idempotent: return the existing receipt unchanged.
//  3. Rejected record → reopen as pending, refresh the name, keep the code.
//  4. Approved record → conflict; there is nothing left to request.
func (s *Service) RequestApproval(ctx context.Context, identity string, name string) (*RequestReceipt, error) {
	existing, err := s.repo.FindApproval(ctx, identity)
	switch {
	case err == nil:
		switch existing.Status {
		case StatusPending:
			return receiptOf(existing), nil
		case StatusApproved:
			return nil, apperr.Conflict("Access has already been approved")
		case StatusRejected:
			reopened, reopenErr := s.repo.ReopenApproval(ctx, identity, name)
			if reopenErr != nil {
				return nil, reopenErr
			}
			s.logger.Info("access_request_reopened", slog.String("identity", identity))
			return receiptOf(reopened), nil
		default:
			return nil, apperr.Internal(fmt.Errorf("access: unknown status %q", existing.Status))
		}

	case apperr.As(err) == dberr.ErrNotFound:
		return s.createRequest(ctx, identity, name)

	default:
		return nil, err
	}
}

// createRequest inserts a new pending record, retrying four-char code
// collisions. A concurrent duplicate insert for the same identity resolves
// idempotently by re-reading the winner's record.
func (s *Service) createRequest(ctx context.Context, identity string, name string) (*RequestReceipt, error) {
	const maxCodeAttempts = 5

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateFourCharID()
		if err != nil {
			return nil, apperr.Internal(err)
		}

		record := &ApprovalRecord{
			Identity:   identity,
			Status:     StatusPending,
			Name:       name,
			FourCharID: code,
		}
		createErr := s.repo.CreateApproval(ctx, record)
		if createErr == nil {
			s.logger.Info("access_request_created",
				slog.String("identity", identity),
				slog.String("four_char_id", code),
			)
			return receiptOf(record), nil
		}

		appErr := apperr.As(createErr)
		if appErr == nil || appErr.Code != "CONFLICT" {
			return nil, createErr
		}

		// Conflict: either the identity raced itself, or the generated
		// code collided with another identity's. Re-read decides which.
		winner, findErr := s.repo.FindApproval(ctx, identity)
		if findErr == nil {
			return receiptOf(winner), nil
		}
	}

	return nil, apperr.Internal(fmt.Errorf("access: exhausted four-char code attempts for %s", identity))
}

// ApprovalFor returns the full approval record for an identity.
func (s *Service) ApprovalFor(ctx context.Context, identity string) (*ApprovalRecord, error) {
	return s.repo.FindApproval(ctx, identity)
}

// IsApproved implements middleware.AccessChecker.
//
// Administrators pass regardless of their approval record so a reset (which
// wipes approvals but keeps admin bindings) never locks them out.
func (s *Service) IsApproved(ctx context.Context, identity string) (bool, error) {
	record, err := s.repo.FindApproval(ctx, identity)
	if err == nil && record.Status == StatusApproved {
		return true, nil
	}
	if err != nil && apperr.As(err) != dberr.ErrNotFound {
		return false, err
	}

	role, err := s.repo.GetRole(ctx, identity)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}

// IsAdmin implements middleware.AccessChecker.
func (s *Service) IsAdmin(ctx context.Context, identity string) (bool, error) {
	role, err := s.repo.GetRole(ctx, identity)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}

// RoleOf returns the effective role for an identity (guest when unbound).
func (s *Service) RoleOf(ctx context.Context, identity string) (Role, error) {
	return s.repo.GetRole(ctx, identity)
}

// # Administrator Operations

// ListUsers returns the full administrator snapshot.
func (s *Service) ListUsers(ctx context.Context) ([]*UserSummary, error) {
	return s.repo.ListUsers(ctx)
}

// SetApproval overwrites an identity's approval status.
//
// Granting approval also promotes a guest to the member role; existing
// admin bindings are never downgraded by this path.
func (s *Service) SetApproval(ctx context.Context, identity string, status ApprovalStatus) error {
	if !status.Valid() {
		return apperr.ValidationError("Invalid approval status", apperr.FieldError{
			Field:   FieldStatus,
			Message: "must be one of: pending, approved, rejected",
		})
	}

	if err := s.repo.UpdateApprovalStatus(ctx, identity, status); err != nil {
		return err
	}

	if status == StatusApproved {
		if err := s.repo.EnsureMemberRole(ctx, identity); err != nil {
			return err
		}
	}

	s.logger.Info("access_approval_updated",
		slog.String("identity", identity),
		slog.String("status", string(status)),
	)
	return nil
}

// AssignRole changes an identity's role binding.
//
// The repository refuses demotions that would leave the portal with zero
// administrators.
func (s *Service) AssignRole(ctx context.Context, identity string, role Role) error {
	if !role.Valid() {
		return apperr.ValidationError("Invalid role", apperr.FieldError{
			Field:   FieldRole,
			Message: "must be one of: admin, user, guest",
		})
	}

	if err := s.repo.AssignRole(ctx, identity, role); err != nil {
		return err
	}

	s.logger.Info("access_role_assigned",
		slog.String("identity", identity),
		slog.String("role", string(role)),
	)
	return nil
}

// Bootstrap promotes the caller to administrator when the presented token
// matches the configured bcrypt hash. Used once per deployment to satisfy
// the "at least one admin" floor before any admin exists.
func (s *Service) Bootstrap(ctx context.Context, identity string, token string) error {
	if s.bootstrapHash == "" {
		return apperr.Forbidden("Administrator bootstrap is disabled")
	}
	if !sec.CheckBootstrapToken(token, s.bootstrapHash) {
		return apperr.Unauthorized("Invalid bootstrap token")
	}

	if err := s.repo.GrantAdmin(ctx, identity); err != nil {
		return err
	}

	s.logger.Warn("access_admin_bootstrapped", slog.String("identity", identity))
	return nil
}

// Reset wipes all portal state except admin role bindings.
//
// The relational wipe and the content-store wipe are separate systems; the
// relational transaction commits first, then the content store is cleared.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return err
	}

	if s.content != nil {
		if err := s.content.ClearAll(ctx); err != nil {
			// Relational state is already wiped; stale announcements are
			// recoverable by an admin re-publish, so report but proceed.
			s.logger.Error("access_reset_content_wipe_failed", slog.Any("error", err))
			return err
		}
	}

	s.logger.Warn("access_portal_reset")
	return nil
}

// # Helpers

func receiptOf(record *ApprovalRecord) *RequestReceipt {
	return &RequestReceipt{Name: record.Name, FourCharID: record.FourCharID}
}

// generateFourCharID produces a short human-readable disambiguation code
// from a crypto-grade source.
func generateFourCharID() (string, error) {
	alphabet := constants.FourCharIDAlphabet
	buffer := make([]byte, constants.FourCharIDLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("access: reading random bytes: %w", err)
	}
	for i, b := range buffer {
		buffer[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buffer), nil
}
