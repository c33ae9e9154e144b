// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package modules

import (
	"context"
	"log/slog"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/constants"
	"github.com/tranquang/staffdesk/pkg/slug"
)

// allowedContentTypes are the image formats accepted for module tiles.
var allowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// Service implements the custom-module domain logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService wires the modules service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns every module without image bytes.
func (s *Service) List(ctx context.Context) ([]*ModuleSummary, error) {
	return s.repo.List(ctx)
}

// Get returns a full module including image bytes.
func (s *Service) Get(ctx context.Context, moduleID string) (*CustomModule, error) {
	return s.repo.Find(ctx, moduleID)
}

// Create derives the module ID from the title and persists the module.
//
// # Edge Cases
//
//   - Titles that slugify to nothing (all punctuation) are rejected.
//   - Two titles collapsing to the same slug conflict; the second create
//     fails rather than silently overwriting the first.
func (s *Service) Create(ctx context.Context, title string, contentType string, image []byte) (*CustomModule, error) {
	if !allowedContentTypes[contentType] {
		return nil, apperr.ValidationError("Unsupported image format", apperr.FieldError{
			Field:   FieldContentType,
			Message: "must be one of: image/png, image/jpeg, image/webp, image/gif",
		})
	}
	if len(image) == 0 {
		return nil, apperr.ValidationError("Image payload is empty", apperr.FieldError{
			Field:   FieldImage,
			Message: "This field is required",
		})
	}
	if len(image) > constants.MaxModuleImageBytes {
		return nil, apperr.ValidationError("Image payload too large", apperr.FieldError{
			Field:   FieldImage,
			Message: "Image exceeds the maximum allowed size",
		})
	}

	moduleID := slug.FromClamped(title, MaxModuleIDLength)
	if moduleID == "" {
		return nil, apperr.ValidationError("Title yields an empty module ID", apperr.FieldError{
			Field:   FieldTitle,
			Message: "Title must contain letters or digits",
		})
	}

	module := &CustomModule{
		ModuleID:    moduleID,
		Title:       title,
		ContentType: contentType,
		Image:       image,
	}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, err
	}

	s.logger.Info("module_created",
		slog.String("module_id", moduleID),
		slog.Int("image_bytes", len(image)),
	)
	return module, nil
}

// Delete removes a module by ID.
func (s *Service) Delete(ctx context.Context, moduleID string) error {
	if err := s.repo.Delete(ctx, moduleID); err != nil {
		return err
	}

	s.logger.Info("module_deleted", slog.String("module_id", moduleID))
	return nil
}
