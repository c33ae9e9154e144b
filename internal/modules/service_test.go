// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package modules_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquang/staffdesk/internal/modules"
	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/dberr"
)

// fakeRepository is an in-memory [modules.Repository].
type fakeRepository struct {
	byID map[string]*modules.CustomModule
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]*modules.CustomModule)}
}

func (f *fakeRepository) List(_ context.Context) ([]*modules.ModuleSummary, error) {
	summaries := make([]*modules.ModuleSummary, 0, len(f.byID))
	for _, module := range f.byID {
		summaries = append(summaries, &modules.ModuleSummary{
			ModuleID:    module.ModuleID,
			Title:       module.Title,
			ContentType: module.ContentType,
			CreatedAt:   module.CreatedAt,
		})
	}
	return summaries, nil
}

func (f *fakeRepository) Find(_ context.Context, moduleID string) (*modules.CustomModule, error) {
	module, ok := f.byID[moduleID]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *module
	return &clone, nil
}

func (f *fakeRepository) Create(_ context.Context, module *modules.CustomModule) error {
	if _, exists := f.byID[module.ModuleID]; exists {
		return apperr.Conflict("A module with this title already exists")
	}
	module.CreatedAt = time.Now()
	module.UpdatedAt = module.CreatedAt
	clone := *module
	f.byID[module.ModuleID] = &clone
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, moduleID string) error {
	if _, exists := f.byID[moduleID]; !exists {
		return apperr.NotFound("Module")
	}
	delete(f.byID, moduleID)
	return nil
}

func newTestService(repo *fakeRepository) *modules.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return modules.NewService(repo, logger)
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

/*
TestCreate_DerivesModuleID verifies that the module ID is slugified from the
title, accents and punctuation included.
*/
func TestCreate_DerivesModuleID(t *testing.T) {
	service := newTestService(newFakeRepository())

	module, err := service.Create(context.Background(), "Café Menu — Q3!", "image/png", pngBytes)
	require.NoError(t, err)

	assert.Equal(t, "cafe-menu-q3", module.ModuleID)
	assert.Equal(t, "Café Menu — Q3!", module.Title)
}

/*
TestCreate_DuplicateTitleConflicts verifies that two titles collapsing to
the same module ID cannot coexist: the second create fails with CONFLICT
and the first module is untouched.
*/
func TestCreate_DuplicateTitleConflicts(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo)

	first, err := service.Create(context.Background(), "Team Wiki", "image/png", pngBytes)
	require.NoError(t, err)

	// Different title text, same slug.
	_, err = service.Create(context.Background(), "team   WIKI", "image/png", pngBytes)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// The original survives unchanged.
	survivor, err := service.Get(context.Background(), first.ModuleID)
	require.NoError(t, err)
	assert.Equal(t, "Team Wiki", survivor.Title)
}

/*
TestCreate_Validation verifies rejection of unsupported formats, empty
images, oversized images, and titles that slugify to nothing.
*/
func TestCreate_Validation(t *testing.T) {
	service := newTestService(newFakeRepository())

	t.Run("unsupported content type", func(t *testing.T) {
		_, err := service.Create(context.Background(), "Tile", "application/pdf", pngBytes)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := service.Create(context.Background(), "Tile", "image/png", nil)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("oversized image", func(t *testing.T) {
		_, err := service.Create(context.Background(), "Tile", "image/png", make([]byte, 3<<20))
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("punctuation-only title", func(t *testing.T) {
		_, err := service.Create(context.Background(), "!!! ---", "image/png", pngBytes)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestDelete verifies removal and the NOT_FOUND path.
*/
func TestDelete(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo)

	module, err := service.Create(context.Background(), "Old Tile", "image/png", pngBytes)
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), module.ModuleID))

	err = service.Delete(context.Background(), module.ModuleID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
