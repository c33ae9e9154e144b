// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package modules

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tranquang/staffdesk/internal/platform/request"
	"github.com/tranquang/staffdesk/internal/platform/respond"
	"github.com/tranquang/staffdesk/internal/platform/validate"
)

// Handler implements the HTTP layer for custom modules.
type Handler struct {
	moduleService   *Service
	requireApproved func(http.Handler) http.Handler
	requireAdmin    func(http.Handler) http.Handler
}

// NewHandler constructs a new modules [Handler].
func NewHandler(service *Service, requireApproved, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		moduleService:   service,
		requireApproved: requireApproved,
		requireAdmin:    requireAdmin,
	}
}

// Routes returns a [chi.Router] configured with the module endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(member chi.Router) {
		member.Use(handler.requireApproved)
		member.Get("/", handler.listModules)
		member.Get("/{moduleID}", handler.getModule)
		member.Get("/{moduleID}/image", handler.getModuleImage)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(handler.requireAdmin)
		admin.Post("/", handler.createModule)
		admin.Delete("/{moduleID}", handler.deleteModule)
	})

	return router
}

/*
GET /api/v1/modules.

Description: Lists every custom module without image payloads.

Response:
  - 200: []ModuleSummary
  - 403: ErrForbidden: Access has not been approved
*/
func (handler *Handler) listModules(writer http.ResponseWriter, request *http.Request) {
	summaries, err := handler.moduleService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summaries)
}

/*
GET /api/v1/modules/{moduleID}.

Description: Returns a single module's metadata.

Response:
  - 200: CustomModule (metadata only; image served separately)
  - 404: ErrNotFound: Unknown module ID
*/
func (handler *Handler) getModule(writer http.ResponseWriter, request *http.Request) {
	moduleID := requestutil.Param(request, "moduleID")

	module, err := handler.moduleService.Get(request.Context(), moduleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, module)
}

/*
GET /api/v1/modules/{moduleID}/image.

Description: Serves the module's tile image as raw bytes with its stored
content type.

Response:
  - 200: image bytes
  - 404: ErrNotFound: Unknown module ID
*/
func (handler *Handler) getModuleImage(writer http.ResponseWriter, request *http.Request) {
	moduleID := requestutil.Param(request, "moduleID")

	module, err := handler.moduleService.Get(request.Context(), moduleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", module.ContentType)
	writer.Header().Set("Content-Length", strconv.Itoa(len(module.Image)))
	// Module IDs are immutable, so tiles can be cached aggressively.
	writer.Header().Set("Cache-Control", "public, max-age=86400")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(module.Image)
}

// createModuleInput defines the expected JSON payload for module creation.
// Image bytes travel base64-encoded per encoding/json's []byte convention.
type createModuleInput struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
}

/*
POST /api/v1/modules.

Description: Creates a custom module. The module ID is derived from the
title server-side; a title colliding with an existing module's ID conflicts.

Request:
  - body: createModuleInput

Response:
  - 201: CustomModule: The created module (metadata)
  - 400: Validation: Bad title, format, or oversized image
  - 403: ErrForbidden: Administrator access required
  - 409: Conflict: Module ID already taken
*/
func (handler *Handler) createModule(writer http.ResponseWriter, request *http.Request) {
	var input createModuleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, MaxTitleLength).
		Required(FieldContentType, input.ContentType)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	module, err := handler.moduleService.Create(request.Context(), input.Title, input.ContentType, input.Image)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, module)
}

/*
DELETE /api/v1/modules/{moduleID}.

Description: Removes a custom module.

Response:
  - 204: No Content: Module removed
  - 403: ErrForbidden: Administrator access required
  - 404: ErrNotFound: Unknown module ID
*/
func (handler *Handler) deleteModule(writer http.ResponseWriter, request *http.Request) {
	moduleID := requestutil.Param(request, "moduleID")

	if err := handler.moduleService.Delete(request.Context(), moduleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
