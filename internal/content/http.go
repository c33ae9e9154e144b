// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tranquang/staffdesk/internal/platform/request"
	"github.com/tranquang/staffdesk/internal/platform/respond"
	"github.com/tranquang/staffdesk/internal/platform/validate"
)

// Handler implements the HTTP layer for published content.
type Handler struct {
	contentService  *Service
	requireApproved func(http.Handler) http.Handler
	requireAdmin    func(http.Handler) http.Handler
}

// NewHandler constructs a new content [Handler].
//
// Reads are gated on approval; writes are gated on the admin role.
func NewHandler(service *Service, requireApproved, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		contentService:  service,
		requireApproved: requireApproved,
		requireAdmin:    requireAdmin,
	}
}

// Routes returns a [chi.Router] configured with the content endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(member chi.Router) {
		member.Use(handler.requireApproved)
		member.Get("/{key}", handler.getEntry)
	})

	router.Group(func(admin chi.Router) {
		admin.Use(handler.requireAdmin)
		admin.Put("/{key}", handler.publishEntry)
	})

	return router
}

/*
GET /api/v1/content/{key}.

Description: Reads the published value under a key. A key with nothing
published returns 404; clients render their empty state on it.

Response:
  - 200: Entry
  - 403: ErrForbidden: Access has not been approved
  - 404: ErrNotFound: Nothing published under this key
*/
func (handler *Handler) getEntry(writer http.ResponseWriter, request *http.Request) {
	key := requestutil.Param(request, FieldKey)

	entry, err := handler.contentService.Get(request.Context(), key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}

// publishInput defines the expected JSON payload for publishes.
type publishInput struct {
	Value string `json:"value"`
}

/*
PUT /api/v1/content/{key}.

Description: Publishes (or overwrites) the value under a key.

Request:
  - key: string
  - body: publishInput

Response:
  - 200: Entry: The persisted entry
  - 400: Validation: Value too large
  - 403: ErrForbidden: Administrator access required
*/
func (handler *Handler) publishEntry(writer http.ResponseWriter, request *http.Request) {
	key := requestutil.Param(request, FieldKey)

	var input publishInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldKey, key).MaxLen(FieldValue, input.Value, MaxValueLength)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.contentService.Publish(request.Context(), key, input.Value)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}
