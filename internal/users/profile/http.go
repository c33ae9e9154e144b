// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tranquang/staffdesk/internal/platform/request"
	"github.com/tranquang/staffdesk/internal/platform/respond"
	"github.com/tranquang/staffdesk/internal/platform/validate"
)

// Handler implements the HTTP layer for user profiles.
type Handler struct {
	profileService *Service
	requireAdmin   func(http.Handler) http.Handler
}

// NewHandler constructs a new profile [Handler].
func NewHandler(service *Service, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{profileService: service, requireAdmin: requireAdmin}
}

// Routes returns a [chi.Router] configured with the profile endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Self-service
	router.Get("/", handler.getOwn)
	router.Put("/", handler.saveOwn)

	// Console lookups
	router.Group(func(admin chi.Router) {
		admin.Use(handler.requireAdmin)
		admin.Get("/{identity}", handler.getByIdentity)
	})

	return router
}

// saveProfileInput defines the expected JSON payload for profile saves.
type saveProfileInput struct {
	Name string `json:"name"`
}

/*
PUT /api/v1/profile.

Description: Creates or overwrites the authenticated caller's profile.

Request:
  - body: saveProfileInput

Response:
  - 200: UserProfile: The persisted profile
  - 400: Validation: Missing or oversized name
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) saveOwn(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input saveProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, MaxNameLength)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.profileService.Save(request.Context(), identity, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/profile.

Description: Retrieves the authenticated caller's own profile.

Response:
  - 200: UserProfile
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: No profile saved yet
*/
func (handler *Handler) getOwn(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.profileService.Get(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/profile/{identity}.

Description: Resolves another identity's profile. Console-only.

Response:
  - 200: UserProfile
  - 403: ErrForbidden: Administrator access required
  - 404: ErrNotFound: No profile for this identity
*/
func (handler *Handler) getByIdentity(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Param(request, FieldIdentity)

	record, err := handler.profileService.Get(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}
