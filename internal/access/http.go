// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/tranquang/staffdesk/internal/platform/request"
	"github.com/tranquang/staffdesk/internal/platform/respond"
	"github.com/tranquang/staffdesk/internal/platform/validate"
)

// MaxDisplayNameLength bounds the name submitted with an access request.
const MaxDisplayNameLength = 80

// Handler implements the HTTP layer for the access-approval workflow.
type Handler struct {
	accessService *Service
	requireAdmin  func(http.Handler) http.Handler
}

// NewHandler constructs a new access [Handler].
//
// # Parameters
//   - service: The access domain service.
//   - requireAdmin: Middleware guarding the administrator console endpoints.
func NewHandler(service *Service, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{accessService: service, requireAdmin: requireAdmin}
}

// Routes returns a [chi.Router] configured with the access domain's endpoints.
//
// All routes assume the caller is already authenticated (RequireAuth is
// mounted by the API composition layer).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Caller-facing workflow
	router.Post("/request", handler.requestApproval)
	router.Get("/approved", handler.getApproved)
	router.Get("/admin", handler.getAdmin)
	router.Post("/bootstrap", handler.bootstrap)

	// Administrator console
	router.Group(func(admin chi.Router) {
		admin.Use(handler.requireAdmin)
		admin.Get("/users", handler.listUsers)
		admin.Put("/users/{identity}/approval", handler.setApproval)
		admin.Get("/users/{identity}/role", handler.getRole)
		admin.Put("/users/{identity}/role", handler.assignRole)
		admin.Post("/reset", handler.reset)
	})

	return router
}

// # Caller Endpoints

// requestApprovalInput defines the expected JSON payload for access requests.
type requestApprovalInput struct {
	Name string `json:"name"`
}

/*
POST /api/v1/access/request.

Description: Submits (or idempotently re-submits) an access request for the
authenticated caller. The response echoes the server-authoritative display
name and four-char code.

Request:
  - body: requestApprovalInput

Response:
  - 200: RequestReceipt: The pending request receipt
  - 400: Validation: Missing or oversized name
  - 401: ErrUnauthorized: Authentication required
  - 409: Conflict: Access already approved
*/
func (handler *Handler) requestApproval(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input requestApprovalInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, MaxDisplayNameLength)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	receipt, err := handler.accessService.RequestApproval(request.Context(), identity, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, receipt)
}

// approvedResponse reports the caller's approval gate.
type approvedResponse struct {
	Approved bool `json:"approved"`
}

/*
GET /api/v1/access/approved.

Description: Reports whether the authenticated caller currently passes the
portal access gate. Administrators pass implicitly.

Response:
  - 200: approvedResponse
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getApproved(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	approved, err := handler.accessService.IsApproved(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, approvedResponse{Approved: approved})
}

// adminResponse reports the caller's administrator standing.
type adminResponse struct {
	Admin bool `json:"admin"`
}

/*
GET /api/v1/access/admin.

Description: Reports whether the authenticated caller holds the admin role.

Response:
  - 200: adminResponse
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getAdmin(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	isAdmin, err := handler.accessService.IsAdmin(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, adminResponse{Admin: isAdmin})
}

// bootstrapInput carries the operator-issued bootstrap secret.
type bootstrapInput struct {
	Token string `json:"token"`
}

/*
POST /api/v1/access/bootstrap.

Description: Promotes the authenticated caller to administrator when the
presented secret matches the deployment's configured bootstrap hash. Used
once to seed the first administrator.

Request:
  - body: bootstrapInput

Response:
  - 204: No Content: Caller is now an administrator
  - 401: ErrUnauthorized: Wrong secret or unauthenticated
  - 403: ErrForbidden: Bootstrap disabled on this deployment
*/
func (handler *Handler) bootstrap(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input bootstrapInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accessService.Bootstrap(request.Context(), identity, input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administrator Endpoints

/*
GET /api/v1/access/users.

Description: Returns the administrator snapshot of every access request,
newest first, with display names and four-char codes for disambiguation.

Response:
  - 200: []UserSummary
  - 403: ErrForbidden: Administrator access required
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.accessService.ListUsers(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

// setApprovalInput carries the administrator's decision.
type setApprovalInput struct {
	Status ApprovalStatus `json:"status"`
}

/*
PUT /api/v1/access/users/{identity}/approval.

Description: Overwrites the approval status of the target identity.
Granting approval promotes guests to the member role.

Request:
  - identity: string (opaque principal)
  - body: setApprovalInput

Response:
  - 204: No Content: Decision recorded
  - 400: Validation: Unknown status value
  - 403: ErrForbidden: Administrator access required
  - 404: ErrNotFound: Identity never requested access
*/
func (handler *Handler) setApproval(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Param(request, FieldIdentity)

	var input setApprovalInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accessService.SetApproval(request.Context(), identity, input.Status); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// roleResponse reports the stored role binding for an identity.
type roleResponse struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

/*
GET /api/v1/access/users/{identity}/role.

Description: Returns the target identity's effective role. Identities
without a stored binding are guests.

Response:
  - 200: roleResponse
  - 403: ErrForbidden: Administrator access required
*/
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Param(request, FieldIdentity)

	role, err := handler.accessService.RoleOf(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roleResponse{Identity: identity, Role: role})
}

// assignRoleInput carries the administrator's role change.
type assignRoleInput struct {
	Role Role `json:"role"`
}

/*
PUT /api/v1/access/users/{identity}/role.

Description: Overwrites the target identity's role binding. Demoting the
last remaining administrator is refused.

Request:
  - identity: string (opaque principal)
  - body: assignRoleInput

Response:
  - 204: No Content: Role updated
  - 400: Validation: Unknown role value
  - 403: ErrForbidden: Administrator access required
  - 409: Conflict: Would remove the last administrator
*/
func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Param(request, FieldIdentity)

	var input assignRoleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accessService.AssignRole(request.Context(), identity, input.Role); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/access/reset.

Description: Wipes all portal state — profiles, approvals, modules, content,
and non-admin role bindings. Admin bindings survive so the portal is never
left without an administrator.

Response:
  - 204: No Content: Portal reset
  - 403: ErrForbidden: Administrator access required
*/
func (handler *Handler) reset(writer http.ResponseWriter, request *http.Request) {
	if err := handler.accessService.Reset(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
