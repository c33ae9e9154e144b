// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tranquang/staffdesk/internal/platform/apperr"
	"github.com/tranquang/staffdesk/internal/platform/ctxutil"
	"github.com/tranquang/staffdesk/internal/platform/respond"
	"github.com/tranquang/staffdesk/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify identity tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec` token
// service implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// AccessChecker answers authorization questions about an identity.
//
// # Why the database and not the token?
//
// Roles and approval status are mutated by administrators long after the
// identity provider issued the token, so claims cannot be trusted for
// authorization. The access domain implements this against live storage.
type AccessChecker interface {
	IsAdmin(ctx context.Context, identity string) (bool, error)
	IsApproved(ctx context.Context, identity string) (bool, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithCaller(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetCaller(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks requests whose caller does not hold the admin role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireAuth] so routes don't need to mount both.
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context (implies AuthN).
//  2. Consult the [AccessChecker] for the caller's current role.
//  3. If not an administrator, abort with HTTP 403 Forbidden.
func RequireAdmin(checker AccessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetCaller(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			isAdmin, err := checker.IsAdmin(request.Context(), claims.Principal())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !isAdmin {
				respond.Error(writer, request, apperr.Forbidden("Administrator access required"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireApproved blocks requests whose caller has not been granted portal access.
//
// Administrators pass implicitly: approving an identity promotes its role, and
// the admin bootstrap grants approval alongside the role.
func RequireApproved(checker AccessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetCaller(request.Context())

			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			isApproved, err := checker.IsApproved(request.Context(), claims.Principal())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !isApproved {
				respond.Error(writer, request, apperr.Forbidden("Access has not been approved yet"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
