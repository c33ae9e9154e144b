// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

/*
Package client is the Go client library for the Staffdesk portal API.

It layers three concerns:

  - Client: a thin typed wrapper over the wire protocol.
  - ReceiptStore, Cache, Poller: local state that survives between calls —
    the pending-request receipt, cached query results, and background
    refresh.
  - Workflow, Console: the decision logic a portal frontend needs, kept
    here so every frontend agrees on it.

The server remains authoritative for everything; local state only ever
optimizes presentation and is discarded whenever the server disagrees.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// # Errors

// Sentinel errors for the well-known API failure classes. Wrapped inside
// [*APIError], so both errors.Is and type assertion work.
var (
	ErrUnauthorized = errors.New("staffdesk: unauthorized")
	ErrForbidden    = errors.New("staffdesk: forbidden")
	ErrNotFound     = errors.New("staffdesk: not found")
	ErrConflict     = errors.New("staffdesk: conflict")

	// ErrUnavailable covers every failure class the client does not
	// recognize. Its message is always the generic one below, never the
	// server's diagnostic text.
	ErrUnavailable = errors.New("staffdesk: service unavailable")
)

// genericFailureMessage is what callers may show the user for an
// unrecognized failure. Backend diagnostics stay in the logs.
const genericFailureMessage = "Something went wrong. Please try again or contact support."

// APIError carries the server's error envelope. Failure classes the client
// does not recognize degrade to [ErrUnavailable] with a generic message,
// so new server-side codes neither break callers nor leak diagnostics.
type APIError struct {
	Status  int
	Code    string
	Message string

	sentinel error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("staffdesk: api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes the matched sentinel to errors.Is.
func (e *APIError) Unwrap() error { return e.sentinel }

// # Wire Types

// Receipt is the server's acknowledgement of a pending access request.
type Receipt struct {
	Name       string `json:"name"`
	FourCharID string `json:"four_char_id"`
}

// UserSummary is one row of the administrator snapshot.
type UserSummary struct {
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	FourCharID string `json:"four_char_id"`
	Status     string `json:"status"`
}

// Profile is the caller's self-managed profile.
type Profile struct {
	Identity  string    `json:"identity"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentEntry is one published content value.
type ContentEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModuleSummary is one custom module without image bytes.
type ModuleSummary struct {
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Approval status and role values mirrored from the server.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// AnnouncementKey is the well-known content key for the portal banner.
const AnnouncementKey = "global_announcement"

// # Client

// Client is a typed HTTP client for the portal API.
//
// # Concurrency
//
// Client is safe for concurrent use. The identity token is fixed at
// construction; build a new Client per signed-in identity.
type Client struct {
	baseURL    string
	token      string
	identity   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a [Client].
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithIdentity records the caller's opaque principal. The client never
// sends it — the server derives identity from the token — but local state
// (the receipt store) is scoped by it.
func WithIdentity(identity string) Option {
	return func(c *Client) { c.identity = identity }
}

// WithHTTPClient replaces the underlying [*http.Client].
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New constructs a portal API client for the given base URL
// (e.g. "https://portal.staffdesk.app").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Identity returns the caller principal this client was configured with.
func (c *Client) Identity() string { return c.identity }

// # Access Workflow Calls

// RequestAccess submits an access request and returns the server receipt.
func (c *Client) RequestAccess(ctx context.Context, name string) (*Receipt, error) {
	receipt := &Receipt{}
	err := c.do(ctx, http.MethodPost, "/api/v1/access/request", map[string]string{"name": name}, receipt)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Approved reports whether the caller passes the portal access gate.
func (c *Client) Approved(ctx context.Context) (bool, error) {
	var out struct {
		Approved bool `json:"approved"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/access/approved", nil, &out); err != nil {
		return false, err
	}
	return out.Approved, nil
}

// Admin reports whether the caller holds the admin role.
func (c *Client) Admin(ctx context.Context) (bool, error) {
	var out struct {
		Admin bool `json:"admin"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/access/admin", nil, &out); err != nil {
		return false, err
	}
	return out.Admin, nil
}

// Bootstrap presents the deployment's bootstrap secret to claim the first
// administrator role.
func (c *Client) Bootstrap(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/access/bootstrap", map[string]string{"token": token}, nil)
}

// # Console Calls

// ListUsers fetches the administrator snapshot.
func (c *Client) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users := make([]UserSummary, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/access/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetApproval records an administrator decision on an identity.
func (c *Client) SetApproval(ctx context.Context, identity string, status string) error {
	path := "/api/v1/access/users/" + identity + "/approval"
	return c.do(ctx, http.MethodPut, path, map[string]string{"status": status}, nil)
}

// GetRole reads an identity's current role from the server.
func (c *Client) GetRole(ctx context.Context, identity string) (string, error) {
	var out struct {
		Identity string `json:"identity"`
		Role     string `json:"role"`
	}
	path := "/api/v1/access/users/" + identity + "/role"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

// AssignRole overwrites an identity's role binding.
func (c *Client) AssignRole(ctx context.Context, identity string, role string) error {
	path := "/api/v1/access/users/" + identity + "/role"
	return c.do(ctx, http.MethodPut, path, map[string]string{"role": role}, nil)
}

// Reset wipes all portal state except admin bindings.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/access/reset", nil, nil)
}

// # Profile Calls

// SaveProfile creates or overwrites the caller's profile.
func (c *Client) SaveProfile(ctx context.Context, name string) (*Profile, error) {
	profile := &Profile{}
	if err := c.do(ctx, http.MethodPut, "/api/v1/profile", map[string]string{"name": name}, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile fetches the caller's own profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	profile := &Profile{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// # Content Calls

// GetContent reads the published value under a key. Returns [ErrNotFound]
// when nothing is published; callers render their empty state on it.
func (c *Client) GetContent(ctx context.Context, key string) (*ContentEntry, error) {
	entry := &ContentEntry{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/content/"+key, nil, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// PublishContent overwrites the value under a key.
func (c *Client) PublishContent(ctx context.Context, key string, value string) (*ContentEntry, error) {
	entry := &ContentEntry{}
	if err := c.do(ctx, http.MethodPut, "/api/v1/content/"+key, map[string]string{"value": value}, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// # Module Calls

// ListModules fetches every custom module without image payloads.
func (c *Client) ListModules(ctx context.Context) ([]ModuleSummary, error) {
	summaries := make([]ModuleSummary, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/modules", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// CreateModule uploads a new custom module tile.
func (c *Client) CreateModule(ctx context.Context, title string, contentType string, image []byte) (*ModuleSummary, error) {
	summary := &ModuleSummary{}
	body := map[string]any{
		"title":        title,
		"content_type": contentType,
		"image":        image,
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/modules", body, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// DeleteModule removes a custom module.
func (c *Client) DeleteModule(ctx context.Context, moduleID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/modules/"+moduleID, nil, nil)
}

// GetModuleImage downloads a module's image. Unlike the other endpoints
// the server replies with the raw bytes, not a JSON envelope; the content
// type comes back alongside them.
func (c *Client) GetModuleImage(ctx context.Context, moduleID string) (image []byte, contentType string, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/modules/"+moduleID+"/image", nil)
	if err != nil {
		return nil, "", fmt.Errorf("staffdesk: building request: %w", err)
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("staffdesk: GET module image: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 400 {
		return nil, "", c.classifyError(response)
	}

	image, err = io.ReadAll(response.Body)
	if err != nil {
		return nil, "", fmt.Errorf("staffdesk: reading image body: %w", err)
	}
	return image, response.Header.Get("Content-Type"), nil
}

// # Transport

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do executes one API call: marshal body, attach auth, classify failures,
// and unwrap the success envelope into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("staffdesk: encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("staffdesk: building request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("staffdesk: %s %s: %w", method, path, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 400 {
		return c.classifyError(response)
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope successEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("staffdesk: decoding response envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("staffdesk: decoding response data: %w", err)
	}
	return nil
}

// classifyError maps an HTTP failure to an [*APIError] carrying the right
// sentinel.
func (c *Client) classifyError(response *http.Response) error {
	var envelope errorEnvelope
	// Body may not be the standard envelope (proxies, panics); keep going
	// with whatever decoded.
	_ = json.NewDecoder(io.LimitReader(response.Body, 1<<16)).Decode(&envelope)

	apiErr := &APIError{
		Status:  response.StatusCode,
		Code:    envelope.Code,
		Message: envelope.Error,
	}
	switch response.StatusCode {
	case http.StatusUnauthorized:
		apiErr.sentinel = ErrUnauthorized
	case http.StatusForbidden:
		apiErr.sentinel = ErrForbidden
	case http.StatusNotFound:
		apiErr.sentinel = ErrNotFound
	case http.StatusConflict:
		apiErr.sentinel = ErrConflict
	default:
		// Unrecognized class. The machine code survives for logging; the
		// user-facing message is replaced wholesale.
		c.logger.Warn("api_unrecognized_failure",
			slog.Int("status", response.StatusCode),
			slog.String("code", envelope.Code),
			slog.String("error", envelope.Error))
		apiErr.sentinel = ErrUnavailable
		apiErr.Message = genericFailureMessage
	}
	return apiErr
}
