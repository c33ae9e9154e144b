// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquang/staffdesk/client"
)

// # Fake Portal Server

// fakePortal is an in-memory stand-in for the portal API, faithful to its
// envelope format and approval semantics.
type fakePortal struct {
	mu       sync.Mutex
	statuses map[string]string // identity → approval status
	names    map[string]string
	codes    map[string]string // identity → four-char code
	roles    map[string]string
	profiles map[string]string
	content  map[string]string
	modules  map[string]fakeModule
}

type fakeModule struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		statuses: make(map[string]string),
		names:    make(map[string]string),
		codes:    make(map[string]string),
		roles:    make(map[string]string),
		profiles: make(map[string]string),
		content:  make(map[string]string),
		modules:  make(map[string]fakeModule),
	}
}

// identity derives the caller from the bearer token ("tok-<identity>").
func (p *fakePortal) identity(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer tok-")
	if !ok {
		return ""
	}
	return token
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}

func (p *fakePortal) handler() http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if p.identity(req) == "" {
				writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Put("/api/v1/profile", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(req.Body).Decode(&in)
		p.mu.Lock()
		p.profiles[p.identity(req)] = in.Name
		p.mu.Unlock()
		writeData(w, http.StatusOK, map[string]string{"identity": p.identity(req), "name": in.Name})
	})

	r.Post("/api/v1/access/request", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(req.Body).Decode(&in)
		identity := p.identity(req)

		p.mu.Lock()
		defer p.mu.Unlock()
		switch p.statuses[identity] {
		case client.StatusApproved:
			writeErr(w, http.StatusConflict, "CONFLICT", "Access has already been approved")
			return
		case client.StatusPending:
			// idempotent: keep original name and code
		default:
			p.statuses[identity] = client.StatusPending
			p.names[identity] = in.Name
			if p.codes[identity] == "" {
				p.codes[identity] = "AB1" + string(rune('A'+len(p.codes)))
			}
		}
		writeData(w, http.StatusOK, map[string]string{
			"name":         p.names[identity],
			"four_char_id": p.codes[identity],
		})
	})

	r.Get("/api/v1/access/approved", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		approved := p.statuses[p.identity(req)] == client.StatusApproved || p.roles[p.identity(req)] == client.RoleAdmin
		p.mu.Unlock()
		writeData(w, http.StatusOK, map[string]bool{"approved": approved})
	})

	r.Get("/api/v1/access/admin", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		admin := p.roles[p.identity(req)] == client.RoleAdmin
		p.mu.Unlock()
		writeData(w, http.StatusOK, map[string]bool{"admin": admin})
	})

	r.Get("/api/v1/access/users", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		users := make([]client.UserSummary, 0, len(p.statuses))
		for identity, status := range p.statuses {
			users = append(users, client.UserSummary{
				Identity:   identity,
				Name:       p.names[identity],
				FourCharID: p.codes[identity],
				Status:     status,
			})
		}
		p.mu.Unlock()
		writeData(w, http.StatusOK, users)
	})

	r.Put("/api/v1/access/users/{identity}/approval", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(req.Body).Decode(&in)
		identity := chi.URLParam(req, "identity")

		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.statuses[identity]; !ok {
			writeErr(w, http.StatusNotFound, "NOT_FOUND", "No access request found for this identity")
			return
		}
		p.statuses[identity] = in.Status
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/api/v1/access/users/{identity}/role", func(w http.ResponseWriter, req *http.Request) {
		identity := chi.URLParam(req, "identity")
		p.mu.Lock()
		role := p.roles[identity]
		p.mu.Unlock()
		if role == "" {
			role = client.RoleGuest
		}
		writeData(w, http.StatusOK, map[string]string{"identity": identity, "role": role})
	})

	r.Put("/api/v1/access/users/{identity}/role", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Role string `json:"role"`
		}
		_ = json.NewDecoder(req.Body).Decode(&in)
		p.mu.Lock()
		p.roles[chi.URLParam(req, "identity")] = in.Role
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/api/v1/access/reset", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		p.statuses = make(map[string]string)
		p.names = make(map[string]string)
		p.codes = make(map[string]string)
		p.profiles = make(map[string]string)
		p.content = make(map[string]string)
		p.modules = make(map[string]fakeModule)
		for identity, role := range p.roles {
			if role != client.RoleAdmin {
				delete(p.roles, identity)
			}
		}
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/api/v1/content/{key}", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		value, ok := p.content[chi.URLParam(req, "key")]
		p.mu.Unlock()
		if !ok {
			writeErr(w, http.StatusNotFound, "NOT_FOUND", "Content not found")
			return
		}
		writeData(w, http.StatusOK, map[string]string{"key": chi.URLParam(req, "key"), "value": value})
	})

	r.Put("/api/v1/content/{key}", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Value string `json:"value"`
		}
		_ = json.NewDecoder(req.Body).Decode(&in)
		key := chi.URLParam(req, "key")
		p.mu.Lock()
		p.content[key] = in.Value
		p.mu.Unlock()
		writeData(w, http.StatusOK, map[string]string{"key": key, "value": in.Value})
	})

	r.Post("/api/v1/modules", func(w http.ResponseWriter, req *http.Request) {
		var in fakeModule
		_ = json.NewDecoder(req.Body).Decode(&in)
		moduleID := strings.ToLower(strings.ReplaceAll(in.Title, " ", "-"))

		p.mu.Lock()
		defer p.mu.Unlock()
		if _, exists := p.modules[moduleID]; exists {
			writeErr(w, http.StatusConflict, "CONFLICT", "A module with this title already exists")
			return
		}
		p.modules[moduleID] = in
		writeData(w, http.StatusCreated, map[string]string{
			"module_id":    moduleID,
			"title":        in.Title,
			"content_type": in.ContentType,
		})
	})

	r.Get("/api/v1/modules", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		summaries := make([]map[string]string, 0, len(p.modules))
		for moduleID, module := range p.modules {
			summaries = append(summaries, map[string]string{
				"module_id":    moduleID,
				"title":        module.Title,
				"content_type": module.ContentType,
			})
		}
		p.mu.Unlock()
		writeData(w, http.StatusOK, summaries)
	})

	r.Get("/api/v1/modules/{moduleID}/image", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		module, ok := p.modules[chi.URLParam(req, "moduleID")]
		p.mu.Unlock()
		if !ok {
			writeErr(w, http.StatusNotFound, "NOT_FOUND", "Module not found")
			return
		}
		w.Header().Set("Content-Type", module.ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(module.Image)
	})

	r.Delete("/api/v1/modules/{moduleID}", func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		delete(p.modules, chi.URLParam(req, "moduleID"))
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func newClientFor(t *testing.T, server *httptest.Server, identity string) *client.Client {
	t.Helper()
	return client.New(server.URL,
		client.WithToken("tok-"+identity),
		client.WithIdentity(identity),
		client.WithHTTPClient(server.Client()),
	)
}

// # End-to-End Workflow

/*
TestWorkflow_EndToEnd walks a caller through the full approval loop against
the fake portal: needs-request, submit, pending with receipt, administrator
approval, granted with the receipt cleared.
*/
func TestWorkflow_EndToEnd(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	alice := newClientFor(t, server, "idp|alice")
	receipts := client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
	workflow := client.NewWorkflow(alice, client.NewResolver(alice), receipts, nil, nil)
	ctx := context.Background()

	// 1. Fresh identity must request access
	state, err := workflow.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.PhaseNeedsRequest, state.Phase)

	// 2. Submitting lands in pending with a server receipt
	state, err = workflow.Submit(ctx, "Alice Nguyen")
	require.NoError(t, err)
	assert.Equal(t, client.PhasePending, state.Phase)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "Alice Nguyen", state.Receipt.Name)
	assert.NotEmpty(t, state.Receipt.FourCharID)

	// 3. Re-evaluating keeps showing the persisted receipt
	state, err = workflow.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.PhasePending, state.Phase)
	require.NotNil(t, state.Receipt)

	// 4. An administrator approves via the console
	portal.roles["idp|root"] = client.RoleAdmin
	root := newClientFor(t, server, "idp|root")
	console := client.NewConsole(root, client.NewCache(), nil, nil)
	require.NoError(t, console.Approve(ctx, "idp|alice"))

	// 5. Next evaluation flips to granted and clears the receipt
	state, err = workflow.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.PhaseGranted, state.Phase)
	_, ok := receipts.Load("idp|alice")
	assert.False(t, ok)
}

/*
TestClient_ErrorMapping verifies that the well-known failure classes map to
their sentinels, unknown content reads surface ErrNotFound, and anything
unrecognized degrades to ErrUnavailable with the generic message.
*/
func TestClient_ErrorMapping(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	ctx := context.Background()

	t.Run("unauthorized without token", func(t *testing.T) {
		anonymous := client.New(server.URL, client.WithHTTPClient(server.Client()))
		_, err := anonymous.Approved(ctx)
		assert.ErrorIs(t, err, client.ErrUnauthorized)
	})

	t.Run("missing content is ErrNotFound", func(t *testing.T) {
		c := newClientFor(t, server, "idp|alice")
		_, err := c.GetContent(ctx, client.AnnouncementKey)
		assert.ErrorIs(t, err, client.ErrNotFound)

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "NOT_FOUND", apiErr.Code)
	})

	t.Run("double request is ErrConflict", func(t *testing.T) {
		c := newClientFor(t, server, "idp|carol")
		_, err := c.RequestAccess(ctx, "Carol")
		require.NoError(t, err)
		portal.mu.Lock()
		portal.statuses["idp|carol"] = client.StatusApproved
		portal.mu.Unlock()

		_, err = c.RequestAccess(ctx, "Carol")
		assert.ErrorIs(t, err, client.ErrConflict)
	})

	t.Run("unrecognized failure never leaks diagnostics", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			writeErr(w, http.StatusInternalServerError, "INTERNAL", `pq: connection refused at 10.0.3.7:5432`)
		}))
		defer broken.Close()

		c := newClientFor(t, broken, "idp|alice")
		_, err := c.Approved(ctx)
		assert.ErrorIs(t, err, client.ErrUnavailable)

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "INTERNAL", apiErr.Code)
		assert.NotContains(t, apiErr.Message, "pq:")
		assert.Contains(t, apiErr.Message, "try again")
	})
}

/*
TestConsole_SnapshotAndToggle verifies list partitioning, cache
invalidation on decisions, and the read-before-toggle role flip.
*/
func TestConsole_SnapshotAndToggle(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	ctx := context.Background()

	// Seed three requesters in different states.
	for _, seed := range []struct{ identity, name, status string }{
		{"idp|p1", "Pending One", client.StatusPending},
		{"idp|a1", "Approved One", client.StatusApproved},
		{"idp|r1", "Rejected One", client.StatusRejected},
	} {
		portal.statuses[seed.identity] = seed.status
		portal.names[seed.identity] = seed.name
		portal.codes[seed.identity] = "C0D" + seed.identity[len(seed.identity)-1:]
	}
	portal.roles["idp|root"] = client.RoleAdmin

	root := newClientFor(t, server, "idp|root")
	cache := client.NewCache()
	console := client.NewConsole(root, cache, nil, nil)

	// 1. Partitioned snapshot
	snapshot, err := console.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Pending, 1)
	assert.Len(t, snapshot.Approved, 1)
	assert.Len(t, snapshot.Rejected, 1)

	// 2. Approving invalidates the cached list and the resolved status
	invalidations := 0
	statusInvalidations := 0
	cache.Subscribe(client.CacheKeyUsers, func(string) { invalidations++ })
	cache.Subscribe(client.CacheKeyAccessStatus, func(string) { statusInvalidations++ })
	require.NoError(t, console.Approve(ctx, "idp|p1"))
	assert.Equal(t, 1, invalidations)
	assert.Equal(t, 1, statusInvalidations)

	snapshot, err = console.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot.Pending, 0)
	assert.Len(t, snapshot.Approved, 2)

	// 3. Toggle reads the server role first: guest → admin → member
	newRole, err := console.ToggleAdmin(ctx, "idp|p1")
	require.NoError(t, err)
	assert.Equal(t, client.RoleAdmin, newRole)

	newRole, err = console.ToggleAdmin(ctx, "idp|p1")
	require.NoError(t, err)
	assert.Equal(t, client.RoleUser, newRole)

	// 4. Publishing the announcement invalidates its key
	announcementInvalidations := 0
	cache.Subscribe(client.CacheKeyAnnouncement, func(string) { announcementInvalidations++ })
	require.NoError(t, console.PublishAnnouncement(ctx, "Maintenance at noon"))
	assert.Equal(t, 1, announcementInvalidations)

	entry, err := root.GetContent(ctx, client.AnnouncementKey)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance at noon", entry.Value)
}

/*
TestWorkflow_Logout verifies that signing out leaves no identity-scoped
state behind: the persisted receipt is removed and the query cache is
emptied.
*/
func TestWorkflow_Logout(t *testing.T) {
	portal := newFakePortal()
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	alice := newClientFor(t, server, "idp|alice")
	receipts := client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
	cache := client.NewCache()
	workflow := client.NewWorkflow(alice, client.NewResolver(alice), receipts, cache, nil)
	ctx := context.Background()

	// 1. Submit so a receipt is persisted and a query result is cached
	state, err := workflow.Submit(ctx, "Alice Nguyen")
	require.NoError(t, err)
	require.Equal(t, client.PhasePending, state.Phase)
	cache.Set(client.CacheKeyAccessStatus, state.Status)

	// 2. Logout drops both
	require.NoError(t, workflow.Logout())

	_, ok := receipts.Load("idp|alice")
	assert.False(t, ok, "receipt must not survive logout")
	_, ok = cache.Get(client.CacheKeyAccessStatus)
	assert.False(t, ok, "cached queries must not survive logout")

	// 3. Without a local receipt the next session starts from the form;
	//    the server-side record itself is untouched by logout
	state, err = workflow.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.PhaseNeedsRequest, state.Phase)
}

/*
TestWorkflow_SubmitBlocksReentry verifies that a second Submit issued while
the first is still talking to the server is rejected instead of firing a
duplicate access request.
*/
func TestWorkflow_SubmitBlocksReentry(t *testing.T) {
	portal := newFakePortal()
	entered := make(chan struct{})
	release := make(chan struct{})

	base := portal.handler()
	stalling := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut && req.URL.Path == "/api/v1/profile" {
			entered <- struct{}{}
			<-release
		}
		base.ServeHTTP(w, req)
	})
	server := httptest.NewServer(stalling)
	defer server.Close()

	alice := newClientFor(t, server, "idp|alice")
	receipts := client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
	workflow := client.NewWorkflow(alice, client.NewResolver(alice), receipts, nil, nil)
	ctx := context.Background()

	// 1. First submission stalls inside the profile save
	firstDone := make(chan error, 1)
	go func() {
		_, err := workflow.Submit(ctx, "Alice Nguyen")
		firstDone <- err
	}()
	<-entered

	// 2. Re-entrant submission is rejected while the first is in flight
	_, err := workflow.Submit(ctx, "Alice Nguyen")
	assert.ErrorIs(t, err, client.ErrRequestInFlight)

	// 3. Releasing the first lets it complete normally
	close(release)
	require.NoError(t, <-firstDone)

	// 4. The gate reopens afterwards
	state, err := workflow.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.PhasePending, state.Phase)
}

/*
TestConsole_ResetClearsLocalState verifies that a successful reset wipes
the query cache and the persisted receipt, and that a failed reset leaves
the receipt alone.
*/
func TestConsole_ResetClearsLocalState(t *testing.T) {
	ctx := context.Background()
	receipt := &client.Receipt{Name: "Root Admin", FourCharID: "AB1C"}

	t.Run("success clears cache and receipt", func(t *testing.T) {
		portal := newFakePortal()
		portal.roles["idp|root"] = client.RoleAdmin
		server := httptest.NewServer(portal.handler())
		defer server.Close()

		receipts := client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
		require.NoError(t, receipts.Save("idp|root", receipt))
		cache := client.NewCache()
		cache.Set(client.CacheKeyUsers, &client.ConsoleSnapshot{})

		console := client.NewConsole(newClientFor(t, server, "idp|root"), cache, receipts, nil)
		console.ResetAll(ctx)

		_, ok := cache.Get(client.CacheKeyUsers)
		assert.False(t, ok)
		_, ok = receipts.Load("idp|root")
		assert.False(t, ok, "receipt must be cleared by a successful reset")
	})

	t.Run("failure preserves local state", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			writeErr(w, http.StatusInternalServerError, "INTERNAL", "reset failed")
		}))
		defer failing.Close()

		receipts := client.NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))
		require.NoError(t, receipts.Save("idp|root", receipt))
		cache := client.NewCache()
		cache.Set(client.CacheKeyUsers, &client.ConsoleSnapshot{})

		console := client.NewConsole(newClientFor(t, failing, "idp|root"), cache, receipts, nil)
		console.ResetAll(ctx)

		_, ok := cache.Get(client.CacheKeyUsers)
		assert.True(t, ok)
		_, ok = receipts.Load("idp|root")
		assert.True(t, ok)
	})
}

/*
TestModules_ImageRoundTrip verifies that the image bytes uploaded with a
module come back byte-identical from the image endpoint, and that the
console invalidates the module list on changes.
*/
func TestModules_ImageRoundTrip(t *testing.T) {
	portal := newFakePortal()
	portal.roles["idp|root"] = client.RoleAdmin
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	root := newClientFor(t, server, "idp|root")
	cache := client.NewCache()
	console := client.NewConsole(root, cache, nil, nil)
	ctx := context.Background()

	moduleInvalidations := 0
	cache.Subscribe(client.CacheKeyModules, func(string) { moduleInvalidations++ })

	// 1. Upload a tile with a known byte pattern
	image := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF, 0x7F, 0x01}
	summary, err := console.AddModule(ctx, "Team Calendar", "image/png", image)
	require.NoError(t, err)
	assert.Equal(t, "team-calendar", summary.ModuleID)
	assert.Equal(t, 1, moduleInvalidations)

	// 2. The image endpoint returns the exact bytes and content type
	fetched, contentType, err := root.GetModuleImage(ctx, summary.ModuleID)
	require.NoError(t, err)
	assert.Equal(t, image, fetched)
	assert.Equal(t, "image/png", contentType)

	// 3. The listing carries the summary
	summaries, err := root.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Team Calendar", summaries[0].Title)

	// 4. Removal invalidates again and the image is gone
	require.NoError(t, console.RemoveModule(ctx, summary.ModuleID))
	assert.Equal(t, 2, moduleInvalidations)

	_, _, err = root.GetModuleImage(ctx, summary.ModuleID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}
