// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import "context"

// # Access Status Resolver

// AccessStatus is the caller's authorization standing as the server sees it.
type AccessStatus struct {
	Approved bool
	Admin    bool
}

// Resolver answers "may this caller see the portal, and are they an admin"
// with a single call site for every frontend surface.
type Resolver struct {
	client *Client
}

// NewResolver creates a resolver over an API client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve fetches the caller's approval and admin standing.
//
// # Behavior
//
//   - Without a signed-in identity the result is the zero status and no
//     error: an anonymous caller is simply not approved, there is nothing
//     to ask the server.
//   - The two lookups run in parallel; the first error wins and the whole
//     resolution fails, because a half-resolved status must never be acted
//     upon (it could show an admin console to a non-admin mid-error).
func (r *Resolver) Resolve(ctx context.Context) (AccessStatus, error) {
	if r.client.Identity() == "" {
		return AccessStatus{}, nil
	}

	var (
		status      AccessStatus
		approvedErr error
		adminErr    error
	)

	done := make(chan struct{}, 2)
	go func() {
		status.Approved, approvedErr = r.client.Approved(ctx)
		done <- struct{}{}
	}()
	go func() {
		status.Admin, adminErr = r.client.Admin(ctx)
		done <- struct{}{}
	}()
	<-done
	<-done

	if approvedErr != nil {
		return AccessStatus{}, approvedErr
	}
	if adminErr != nil {
		return AccessStatus{}, adminErr
	}
	return status, nil
}
