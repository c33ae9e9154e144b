// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import (
	"context"
	"log/slog"
)

// # Administrator Console

// ConsoleSnapshot is the user list partitioned by status, ready for the
// console's three panes.
type ConsoleSnapshot struct {
	Pending  []UserSummary
	Approved []UserSummary
	Rejected []UserSummary
}

// Console implements the administrator console logic over the API client,
// the shared query cache, and the local receipt store.
type Console struct {
	client   *Client
	cache    *Cache
	receipts *ReceiptStore
	logger   *slog.Logger
}

// NewConsole wires the console. receipts may be nil when the frontend
// persists no pending-request receipt.
func NewConsole(client *Client, cache *Cache, receipts *ReceiptStore, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{client: client, cache: cache, receipts: receipts, logger: logger}
}

// Snapshot returns the partitioned user list, from cache when fresh.
func (c *Console) Snapshot(ctx context.Context) (*ConsoleSnapshot, error) {
	if cached, ok := c.cache.Get(CacheKeyUsers); ok {
		if snapshot, ok := cached.(*ConsoleSnapshot); ok {
			return snapshot, nil
		}
	}

	users, err := c.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := partition(users)
	c.cache.Set(CacheKeyUsers, snapshot)
	return snapshot, nil
}

// Approve grants access to an identity and invalidates the user list.
func (c *Console) Approve(ctx context.Context, identity string) error {
	return c.decide(ctx, identity, StatusApproved)
}

// Reject denies access to an identity and invalidates the user list.
func (c *Console) Reject(ctx context.Context, identity string) error {
	return c.decide(ctx, identity, StatusRejected)
}

func (c *Console) decide(ctx context.Context, identity string, status string) error {
	if err := c.client.SetApproval(ctx, identity, status); err != nil {
		return err
	}
	// The decision changes both the user list and, if the identity is the
	// caller's own session elsewhere, the resolved access status.
	c.cache.Invalidate(CacheKeyUsers, CacheKeyAccessStatus)
	return nil
}

// ToggleAdmin flips an identity between the admin and member roles.
//
// The current role is read from the server first — never from a cached
// list — so two admins toggling concurrently converge on the server's
// view instead of double-flipping.
func (c *Console) ToggleAdmin(ctx context.Context, identity string) (newRole string, err error) {
	current, err := c.client.GetRole(ctx, identity)
	if err != nil {
		return "", err
	}

	target := RoleAdmin
	if current == RoleAdmin {
		target = RoleUser
	}

	if err := c.client.AssignRole(ctx, identity, target); err != nil {
		return "", err
	}

	c.cache.Invalidate(CacheKeyUsers, CacheKeyAccessStatus)
	return target, nil
}

// PublishAnnouncement overwrites the portal banner and invalidates its
// cache key so subscribed views refetch.
func (c *Console) PublishAnnouncement(ctx context.Context, value string) error {
	if _, err := c.client.PublishContent(ctx, AnnouncementKey, value); err != nil {
		return err
	}
	c.cache.Invalidate(CacheKeyAnnouncement)
	return nil
}

// AddModule uploads a custom module tile and invalidates the module list.
func (c *Console) AddModule(ctx context.Context, title string, contentType string, image []byte) (*ModuleSummary, error) {
	summary, err := c.client.CreateModule(ctx, title, contentType, image)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(CacheKeyModules)
	return summary, nil
}

// RemoveModule deletes a custom module and invalidates the module list.
func (c *Console) RemoveModule(ctx context.Context, moduleID string) error {
	if err := c.client.DeleteModule(ctx, moduleID); err != nil {
		return err
	}
	c.cache.Invalidate(CacheKeyModules)
	return nil
}

// ResetAll wipes the portal. The failure is logged but not returned: the
// console treats reset as fire-and-forget and the next poll shows the
// true outcome either way. On success, local state is dropped alongside:
// every cached query result and the persisted pending-request receipt.
func (c *Console) ResetAll(ctx context.Context) {
	if err := c.client.Reset(ctx); err != nil {
		c.logger.Error("console_reset_failed", slog.Any("error", err))
		return
	}
	c.cache.InvalidateAll()
	if c.receipts != nil {
		if err := c.receipts.Clear(); err != nil {
			c.logger.Warn("console_receipt_clear_failed", slog.Any("error", err))
		}
	}
}

// partition splits the flat user list into the console's three panes,
// preserving server order within each.
func partition(users []UserSummary) *ConsoleSnapshot {
	snapshot := &ConsoleSnapshot{
		Pending:  make([]UserSummary, 0, len(users)),
		Approved: make([]UserSummary, 0),
		Rejected: make([]UserSummary, 0),
	}
	for _, user := range users {
		switch user.Status {
		case StatusApproved:
			snapshot.Approved = append(snapshot.Approved, user)
		case StatusRejected:
			snapshot.Rejected = append(snapshot.Rejected, user)
		default:
			snapshot.Pending = append(snapshot.Pending, user)
		}
	}
	return snapshot
}
