// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// ErrRequestInFlight is returned by [Workflow.Submit] while a previous
// submission has not finished, so a double-click cannot fire two requests.
var ErrRequestInFlight = errors.New("staffdesk: access request already in flight")

// # Access Workflow

// Phase is the portal surface the frontend should present.
type Phase string

const (
	// PhaseNeedsRequest: no access, no pending request — show the form.
	PhaseNeedsRequest Phase = "needs_request"

	// PhasePending: request submitted, waiting for an administrator — show
	// the receipt (name and four-char code).
	PhasePending Phase = "pending"

	// PhaseGranted: access approved — show the portal.
	PhaseGranted Phase = "granted"
)

// WorkflowState is the evaluated phase plus whatever the phase needs.
type WorkflowState struct {
	Phase   Phase
	Status  AccessStatus
	Receipt *Receipt
}

// Workflow drives a caller through the access-approval flow: evaluating
// which phase they are in and submitting requests.
type Workflow struct {
	client   *Client
	resolver *Resolver
	receipts *ReceiptStore
	cache    *Cache
	logger   *slog.Logger

	submitting atomic.Bool
}

// NewWorkflow wires the workflow over its collaborators. cache may be nil
// when the frontend keeps no query cache.
func NewWorkflow(client *Client, resolver *Resolver, receipts *ReceiptStore, cache *Cache, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{client: client, resolver: resolver, receipts: receipts, cache: cache, logger: logger}
}

// Evaluate determines the caller's current phase.
//
// # Decision Order
//
//  1. Server says approved → granted. Any lingering receipt is cleared:
//     the request it acknowledged has concluded.
//  2. A locally stored receipt (for this identity) → pending. The server
//     is not consulted about the receipt's freshness here; the poller
//     re-evaluates every cycle and will flip the phase when the decision
//     lands.
//  3. Otherwise → the caller must submit a request.
func (w *Workflow) Evaluate(ctx context.Context) (*WorkflowState, error) {
	status, err := w.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if status.Approved {
		if err := w.receipts.Clear(); err != nil {
			w.logger.Warn("workflow_receipt_clear_failed", slog.Any("error", err))
		}
		return &WorkflowState{Phase: PhaseGranted, Status: status}, nil
	}

	if receipt, ok := w.receipts.Load(w.client.Identity()); ok {
		return &WorkflowState{Phase: PhasePending, Status: status, Receipt: receipt}, nil
	}

	return &WorkflowState{Phase: PhaseNeedsRequest, Status: status}, nil
}

// Submit saves the caller's profile, submits the access request, and
// persists the receipt. Returns the resulting pending state.
//
// # Edge Cases
//
//   - A CONFLICT from the request endpoint means access was approved in
//     the meantime; Submit re-evaluates instead of failing.
//   - The receipt echoes server data, never the submitted name.
//   - A second Submit while one is still running returns
//     [ErrRequestInFlight] instead of issuing a duplicate request.
func (w *Workflow) Submit(ctx context.Context, name string) (*WorkflowState, error) {
	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight
	}
	defer w.submitting.Store(false)

	if _, err := w.client.SaveProfile(ctx, name); err != nil {
		return nil, err
	}

	receipt, err := w.client.RequestAccess(ctx, name)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			w.logger.Info("workflow_request_raced_approval")
			return w.Evaluate(ctx)
		}
		return nil, err
	}

	if err := w.receipts.Save(w.client.Identity(), receipt); err != nil {
		// Persisting the receipt is presentation state only; the request
		// itself succeeded, so log and continue.
		w.logger.Warn("workflow_receipt_save_failed", slog.Any("error", err))
	}

	status, err := w.resolver.Resolve(ctx)
	if err != nil {
		status = AccessStatus{}
	}
	return &WorkflowState{Phase: PhasePending, Status: status, Receipt: receipt}, nil
}

// Logout ends the session locally: the persisted receipt and every cached
// query result are dropped so nothing identity-scoped leaks into the next
// sign-in. The server holds the authoritative record either way.
func (w *Workflow) Logout() error {
	if w.cache != nil {
		w.cache.InvalidateAll()
	}
	return w.receipts.Clear()
}
