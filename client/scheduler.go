// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// # Polling Scheduler

// DefaultPollInterval is the cadence for background refresh of volatile
// state (pending approvals, announcement).
const DefaultPollInterval = 5 * time.Second

// Poller periodically invokes a fetch function and hands each result to a
// consumer, with two consistency guarantees:
//
//   - Single flight: a tick is skipped while the previous fetch is still
//     running, so a slow server never stacks up requests.
//   - Staleness discard: every fetch carries a monotonic sequence number;
//     a result is delivered only if no newer fetch has started since. A
//     slow response can therefore never overwrite a fresher one.
//
// Kick triggers an immediate out-of-band fetch (the "window regained
// focus" path) under the same guarantees.
type Poller struct {
	interval time.Duration
	fetch    func(ctx context.Context) (any, error)
	deliver  func(result any)
	logger   *slog.Logger

	seq      atomic.Uint64
	inFlight atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	kick    chan struct{}
	stopped chan struct{}
}

// NewPoller constructs a poller. interval <= 0 selects
// [DefaultPollInterval]. deliver runs on the poller's goroutine.
func NewPoller(interval time.Duration, fetch func(ctx context.Context) (any, error), deliver func(result any), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		deliver:  deliver,
		logger:   logger,
	}
}

// Start launches the polling loop: one immediate fetch, then one per
// interval. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.kick = make(chan struct{}, 1)
	p.stopped = make(chan struct{})

	go p.loop(loopCtx, p.kick, p.stopped)
}

// Stop halts the loop and waits for it to exit. In-flight fetches are
// cancelled through the context.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, stopped := p.cancel, p.stopped
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Kick requests an immediate fetch, typically on a focus or mutation event.
//
// Kicking also advances the sequence counter, so a fetch already in flight
// when the kick arrives has its result discarded: whatever it returns
// predates the event that prompted the kick. Pending kicks coalesce.
func (p *Poller) Kick() {
	p.mu.Lock()
	kick := p.kick
	p.mu.Unlock()
	if kick == nil {
		return
	}

	p.seq.Add(1)
	select {
	case kick <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, kick chan struct{}, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-kick:
			p.poll(ctx)
		}
	}
}

// poll runs one guarded fetch cycle.
func (p *Poller) poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	mySeq := p.seq.Add(1)

	result, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug("poll_fetch_failed", slog.Any("error", err))
		}
		return
	}

	// A newer cycle started while we were fetching: this result is stale.
	if p.seq.Load() != mySeq {
		p.logger.Debug("poll_result_discarded", slog.Uint64("seq", mySeq))
		return
	}

	p.deliver(result)
}
