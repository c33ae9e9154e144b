// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranquang/staffdesk/client"
)

/*
TestPoller_DeliversResults verifies the basic fetch-and-deliver loop.
*/
func TestPoller_DeliversResults(t *testing.T) {
	delivered := make(chan any, 16)

	var counter atomic.Int64
	poller := client.NewPoller(20*time.Millisecond,
		func(ctx context.Context) (any, error) {
			return counter.Add(1), nil
		},
		func(result any) { delivered <- result },
		nil,
	)

	poller.Start(context.Background())
	defer poller.Stop()

	// The immediate first poll plus at least one tick.
	first := waitFor(t, delivered)
	second := waitFor(t, delivered)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

/*
TestPoller_KickDiscardsInFlightResult verifies the staleness guarantee: a
fetch that was already running when Kick arrived has its result dropped,
and the post-kick fetch is what gets delivered.
*/
func TestPoller_KickDiscardsInFlightResult(t *testing.T) {
	delivered := make(chan any, 16)
	release := make(chan struct{})

	var fetchCount atomic.Int64
	poller := client.NewPoller(time.Hour, // only the initial poll and kicks fire
		func(ctx context.Context) (any, error) {
			n := fetchCount.Add(1)
			if n == 1 {
				// First fetch stalls until after the kick.
				<-release
			}
			return n, nil
		},
		func(result any) { delivered <- result },
		nil,
	)

	poller.Start(context.Background())
	defer poller.Stop()

	// Let the first fetch begin, then kick while it is still in flight.
	require.Eventually(t, func() bool { return fetchCount.Load() == 1 }, time.Second, time.Millisecond)
	poller.Kick()
	close(release)

	// The stalled first result (1) must be discarded; only the kicked
	// fetch's result (2) arrives.
	result := waitFor(t, delivered)
	assert.Equal(t, int64(2), result)

	select {
	case extra := <-delivered:
		t.Fatalf("unexpected extra delivery: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

/*
TestPoller_StopHalts verifies that Stop terminates the loop and further
Kicks are no-ops.
*/
func TestPoller_StopHalts(t *testing.T) {
	delivered := make(chan any, 16)

	poller := client.NewPoller(10*time.Millisecond,
		func(ctx context.Context) (any, error) { return "tick", nil },
		func(result any) { delivered <- result },
		nil,
	)

	poller.Start(context.Background())
	waitFor(t, delivered)
	poller.Stop()

	drain(delivered)
	poller.Kick()

	select {
	case extra := <-delivered:
		t.Fatalf("delivery after Stop: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, ch chan any) any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller delivery")
		return nil
	}
}

func drain(ch chan any) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
