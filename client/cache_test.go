// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tranquang/staffdesk/client"
)

/*
TestCache_SetGet verifies basic storage and retrieval.
*/
func TestCache_SetGet(t *testing.T) {
	cache := client.NewCache()

	_, ok := cache.Get("users")
	assert.False(t, ok)

	cache.Set("users", []string{"a", "b"})
	value, ok := cache.Get("users")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, value)
}

/*
TestCache_SubscribeNotify verifies that subscribers fire on Set and on
Invalidate — including invalidation of keys that held no value — and that
unsubscribing stops notifications.
*/
func TestCache_SubscribeNotify(t *testing.T) {
	cache := client.NewCache()

	var notified []string
	unsubscribe := cache.Subscribe("users", func(key string) {
		notified = append(notified, key)
	})

	// 1. Set notifies
	cache.Set("users", 1)
	assert.Equal(t, []string{"users"}, notified)

	// 2. Invalidate notifies and drops the value
	cache.Invalidate("users")
	assert.Equal(t, []string{"users", "users"}, notified)
	_, ok := cache.Get("users")
	assert.False(t, ok)

	// 3. Invalidating an empty key still notifies (refetch semantics)
	cache.Invalidate("users")
	assert.Len(t, notified, 3)

	// 4. Other keys do not notify this subscriber
	cache.Set("modules", 2)
	assert.Len(t, notified, 3)

	// 5. Unsubscribed callbacks never fire again
	unsubscribe()
	cache.Set("users", 3)
	assert.Len(t, notified, 3)
}

/*
TestCache_InvalidateAll verifies that a full invalidation clears every key
and notifies every subscriber.
*/
func TestCache_InvalidateAll(t *testing.T) {
	cache := client.NewCache()
	cache.Set("users", 1)
	cache.Set("modules", 2)

	hits := map[string]int{}
	cache.Subscribe("users", func(key string) { hits[key]++ })
	cache.Subscribe("modules", func(key string) { hits[key]++ })

	cache.InvalidateAll()

	_, ok := cache.Get("users")
	assert.False(t, ok)
	_, ok = cache.Get("modules")
	assert.False(t, ok)
	assert.Equal(t, 1, hits["users"])
	assert.Equal(t, 1, hits["modules"])
}
