// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: quang.tran.dev@gmail.com

package client

import "sync"

// # Query Cache

// Well-known cache keys used by [Workflow] and [Console].
const (
	CacheKeyUsers        = "users"
	CacheKeyAnnouncement = "announcement"
	CacheKeyModules      = "modules"
	CacheKeyAccessStatus = "access_status"
)

// Cache is a keyed in-memory store for query results with change
// subscriptions. Frontends subscribe to the keys backing their views and
// re-render when a mutation invalidates them.
//
// # Concurrency
//
// All methods are safe for concurrent use. Subscriber callbacks run
// synchronously on the mutating goroutine and must not call back into the
// cache for the same key.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]any
	subscribers map[string]map[int]func(key string)
	nextID      int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:     make(map[string]any),
		subscribers: make(map[string]map[int]func(key string)),
	}
}

// Get returns the cached value under key, if any.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Set stores a value and notifies the key's subscribers.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = value
	callbacks := c.callbacksFor(key)
	c.mu.Unlock()

	for _, callback := range callbacks {
		callback(key)
	}
}

// Invalidate drops the given keys and notifies their subscribers. Keys with
// no cached value still notify: invalidation means "refetch", not "forget".
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	notify := make([]func(string), 0, len(keys))
	notifyKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		delete(c.entries, key)
		for _, callback := range c.callbacksFor(key) {
			notify = append(notify, callback)
			notifyKeys = append(notifyKeys, key)
		}
	}
	c.mu.Unlock()

	for i, callback := range notify {
		callback(notifyKeys[i])
	}
}

// InvalidateAll drops every key and notifies every subscriber.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	notify := make([]func(string), 0)
	notifyKeys := make([]string, 0)
	c.entries = make(map[string]any)
	for key := range c.subscribers {
		for _, callback := range c.callbacksFor(key) {
			notify = append(notify, callback)
			notifyKeys = append(notifyKeys, key)
		}
	}
	c.mu.Unlock()

	for i, callback := range notify {
		callback(notifyKeys[i])
	}
}

// Subscribe registers a callback invoked whenever key changes. The returned
// function removes the subscription.
func (c *Cache) Subscribe(key string, callback func(key string)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribers[key] == nil {
		c.subscribers[key] = make(map[int]func(key string))
	}
	id := c.nextID
	c.nextID++
	c.subscribers[key][id] = callback

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers[key], id)
	}
}

// callbacksFor snapshots the subscriber list for a key. Caller holds the lock.
func (c *Cache) callbacksFor(key string) []func(string) {
	callbacks := make([]func(string), 0, len(c.subscribers[key]))
	for _, callback := range c.subscribers[key] {
		callbacks = append(callbacks, callback)
	}
	return callbacks
}
