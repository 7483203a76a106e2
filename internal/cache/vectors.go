// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package cache provides in-process data structures backing the scoring
// engine: an LRU cache for phrase embedding vectors and an Aho-Corasick
// automaton for multi-keyword matching.
package cache

import (
	"sync"
	"time"
)

// vectorEntry is a node in the vector cache's doubly-linked list.
type vectorEntry struct {
	key       string
	value     []float64
	prev      *vectorEntry
	next      *vectorEntry
	expiresAt time.Time
}

// VectorCache is a thread-safe LRU cache mapping phrases to embedding
// vectors. Embedding a phrase is cheap but the scorer embeds the same
// keywords for every item in a batch, so the cache turns O(items×keywords)
// embedding work into O(keywords).
//
// A doubly-linked list keeps access order and a map gives O(1) lookup;
// expiration is lazy, checked on read.
type VectorCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*vectorEntry

	// head.next is the most recently used, tail.prev the least.
	head *vectorEntry
	tail *vectorEntry

	hits   int64
	misses int64
}

// NewVectorCache creates a vector cache. Non-positive arguments fall back
// to 10000 entries and one hour.
func NewVectorCache(capacity int, ttl time.Duration) *VectorCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	c := &VectorCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*vectorEntry, capacity),
		head:     &vectorEntry{},
		tail:     &vectorEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached vector for key, marking it most recently used.
func (c *VectorCache) Get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.removeEntry(entry)
		c.misses++
		return nil, false
	}

	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Add stores a vector, evicting the least recently used entry at capacity.
func (c *VectorCache) Add(key string, value []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return
	}

	entry := &vectorEntry{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Len returns the current number of cached vectors.
func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit/miss counts and the current size.
func (c *VectorCache) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods, called with the lock held.

func (c *VectorCache) addToFront(entry *vectorEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *VectorCache) moveToFront(entry *vectorEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *VectorCache) removeEntry(entry *vectorEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *VectorCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
