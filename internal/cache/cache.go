// Package cache wraps a bounded LRU behind the small surface the rest of
// the code depends on, so call sites never touch a raw process-wide map.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type Cache[K comparable, V any] struct {
	lru *lru.Cache[K, V]
}

// New returns a bounded cache holding at most size entries. Size must be
// positive; callers pass a configured bound, never zero.
func New[K comparable, V any](size int) (*Cache[K, V], error) {
	l, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{lru: l}, nil
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}
