package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// LRU is a bounded in-process cache. Get moves the key to the front and Set
// evicts the least recently used key once capacity is exceeded; both happen
// under one lock.
type LRU struct {
	mu      sync.Mutex
	entries *simplelru.LRU[Key, Entry]
	onEvict func(Key, Entry)
}

var _ Store = &LRU{}

// NewLRU creates a cache holding at most capacity entries. onEvict may be nil.
func NewLRU(capacity int, onEvict func(Key, Entry)) (*LRU, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	c := &LRU{onEvict: onEvict}
	entries, err := simplelru.NewLRU[Key, Entry](capacity, c.evicted)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

func (c *LRU) evicted(key Key, entry Entry) {
	if c.onEvict != nil {
		c.onEvict(key, entry)
	}
}

func (c *LRU) Get(ctx context.Context, key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

func (c *LRU) Set(ctx context.Context, key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, entry)
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
