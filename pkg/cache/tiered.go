package cache

import "context"

// Tiered reads through a local LRU to a shared remote store and promotes
// remote hits into the LRU.
type Tiered struct {
	local  Store
	remote Store
}

var _ Store = &Tiered{}

// NewTiered returns local unchanged when there is no remote tier.
func NewTiered(local, remote Store) Store {
	if remote == nil {
		return local
	}
	return &Tiered{local: local, remote: remote}
}

func (t *Tiered) Get(ctx context.Context, key Key) (Entry, bool) {
	if entry, ok := t.local.Get(ctx, key); ok {
		return entry, true
	}
	entry, ok := t.remote.Get(ctx, key)
	if ok {
		t.local.Set(ctx, key, entry)
	}
	return entry, ok
}

func (t *Tiered) Set(ctx context.Context, key Key, entry Entry) {
	t.local.Set(ctx, key, entry)
	t.remote.Set(ctx, key, entry)
}

// NewSized builds a local LRU of capacity entries in front of remote. A
// capacity <= 0 disables the local tier, so the result is remote alone, or
// nil when there is no remote either.
func NewSized(capacity int, remote Store) (Store, error) {
	if capacity <= 0 {
		return remote, nil
	}
	local, err := NewLRU(capacity, nil)
	if err != nil {
		return nil, err
	}
	return NewTiered(local, remote), nil
}
