package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_SetThenGet(t *testing.T) {
	c, err := NewLRU(4, nil)
	require.NoError(t, err)
	ctx := context.Background()

	k := NewKey("en", "ar", "The Sun is a star.")
	c.Set(ctx, k, Entry{Text: "الشمس نجم.", Detected: "en"})

	got, ok := c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, Entry{Text: "الشمس نجم.", Detected: "en"}, got)
}

func TestLRU_EvictsLeastRecentlyTouched(t *testing.T) {
	var evicted []Key
	c, err := NewLRU(3, func(k Key, _ Entry) { evicted = append(evicted, k) })
	require.NoError(t, err)
	ctx := context.Background()

	keys := make([]Key, 4)
	for i := range keys {
		keys[i] = NewKey("en", "ar", fmt.Sprintf("text-%d", i))
	}

	c.Set(ctx, keys[0], Entry{Text: "0"})
	c.Set(ctx, keys[1], Entry{Text: "1"})
	c.Set(ctx, keys[2], Entry{Text: "2"})

	// touch 0 so 1 becomes the oldest
	_, ok := c.Get(ctx, keys[0])
	require.True(t, ok)

	c.Set(ctx, keys[3], Entry{Text: "3"})

	assert.Equal(t, []Key{keys[1]}, evicted)
	assert.Equal(t, 3, c.Len())
	_, ok = c.Get(ctx, keys[1])
	assert.False(t, ok)
	for _, k := range []Key{keys[0], keys[2], keys[3]} {
		_, ok := c.Get(ctx, k)
		assert.True(t, ok)
	}
}

func TestLRU_OverwriteKeepsSize(t *testing.T) {
	c, err := NewLRU(2, nil)
	require.NoError(t, err)
	ctx := context.Background()
	k := NewKey("ar", "en", "x")

	c.Set(ctx, k, Entry{Text: "first"})
	c.Set(ctx, k, Entry{Text: "second"})

	got, _ := c.Get(ctx, k)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c, err := NewLRU(16, nil)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := NewKey("en", "ar", fmt.Sprintf("%d-%d", i, j%20))
				c.Set(ctx, k, Entry{Text: "v"})
				c.Get(ctx, k)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}

func TestNewLRU_RejectsZeroCapacity(t *testing.T) {
	_, err := NewLRU(0, nil)
	assert.Error(t, err)
}

func TestKey_String(t *testing.T) {
	k := NewKey("en", "ar", "hello")
	assert.Equal(t, "en->ar:"+k.ContentHash, k.String())
	assert.Len(t, k.ContentHash, 64)
	assert.Equal(t, k, NewKey("en", "ar", "hello"))
}

type mapStore map[Key]Entry

func (m mapStore) Get(_ context.Context, k Key) (Entry, bool) { e, ok := m[k]; return e, ok }
func (m mapStore) Set(_ context.Context, k Key, e Entry)      { m[k] = e }

func TestTiered_PromotesRemoteHits(t *testing.T) {
	local, err := NewLRU(4, nil)
	require.NoError(t, err)
	remote := mapStore{}
	ctx := context.Background()
	store := NewTiered(local, remote)

	k := NewKey("en", "ar", "shared")
	remote[k] = Entry{Text: "from remote"}

	got, ok := store.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, "from remote", got.Text)

	promoted, ok := local.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, "from remote", promoted.Text)

	k2 := NewKey("en", "ar", "new")
	store.Set(ctx, k2, Entry{Text: "both"})
	assert.Equal(t, "both", remote[k2].Text)
}

func TestNewTiered_WithoutRemote(t *testing.T) {
	local, err := NewLRU(1, nil)
	require.NoError(t, err)
	assert.Same(t, local, NewTiered(local, nil))
}

func TestNewSized(t *testing.T) {
	remote := mapStore{}

	store, err := NewSized(0, nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewSized(-5, remote)
	require.NoError(t, err)
	assert.Equal(t, Store(remote), store)

	store, err = NewSized(2, nil)
	require.NoError(t, err)
	assert.IsType(t, &LRU{}, store)

	store, err = NewSized(2, remote)
	require.NoError(t, err)
	assert.IsType(t, &Tiered{}, store)
}
