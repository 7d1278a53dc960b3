package lifecycle

import (
	"context"
	"sync"

	"github.com/nilnode/nildb/internal/identity"
	"github.com/nilnode/nildb/internal/store"
)

// BuilderCache is the in-memory DID -> Builder cache: every mutation
// that changes a Builder calls Taint, which simply removes the entry;
// reads refill from the store on a miss. A reader may observe a stale
// entry for the duration of an in-flight invalidation — acceptable because
// the subsequent ownership check against a stale Builder only produces
// false-denies, never false-grants.
type BuilderCache struct {
	entities *store.Store
	mu       sync.RWMutex
	entries  map[identity.DID]*store.Builder
}

// NewBuilderCache builds an empty cache over entities.
func NewBuilderCache(entities *store.Store) *BuilderCache {
	return &BuilderCache{entities: entities, entries: make(map[identity.DID]*store.Builder)}
}

// Get returns the cached Builder for did, refilling from the store on a
// miss.
func (c *BuilderCache) Get(ctx context.Context, did identity.DID) (*store.Builder, error) {
	c.mu.RLock()
	b, ok := c.entries[did]
	c.mu.RUnlock()
	if ok {
		return b, nil
	}

	loaded, err := c.entities.GetBuilder(ctx, did)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[did] = loaded
	c.mu.Unlock()
	return loaded, nil
}

// Taint removes did's cached entry, if any.
func (c *BuilderCache) Taint(did identity.DID) {
	c.mu.Lock()
	delete(c.entries, did)
	c.mu.Unlock()
}
