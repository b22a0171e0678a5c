// Package blobcache owns the mapping from a remote URL to a locally
// materialized, revocable binary resource.
//
// Every removal path - explicit release, Clear, capacity eviction -
// funnels through one revocation callback, so releasing is idempotent
// and no handle is ever revoked twice.
package blobcache

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DefaultMaxEntries is the cache capacity used when none is given.
// Large enough that a document's worth of images never cycles.
const DefaultMaxEntries = 512

// Handle is a revocable in-memory binary resource.  While unrevoked
// it is addressable by its blob URL; after Revoke the bytes are gone
// and the URL resolves to nothing.
type Handle struct {
	url string

	mu      sync.Mutex
	data    []byte
	revoked bool
}

// NewHandle materializes data as a blob resource with a fresh address
func NewHandle(data []byte) *Handle {
	return &Handle{
		url:  "blob:" + uuid.NewString(),
		data: data,
	}
}

// URL returns the local address of the resource.  Stable across the
// handle's lifetime, dead after Revoke.
func (h *Handle) URL() string {
	return h.url
}

// Bytes returns the resource content, or ok=false once revoked
func (h *Handle) Bytes() (data []byte, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.revoked {
		return nil, false
	}
	return h.data, true
}

// Revoke releases the resource.  Safe to call more than once.
func (h *Handle) Revoke() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = nil
	h.revoked = true
}

// Cache maps remote URLs to handles.  At most one handle exists per
// remote URL at any time.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *Handle]
}

// New makes a Cache holding at most maxEntries handles.  A handle
// falling out of capacity is revoked the same way a released one is.
func New(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	log := logrus.WithField("component", "blobcache")
	entries, err := lru.NewWithEvict(maxEntries, func(remoteURL string, h *Handle) {
		log.WithField("url", remoteURL).Debug("revoking blob handle")
		h.Revoke()
	})
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get is a pure lookup, it never fetches
func (c *Cache) Get(remoteURL string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(remoteURL)
}

// Put inserts or overwrites the entry for remoteURL.  Overwriting
// does not revoke the previous handle - a caller replacing an entry
// is responsible for having released it first.
func (c *Cache) Put(remoteURL string, h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(remoteURL, h)
}

// Release revokes the handle for remoteURL and drops the mapping.
// No-op when absent, so releasing twice is safe.
func (c *Cache) Release(remoteURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(remoteURL)
}

// Clear revokes every handle and empties the map
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
