package blobcache

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	h := NewHandle([]byte("bytes"))
	assert.True(t, strings.HasPrefix(h.URL(), "blob:"))

	data, ok := h.Bytes()
	require.True(t, ok)
	assert.Equal(t, []byte("bytes"), data)

	h.Revoke()
	_, ok = h.Bytes()
	assert.False(t, ok)

	// revoking twice must be safe
	h.Revoke()
}

func TestHandleURLsAreUnique(t *testing.T) {
	a := NewHandle(nil)
	b := NewHandle(nil)
	assert.NotEqual(t, a.URL(), b.URL())
}

func TestCachePutGet(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	h := NewHandle([]byte("img"))
	c.Put("https://dav.example.com/remote/a.png", h)

	got, ok := c.Get("https://dav.example.com/remote/a.png")
	require.True(t, ok)
	assert.Same(t, h, got)

	_, ok = c.Get("https://dav.example.com/remote/missing.png")
	assert.False(t, ok)
}

func TestCacheReleaseIsIdempotent(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	kept := NewHandle([]byte("kept"))
	doomed := NewHandle([]byte("doomed"))
	c.Put("kept", kept)
	c.Put("doomed", doomed)

	c.Release("doomed")
	_, ok := doomed.Bytes()
	assert.False(t, ok, "released handle should be revoked")

	// second release is a no-op and other entries are untouched
	c.Release("doomed")
	got, ok := c.Get("kept")
	require.True(t, ok)
	data, ok := got.Bytes()
	require.True(t, ok)
	assert.Equal(t, []byte("kept"), data)
}

func TestCacheClearRevokesEverything(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	handles := make([]*Handle, 5)
	for i := range handles {
		handles[i] = NewHandle([]byte{byte(i)})
		c.Put(fmt.Sprintf("url-%d", i), handles[i])
	}
	c.Clear()

	assert.Equal(t, 0, c.Len())
	for i, h := range handles {
		_, ok := h.Bytes()
		assert.False(t, ok, "handle %d should be revoked", i)
	}
}

func TestCacheCapacityEvictionRevokes(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	first := NewHandle([]byte("first"))
	c.Put("one", first)
	c.Put("two", NewHandle([]byte("second")))
	c.Put("three", NewHandle([]byte("third")))

	// the oldest entry fell out of capacity and was revoked
	_, ok := c.Get("one")
	assert.False(t, ok)
	_, ok = first.Bytes()
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}
