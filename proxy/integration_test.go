package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joellti/davassets/blobcache"
	"github.com/joellti/davassets/webdav"
)

// the real webdav client is the fetcher the controller runs with
var _ Fetcher = (*webdav.Client)(nil)

func TestControllerWithWebdavClient(t *testing.T) {
	imageBytes := []byte("\x89PNG\r\n\x1a\nfake image")
	var fetches int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the fetch must be authenticated even though the element's
		// markup never carries credentials
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "joel", user)
		assert.Equal(t, "secret", pass)

		fetches++
		_, _ = w.Write(imageBytes)
	}))
	defer ts.Close()

	client, err := webdav.NewClient(webdav.Options{URL: ts.URL, User: "joel", Pass: "secret"})
	require.NoError(t, err)

	cache, err := blobcache.New(0)
	require.NoError(t, err)
	c := New(Options{
		Fetcher:     client,
		Cache:       cache,
		BaseURL:     ts.URL,
		Placeholder: testPlaceholder,
	})
	defer c.Teardown()

	el := newFakeElement(ts.URL + "/notes/img.png")
	c.Observe(Mutation{Added: []Element{el}})
	waitForBlob(t, el)

	// the blob resolves to the fetched bytes and the visible source
	// exposes neither the remote URL nor the credentials
	h, ok := cache.Get(ts.URL + "/notes/img.png")
	require.True(t, ok)
	data, ok := h.Bytes()
	require.True(t, ok)
	assert.Equal(t, imageBytes, data)
	assert.False(t, strings.Contains(el.Src(), ts.URL))
	assert.Equal(t, 1, fetches)
}
