package assets_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joellti/davassets/assets"
	"github.com/joellti/davassets/assets/localstore"
	"github.com/joellti/davassets/davurl"
	"github.com/joellti/davassets/webdav"
)

// pngBytes is a minimal PNG signature, enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// davHandler is just enough of a webdav server for the gateway
type davHandler struct {
	mu    sync.Mutex
	files map[string][]byte
	cols  map[string]bool
}

func newDavHandler() *davHandler {
	return &davHandler{
		files: make(map[string][]byte),
		cols:  map[string]bool{"/": true},
	}
}

func (s *davHandler) parentExists(p string) bool {
	parent := path.Dir(strings.TrimSuffix(p, "/"))
	if parent == "." || parent == "" {
		parent = "/"
	}
	return s.cols[parent]
}

func (s *davHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := r.URL.Path
	switch r.Method {
	case "PUT":
		if !s.parentExists(p) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		data, _ := io.ReadAll(r.Body)
		s.files[p] = data
		w.WriteHeader(http.StatusCreated)
	case "GET":
		data, ok := s.files[p]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	case "HEAD":
		if _, ok := s.files[p]; !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	case "DELETE":
		if _, ok := s.files[p]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(s.files, p)
		w.WriteHeader(http.StatusNoContent)
	case "MKCOL":
		s.cols[strings.TrimSuffix(p, "/")] = true
		w.WriteHeader(http.StatusCreated)
	case "MOVE":
		data, ok := s.files[p]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		destURL, _ := url.Parse(r.Header.Get("Destination"))
		if _, exists := s.files[destURL.Path]; exists && r.Header.Get("Overwrite") == "F" {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		delete(s.files, p)
		s.files[destURL.Path] = data
		w.WriteHeader(http.StatusCreated)
	case "PROPFIND":
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, `<d:multistatus xmlns:d="DAV:"></d:multistatus>`)
	}
}

func prepare(t *testing.T, token string) (*assets.Gateway, *davHandler, string) {
	srv := newDavHandler()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := webdav.NewClient(webdav.Options{URL: ts.URL, User: "u", Pass: "p"})
	require.NoError(t, err)

	vault := t.TempDir()
	g := assets.NewGateway(client, davurl.Config{BaseURL: ts.URL, Token: token}, localstore.New(vault))
	return g, srv, vault
}

func TestUploadReturnsPublicURL(t *testing.T) {
	g, srv, _ := prepare(t, "")
	ctx := context.Background()

	result, err := g.Upload(ctx, pngBytes, "img.png", "/notes")
	require.NoError(t, err)
	assert.Equal(t, "img.png", result.Name)
	assert.True(t, strings.HasSuffix(result.URL, "/notes/img.png"), "got %q", result.URL)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, pngBytes, srv.files["/notes/img.png"])
}

func TestUploadFailureNamesTheFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	client, err := webdav.NewClient(webdav.Options{URL: ts.URL})
	require.NoError(t, err)
	g := assets.NewGateway(client, davurl.Config{BaseURL: ts.URL}, localstore.New(t.TempDir()))

	_, err = g.Upload(context.Background(), []byte("x"), "img.png", "/notes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "img.png")
}

func TestDownloadRoundTrip(t *testing.T) {
	g, _, vault := prepare(t, "tok")
	ctx := context.Background()

	result, err := g.Upload(ctx, pngBytes, "img.png", "/notes")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.URL, "?token=tok"), "got %q", result.URL)

	local, err := g.Download(ctx, result.URL, "attachments")
	require.NoError(t, err)
	assert.Equal(t, "attachments/img.png", local)

	data, err := os.ReadFile(filepath.Join(vault, filepath.FromSlash(local)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestDownloadDecodesEscapedNames(t *testing.T) {
	// the path inside a public URL is wire-escaped; downloading by
	// that URL must not escape it a second time
	g, _, vault := prepare(t, "")
	ctx := context.Background()

	for _, name := range []string{"with space.png", "img #3.png", "übung.png"} {
		result, err := g.Upload(ctx, pngBytes, name, "/notes")
		require.NoError(t, err)

		local, err := g.Download(ctx, result.URL, "attachments")
		require.NoError(t, err)
		assert.Equal(t, "attachments/"+name, local)

		data, err := os.ReadFile(filepath.Join(vault, filepath.FromSlash(local)))
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
	}
}

func TestDownloadDeduplicatesNames(t *testing.T) {
	g, _, _ := prepare(t, "")
	ctx := context.Background()

	result, err := g.Upload(ctx, pngBytes, "img.png", "/notes")
	require.NoError(t, err)

	first, err := g.Download(ctx, result.URL, "")
	require.NoError(t, err)
	second, err := g.Download(ctx, result.URL, "")
	require.NoError(t, err)

	assert.Equal(t, "img.png", first)
	assert.Equal(t, "img 1.png", second)
}

func TestDownloadSniffsMissingExtension(t *testing.T) {
	g, _, _ := prepare(t, "")
	ctx := context.Background()

	result, err := g.Upload(ctx, pngBytes, "pasted-image", "/notes")
	require.NoError(t, err)

	local, err := g.Download(ctx, result.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "pasted-image.png", local)
}

func TestRenameRefusesOverwrite(t *testing.T) {
	g, _, _ := prepare(t, "")
	ctx := context.Background()

	_, err := g.Upload(ctx, []byte("a"), "a.png", "/")
	require.NoError(t, err)
	_, err = g.Upload(ctx, []byte("b"), "b.png", "/")
	require.NoError(t, err)

	err = g.Rename(ctx, "/a.png", "/b.png")
	assert.ErrorIs(t, err, webdav.ErrDestinationExists)

	require.NoError(t, g.Rename(ctx, "/a.png", "/c.png"))
}

func TestDeleteByPublicURL(t *testing.T) {
	g, srv, _ := prepare(t, "")
	ctx := context.Background()

	result, err := g.Upload(ctx, []byte("x"), "gone.png", "/")
	require.NoError(t, err)
	require.NoError(t, g.Delete(ctx, result.URL))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	_, ok := srv.files["/gone.png"]
	assert.False(t, ok)
}

func TestGatewayTestConnection(t *testing.T) {
	g, _, _ := prepare(t, "")
	assert.Equal(t, "", g.TestConnection(context.Background()))
}
