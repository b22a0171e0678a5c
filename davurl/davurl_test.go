package davurl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURLRoundTrip(t *testing.T) {
	tests := []struct {
		config Config
		path   string
		url    string
	}{
		{
			config: Config{BaseURL: "https://dav.example.com/remote"},
			path:   "/notes/img.png",
			url:    "https://dav.example.com/remote/notes/img.png",
		},
		{
			config: Config{BaseURL: "https://dav.example.com/remote", Token: "s3cret"},
			path:   "/notes/img.png",
			url:    "https://dav.example.com/remote/notes/img.png?token=s3cret",
		},
		{
			config: Config{BaseURL: "https://dav.example.com"},
			path:   "/a/deep/tree/file.jpg",
			url:    "https://dav.example.com/a/deep/tree/file.jpg",
		},
		{
			// spaces are escaped in a single pass over the whole URL
			config: Config{BaseURL: "https://dav.example.com/remote"},
			path:   "/with space.png",
			url:    "https://dav.example.com/remote/with%20space.png",
		},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("Case=%d", i), func(t *testing.T) {
			url := ToPublicURL(test.config, test.path)
			assert.Equal(t, test.url, url)
		})
	}
}

func TestToRemotePathInvertsToPublicURL(t *testing.T) {
	// holds for URI-safe paths as long as the token is unchanged
	// between the two calls
	configs := []Config{
		{BaseURL: "https://dav.example.com/remote"},
		{BaseURL: "https://dav.example.com/remote", Token: "tok123"},
		{BaseURL: "http://localhost:8080"},
	}
	paths := []string{
		"/img.png",
		"/notes/img.png",
		"/a/b/c/d.jpg",
	}
	for _, config := range configs {
		for _, p := range paths {
			assert.Equal(t, p, ToRemotePath(config, ToPublicURL(config, p)),
				"config=%+v path=%q", config, p)
		}
	}
}

func TestToRemotePathStaleToken(t *testing.T) {
	// A token rotated between encode and decode no longer matches the
	// query string on the URL, which is left attached.  Known
	// limitation, not corrected here.
	oldConfig := Config{BaseURL: "https://dav.example.com/remote", Token: "old"}
	newConfig := Config{BaseURL: "https://dav.example.com/remote", Token: "new"}

	url := ToPublicURL(oldConfig, "/notes/img.png")
	assert.Equal(t, "/notes/img.png?token=old", ToRemotePath(newConfig, url))
}

func TestEncodeForWire(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{in: "/plain/file.png", out: "/plain/file.png"},
		{in: "/with space.png", out: "/with%20space.png"},
		{in: "/hash#name.png", out: "/hash%23name.png"},
		{in: "/query?name.png", out: "/query%3Fname.png"},
		{in: "/ünïcödé/ファイル.png", out: "/%C3%BCn%C3%AFc%C3%B6d%C3%A9/%E3%83%95%E3%82%A1%E3%82%A4%E3%83%AB.png"},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("Case=%d", i), func(t *testing.T) {
			encoded := EncodeForWire(test.in)
			assert.Equal(t, test.out, encoded)

			// decode is a left inverse of encode
			decoded, err := DecodeFromWire(encoded)
			require.NoError(t, err)
			assert.Equal(t, test.in, decoded)
		})
	}
}

func TestEncodeForWirePreservesSeparators(t *testing.T) {
	// slashes separate segments and must never be encoded
	encoded := EncodeForWire("/a b/c d/e f.png")
	assert.Equal(t, "/a%20b/c%20d/e%20f.png", encoded)
}
