// Package davurl maps between public URLs and server-relative paths
// for a configured webdav endpoint.
//
// All functions are pure - the same Config must be used for a URL to
// round-trip exactly.
package davurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Config describes the server that public URLs belong to
type Config struct {
	BaseURL string // URL of the webdav endpoint, no trailing slash
	Token   string // revealed access token, empty if none configured
}

// uriEscape percent-encodes the characters of s which are not valid
// in a URI, leaving the URI reserved characters alone.
//
// This matches what a browser's encodeURI does so that URLs built
// here and URLs pasted from a browser compare equal.
func uriEscape(s string) string {
	const keep = ";,/?:@&=+$-_.!~*'()#"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte(keep, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// tokenSuffix returns the escaped query string ToPublicURL appends for
// the configured token, or "" if no token is configured.
func tokenSuffix(c Config) string {
	if c.Token == "" {
		return ""
	}
	return uriEscape("?token=" + c.Token)
}

// ToPublicURL turns a server-relative path into the public URL for it.
//
// The token query string is appended before escaping so both go
// through the same single escaping pass.
func ToPublicURL(c Config, path string) string {
	return uriEscape(c.BaseURL+path) + tokenSuffix(c)
}

// ToRemotePath turns a public URL built by ToPublicURL back into the
// server-relative path.
//
// It deliberately does not URL-decode - decoding here would break the
// symmetry with how the URL was built.  If the configured token has
// changed since the URL was built the stale query string will not
// match and is left attached; callers must treat this as a known
// limitation.
func ToRemotePath(c Config, publicURL string) string {
	p := strings.TrimPrefix(publicURL, c.BaseURL)
	return strings.TrimSuffix(p, tokenSuffix(c))
}

// EncodeForWire percent-encodes each slash-separated segment of path
// independently, so literal slashes stay separators and are never
// double-encoded.
func EncodeForWire(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// DecodeFromWire reverses EncodeForWire segment by segment
func DecodeFromWire(path string) (string, error) {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return "", err
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), nil
}
