// Package webdav implements the webdav operations needed to keep a
// local attachment store in sync with a remote server.
//
// Paths passed in are server-relative and unescaped; every operation
// escapes them segment-wise before they go on the wire.  A missing
// parent collection (the usual 409 from PUT and MOVE) is recovered by
// creating the ancestor collections and retrying exactly once.
package webdav

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joellti/davassets/davurl"
	"github.com/joellti/davassets/lib/rest"
	"github.com/joellti/davassets/webdav/api"
)

// ErrDestinationExists is returned by Move when the destination is
// already present and overwriting was not requested
var ErrDestinationExists = errors.New("destination already exists")

// Options configures a Client
type Options struct {
	URL        string       // URL of the webdav endpoint
	User       string       // username, may be empty
	Pass       string       // revealed password, may be empty
	HTTPClient *http.Client // defaults to http.DefaultClient
}

// Client issues webdav verbs against a configured endpoint
type Client struct {
	endpoint    *url.URL     // parsed endpoint
	endpointURL string       // endpoint as a string, no trailing slash
	srv         *rest.Client // the connection to the webdav server
	log         *logrus.Entry
}

// NewClient constructs a Client from the options passed in.
//
// The endpoint URL is normalized here, once - it never carries a
// trailing slash afterwards.
func NewClient(opt Options) (*Client, error) {
	endpointURL := strings.TrimSuffix(opt.URL, "/")
	if endpointURL == "" {
		return nil, errors.New("webdav: endpoint URL is required")
	}
	// parsed with a trailing slash so relative references resolve
	// under the endpoint's own base path
	u, err := url.Parse(endpointURL + "/")
	if err != nil {
		return nil, errors.Wrap(err, "webdav: couldn't parse endpoint URL")
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{
		endpoint:    u,
		endpointURL: endpointURL,
		srv:         rest.NewClient(hc).SetRoot(endpointURL),
		log:         logrus.WithField("endpoint", endpointURL),
	}
	if opt.User != "" || opt.Pass != "" {
		c.srv.SetUserPass(opt.User, opt.Pass)
	}
	c.srv.SetErrorHandler(errorHandler)
	return c, nil
}

// errorHandler parses a non 2xx error response into an *api.Error
func errorHandler(resp *http.Response) error {
	body, err := rest.ReadBody(resp)
	if err != nil {
		return errors.Wrap(err, "error when trying to read error from body")
	}
	// Decode error response
	errResponse := new(api.Error)
	err = xml.Unmarshal(body, &errResponse)
	if err != nil {
		// set the Message to be the body if can't parse the XML
		errResponse.Message = strings.TrimSpace(string(body))
	}
	errResponse.Status = resp.Status
	errResponse.StatusCode = resp.StatusCode
	return errResponse
}

// asAPIError returns the *api.Error buried in err, or nil
func asAPIError(err error) *api.Error {
	if apiErr, ok := errors.Cause(err).(*api.Error); ok {
		return apiErr
	}
	return nil
}

// normalizePath makes sure p starts with a / and has no trailing one
func normalizePath(p string) string {
	p = strings.TrimSuffix(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// filePath returns the wire-escaped form of the server-relative path
func (c *Client) filePath(p string) string {
	return davurl.EncodeForWire(normalizePath(p))
}

// Put uploads data to remotePath with an octet-stream content type.
//
// If the server answers 409 the parent collection is missing; the
// ancestors are created and the PUT retried exactly once.  Any other
// status >= 400 is returned as an *api.Error.
func (c *Client) Put(ctx context.Context, remotePath string, data []byte) error {
	opts := rest.Opts{
		Method:      "PUT",
		Path:        c.filePath(remotePath),
		ContentType: "application/octet-stream",
		NoResponse:  true,
	}
	retried := false
	for {
		size := int64(len(data))
		opts.Body = bytes.NewReader(data)
		opts.ContentLength = &size
		_, err := c.srv.Call(ctx, &opts)
		if err == nil {
			return nil
		}
		if apiErr := asAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusConflict && !retried {
			c.log.WithField("path", remotePath).Debug("PUT got 409, creating parent collections")
			if mkErr := c.mkParentDir(ctx, remotePath); mkErr != nil {
				return errors.Wrap(mkErr, "put: couldn't create parent collections")
			}
			retried = true
			continue
		}
		return err
	}
}

// Get downloads the content of remotePath
func (c *Client) Get(ctx context.Context, remotePath string) ([]byte, error) {
	opts := rest.Opts{
		Method: "GET",
		Path:   c.filePath(remotePath),
	}
	resp, err := c.srv.Call(ctx, &opts)
	if err != nil {
		return nil, err
	}
	return rest.ReadBody(resp)
}

// GetURL downloads an absolute URL through the same authenticated
// client.  Used for public URLs which already carry their own
// escaping and token query.
func (c *Client) GetURL(ctx context.Context, publicURL string) ([]byte, error) {
	opts := rest.Opts{
		Method:  "GET",
		RootURL: publicURL,
	}
	resp, err := c.srv.Call(ctx, &opts)
	if err != nil {
		return nil, err
	}
	return rest.ReadBody(resp)
}

// Delete removes remotePath
func (c *Client) Delete(ctx context.Context, remotePath string) error {
	opts := rest.Opts{
		Method:     "DELETE",
		Path:       c.filePath(remotePath),
		NoResponse: true,
	}
	_, err := c.srv.Call(ctx, &opts)
	return err
}

// Exists checks whether remotePath is present with a HEAD request
func (c *Client) Exists(ctx context.Context, remotePath string) (bool, error) {
	opts := rest.Opts{
		Method:     "HEAD",
		Path:       c.filePath(remotePath),
		NoResponse: true,
	}
	_, err := c.srv.Call(ctx, &opts)
	if err == nil {
		return true, nil
	}
	if apiErr := asAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// Move renames oldPath to newPath on the server.
//
// With overwrite disabled the destination is checked with a HEAD
// first - the Overwrite: F header is not reliable across server
// implementations so it can't be trusted alone.  A 412 from the MOVE
// still maps to ErrDestinationExists, which covers the race between
// the check and the move.
func (c *Client) Move(ctx context.Context, oldPath, newPath string, overwrite bool) error {
	overwriteFlag := "T"
	if !overwrite {
		overwriteFlag = "F"
		present, err := c.Exists(ctx, newPath)
		if err != nil {
			return errors.Wrap(err, "move: destination check failed")
		}
		if present {
			return ErrDestinationExists
		}
	}
	// the destination is joined as a relative reference so the
	// endpoint's own base path stays in front of it
	destinationURL, err := rest.URLJoin(c.endpoint, strings.TrimPrefix(c.filePath(newPath), "/"))
	if err != nil {
		return errors.Wrap(err, "move: couldn't join destination URL")
	}
	opts := rest.Opts{
		Method:     "MOVE",
		Path:       c.filePath(oldPath),
		NoResponse: true,
		ExtraHeaders: map[string]string{
			"Destination": destinationURL.String(),
			"Overwrite":   overwriteFlag,
		},
	}
	retried := false
	for {
		_, err := c.srv.Call(ctx, &opts)
		if err == nil {
			return nil
		}
		apiErr := asAPIError(err)
		if apiErr == nil {
			return err
		}
		if apiErr.StatusCode == http.StatusPreconditionFailed {
			return ErrDestinationExists
		}
		// some servers answer 404 or 500 rather than 409 when an
		// ancestor of the destination is missing
		switch apiErr.StatusCode {
		case http.StatusConflict, http.StatusNotFound, http.StatusInternalServerError:
			if !retried {
				c.log.WithField("path", newPath).Debug("MOVE failed, creating destination parent collections")
				if mkErr := c.mkParentDir(ctx, newPath); mkErr != nil {
					return errors.Wrap(mkErr, "move: couldn't create parent collections")
				}
				retried = true
				continue
			}
		}
		return err
	}
}

// mkParentDir creates the ancestors of remotePath if necessary
func (c *Client) mkParentDir(ctx context.Context, remotePath string) error {
	parent := path.Dir(normalizePath(remotePath))
	if parent == "/" || parent == "." {
		return nil
	}
	return c.MkdirAll(ctx, parent)
}

// MkdirAll creates dir and every ancestor of it, issuing MKCOL for
// each cumulative prefix.  405 and 409 mean the collection is already
// there and are tolerated; any other failing status aborts the
// remaining prefixes.
func (c *Client) MkdirAll(ctx context.Context, dir string) error {
	prefix := ""
	for _, segment := range strings.Split(strings.Trim(normalizePath(dir), "/"), "/") {
		if segment == "" {
			continue
		}
		prefix += "/" + segment
		if err := c.mkdir(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

// mkdir creates a single collection
func (c *Client) mkdir(ctx context.Context, dir string) error {
	opts := rest.Opts{
		Method: "MKCOL",
		// collections are addressed with a trailing /
		Path:       c.filePath(dir) + "/",
		NoResponse: true,
	}
	_, err := c.srv.Call(ctx, &opts)
	if apiErr := asAPIError(err); apiErr != nil {
		switch apiErr.StatusCode {
		case http.StatusMethodNotAllowed, http.StatusConflict, http.StatusNotAcceptable:
			// already exists
			return nil
		}
	}
	return err
}

// TestConnection probes the endpoint with a PROPFIND of Depth 0.
//
// This is diagnostic only: it returns "" when the server answers 207
// Multi-Status and a human-readable message for every other outcome,
// including transport failures.  It never returns an error.
func (c *Client) TestConnection(ctx context.Context) string {
	opts := rest.Opts{
		Method:       "PROPFIND",
		Path:         "/",
		IgnoreStatus: true,
		ExtraHeaders: map[string]string{
			"Depth": "0",
		},
	}
	resp, err := c.srv.Call(ctx, &opts)
	if err != nil {
		return fmt.Sprintf("connection to %s failed: %v", c.endpointURL, err)
	}
	if resp.StatusCode != http.StatusMultiStatus {
		_ = resp.Body.Close()
		return fmt.Sprintf("unexpected status %q from PROPFIND - check URL and credentials", resp.Status)
	}
	var result api.Multistatus
	if err := rest.DecodeXML(resp, &result); err != nil {
		return fmt.Sprintf("couldn't parse Multi-Status response: %v", err)
	}
	if len(result.Responses) > 0 && !result.Responses[0].Props.StatusOK() {
		return fmt.Sprintf("server reported a failing status %q for its root", result.Responses[0].Props.Status)
	}
	return ""
}

// CustomRequest issues an arbitrary verb against remotePath with the
// same escaping and auth wiring as every other operation.  The
// response is returned unvalidated - the caller inspects the status
// and closes the body.
func (c *Client) CustomRequest(ctx context.Context, remotePath, method string, headers map[string]string, body io.Reader) (*http.Response, error) {
	opts := rest.Opts{
		Method:       method,
		Path:         c.filePath(remotePath),
		Body:         body,
		ExtraHeaders: headers,
		IgnoreStatus: true,
	}
	return c.srv.Call(ctx, &opts)
}
