// Package assets is the public face of the sync: upload, download,
// rename and delete of attachments in terms of local files and public
// URLs, with the wire work delegated to the webdav client.
package assets

import (
	"context"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joellti/davassets/davurl"
	"github.com/joellti/davassets/webdav"
)

// Store is the local file store downloads are written into.  The
// core consumes it; the host application implements it.
type Store interface {
	// CreateBinary writes data to the local path p, creating parents
	// as needed
	CreateBinary(p string, data []byte) error
	// AvailablePath picks a local path for name that does not collide
	// with existing files, using hint to choose the folder
	AvailablePath(name, hint string) (string, error)
}

// TransferResult is returned on a successful upload.  Ownership of
// the uploaded bytes passes to the server; nothing is tracked
// locally afterwards.
type TransferResult struct {
	Name string // the file name as uploaded
	URL  string // the public URL of the uploaded file
}

// Gateway ties the webdav client, the URL codec and the local store
// together
type Gateway struct {
	client *webdav.Client
	urls   davurl.Config
	store  Store
	log    *logrus.Entry
}

// NewGateway makes a Gateway.  urls must describe the same endpoint
// the client was built for.
func NewGateway(client *webdav.Client, urls davurl.Config, store Store) *Gateway {
	return &Gateway{
		client: client,
		urls:   urls,
		store:  store,
		log:    logrus.WithField("component", "assets"),
	}
}

// Upload puts data at remoteDir/name and returns the public URL it is
// now reachable under
func (g *Gateway) Upload(ctx context.Context, data []byte, name, remoteDir string) (*TransferResult, error) {
	remotePath := path.Join("/", remoteDir, name)
	if err := g.client.Put(ctx, remotePath, data); err != nil {
		return nil, errors.Wrapf(err, "upload of %q failed", name)
	}
	g.log.WithFields(logrus.Fields{"name": name, "path": remotePath}).Debug("uploaded")
	return &TransferResult{
		Name: name,
		URL:  davurl.ToPublicURL(g.urls, remotePath),
	}, nil
}

// Download fetches the file behind publicURL and writes it into the
// local store under a non-colliding name, returning the local path.
// hint suggests the destination folder.
func (g *Gateway) Download(ctx context.Context, publicURL, hint string) (string, error) {
	remotePath, err := g.remotePathFor(publicURL)
	if err != nil {
		return "", err
	}
	data, err := g.client.Get(ctx, remotePath)
	if err != nil {
		return "", errors.Wrapf(err, "download of %q failed", publicURL)
	}
	name := path.Base(remotePath)
	if path.Ext(name) == "" {
		// no extension survived the round trip, sniff one
		name += mimetype.Detect(data).Extension()
	}
	local, err := g.store.AvailablePath(name, hint)
	if err != nil {
		return "", errors.Wrap(err, "couldn't pick a local path")
	}
	if err := g.store.CreateBinary(local, data); err != nil {
		return "", errors.Wrapf(err, "couldn't write %q", local)
	}
	g.log.WithFields(logrus.Fields{"url": publicURL, "local": local}).Debug("downloaded")
	return local, nil
}

// Rename moves oldPath to newPath on the server, never overwriting
func (g *Gateway) Rename(ctx context.Context, oldPath, newPath string) error {
	return g.client.Move(ctx, oldPath, newPath, false)
}

// Delete removes the file behind publicURL from the server
func (g *Gateway) Delete(ctx context.Context, publicURL string) error {
	remotePath, err := g.remotePathFor(publicURL)
	if err != nil {
		return err
	}
	return g.client.Delete(ctx, remotePath)
}

// remotePathFor maps a public URL back to the unescaped server path
// the client operates on.  The path carried by the URL is still
// wire-escaped; it has to be decoded here or the client would escape
// it a second time.
func (g *Gateway) remotePathFor(publicURL string) (string, error) {
	remotePath, err := davurl.DecodeFromWire(davurl.ToRemotePath(g.urls, publicURL))
	if err != nil {
		return "", errors.Wrapf(err, "couldn't decode the path of %q", publicURL)
	}
	return remotePath, nil
}

// TestConnection reports "" if the server is reachable or a
// human-readable diagnostic if not
func (g *Gateway) TestConnection(ctx context.Context) string {
	return g.client.TestConnection(ctx)
}
