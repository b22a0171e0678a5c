// Package proxy renders authenticated remote images inside a
// read-only view without exposing credentials in its markup.
//
// The host delivers batches of inserted view nodes; image elements
// pointing at the configured server are swapped to a loading
// indicator, fetched through the authenticated client, and re-pointed
// at a locally addressable blob resource.  Handles are cached so an
// element cycling in and out of the rendered tree costs at most one
// network fetch for the controller's lifetime.
package proxy

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/joellti/davassets/blobcache"
)

// Element is the view's handle on a rendered image node.
// Implementations must be comparable - the controller tracks them as
// map keys.
type Element interface {
	Src() string
	SetSrc(src string)
}

// Consumer is implemented by elements that can report when they have
// finished consuming their source, like an image firing its load
// event.  Ephemeral handles are revoked from that callback; elements
// without it are considered done as soon as the source is assigned.
type Consumer interface {
	OnConsumed(fn func())
}

// Mutation is one batch of structural changes in the rendered view
type Mutation struct {
	Added   []Element
	Removed []Element
}

// Feed delivers mutation batches to a subscriber and returns a way to
// stop observing
type Feed interface {
	Subscribe(fn func(Mutation)) (cancel func())
}

// Fetcher performs an authenticated download of a public URL
type Fetcher interface {
	GetURL(ctx context.Context, publicURL string) ([]byte, error)
}

// Lifetime selects who owns a fetched blob handle
type Lifetime int

const (
	// Cached handles live in the blob cache until eviction or teardown
	Cached Lifetime = iota
	// Ephemeral handles belong to the requesting element alone and
	// are revoked the moment it is done with them
	Ephemeral
)

// Options configures a Controller
type Options struct {
	Fetcher     Fetcher
	Cache       *blobcache.Cache
	BaseURL     string // only sources with this prefix are proxied
	Placeholder string // source shown while the fetch is in flight
	Lifetime    Lifetime
}

// Controller drives per-element placeholder/load/replace transitions
type Controller struct {
	fetcher     Fetcher
	cache       *blobcache.Cache
	baseURL     string
	placeholder string
	lifetime    Lifetime
	log         *logrus.Entry

	group singleflight.Group

	mu      sync.Mutex
	tracked map[Element]string // element -> original remote URL
	loaded  map[Element]bool   // elements this controller already pointed at a blob
	cancel  func()
	closed  bool
}

// New makes a Controller.  Attach it to a Feed or drive it directly
// with Observe.
func New(opt Options) *Controller {
	return &Controller{
		fetcher:     opt.Fetcher,
		cache:       opt.Cache,
		baseURL:     strings.TrimSuffix(opt.BaseURL, "/"),
		placeholder: opt.Placeholder,
		lifetime:    opt.Lifetime,
		log:         logrus.WithField("component", "imageproxy"),
		tracked:     make(map[Element]string),
		loaded:      make(map[Element]bool),
	}
}

// Attach subscribes the controller to a structural change feed
func (c *Controller) Attach(feed Feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cancel = feed.Subscribe(c.Observe)
}

// Observe handles one batch of structural changes.
//
// Removed nodes are deliberately ignored: an element scrolling out of
// the viewport keeps its tracking entry, and the blob cache is what
// makes its return cheap.
func (c *Controller) Observe(m Mutation) {
	for _, el := range m.Added {
		src := el.Src()
		if src == "" || !strings.HasPrefix(src, c.baseURL) {
			continue
		}
		c.mu.Lock()
		if c.closed || c.loaded[el] {
			c.mu.Unlock()
			continue
		}
		c.tracked[el] = src
		c.mu.Unlock()

		// Placeholder state: visible before any network activity
		el.SetSrc(c.placeholder)

		go c.load(el, src)
	}
}

// load moves one element from Placeholder to Loaded
func (c *Controller) load(el Element, remoteURL string) {
	h, err := c.lookupOrFetch(remoteURL)
	if err != nil {
		// Known gap: the element keeps showing the loading indicator.
		// The failure must stay visible in the logs, never retried
		// silently.
		c.log.WithField("url", remoteURL).WithError(err).Warn("authenticated image fetch failed")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.releaseOrphan(h)
		return
	}
	c.loaded[el] = true
	c.mu.Unlock()

	el.SetSrc(h.URL())

	if c.lifetime == Ephemeral {
		if consumer, ok := el.(Consumer); ok {
			consumer.OnConsumed(h.Revoke)
		} else {
			// source handed over synchronously, the element is done
			h.Revoke()
		}
	}
}

// releaseOrphan disposes of a handle whose element disappeared with
// the view before the fetch resolved.  Ephemeral handles have no
// other owner so they are revoked here; cached handles are revoked by
// the cache's own removal paths.
func (c *Controller) releaseOrphan(h *blobcache.Handle) {
	if c.lifetime == Ephemeral {
		h.Revoke()
	}
}

// lookupOrFetch returns the handle for remoteURL, fetching at most
// once however many loads overlap.  Concurrent loads for one URL
// share a single in-flight fetch; later loads see the cache entry.
func (c *Controller) lookupOrFetch(remoteURL string) (*blobcache.Handle, error) {
	if h, ok := c.cache.Get(remoteURL); ok {
		return h, nil
	}
	v, err, _ := c.group.Do(remoteURL, func() (interface{}, error) {
		// a racing load may have populated the cache already
		if h, ok := c.cache.Get(remoteURL); ok {
			return h, nil
		}
		data, err := c.fetcher.GetURL(context.Background(), remoteURL)
		if err != nil {
			return nil, err
		}
		h := blobcache.NewHandle(data)
		if c.lifetime == Cached {
			// the insert happens under the controller lock so Teardown
			// can't clear the cache between the check and the Put
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				h.Revoke()
				return h, nil
			}
			c.cache.Put(remoteURL, h)
			c.mu.Unlock()
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*blobcache.Handle), nil
}

// Teardown stops observing, releases every tracked element's blob
// association and empties the tracking set.  Safe to call twice.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.cancel = nil
	n := len(c.tracked)
	c.tracked = make(map[Element]string)
	c.loaded = make(map[Element]bool)
	c.cache.Clear()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.log.WithField("tracked", n).Debug("image proxy torn down")
}
