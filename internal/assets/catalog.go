package assets

import (
	"sync"
	"time"
)

// DefaultScanTTL bounds how often Catalog rescans the disk.
const DefaultScanTTL = 2 * time.Second

// Catalog caches brush listings for a brush root. It is safe for
// concurrent use and is meant to live as long as the host integration.
type Catalog struct {
	root string
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	brushes   []AssetDescriptor
	scannedAt time.Time
	valid     bool

	hits   int
	misses int
}

// NewCatalog creates a catalog for root. A zero ttl uses DefaultScanTTL.
func NewCatalog(root string, ttl time.Duration) *Catalog {
	if ttl == 0 {
		ttl = DefaultScanTTL
	}
	return &Catalog{root: root, ttl: ttl, now: time.Now}
}

// Root returns the brush root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Brushes returns the brush listing, rescanning when the cached one is
// older than the TTL.
func (c *Catalog) Brushes() ([]AssetDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.scannedAt) < c.ttl {
		c.hits++
		return c.brushes, nil
	}
	c.misses++

	brushes, err := ListBrushes(c.root)
	if err != nil {
		return nil, err
	}
	c.brushes = brushes
	c.scannedAt = c.now()
	c.valid = true
	return brushes, nil
}

// Lookup finds a brush by base name.
func (c *Catalog) Lookup(name string) (AssetDescriptor, bool, error) {
	brushes, err := c.Brushes()
	if err != nil {
		return AssetDescriptor{}, false, err
	}
	for _, b := range brushes {
		if b.Name == name {
			return b, true, nil
		}
	}
	return AssetDescriptor{}, false, nil
}

// Invalidate drops the cached listing.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.brushes = nil
}

// Stats returns cache statistics.
func (c *Catalog) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
