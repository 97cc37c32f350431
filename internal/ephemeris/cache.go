package ephemeris

import (
	"sync"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// record is the cache's internal union of the two ephemeris shapes kept
// per satellite key.
type record struct {
	kepler   *KeplerEphemeris
	glonass  *GlonassEphemeris
}

func (r record) refTime() float64 {
	if r.kepler != nil {
		return r.kepler.RefTime()
	}
	return r.glonass.RefTime()
}

// Cache is the thread-safe, eventually-consistent mapping from satellite
// key to latest ephemeris described in spec.md 4.3: at most one record
// per key, replaced only when the incoming record's reference-time field
// differs from the stored one's.
type Cache struct {
	mu      sync.RWMutex
	records map[gnss.SatKey]record

	// Updates counts every insert-or-replace, for observability and for
	// the overwrite-policy acceptance test (spec.md E2).
	Updates uint64
}

// NewCache creates an empty ephemeris cache.
func NewCache() *Cache {
	return &Cache{records: make(map[gnss.SatKey]record)}
}

// PutKepler installs eph for key if the cache holds nothing for key yet,
// or if eph.ToeS differs from the stored record's.
func (c *Cache) PutKepler(key gnss.SatKey, eph *KeplerEphemeris) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.records[key]
	if ok && existing.refTime() == eph.RefTime() {
		return
	}
	c.records[key] = record{kepler: eph}
	c.Updates++
}

// PutGlonass installs eph for key under the same overwrite policy as
// PutKepler, keyed by Tb instead of Toe.
func (c *Cache) PutGlonass(key gnss.SatKey, eph *GlonassEphemeris) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.records[key]
	if ok && existing.refTime() == eph.RefTime() {
		return
	}
	c.records[key] = record{glonass: eph}
	c.Updates++
}

// Kepler returns a copy-on-read snapshot of the Keplerian ephemeris
// cached for key, if any.
func (c *Cache) Kepler(key gnss.SatKey) (KeplerEphemeris, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[key]
	if !ok || r.kepler == nil {
		return KeplerEphemeris{}, false
	}
	return *r.kepler, true
}

// Glonass returns a copy-on-read snapshot of the GLONASS ephemeris
// cached for key, if any.
func (c *Cache) Glonass(key gnss.SatKey) (GlonassEphemeris, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[key]
	if !ok || r.glonass == nil {
		return GlonassEphemeris{}, false
	}
	return *r.glonass, true
}

// Has reports whether any ephemeris is cached for key.
func (c *Cache) Has(key gnss.SatKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.records[key]
	return ok
}

// Len reports the number of distinct satellite keys cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
