package ratchet

import (
	"quietwire/internal/domain"
	"quietwire/internal/util/memzero"
)

// cacheKey indexes a skipped message key by the remote ratchet key and the
// message number it belongs to.
type cacheKey struct {
	pub domain.X25519Public
	n   uint32
}

// skippedCache is a fixed-capacity store of message keys for messages that
// have not arrived yet. Insertion order is tracked so that the oldest entry
// is evicted first on overflow; an evicted message can never be decrypted
// again.
type skippedCache struct {
	capacity int
	order    []cacheKey
	keys     map[cacheKey][]byte
}

func newSkippedCache(capacity int) *skippedCache {
	return &skippedCache{
		capacity: capacity,
		keys:     make(map[cacheKey][]byte),
	}
}

// put stores mk, evicting the oldest entry when the cache is full. The
// cache owns mk from this point on.
func (c *skippedCache) put(pub domain.X25519Public, n uint32, mk []byte) {
	k := cacheKey{pub: pub, n: n}
	if _, exists := c.keys[k]; exists {
		return
	}
	for len(c.keys) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		memzero.Zero(c.keys[oldest])
		delete(c.keys, oldest)
	}
	c.keys[k] = mk
	c.order = append(c.order, k)
}

// take removes and returns the key for (pub, n), if present. An entry is
// consumable at most once.
func (c *skippedCache) take(pub domain.X25519Public, n uint32) ([]byte, bool) {
	k := cacheKey{pub: pub, n: n}
	mk, ok := c.keys[k]
	if !ok {
		return nil, false
	}
	delete(c.keys, k)
	for i := range c.order {
		if c.order[i] == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return mk, true
}

// contains reports whether any key for the given ratchet public is cached.
func (c *skippedCache) contains(pub domain.X25519Public) bool {
	for _, k := range c.order {
		if k.pub == pub {
			return true
		}
	}
	return false
}

func (c *skippedCache) len() int { return len(c.keys) }

// export returns the entries in insertion order, deep-copied.
func (c *skippedCache) export() []domain.SkippedKey {
	if len(c.order) == 0 {
		return nil
	}
	out := make([]domain.SkippedKey, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, domain.SkippedKey{
			RatchetKey:    k.pub,
			MessageNumber: k.n,
			Key:           append([]byte(nil), c.keys[k]...),
		})
	}
	return out
}

// restore replaces the cache contents with previously exported entries.
func (c *skippedCache) restore(entries []domain.SkippedKey) {
	c.wipe()
	for _, e := range entries {
		c.put(e.RatchetKey, e.MessageNumber, append([]byte(nil), e.Key...))
	}
}

// wipe zeroes and drops every cached key.
func (c *skippedCache) wipe() {
	for k, mk := range c.keys {
		memzero.Zero(mk)
		delete(c.keys, k)
	}
	c.order = c.order[:0]
}
