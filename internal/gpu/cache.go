// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cae/internal/core"
)

// CacheStats is a snapshot of cache traffic. Hits and Misses are monotonic
// over the cache's lifetime.
type CacheStats struct {
	Len      int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// cacheEntry pairs a tile with its recency-list node.
type cacheEntry struct {
	tile *Tile
	node *lruNode[core.TileKey]
}

// TileCache maps tile keys to device-resident tiles with LRU eviction.
// Eviction releases a tile's GPU buffer before removing its key, so every
// tile present in the map is device-allocated.
//
// The cache is owned by the assembler and accessed only from the control
// goroutine; the pipeline's fence-serialized execution makes locking
// unnecessary.
type TileCache struct {
	device   hal.Device
	capacity int

	entries map[core.TileKey]*cacheEntry
	lru     *lruList[core.TileKey]

	hits   uint64
	misses uint64
}

// NewTileCache creates a cache holding at most capacity tiles.
// capacity 0 disables caching: every Get misses and Insert releases nothing
// because it never takes ownership.
func NewTileCache(dev *Device, capacity int) *TileCache {
	device, _ := dev.HAL()
	slogger().Info("tile cache: init", "capacity", capacity)
	return &TileCache{
		device:   device,
		capacity: capacity,
		entries:  make(map[core.TileKey]*cacheEntry),
		lru:      newLRUList[core.TileKey](),
	}
}

// Enabled reports whether the cache stores anything at all.
func (c *TileCache) Enabled() bool { return c.capacity > 0 }

// Get returns the tile for key and promotes it to most recently used.
func (c *TileCache) Get(key core.TileKey) (*Tile, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		slogger().Debug("tile cache: miss", "key", key.String(), "hits", c.hits, "misses", c.misses)
		return nil, false
	}
	c.lru.MoveToFront(e.node)
	c.hits++
	slogger().Debug("tile cache: hit", "key", key.String(), "hits", c.hits, "misses", c.misses)
	return e.tile, true
}

// Insert installs a tile as most recently used, taking ownership of its
// buffer. If the cache is over capacity the least recently used tiles are
// evicted, releasing their buffers. With caching disabled Insert is a no-op
// and ownership stays with the caller.
func (c *TileCache) Insert(key core.TileKey, tile *Tile) {
	if c.capacity <= 0 {
		return
	}

	if existing, ok := c.entries[key]; ok {
		// Identical recomputation; keep the fresh buffer.
		existing.tile.release(c.device)
		existing.tile = tile
		c.lru.MoveToFront(existing.node)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		if e, ok := c.entries[oldest]; ok {
			e.tile.release(c.device)
			delete(c.entries, oldest)
		}
		slogger().Debug("tile cache: evict", "key", oldest.String(), "len", len(c.entries))
	}

	node := c.lru.PushFront(key)
	c.entries[key] = &cacheEntry{tile: tile, node: node}
	slogger().Debug("tile cache: insert", "key", key.String(), "len", len(c.entries), "capacity", c.capacity)
}

// Clear releases every tile and empties the cache. Used when the rule or
// initial state changes: tiles under different fingerprints never alias.
func (c *TileCache) Clear() {
	for key, e := range c.entries {
		e.tile.release(c.device)
		delete(c.entries, key)
	}
	c.lru.Clear()
}

// Keys returns the cached keys from most to least recently used.
func (c *TileCache) Keys() []core.TileKey {
	keys := make([]core.TileKey, 0, len(c.entries))
	for n := c.lru.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Stats returns a snapshot of cache size and traffic.
func (c *TileCache) Stats() CacheStats {
	return CacheStats{
		Len:      len(c.entries),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}
