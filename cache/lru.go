// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides the record cache used in front of the kv store.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// LRU extends golang-lru with hit/miss accounting. Concurrent misses on the
// same key share one load.
type LRU struct {
	*lru.Cache
	stats Stats
	loads singleflight.Group
}

// NewLRU create a LRU cache instance.
// maxSize should be > 0, or an error returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{Cache: cache}, nil
}

// GetOrLoad returns the cached value of key, calling load on a miss and
// caching what it returns. Failed loads are not cached.
func (l *LRU) GetOrLoad(key string, load func() (any, error)) (any, error) {
	if v, ok := l.Get(key); ok {
		l.stats.Hit()
		return v, nil
	}
	l.stats.Miss()
	v, err, _ := l.loads.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		l.Add(key, v)
		return v, nil
	})
	return v, err
}

// Stats returns the hit/miss counters of GetOrLoad.
func (l *LRU) Stats() *Stats {
	return &l.stats
}

// Stats collects cache hit/miss.
type Stats struct {
	hit, miss atomic.Int64
	flag      atomic.Int32
}

func (cs *Stats) Hit() int64  { return cs.hit.Add(1) }
func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// Stats returns the number of hits and misses and whether the hit rate,
// in per mille, changed since the last call.
func (cs *Stats) Stats() (bool, int64, int64) {
	hit := cs.hit.Load()
	miss := cs.miss.Load()

	var rate float64
	if lookups := hit + miss; lookups > 0 {
		rate = float64(hit) / float64(lookups)
	}
	flag := int32(rate * 1000)
	return cs.flag.Swap(flag) != flag, hit, miss
}
