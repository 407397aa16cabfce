// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/thor"
)

// Stater is the state creator.
type Stater struct {
	store kv.Store
	cache *cache.LRU
}

// NewStater create a new stater. cacheSize is the count of records kept decoded in memory,
// caching is disabled when it's not positive.
func NewStater(store kv.Store, cacheSize int) *Stater {
	var c *cache.LRU
	if cacheSize > 0 {
		c, _ = cache.NewLRU(cacheSize)
	}
	return &Stater{store, c}
}

// NewState create a new state object on top of the committed records.
func (s *Stater) NewState() *State {
	return newState(s.store, s.cache)
}

// Commit writes the staged changes.
func (s *Stater) Commit(stage *Stage) (thor.Bytes32, error) {
	return stage.Commit(s.store)
}

// CacheStats returns the record cache counters, nil when caching is disabled.
func (s *Stater) CacheStats() *cache.Stats {
	if s.cache == nil {
		return nil
	}
	return s.cache.Stats()
}

// Iterate walks the committed records of program in address order.
// The traversal stops if fn returns false.
func (s *Stater) Iterate(program thor.Address, fn func(account thor.Address, raw []byte) bool) error {
	iter := AccountBucket.NewStore(s.store).Iterate(kv.PrefixRange(program[:]))
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		if len(key) != 40 {
			continue
		}
		if !fn(thor.BytesToAddress(key[20:]), append([]byte(nil), iter.Value()...)) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return &Error{err}
	}
	return nil
}
