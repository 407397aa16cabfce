// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap provides a journaled map with nested checkpoints,
// used to stage ledger writes of a transaction before they are committed
// or thrown away.
package stackedmap

// Source loads values missing from every level of the map.
type Source[K comparable, V any] func(key K) (value V, exist bool, err error)

// StackedMap is a stack of maps. Reads fall through the levels from the
// top down to the source; writes go to the top level and are journaled.
// Popping a level reverts every write made since the matching Push.
type StackedMap[K comparable, V any] struct {
	src    Source[K, V]
	levels []level[K, V]
	// owners lists, per key, the levels holding a value for it, lowest first.
	owners map[K][]int
}

type level[K comparable, V any] struct {
	values  map[K]V
	journal []entry[K, V]
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New returns an empty map over src. Push must be called before Put.
func New[K comparable, V any](src Source[K, V]) *StackedMap[K, V] {
	return &StackedMap[K, V]{src: src, owners: make(map[K][]int)}
}

// Depth returns the number of levels.
func (sm *StackedMap[K, V]) Depth() int { return len(sm.levels) }

// Push adds a level and returns the depth before the push, which can be
// handed to PopTo to undo it.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, level[K, V]{values: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop drops the top level with all its writes.
func (sm *StackedMap[K, V]) Pop() {
	top := len(sm.levels) - 1
	for key := range sm.levels[top].values {
		owners := sm.owners[key]
		if len(owners) == 1 {
			delete(sm.owners, key)
		} else {
			sm.owners[key] = owners[:len(owners)-1]
		}
	}
	sm.levels = sm.levels[:top]
}

// PopTo pops levels until the depth is at most depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get returns the newest value of key, falling back to the source.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if owners, ok := sm.owners[key]; ok {
		return sm.levels[owners[len(owners)-1]].values[key], true, nil
	}
	return sm.src(key)
}

// Put writes key at the top level. It panics when there is no level.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	top := len(sm.levels) - 1
	lvl := &sm.levels[top]
	lvl.values[key] = value
	lvl.journal = append(lvl.journal, entry[K, V]{key, value})

	if owners := sm.owners[key]; len(owners) == 0 || owners[len(owners)-1] != top {
		sm.owners[key] = append(owners, top)
	}
}

// Journal calls fn with every write still on the stack, oldest first,
// until fn returns false.
func (sm *StackedMap[K, V]) Journal(fn func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}
