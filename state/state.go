// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/stackedmap"
	"github.com/vechain/stakepool/thor"
)

const (
	// AccountBucket is the kv bucket holding program owned records.
	AccountBucket kv.Bucket = "a"
	// MarkerBucket is the kv bucket holding executed transaction markers.
	MarkerBucket kv.Bucket = "x"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	accountKey struct {
		program thor.Address
		account thor.Address
	}
	markerKey thor.Bytes32
)

func (k accountKey) encode() []byte {
	return append(append(make([]byte, 0, 40), k.program[:]...), k.account[:]...)
}

// State holds the uncommitted changes on top of the kv store.
type State struct {
	accounts kv.Getter
	markers  kv.Getter
	cache    *cache.LRU
	sm       *stackedmap.StackedMap[any, any]
}

// New create state object.
func New(store kv.Store) *State {
	return newState(store, nil)
}

func newState(store kv.Getter, c *cache.LRU) *State {
	s := &State{
		accounts: AccountBucket.NewGetter(store),
		markers:  MarkerBucket.NewGetter(store),
		cache:    c,
	}
	s.sm = stackedmap.New[any, any](s.cacheGetter)
	s.sm.Push()
	return s
}

// cacheGetter is the stackedmap.Source of the state.
func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case accountKey:
		if s.cache == nil {
			raw, err := s.loadAccount(k)
			if err != nil {
				return nil, false, err
			}
			return raw, true, nil
		}
		v, err := s.cache.GetOrLoad(string(k.encode()), func() (any, error) {
			return s.loadAccount(k)
		})
		if err != nil {
			return nil, false, err
		}
		return v.([]byte), true, nil
	case markerKey:
		has, err := s.markers.Has(k[:])
		if err != nil {
			return nil, false, err
		}
		return has, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadAccount(k accountKey) ([]byte, error) {
	raw, err := s.accounts.Get(k.encode())
	if err != nil {
		if s.accounts.IsNotFound(err) {
			return []byte(nil), nil
		}
		return nil, err
	}
	return raw, nil
}

// GetRaw returns the record stored for the account under program.
// A nil slice means no record. The returned slice must not be modified.
func (s *State) GetRaw(program, account thor.Address) ([]byte, error) {
	v, _, err := s.sm.Get(accountKey{program, account})
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// SetRaw replaces the record of the account under program. An empty raw removes it.
func (s *State) SetRaw(program, account thor.Address, raw []byte) {
	if len(raw) == 0 {
		raw = nil
	} else {
		raw = append([]byte(nil), raw...)
	}
	s.sm.Put(accountKey{program, account}, raw)
}

// Exists returns whether a record exists for the account under program.
func (s *State) Exists(program, account thor.Address) (bool, error) {
	raw, err := s.GetRaw(program, account)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// EncodeAccount sets the record encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeAccount(program, account thor.Address, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRaw(program, account, raw)
	return nil
}

// DecodeAccount gets and decodes the record. dec is called with an empty slice when
// there's no record. Error returned by dec will be absorbed by State instance.
func (s *State) DecodeAccount(program, account thor.Address, dec func([]byte) error) error {
	raw, err := s.GetRaw(program, account)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// HasMarker returns whether the marker was set.
func (s *State) HasMarker(id thor.Bytes32) (bool, error) {
	v, _, err := s.sm.Get(markerKey(id))
	if err != nil {
		return false, &Error{err}
	}
	return v.(bool), nil
}

// SetMarker sets the marker of id. Markers are never removed.
func (s *State) SetMarker(id thor.Bytes32) {
	s.sm.Put(markerKey(id), true)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute hash of changes or commit them.
func (s *State) Stage() *Stage {
	var (
		accounts = make(map[accountKey][]byte)
		markers  = make(map[thor.Bytes32]struct{})
	)
	// later entries override earlier ones
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case accountKey:
			accounts[key] = v.([]byte)
		case markerKey:
			markers[thor.Bytes32(key)] = struct{}{}
		}
		return true
	})
	return newStage(accounts, markers, s.cache)
}
