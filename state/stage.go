// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/qianbin/drlp"
	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/thor"
)

// Stage holds the net changes of a state, ready to be written.
type Stage struct {
	accounts []stagedAccount
	markers  []thor.Bytes32
	cache    *cache.LRU
}

type stagedAccount struct {
	key accountKey
	raw []byte
}

func newStage(accounts map[accountKey][]byte, markers map[thor.Bytes32]struct{}, c *cache.LRU) *Stage {
	st := &Stage{
		accounts: make([]stagedAccount, 0, len(accounts)),
		markers:  make([]thor.Bytes32, 0, len(markers)),
		cache:    c,
	}
	for k, raw := range accounts {
		st.accounts = append(st.accounts, stagedAccount{k, raw})
	}
	for id := range markers {
		st.markers = append(st.markers, id)
	}
	sort.Slice(st.accounts, func(i, j int) bool {
		return bytes.Compare(st.accounts[i].key.encode(), st.accounts[j].key.encode()) < 0
	})
	sort.Slice(st.markers, func(i, j int) bool {
		return bytes.Compare(st.markers[i][:], st.markers[j][:]) < 0
	})
	return st
}

// Len returns the count of changed records and markers.
func (s *Stage) Len() int {
	return len(s.accounts) + len(s.markers)
}

// Hash computes the digest of the changes. It doesn't depend on the order the changes were made in.
func (s *Stage) Hash() thor.Bytes32 {
	return thor.Blake2bFn(func(w io.Writer) {
		var size []byte
		for _, a := range s.accounts {
			size = drlp.AppendUint(size[:0], uint64(len(a.raw)))
			w.Write(a.key.encode())
			w.Write(size)
			w.Write(a.raw)
		}
		for _, id := range s.markers {
			w.Write(id[:])
		}
	})
}

// Commit writes all changes into the store in one batch, then refreshes the record cache.
// It returns the hash of the changes.
func (s *Stage) Commit(store kv.Store) (thor.Bytes32, error) {
	bulk := store.Bulk()
	accounts := AccountBucket.NewPutter(bulk)
	markers := MarkerBucket.NewPutter(bulk)

	for _, a := range s.accounts {
		var err error
		if len(a.raw) == 0 {
			err = accounts.Delete(a.key.encode())
		} else {
			err = accounts.Put(a.key.encode(), a.raw)
		}
		if err != nil {
			return thor.Bytes32{}, &Error{errors.Wrap(err, "stage account")}
		}
	}
	for _, id := range s.markers {
		if err := markers.Put(id[:], []byte{1}); err != nil {
			return thor.Bytes32{}, &Error{errors.Wrap(err, "stage marker")}
		}
	}
	if err := bulk.Write(); err != nil {
		return thor.Bytes32{}, &Error{errors.Wrap(err, "commit")}
	}

	if s.cache != nil {
		for _, a := range s.accounts {
			s.cache.Add(string(a.key.encode()), a.raw)
		}
	}
	return s.Hash(), nil
}
