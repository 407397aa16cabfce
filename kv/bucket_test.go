// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	var (
		b1 = kv.Bucket("b1")
		b2 = kv.Bucket("b2")
		s1 = b1.NewStore(db)
		s2 = b2.NewStore(db)
	)

	require.NoError(t, s1.Put([]byte("k"), []byte("v1")))
	require.NoError(t, s2.Put([]byte("k"), []byte("v2")))

	v, err := s1.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = db.Get([]byte("b2k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	_, err = s1.Get([]byte("missing"))
	assert.True(t, s1.IsNotFound(err))

	bulk := s1.Bulk()
	require.NoError(t, bulk.Put([]byte("x1"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("x2"), []byte("2")))
	require.NoError(t, bulk.Delete([]byte("k")))
	assert.Equal(t, 3, bulk.Len())
	require.NoError(t, bulk.Write())

	has, err := s1.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)

	iter := s1.Iterate(kv.Range{})
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"x1", "x2"}, keys, "keys are stripped of the bucket and never leak into other buckets")

	prefixed := s1.Iterate(kv.PrefixRange([]byte("x2")))
	defer prefixed.Release()
	require.True(t, prefixed.Next())
	assert.Equal(t, []byte("x2"), prefixed.Key())
	assert.False(t, prefixed.Next())
}
