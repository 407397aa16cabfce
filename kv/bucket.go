// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket namespaces keys of a shared store by prefixing them with the
// bucket name. Ledger accounts and replay markers live in separate buckets
// of the same database.
type Bucket string

// Key returns key prefixed with the bucket name.
func (b Bucket) Key(key []byte) []byte {
	full := make([]byte, 0, len(b)+len(key))
	return append(append(full, b...), key...)
}

// NewGetter scopes src to the bucket.
func (b Bucket) NewGetter(src Getter) Getter { return &bucketGetter{b, src} }

// NewPutter scopes src to the bucket. Keys handed to src are freshly
// allocated since bulk putters retain them until Write.
func (b Bucket) NewPutter(src Putter) Putter { return &bucketPutter{b, src} }

// NewStore scopes src to the bucket. Iterated keys come back without the
// bucket prefix.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucketGetter{b, src}, bucketPutter{b, src}, src}
}

// PrefixRange returns the range covering all keys with the given prefix.
func PrefixRange(prefix []byte) Range {
	r := util.BytesPrefix(prefix)
	return Range{Start: r.Start, Limit: r.Limit}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.b.Key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.b.Key(key)) }
func (g *bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.src.Put(p.b.Key(key), val) }
func (p *bucketPutter) Delete(key []byte) error   { return p.src.Delete(p.b.Key(key)) }

type bucketBulk struct {
	bucketPutter
	bulk Bulk
}

func (k *bucketBulk) Len() int     { return k.bulk.Len() }
func (k *bucketBulk) Write() error { return k.bulk.Write() }

type bucketStore struct {
	bucketGetter
	bucketPutter
	src Store
}

func (s *bucketStore) Bulk() Bulk {
	bulk := s.src.Bulk()
	return &bucketBulk{bucketPutter{s.bucketGetter.b, bulk}, bulk}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	b := s.bucketGetter.b
	scoped := Range{Start: b.Key(r.Start), Limit: b.Key(r.Limit)}
	if len(r.Limit) == 0 {
		scoped.Limit = util.BytesPrefix([]byte(b)).Limit
	}
	return &bucketIterator{s.src.Iterate(scoped), len(b)}
}

type bucketIterator struct {
	Iterator
	strip int
}

func (i *bucketIterator) Key() []byte { return i.Iterator.Key()[i.strip:] }
