// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb backs the ledger store with goleveldb, on disk or in memory.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/stakepool/kv"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

// minCacheMiB bounds both the block cache (MiB) and the open files cache.
const minCacheMiB = 16

// Options tunes a persistent instance.
type Options struct {
	CacheSize              int // MiB
	OpenFilesCacheCapacity int
}

// Writes are synced.
var writeOpt = &opt.WriteOptions{Sync: true}

// LevelDB is a kv.StoreCloser over a goleveldb database.
type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when absent.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb storage %s", path)
	}
	return open(stg, opts)
}

// NewMem opens an empty in-memory database.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cache := max(opts.CacheSize, minCacheMiB)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, minCacheMiB),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db}, nil
}

func (l *LevelDB) IsNotFound(err error) bool { return errors.Is(err, leveldb.ErrNotFound) }

// Get returns an error satisfying IsNotFound for absent keys.
func (l *LevelDB) Get(key []byte) ([]byte, error) { return l.db.Get(key, nil) }
func (l *LevelDB) Has(key []byte) (bool, error)   { return l.db.Has(key, nil) }
func (l *LevelDB) Put(key, val []byte) error      { return l.db.Put(key, val, writeOpt) }
func (l *LevelDB) Delete(key []byte) error        { return l.db.Delete(key, writeOpt) }
func (l *LevelDB) Close() error                   { return l.db.Close() }

// Bulk buffers puts and deletes into a batch applied atomically on Write.
func (l *LevelDB) Bulk() kv.Bulk {
	return &bulk{db: l.db, Batch: new(leveldb.Batch)}
}

// Iterate walks r in key order. An empty Limit means no upper bound.
func (l *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return l.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, nil)
}

type bulk struct {
	*leveldb.Batch
	db *leveldb.DB
}

func (b *bulk) Put(key, val []byte) error {
	b.Batch.Put(key, val)
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.Batch.Delete(key)
	return nil
}

func (b *bulk) Write() error {
	if err := b.db.Write(b.Batch, writeOpt); err != nil {
		return errors.Wrap(err, "write leveldb batch")
	}
	b.Reset()
	return nil
}
