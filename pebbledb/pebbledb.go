// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pebbledb implements kv.Store on top of cockroachdb pebble, as an alternative engine
// to level db.
package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/kv"
)

var _ kv.StoreCloser = (*PebbleDB)(nil)

// Options options for creating pebble db instance.
type Options struct {
	CacheSize    int // in MiB
	MaxOpenFiles int
}

// PebbleDB wraps pebble db impls.
type PebbleDB struct {
	db *pebble.DB
}

// New create a persistent pebble db instance at the given path.
func New(path string, opts Options) (*PebbleDB, error) {
	return open(path, opts, nil)
}

// NewMem create a pebble db in memory.
func NewMem() (*PebbleDB, error) {
	return open("", Options{}, vfs.NewMem())
}

func open(path string, opts Options, fs vfs.FS) (*PebbleDB, error) {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.MaxOpenFiles < 16 {
		opts.MaxOpenFiles = 16
	}

	cache := pebble.NewCache(int64(opts.CacheSize) * 1024 * 1024)
	defer cache.Unref()

	popts := &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: opts.MaxOpenFiles,
		FS:           fs,
		Levels: []pebble.LevelOptions{
			{FilterPolicy: bloom.FilterPolicy(10)},
		},
	}
	db, err := pebble.Open(path, popts)
	if err != nil {
		return nil, errors.Wrap(err, "open pebble db")
	}
	return &PebbleDB{db: db}, nil
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (p *PebbleDB) IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

// Get retrieve value for given key.
func (p *PebbleDB) Get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	cpy := make([]byte, len(val))
	copy(cpy, val)
	return cpy, nil
}

// Has returns whether a key exists.
func (p *PebbleDB) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if err != nil {
		if p.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

// Put save value fo give key.
func (p *PebbleDB) Put(key, val []byte) error {
	return p.db.Set(key, val, pebble.Sync)
}

// Delete deletes the give key and its value.
func (p *PebbleDB) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

// Close close the pebble db.
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// Bulk creates a bulk for atomic writing ops.
func (p *PebbleDB) Bulk() kv.Bulk {
	return &pebbleBulk{db: p.db, batch: p.db.NewBatch()}
}

// Iterate creates an iterator over the range.
func (p *PebbleDB) Iterate(r kv.Range) kv.Iterator {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: r.Start,
		UpperBound: r.Limit,
	})
	return &pebbleIterator{iter: iter, err: err}
}

type pebbleBulk struct {
	db    *pebble.DB
	batch *pebble.Batch
}

func (b *pebbleBulk) Put(key, val []byte) error {
	return b.batch.Set(key, val, nil)
}

func (b *pebbleBulk) Delete(key []byte) error {
	return b.batch.Delete(key, nil)
}

func (b *pebbleBulk) Len() int {
	return int(b.batch.Count())
}

func (b *pebbleBulk) Write() error {
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	b.batch.Close()
	b.batch = b.db.NewBatch()
	return nil
}

// pebbleIterator adapts pebble iterator, which needs to be positioned explicitly, to kv.Iterator.
type pebbleIterator struct {
	iter     *pebble.Iterator
	err      error
	started  bool
	released bool
}

func (i *pebbleIterator) Next() bool {
	if i.iter == nil || i.released {
		return false
	}
	if !i.started {
		i.started = true
		return i.iter.First()
	}
	return i.iter.Next()
}

func (i *pebbleIterator) Key() []byte {
	if i.iter == nil || !i.iter.Valid() {
		return nil
	}
	return i.iter.Key()
}

func (i *pebbleIterator) Value() []byte {
	if i.iter == nil || !i.iter.Valid() {
		return nil
	}
	return i.iter.Value()
}

func (i *pebbleIterator) Release() {
	if i.iter != nil && !i.released {
		i.released = true
		if err := i.iter.Close(); err != nil && i.err == nil {
			i.err = err
		}
	}
}

func (i *pebbleIterator) Error() error {
	if i.err != nil {
		return i.err
	}
	if i.iter == nil || i.released {
		return nil
	}
	return i.iter.Error()
}
