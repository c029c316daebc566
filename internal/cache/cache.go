// Package cache stores upstream responses so repeated lookups do not hit
// rate-limited public services.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/woozymasta/geotoolbox/internal/metrics"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Key namespaces.
const (
	NamespaceOverpass = "overpass"
	NamespaceGeocode  = "geocode"
	NamespaceReverse  = "reverse"
)

// Store caches opaque values by key.
type Store interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, ns, key string) ([]byte, bool)
	// Set stores a value for ttl. A zero ttl never expires.
	Set(ctx context.Context, ns, key string, value []byte, ttl time.Duration) error
	Close() error
}

// BadgerStore is a Store backed by Badger.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a persistent store at path. An empty path keeps the data in memory.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Bool("in_memory", path == "").Msg("Response cache opened")
	return &BadgerStore{db: db}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, ns, key string) ([]byte, bool) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(ns, key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})

	hit := err == nil
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		log.Warn().Err(err).Str("namespace", ns).Msg("Cache read failed")
	}
	metrics.ObserveCache(ns, hit)

	return out, hit
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, ns, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(storeKey(ns, key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

func storeKey(ns, key string) []byte {
	return []byte(ns + ":" + key)
}

// Nop is a Store that never hits.
type Nop struct{}

// NewNop returns a disabled cache.
func NewNop() Nop { return Nop{} }

// Get implements Store.
func (Nop) Get(context.Context, string, string) ([]byte, bool) { return nil, false }

// Set implements Store.
func (Nop) Set(context.Context, string, string, []byte, time.Duration) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }
