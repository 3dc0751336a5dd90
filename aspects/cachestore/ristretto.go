package cachestore

import (
	"fmt"
	"sync"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

var _ Store = (*RistrettoStore)(nil)

// RistrettoStore is a bounded store: once maxEntries is reached ristretto's
// admission policy decides what stays. Use it only when unbounded growth is
// not acceptable.
type RistrettoStore struct {
	// serializes check-then-set so a key is still written at most once
	mu    sync.Mutex
	cache *ristretto.Cache[string, any]
}

func NewRistrettoStore(maxEntries int64) (*RistrettoStore, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: maxEntries %d", ErrInvalidConfig, maxEntries)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: maxEntries * 10, // ristretto recommends 10x the number of items
		MaxCost:     maxEntries,
		BufferItems: 64,
		// every entry costs 1, so MaxCost is an entry count
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &RistrettoStore{cache: cache}, nil
}

func (r *RistrettoStore) Load(key string) (any, bool, error) {
	v, ok := r.cache.Get(key)
	return v, ok, nil
}

func (r *RistrettoStore) InsertIfAbsent(key string, value any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache.Get(key); ok {
		return false, nil
	}
	if !r.cache.Set(key, value, 1) {
		// dropped by the admission buffer, the next miss will retry
		return false, nil
	}
	r.cache.Wait()
	return true, nil
}

func (r *RistrettoStore) Close() {
	r.cache.Close()
}
