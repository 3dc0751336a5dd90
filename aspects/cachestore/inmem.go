package cachestore

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is unbounded and never evicts.
// Keys are spread over independently locked shards.
type InMemoryStore struct {
	shards []*shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewInMemoryStore(numShards int) (*InMemoryStore, error) {
	if numShards <= 0 {
		return nil, fmt.Errorf("%w: numShards %d", ErrInvalidConfig, numShards)
	}
	shards := make([]*shard, numShards)
	for i := range shards {
		shards[i] = &shard{m: make(map[string]any)}
	}
	return &InMemoryStore{shards: shards}, nil
}

func (s *InMemoryStore) shardOf(key string) *shard {
	if len(s.shards) == 1 {
		return s.shards[0]
	}
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *InMemoryStore) Load(key string) (any, bool, error) {
	sh := s.shardOf(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok, nil
}

func (s *InMemoryStore) InsertIfAbsent(key string, value any) (bool, error) {
	sh := s.shardOf(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.m[key]; ok {
		return false, nil
	}
	sh.m[key] = value
	return true, nil
}

// Len counts entries across all shards.
func (s *InMemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

func (s *InMemoryStore) Close() {}
