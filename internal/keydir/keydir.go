// Package keydir is the in-memory index mapping each live key to the location
// of its latest record.
package keydir

import (
	"sort"
	"sync"

	"github.com/dgryski/go-farm"

	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

// Entry points at the latest known version of a key on disk.
//
// Older versions may still exist in frozen datafiles. The index holds
// whichever version was applied last, so callers apply records in log order.
type Entry struct {
	FileID    uint64 // Datafile id containing the record
	Offset    uint64 // Byte offset in the datafile where the record starts
	Length    uint64 // Total size of the record on disk (header + key + value)
	Timestamp record.Timestamp
}

// Index is what the engine needs from a keydir.
type Index interface {
	// Put points key at e, replacing any previous entry. It reports whether
	// key was new to the index.
	Put(key string, e Entry) bool
	Get(key string) (Entry, bool)
	// Delete removes key and reports whether it was present.
	Delete(key string) bool
	Len() int
	Keys() []string
}

const DefaultShards = 16

type shard struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// Sharded is an Index split across independently locked shards.
type Sharded struct {
	shards []*shard
}

var _ Index = (*Sharded)(nil)

// NewSharded returns an empty index with n shards (DefaultShards if n < 1).
func NewSharded(n int) *Sharded {
	if n < 1 {
		n = DefaultShards
	}
	s := &Sharded{shards: make([]*shard, n)}
	for i := range s.shards {
		s.shards[i] = &shard{m: make(map[string]Entry)}
	}
	return s
}

func (s *Sharded) shardFor(key string) *shard {
	return s.shards[farm.Hash32([]byte(key))%uint32(len(s.shards))]
}

func (s *Sharded) Put(key string, e Entry) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	_, existed := sh.m[key]
	sh.m[key] = e
	return !existed
}

func (s *Sharded) Get(key string) (Entry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.m[key]
	return e, ok
}

func (s *Sharded) Delete(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.m[key]; !ok {
		return false
	}
	delete(sh.m, key)
	return true
}

func (s *Sharded) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// Keys returns every key in sorted order.
func (s *Sharded) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.m {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}
