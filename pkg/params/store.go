// Package params provides the in-process parameter store a node exposes
// through its Get/Set/Has/DeleteParam surface. Keys are slash-separated
// names ("/ns/name"); values are arbitrary. Parameters never expire.
package params

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type Options struct {
	Shards int // number of shards (default 64)
}

func (o *Options) withDefaults() Options {
	res := *o
	if res.Shards <= 0 {
		res.Shards = 64
	}
	return res
}

type Store struct {
	opts   Options
	shards []shard

	mKeys   atomic.Uint64
	mSets   atomic.Uint64
	mGets   atomic.Uint64
	mHits   atomic.Uint64
	mMisses atomic.Uint64
	mDels   atomic.Uint64
}

type shard struct {
	mu sync.RWMutex
	m  map[string]any
}

func New(opts Options) *Store {
	opts = opts.withDefaults()
	s := &Store{
		opts:   opts,
		shards: make([]shard, opts.Shards),
	}
	for i := range s.shards {
		s.shards[i].m = make(map[string]any, 16)
	}
	return s
}

// Canonical normalizes a parameter name to its canonical "/a/b" form.
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "/"
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for strings.Contains(name, "//") {
		name = strings.ReplaceAll(name, "//", "/")
	}
	if len(name) > 1 {
		name = strings.TrimSuffix(name, "/")
	}
	return name
}

func (s *Store) shardFor(key string) *shard {
	// FNV-1a 64
	var h uint64 = 1469598103934665603
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	return &s.shards[int(h%uint64(len(s.shards)))]
}

// Set stores a parameter. Returns true if the key was created rather than
// overwritten.
func (s *Store) Set(name string, val any) bool {
	key := Canonical(name)
	sh := s.shardFor(key)
	sh.mu.Lock()
	_, existed := sh.m[key]
	sh.m[key] = val
	sh.mu.Unlock()
	if !existed {
		s.mKeys.Add(1)
	}
	s.mSets.Add(1)
	return !existed
}

func (s *Store) Get(name string) (any, bool) {
	key := Canonical(name)
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	s.mGets.Add(1)
	if ok {
		s.mHits.Add(1)
	} else {
		s.mMisses.Add(1)
	}
	return v, ok
}

func (s *Store) Has(name string) bool {
	key := Canonical(name)
	sh := s.shardFor(key)
	sh.mu.RLock()
	_, ok := sh.m[key]
	sh.mu.RUnlock()
	return ok
}

func (s *Store) Delete(name string) bool {
	key := Canonical(name)
	sh := s.shardFor(key)
	sh.mu.Lock()
	_, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()
	if ok {
		s.mDels.Add(1)
		s.mKeys.Add(^uint64(0))
	}
	return ok
}

// Keys returns all parameter names under the given namespace prefix,
// sorted. An empty or "/" namespace lists everything.
func (s *Store) Keys(ns string) []string {
	prefix := Canonical(ns)
	all := prefix == "/"
	var out []string
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k := range sh.m {
			if all || k == prefix || strings.HasPrefix(k, prefix+"/") {
				out = append(out, k)
			}
		}
		sh.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	return int(s.mKeys.Load())
}

// Stats is a snapshot of store counters. Reading it does not block
// store operations.
type Stats struct {
	Keys   uint64
	Sets   uint64
	Gets   uint64
	Hits   uint64
	Misses uint64
	Dels   uint64
}

func (s *Store) Metrics() Stats {
	return Stats{
		Keys:   s.mKeys.Load(),
		Sets:   s.mSets.Load(),
		Gets:   s.mGets.Load(),
		Hits:   s.mHits.Load(),
		Misses: s.mMisses.Load(),
		Dels:   s.mDels.Load(),
	}
}
