package value

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-jump"
)

// numShards controls how many independent intern tables VarName.New spreads
// lookups across. Each monitor process typically declares a few dozen to a
// few hundred distinct stream names, so a small, fixed shard count is enough
// to keep lock contention off the hot path without growing the structure
// dynamically.
const numShards = 16

// shard is one partition of the process-wide variable name table: an
// interned name's identity is an index into shard.names, and the table
// allows recovering the name from the index in O(1) for display and
// serialization.
type shard struct {
	mu    sync.RWMutex
	index map[string]uint32
	names []string
}

var shards [numShards]*shard

func init() {
	for i := range shards {
		shards[i] = &shard{index: make(map[string]uint32)}
	}
}

// VarName is an interned atom: two VarNames constructed from equal strings
// compare equal, clone and hash in O(1), and are ordered consistently (but
// arbitrarily) within one process run. This mirrors how the monitor this
// package is modeled on treats variable names as atoms rather than owned
// strings, avoiding repeated allocation and comparison of the same stream
// name throughout the dependency graph, constraint store and stream
// combinators.
type VarName struct {
	shardIdx uint8
	idx      uint32
}

// New interns name, returning the same VarName for equal strings across
// the lifetime of the process.
func New(name string) VarName {
	h := xxhash.Sum64String(name)
	shardIdx := uint8(jump.Hash(h, numShards))
	s := shards[shardIdx]

	s.mu.RLock()
	if i, ok := s.index[name]; ok {
		s.mu.RUnlock()
		return VarName{shardIdx: shardIdx, idx: i}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[name]; ok {
		return VarName{shardIdx: shardIdx, idx: i}
	}
	i := uint32(len(s.names))
	s.names = append(s.names, name)
	s.index[name] = i
	return VarName{shardIdx: shardIdx, idx: i}
}

// Name returns the original string for v.
func (v VarName) Name() string {
	s := shards[v.shardIdx]
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[v.idx]
}

// String implements fmt.Stringer.
func (v VarName) String() string { return v.Name() }

// Less gives a total, deterministic (if arbitrary in absolute terms) order
// over VarNames, used to produce stable iteration order for dot graphs and
// logs. It orders by name, not by interning order, so output does not
// depend on which variable happened to be declared first.
func (v VarName) Less(o VarName) bool { return v.Name() < o.Name() }

// Names interns a slice of strings, preserving order.
func Names(ss []string) []VarName {
	out := make([]VarName, len(ss))
	for i, s := range ss {
		out[i] = New(s)
	}
	return out
}
