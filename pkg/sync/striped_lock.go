package sync

import (
	"encoding/binary"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing(int(stripes), hashEntriesPerLock),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.hashRing.shard(key)]
}

// Lock acquires the write lock for key and returns its release func
func (l *StripedLock) Lock(key []byte) func() {
	mu := l.Get(key)
	mu.Lock()
	return mu.Unlock
}

// RLock acquires the read lock for key and returns its release func
func (l *StripedLock) RLock(key []byte) func() {
	mu := l.Get(key)
	mu.RLock()
	return mu.RUnlock
}

// Uint64Key encodes v as a key, for key spaces indexed by counters
func Uint64Key(v uint64) []byte {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], v)
	return key[:]
}
