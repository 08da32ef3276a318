package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over the integers [0, size)
type ring struct {
	hashRing *treemap.Map

	// first caches the value of the lowest point, which keys hashing past the
	// last point wrap around to
	first int
}

// newRing returns a ring where each slot owns replicationFactor points
func newRing(size int, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for slot := 0; slot < size; slot++ {
		seed, _ := murmur3.Sum128([]byte(fmt.Sprintf("stripe%d", slot)))

		var point [12]byte
		binary.LittleEndian.PutUint64(point[:8], seed)
		for i := uint(0); i < replicationFactor; i++ {
			binary.LittleEndian.PutUint32(point[8:], uint32(i))
			hash, _ := murmur3.Sum128(point[:])
			hashRing.Put(int64(hash), slot)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, first := hashRing.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// shard consistently maps key to a slot
func (r *ring) shard(key []byte) int {
	raw, _ := murmur3.Sum128(key)
	if _, slot := r.hashRing.Ceiling(int64(raw)); slot != nil {
		return slot.(int)
	}
	return r.first
}
