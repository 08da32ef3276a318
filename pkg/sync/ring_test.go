package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, 200)
	other := newRing(64, 200)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		slot := r.shard(key)
		require.True(t, slot >= 0 && slot < 64)

		for j := 0; j < 16; j++ {
			assert.Equal(t, slot, r.shard(key))
		}

		// Rings of the same size agree on placement
		assert.Equal(t, slot, other.shard(key))
	}
}

func TestRing_Distribution(t *testing.T) {
	slots := 5
	iterations := 500000
	marginOfError := 0.1
	expectedFrequency := iterations / slots

	r := newRing(slots, 200)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		hits[r.shard(Uint64Key(uint64(i)))]++
	}

	assert.Len(t, hits, slots)
	for _, hitCount := range hits {
		assert.True(t, math.Abs(float64(hitCount-expectedFrequency)) <= marginOfError*float64(expectedFrequency))
	}
}

func TestRing_SingleSlot(t *testing.T) {
	r := newRing(1, 10)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, r.shard(Uint64Key(uint64(i))))
	}
}
