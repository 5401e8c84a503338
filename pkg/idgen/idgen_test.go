package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDUniqueAndIncreasing(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	var last int64
	for i := 0; i < 1000; i++ {
		id := g.NextID()
		assert.Greater(t, id, last)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
		last = id
	}
}

func TestNextString(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)
	assert.NotEqual(t, g.NextString(), g.NextString())
}

func TestNewRejectsOutOfRangeNode(t *testing.T) {
	_, err := New(4096)
	assert.Error(t, err)
}
