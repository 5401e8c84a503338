package balancer

import (
	"sync"
	"testing"

	"GameStore/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instances(ids ...string) []registry.Instance {
	out := make([]registry.Instance, len(ids))
	for i, id := range ids {
		out[i] = registry.Instance{ID: id}
	}
	return out
}

func pickIDs(t *testing.T, rr *RoundRobin, service string, set []registry.Instance, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		inst, ok := rr.Pick(service, set)
		require.True(t, ok)
		ids = append(ids, inst.ID)
	}
	return ids
}

func TestPickRotates(t *testing.T) {
	rr := NewRoundRobin()
	set := instances("a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, pickIDs(t, rr, "game-service", set, 7))
}

func TestPickEvenDistribution(t *testing.T) {
	rr := NewRoundRobin()
	set := instances("a", "b", "c", "d")
	counts := map[string]int{}
	for _, id := range pickIDs(t, rr, "svc", set, 400) {
		counts[id]++
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, 100, counts[id])
	}
}

func TestPickCursorPerService(t *testing.T) {
	rr := NewRoundRobin()
	set := instances("a", "b")
	assert.Equal(t, []string{"a"}, pickIDs(t, rr, "user-service", set, 1))
	assert.Equal(t, []string{"a", "b"}, pickIDs(t, rr, "cart-service", set, 2))
	assert.Equal(t, []string{"b"}, pickIDs(t, rr, "user-service", set, 1))
}

func TestPickSetShrinks(t *testing.T) {
	rr := NewRoundRobin()
	assert.Equal(t, []string{"a", "b", "c"}, pickIDs(t, rr, "svc", instances("a", "b", "c", "d"), 3))
	// cursor is 3; with two instances it is reduced to 1
	assert.Equal(t, []string{"y", "x"}, pickIDs(t, rr, "svc", instances("x", "y"), 2))
}

func TestPickEmpty(t *testing.T) {
	rr := NewRoundRobin()
	pickIDs(t, rr, "svc", instances("a", "b"), 1)

	_, ok := rr.Pick("svc", nil)
	assert.False(t, ok)

	// the empty lookup did not move the cursor
	assert.Equal(t, []string{"b"}, pickIDs(t, rr, "svc", instances("a", "b"), 1))
}

func TestReset(t *testing.T) {
	rr := NewRoundRobin()
	set := instances("a", "b", "c")
	pickIDs(t, rr, "svc", set, 2)
	rr.Reset("svc")
	assert.Equal(t, []string{"a"}, pickIDs(t, rr, "svc", set, 1))
}

func TestPickConcurrent(t *testing.T) {
	rr := NewRoundRobin()
	set := instances("a", "b", "c")

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 30; i++ {
				inst, _ := rr.Pick("svc", set)
				mu.Lock()
				counts[inst.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"a": 100, "b": 100, "c": 100}, counts)
}
