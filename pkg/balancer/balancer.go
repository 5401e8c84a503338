// Package balancer picks one instance out of a service's healthy set.
package balancer

import (
	"sync"

	"GameStore/pkg/registry"
)

// RoundRobin keeps one cursor per service name. The cursor survives changes in the
// instance set; it is reduced modulo the current set size on every pick.
type RoundRobin struct {
	mu      sync.Mutex
	cursors map[string]int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{cursors: make(map[string]int)}
}

// Pick returns the next instance for service, or false when instances is empty.
// An empty set leaves the cursor untouched.
func (rr *RoundRobin) Pick(service string, instances []registry.Instance) (registry.Instance, bool) {
	if len(instances) == 0 {
		return registry.Instance{}, false
	}

	rr.mu.Lock()
	idx := rr.cursors[service] % len(instances)
	rr.cursors[service] = (idx + 1) % len(instances)
	rr.mu.Unlock()

	return instances[idx], true
}

// Reset forgets the cursor of service.
func (rr *RoundRobin) Reset(service string) {
	rr.mu.Lock()
	delete(rr.cursors, service)
	rr.mu.Unlock()
}
