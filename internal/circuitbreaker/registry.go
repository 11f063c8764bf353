package circuitbreaker

import (
	"sync"
)

const (
	EngineRollingWindow = "rolling-window"
	EngineGoBreaker     = "gobreaker"
)

// Factory builds the breaker for one operation name.
type Factory func(name string, policy Policy) Breaker

// NewRollingWindow is the default Factory.
func NewRollingWindow(name string, policy Policy) Breaker {
	return NewCircuitBreaker(name, policy)
}

// FactoryFor maps an engine name to its Factory, defaulting to the
// rolling-window breaker.
func FactoryFor(engine string) Factory {
	if engine == EngineGoBreaker {
		return NewGoBreaker
	}
	return NewRollingWindow
}

// Status is a point-in-time view of one breaker.
type Status struct {
	State  State  `json:"state"`
	Counts Counts `json:"counts"`
}

type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]Breaker
	policy   Policy
	factory  Factory
}

func NewRegistry(policy Policy, factory Factory) *Registry {
	if factory == nil {
		factory = NewRollingWindow
	}

	return &Registry{
		breakers: make(map[string]Breaker),
		policy:   policy.withDefaults(),
		factory:  factory,
	}
}

// Policy returns the policy new breakers are built with.
func (r *Registry) Policy() Policy {
	return r.policy
}

func (r *Registry) GetBreaker(name string) Breaker {
	r.mutex.RLock()
	cb, exists := r.breakers[name]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	cb = r.factory(name, r.policy)
	r.breakers[name] = cb
	return cb
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]Breaker)
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.State()
	}
	return stats
}

// Snapshot reports state and counts for every breaker created so far.
func (r *Registry) Snapshot() map[string]Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snap := make(map[string]Status, len(r.breakers))
	for name, cb := range r.breakers {
		status := Status{State: cb.State()}
		if c, ok := cb.(interface{ Counts() Counts }); ok {
			status.Counts = c.Counts()
		}
		snap[name] = status
	}
	return snap
}
