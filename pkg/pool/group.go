package pool

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Group is a namespace holding multiple tagged pools. It prevents tag
// collisions between unrelated subsystems and carries the bulk
// operations; pool-internal state stays behind the pools' own methods.
type Group struct {
	name string

	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewGroup returns an empty group with the given name.
func NewGroup(name string) *Group {
	return &Group{
		name:  name,
		pools: make(map[string]*Pool),
	}
}

// Name returns the group's name.
func (g *Group) Name() string {
	return g.name
}

// Add registers a pool under its tag. A duplicate tag is rejected with a
// warning and the original pool is kept untouched.
func (g *Group) Add(p *Pool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pools[p.Tag()]; exists {
		log.Warn().
			Str("event", "duplicate_registration").
			Str("group", g.name).
			Str("tag", p.Tag()).
			Msg("pool already registered, keeping original")

		return ErrDuplicateRegistration
	}
	g.pools[p.Tag()] = p

	return nil
}

// Get returns the pool registered under tag.
func (g *Group) Get(tag string) (*Pool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.pools[tag]

	return p, ok
}

// Pools returns a snapshot of all pools in the group.
func (g *Group) Pools() []*Pool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Pool, 0, len(g.pools))
	for _, p := range g.pools {
		result = append(result, p)
	}

	return result
}

// DespawnAll returns every active instance in every pool of the group.
func (g *Group) DespawnAll() {
	for _, p := range g.Pools() {
		p.DespawnAll()
	}
}

// Close tears down every pool in the group.
func (g *Group) Close() {
	g.mu.Lock()
	pools := make([]*Pool, 0, len(g.pools))
	for _, p := range g.pools {
		pools = append(pools, p)
	}
	g.pools = make(map[string]*Pool)
	g.mu.Unlock()

	for _, p := range pools {
		p.Close()
	}
}
