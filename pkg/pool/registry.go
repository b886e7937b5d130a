package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the single entry point collaborators use: it resolves
// (group, tag) to a pool, creates pools from templates, routes despawns
// back to the owning pool and offers bulk operations. It never mutates
// pool-internal collections directly. Registries are constructed
// explicitly and passed to whichever subsystem needs them; there is no
// process-wide instance.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]*Group),
	}
}

// Register creates and initializes a pool from the template at its
// (group, tag). A duplicate registration is rejected with
// ErrDuplicateRegistration and the original pool stays untouched.
func (r *Registry) Register(tmpl Template) (*Pool, error) {
	tmpl, err := tmpl.Validate()
	if err != nil {
		return nil, fmt.Errorf("register pool: %w", err)
	}

	r.mu.Lock()
	g, ok := r.groups[tmpl.Group]
	if !ok {
		g = NewGroup(tmpl.Group)
		r.groups[tmpl.Group] = g
	}
	r.mu.Unlock()

	if existing, ok := g.Get(tmpl.Tag); ok {
		log.Warn().
			Str("event", "duplicate_registration").
			Str("group", tmpl.Group).
			Str("tag", tmpl.Tag).
			Msg("pool already registered, keeping original")

		return existing, ErrDuplicateRegistration
	}

	p, err := New(tmpl)
	if err != nil {
		return nil, err
	}
	if err := g.Add(p); err != nil {
		// Lost a registration race; discard the new pool.
		p.Close()
		existing, _ := g.Get(tmpl.Tag)

		return existing, err
	}

	log.Info().
		Str("event", "pool_registered").
		Str("group", tmpl.Group).
		Str("tag", tmpl.Tag).
		Int("initial_size", tmpl.InitialSize).
		Int("max_size", tmpl.MaxSize).
		Bool("allow_expand", tmpl.AllowExpand).
		Bool("cull_excess", tmpl.CullExcess).
		Msg("pool registered")

	return p, nil
}

// RegisterAll bulk-registers templates, typically at startup. Faulty
// templates are reported but do not block the rest; the joined error
// carries every failure.
func (r *Registry) RegisterAll(tmpls []Template) error {
	var errs []error
	for _, tmpl := range tmpls {
		if _, err := r.Register(tmpl); err != nil {
			log.Error().
				Err(err).
				Str("group", tmpl.Group).
				Str("tag", tmpl.Tag).
				Msg("failed to register pool")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Lookup resolves (group, tag) to its pool.
func (r *Registry) Lookup(group, tag string) (*Pool, bool) {
	r.mu.RLock()
	g, ok := r.groups[group]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return g.Get(tag)
}

// Spawn hands out an instance from the pool at (group, tag). It returns
// ErrPoolNotFound when no such pool is registered and forwards the pool's
// own ErrPoolExhausted when it cannot satisfy the request.
func (r *Registry) Spawn(group, tag string, params any) (any, error) {
	p, ok := r.Lookup(group, tag)
	if !ok {
		log.Warn().
			Str("event", "pool_not_found").
			Str("group", group).
			Str("tag", tag).
			Msg("spawn requested from unregistered pool")

		return nil, ErrPoolNotFound
	}

	return p.Spawn(params)
}

// SpawnTag is the single-group convenience overload: it spawns from the
// default group by tag alone.
func (r *Registry) SpawnTag(tag string, params any) (any, error) {
	return r.Spawn(DefaultGroup, tag, params)
}

// Despawn resolves the owning pool by asking each registered pool whether
// it owns the instance, then forwards. The caller does not name the pool
// again. ErrNotPooled is returned when no pool claims the instance.
func (r *Registry) Despawn(obj any) error {
	for _, g := range r.groupSnapshot() {
		for _, p := range g.Pools() {
			if p.Contains(obj) {
				return p.Despawn(obj)
			}
		}
	}

	log.Warn().
		Str("event", "ownership_violation").
		Msg("despawn of instance no pool claims")

	return ErrNotPooled
}

// DespawnAll returns every active instance in every registered pool.
func (r *Registry) DespawnAll() {
	for _, g := range r.groupSnapshot() {
		g.DespawnAll()
	}
}

// DespawnAllInGroup returns every active instance in one group.
func (r *Registry) DespawnAllInGroup(group string) error {
	r.mu.RLock()
	g, ok := r.groups[group]
	r.mu.RUnlock()
	if !ok {
		return ErrPoolNotFound
	}
	g.DespawnAll()

	return nil
}

// DespawnAllWithTag returns every active instance of one pool.
func (r *Registry) DespawnAllWithTag(group, tag string) error {
	p, ok := r.Lookup(group, tag)
	if !ok {
		return ErrPoolNotFound
	}
	p.DespawnAll()

	return nil
}

// ResizePool forwards a resize to the pool at (group, tag).
func (r *Registry) ResizePool(group, tag string, n int) error {
	p, ok := r.Lookup(group, tag)
	if !ok {
		return ErrPoolNotFound
	}

	return p.Resize(n)
}

// PoolStats returns the stats snapshot for (group, tag). A missing pool
// is non-fatal and yields zeros.
func (r *Registry) PoolStats(group, tag string) Stats {
	p, ok := r.Lookup(group, tag)
	if !ok {
		return Stats{}
	}

	return p.Stats()
}

// Pools returns a snapshot of every registered pool across all groups.
func (r *Registry) Pools() []*Pool {
	var result []*Pool
	for _, g := range r.groupSnapshot() {
		result = append(result, g.Pools()...)
	}

	return result
}

// Close tears down every group and pool. Destroyed instances are gone for
// good; the registry itself stays usable for new registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	groups := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	r.groups = make(map[string]*Group)
	r.mu.Unlock()

	for _, g := range groups {
		g.Close()
	}
}

// groupSnapshot copies the group list so bulk operations never iterate
// the live map.
func (r *Registry) groupSnapshot() []*Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		result = append(result, g)
	}

	return result
}
