// Package pool implements a bounded object-pooling engine. It amortizes
// the cost of repeatedly creating and destroying short-lived objects by
// recycling a pre-built set of instances per kind: each Pool owns every
// instance built from one Template and partitions them into an available
// queue and an active set. A Registry groups tagged pools into namespaces
// and is the single entry point collaborators use to spawn and despawn.
package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// instanceState tags each owned instance explicitly. Set membership alone
// cannot tell a first despawn from a repeated despawn of the same handle,
// so the state is tracked per instance and flipped on every transition.
type instanceState uint8

const (
	stateAvailable instanceState = iota
	stateActive
)

// Pool owns every instance built from one template. Instances move
// between the available queue and the active set; they never belong to
// two pools and never leave the pool except through culling, shrinking
// or teardown. All methods are safe for concurrent use: a single mutex
// guards the queue, the set and the membership map.
type Pool struct {
	id   string
	tmpl Template

	mu          sync.Mutex
	available   []any
	active      map[any]struct{}
	members     map[any]instanceState
	maxSize     int
	initialized bool
	closed      bool

	cullStop chan struct{}
	cullOnce sync.Once
}

// New builds a pool from the template, pre-populates it with
// Template.InitialSize instances and, when culling is enabled, starts the
// periodic cull ticker. A factory failure during population is returned
// as-is and leaves no pool behind.
func New(tmpl Template) (*Pool, error) {
	tmpl, err := tmpl.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	p := &Pool{
		id:      uuid.NewString()[:8],
		tmpl:    tmpl,
		active:  make(map[any]struct{}),
		members: make(map[any]instanceState),
		maxSize: tmpl.MaxSize,
	}

	if err := p.Initialize(); err != nil {
		return nil, err
	}

	if tmpl.CullExcess {
		p.cullStop = make(chan struct{})
		go p.cullLoop()
	}

	return p, nil
}

// Initialize constructs the initial instances into the available queue.
// It is idempotent: re-initializing an already populated pool logs and is
// a no-op.
func (p *Pool) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		log.Warn().
			Str("event", "pool_reinitialize").
			Str("pool_id", p.id).
			Str("group", p.tmpl.Group).
			Str("tag", p.tmpl.Tag).
			Msg("pool already initialized")

		return nil
	}

	if err := p.constructLocked(p.tmpl.InitialSize); err != nil {
		return err
	}
	p.initialized = true

	log.Debug().
		Str("event", "pool_initialized").
		Str("pool_id", p.id).
		Str("group", p.tmpl.Group).
		Str("tag", p.tmpl.Tag).
		Int("initial_size", p.tmpl.InitialSize).
		Msg("pool populated")

	return nil
}

// constructLocked invokes the factory n times and enqueues the results.
// The caller holds p.mu.
func (p *Pool) constructLocked(n int) error {
	for i := 0; i < n; i++ {
		obj, err := p.tmpl.Factory()
		if err != nil {
			return fmt.Errorf("pool %s/%s: factory failed: %w", p.tmpl.Group, p.tmpl.Tag, err)
		}
		p.available = append(p.available, obj)
		p.members[obj] = stateAvailable
	}

	return nil
}

// Spawn hands out one instance, expanding the pool first if it is
// exhausted but still under its capacity ceiling. An exhausted,
// non-expandable, fully active pool is an expected condition and yields
// ErrPoolExhausted. On success the instance is tagged active and its
// OnAcquire hook, if implemented, receives params.
func (p *Pool) Spawn(params any) (any, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if len(p.available) == 0 {
		if err := p.expandLocked(); err != nil {
			p.mu.Unlock()
			return nil, err
		}
	}

	obj := p.available[0]
	p.available = p.available[1:]
	p.active[obj] = struct{}{}
	p.members[obj] = stateActive
	p.mu.Unlock()

	if hooked, ok := obj.(Poolable); ok {
		hooked.OnAcquire(params)
	}

	return obj, nil
}

// expandLocked grows the pool ahead of a pending dequeue. The growth
// amount is half the initial size, at least one, capped by the remaining
// capacity; no room means the pool is at its ceiling. New instances land
// in the available queue. The caller holds p.mu.
func (p *Pool) expandLocked() error {
	if !p.tmpl.AllowExpand {
		return ErrPoolExhausted
	}

	room := p.maxSize - len(p.members)
	if room <= 0 {
		return ErrPoolExhausted
	}

	grow := p.tmpl.InitialSize / 2
	if grow < 1 {
		grow = 1
	}
	if grow > room {
		grow = room
	}

	if err := p.constructLocked(grow); err != nil {
		return err
	}

	log.Debug().
		Str("event", "pool_expanded").
		Str("pool_id", p.id).
		Str("group", p.tmpl.Group).
		Str("tag", p.tmpl.Tag).
		Int("grown_by", grow).
		Int("total", len(p.members)).
		Msg("pool expanded on demand")

	return nil
}

// Despawn returns an active instance to the available queue, firing its
// OnRelease hook and then the host deactivation hook. An instance the
// pool does not own, or one that is already available, is rejected with a
// warning and leaves all state unchanged.
func (p *Pool) Despawn(obj any) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	state, ok := p.members[obj]
	if !ok {
		p.mu.Unlock()
		log.Warn().
			Str("event", "ownership_violation").
			Str("pool_id", p.id).
			Str("group", p.tmpl.Group).
			Str("tag", p.tmpl.Tag).
			Msg("despawn of instance not owned by this pool")

		return ErrNotPooled
	}
	if state == stateAvailable {
		p.mu.Unlock()
		log.Warn().
			Str("event", "double_despawn").
			Str("pool_id", p.id).
			Str("group", p.tmpl.Group).
			Str("tag", p.tmpl.Tag).
			Msg("despawn of instance already available")

		return ErrAlreadyReleased
	}

	delete(p.active, obj)
	p.available = append(p.available, obj)
	p.members[obj] = stateAvailable
	p.mu.Unlock()

	if hooked, ok := obj.(Poolable); ok {
		hooked.OnRelease()
	}
	if p.tmpl.Deactivate != nil {
		p.tmpl.Deactivate(obj)
	}

	return nil
}

// DespawnAll returns every active instance to the available queue. It
// iterates a snapshot of the active set, never the live one.
func (p *Pool) DespawnAll() {
	p.mu.Lock()
	snapshot := make([]any, 0, len(p.active))
	for obj := range p.active {
		snapshot = append(snapshot, obj)
	}
	p.mu.Unlock()

	for _, obj := range snapshot {
		// Already-released instances in the snapshot are rejected by
		// Despawn itself; nothing to handle here.
		_ = p.Despawn(obj)
	}
}

// Resize changes the pool's total instance count to n by constructing or
// destroying idle instances. The target is clamped up to the current
// active count since in-use instances are untouchable; shrinking is
// partial when the available queue holds fewer instances than the
// requested reduction. Growing past the capacity ceiling raises it: the
// explicit resize operation is the one sanctioned way to change capacity
// after creation.
func (p *Pool) Resize(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	if n < len(p.active) {
		log.Warn().
			Str("event", "resize_clamped").
			Str("pool_id", p.id).
			Str("group", p.tmpl.Group).
			Str("tag", p.tmpl.Tag).
			Int("requested", n).
			Int("active", len(p.active)).
			Msg("cannot shrink below active count, clamping")
		n = len(p.active)
	}
	if n > p.maxSize {
		p.maxSize = n
	}

	total := len(p.members)
	switch {
	case n > total:
		if err := p.constructLocked(n - total); err != nil {
			return err
		}
	case n < total:
		drop := total - n
		if drop > len(p.available) {
			drop = len(p.available)
		}
		p.destroyAvailableLocked(drop)
	}

	return nil
}

// CullOnce runs a single shrink evaluation: it destroys idle instances in
// excess of both the active count and the initial size, drawn from the
// available queue only. It returns the number destroyed. The periodic
// cull ticker calls this on every interval; hosts and tests may call it
// directly for deterministic passes.
func (p *Pool) CullOnce() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0
	}

	excess := len(p.available) - len(p.active)
	room := len(p.members) - p.tmpl.InitialSize
	n := excess
	if room < n {
		n = room
	}
	if n <= 0 {
		return 0
	}

	p.destroyAvailableLocked(n)

	log.Debug().
		Str("event", "pool_culled").
		Str("pool_id", p.id).
		Str("group", p.tmpl.Group).
		Str("tag", p.tmpl.Tag).
		Int("culled", n).
		Int("total", len(p.members)).
		Msg("culled excess instances")

	return n
}

// destroyAvailableLocked drops n instances from the front of the
// available queue and forgets their membership. The caller holds p.mu.
func (p *Pool) destroyAvailableLocked(n int) {
	for i := 0; i < n; i++ {
		obj := p.available[i]
		delete(p.members, obj)
		p.available[i] = nil
	}
	p.available = p.available[n:]
}

// cullLoop drives periodic culling until Close stops it.
func (p *Pool) cullLoop() {
	ticker := time.NewTicker(p.tmpl.CullDelay)
	defer ticker.Stop()

	for {
		select {
		case <-p.cullStop:
			return
		case <-ticker.C:
			p.CullOnce()
		}
	}
}

// Contains reports whether this pool owns the instance, in either state.
func (p *Pool) Contains(obj any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.members[obj]

	return ok
}

// Stats returns a snapshot of the pool's instance counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Total:     len(p.members),
		Active:    len(p.active),
		Available: len(p.available),
	}
}

// Template returns a copy of the descriptor the pool was built from.
func (p *Pool) Template() Template {
	return p.tmpl
}

// Group returns the pool's owning group name.
func (p *Pool) Group() string {
	return p.tmpl.Group
}

// Tag returns the pool's tag.
func (p *Pool) Tag() string {
	return p.tmpl.Tag
}

// Close tears the pool down: the cull ticker stops and every instance is
// destroyed regardless of state. Further operations return ErrPoolClosed.
func (p *Pool) Close() {
	if p.cullStop != nil {
		p.cullOnce.Do(func() { close(p.cullStop) })
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	destroyed := len(p.members)
	p.available = nil
	p.active = make(map[any]struct{})
	p.members = make(map[any]instanceState)

	log.Debug().
		Str("event", "pool_closed").
		Str("pool_id", p.id).
		Str("group", p.tmpl.Group).
		Str("tag", p.tmpl.Tag).
		Int("destroyed", destroyed).
		Msg("pool torn down")
}
