// Package workload drives a synthetic spawn/despawn cycle over the pool
// registry so the admin server and the watch dashboard have live numbers
// to show. It doubles as the end-to-end exercise of the Poolable
// capability and the host deactivation hook.
package workload

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_pool/internal/config"
	"github.com/andrei-cloud/go_pool/pkg/pool"
)

// SpawnParams carries the initial position handed to a particle's
// OnAcquire hook.
type SpawnParams struct {
	X float64
	Y float64
}

// Particle is the demo pooled entity. It opts into the lifecycle
// capability: OnAcquire places it, OnRelease clears its velocity, and the
// template's deactivation hook marks it inert.
type Particle struct {
	ID    string
	X, Y  float64
	VX    float64
	VY    float64
	Alive bool
}

// OnAcquire resets the particle to the spawn position.
func (p *Particle) OnAcquire(params any) {
	if sp, ok := params.(SpawnParams); ok {
		p.X = sp.X
		p.Y = sp.Y
	}
	p.VX = rand.Float64()*2 - 1
	p.VY = rand.Float64()*2 - 1
	p.Alive = true
}

// OnRelease clears transient motion state before the particle goes idle.
func (p *Particle) OnRelease() {
	p.VX = 0
	p.VY = 0
}

// Templates maps the configured pool settings onto engine templates, all
// backed by the particle factory and deactivation hook.
func Templates(settings []config.PoolSettings) []pool.Template {
	tmpls := make([]pool.Template, 0, len(settings))
	for _, s := range settings {
		tmpls = append(tmpls, pool.Template{
			Group:       s.Group,
			Tag:         s.Tag,
			Factory:     NewParticle,
			InitialSize: s.InitialSize,
			AllowExpand: s.AllowExpand,
			MaxSize:     s.MaxSize,
			CullExcess:  s.CullExcess,
			CullDelay:   s.CullDelay,
			Deactivate:  Deactivate,
		})
	}

	return tmpls
}

// NewParticle is the factory wired into every demo template.
func NewParticle() (any, error) {
	return &Particle{ID: uuid.NewString()[:8]}, nil
}

// Deactivate is the host hook: a despawned particle is marked inert so
// nothing renders or moves it.
func Deactivate(obj any) {
	if p, ok := obj.(*Particle); ok {
		p.Alive = false
	}
}

// held pairs a spawned instance with the tick it should be despawned on.
type held struct {
	obj     any
	pool    [2]string // group, tag
	dueTick int
}

// Workload spawns a burst of particles from every registered pool each
// interval and despawns them a fixed number of ticks later. Exhausted
// pools are an expected condition and are skipped for the tick.
type Workload struct {
	reg        *pool.Registry
	interval   time.Duration
	spawnBurst int
	holdTicks  int

	tick int
	live []held
}

// New builds a workload over the registry from the configured knobs.
func New(reg *pool.Registry, cfg *config.Config) *Workload {
	w := &Workload{
		reg:        reg,
		interval:   cfg.Workload.Interval,
		spawnBurst: cfg.Workload.SpawnBurst,
		holdTicks:  cfg.Workload.HoldTicks,
	}
	if w.interval <= 0 {
		w.interval = 250 * time.Millisecond
	}
	if w.spawnBurst < 1 {
		w.spawnBurst = 1
	}
	if w.holdTicks < 1 {
		w.holdTicks = 1
	}

	return w
}

// Run drives ticks until the context is cancelled, then returns every
// live instance to its pool.
func (w *Workload) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			w.Step()
		}
	}
}

// Step runs one workload tick: despawn what is due, then spawn the next
// burst from every pool.
func (w *Workload) Step() {
	w.tick++

	keep := w.live[:0]
	for _, h := range w.live {
		if h.dueTick > w.tick {
			keep = append(keep, h)
			continue
		}
		if err := w.reg.Despawn(h.obj); err != nil {
			log.Warn().Err(err).
				Str("event", "workload_despawn_failed").
				Str("group", h.pool[0]).
				Str("tag", h.pool[1]).
				Msg("failed to return instance")
		}
	}
	w.live = keep

	for _, p := range w.reg.Pools() {
		for i := 0; i < w.spawnBurst; i++ {
			obj, err := p.Spawn(SpawnParams{
				X: rand.Float64() * 100,
				Y: rand.Float64() * 100,
			})
			if err != nil {
				// Exhaustion is the pool saying "not now"; try again
				// next tick.
				break
			}
			w.live = append(w.live, held{
				obj:     obj,
				pool:    [2]string{p.Group(), p.Tag()},
				dueTick: w.tick + 1 + rand.Intn(w.holdTicks),
			})
		}
	}
}

// Live returns the number of instances the workload currently holds.
func (w *Workload) Live() int {
	return len(w.live)
}

// drain returns everything still held.
func (w *Workload) drain() {
	for _, h := range w.live {
		_ = w.reg.Despawn(h.obj)
	}
	w.live = nil
}
