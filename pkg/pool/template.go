package pool

import (
	"errors"
	"time"
)

// DefaultGroup is the group used when a template leaves Group empty.
const DefaultGroup = "default"

// DefaultCullDelay is applied when culling is enabled without an interval.
const DefaultCullDelay = 60 * time.Second

// Template is the immutable descriptor a pool is built from. It is copied
// on pool creation; mutating a Template afterwards has no effect on the
// pool. Capacity changes go through Pool.Resize, never through the
// template.
type Template struct {
	// Group is the namespace the pool registers under. Empty means
	// DefaultGroup.
	Group string

	// Tag identifies the pool within its group.
	Tag string

	// Factory constructs new instances. Required.
	Factory Factory

	// InitialSize is the number of instances pre-built at initialization.
	InitialSize int

	// AllowExpand enables on-demand growth when the pool is exhausted.
	AllowExpand bool

	// MaxSize caps the total instance count when expansion is enabled.
	// Values below InitialSize are raised to it.
	MaxSize int

	// CullExcess enables the periodic shrink of idle instances.
	CullExcess bool

	// CullDelay is the interval between shrink evaluations.
	CullDelay time.Duration

	// Deactivate is the opaque host hook invoked whenever an instance
	// returns to the available queue. Optional.
	Deactivate DeactivateFunc
}

// Validate checks the template for usability and fills in defaults,
// returning the normalized copy.
func (t Template) Validate() (Template, error) {
	if t.Tag == "" {
		return t, errors.New("template requires a tag")
	}
	if t.Factory == nil {
		return t, errors.New("template requires a factory")
	}
	if t.InitialSize < 0 {
		return t, errors.New("template initial size must not be negative")
	}
	if t.Group == "" {
		t.Group = DefaultGroup
	}
	if !t.AllowExpand || t.MaxSize < t.InitialSize {
		t.MaxSize = t.InitialSize
	}
	if t.CullExcess && t.CullDelay <= 0 {
		t.CullDelay = DefaultCullDelay
	}

	return t, nil
}
