package pool

// Poolable is an optional capability pooled instances may implement.
// The pool resolves it with a plain interface assertion on each spawn and
// despawn, so unrelated instance types can opt in independently without
// sharing a base type. Instances that do not implement it are pooled all
// the same; only the hooks are skipped.
type Poolable interface {
	// OnAcquire runs after the instance moves to the active set,
	// receiving the caller-supplied spawn parameters.
	OnAcquire(params any)

	// OnRelease runs before the instance moves back to the available
	// queue.
	OnRelease()
}

// Factory constructs a new pooled instance. It is invoked only during
// initial population and expansion. The returned value must be comparable
// (in practice, a pointer), since pools track instance identity. A factory
// error aborts population: a pool cannot be meaningfully filled from a
// broken factory.
type Factory func() (any, error)

// DeactivateFunc is the host-supplied hook invoked when an instance
// returns to the available queue. The pool never interprets what
// deactivation means; typically the host detaches the instance from
// whatever simulation or presentation system it runs.
type DeactivateFunc func(obj any)
