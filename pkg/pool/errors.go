package pool

import "errors"

// Predefined pool errors. All of them describe recoverable operating
// conditions and are returned alongside a warning log rather than by
// panicking; callers match them with errors.Is.
var (
	// ErrPoolNotFound is returned when no pool is registered for the
	// requested group and tag.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrPoolExhausted is returned when a pool has no available instances
	// and cannot expand past its capacity ceiling.
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrNotPooled is returned when a despawn targets an instance that no
	// pool owns.
	ErrNotPooled = errors.New("instance not owned by any pool")

	// ErrAlreadyReleased is returned when a despawn targets an instance
	// that is already back in the available queue.
	ErrAlreadyReleased = errors.New("instance already released")

	// ErrDuplicateRegistration is returned when a group and tag pair is
	// registered twice; the original pool is kept.
	ErrDuplicateRegistration = errors.New("pool already registered")

	// ErrPoolClosed is returned for operations on a pool that has been
	// torn down.
	ErrPoolClosed = errors.New("pool closed")
)
