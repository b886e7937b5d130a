package pool

// Stats is a read-only snapshot of a pool's instance counts.
type Stats struct {
	// Total is the number of instances the pool currently owns.
	Total int
	// Active is the number of instances handed out to callers.
	Active int
	// Available is the number of idle instances eligible for spawning.
	Available int
}
