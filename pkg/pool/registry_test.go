package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBulletRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	_, err := r.Register(bulletTemplate(5, true, 20))
	require.NoError(t, err)
	t.Cleanup(r.Close)

	return r
}

// TestRegistrySpawnAndDespawn verifies the facade round trip: spawn by
// (group, tag), despawn by instance alone.
func TestRegistrySpawnAndDespawn(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)

	obj, err := r.Spawn("enemies", "bullet", nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 5, Active: 1, Available: 4}, r.PoolStats("enemies", "bullet"))

	require.NoError(t, r.Despawn(obj))
	assert.Equal(t, Stats{Total: 5, Active: 0, Available: 5}, r.PoolStats("enemies", "bullet"))
}

// TestRegistrySpawnUnknownPool verifies a spawn against an unregistered
// (group, tag) yields ErrPoolNotFound.
func TestRegistrySpawnUnknownPool(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)

	_, err := r.Spawn("enemies", "rocket", nil)
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, err = r.Spawn("allies", "bullet", nil)
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

// TestRegistryDuplicateRegistration verifies a duplicate (group, tag) is
// rejected and the original pool's state stays exactly as it was.
func TestRegistryDuplicateRegistration(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)

	// Drive the original pool into a distinctive state first.
	for i := 0; i < 6; i++ {
		_, err := r.Spawn("enemies", "bullet", nil)
		require.NoError(t, err)
	}
	r.DespawnAll()
	before := r.PoolStats("enemies", "bullet")
	require.Equal(t, Stats{Total: 7, Active: 0, Available: 7}, before)

	existing, err := r.Register(bulletTemplate(5, true, 20))
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
	require.NotNil(t, existing)
	assert.Equal(t, before, r.PoolStats("enemies", "bullet"))
}

// TestRegistryDespawnRoutesToOwner verifies the registry resolves the
// owning pool without the caller naming it, across groups.
func TestRegistryDespawnRoutesToOwner(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)
	rocket := bulletTemplate(2, false, 0)
	rocket.Group = "allies"
	rocket.Tag = "rocket"
	_, err := r.Register(rocket)
	require.NoError(t, err)

	a, err := r.Spawn("enemies", "bullet", nil)
	require.NoError(t, err)
	b, err := r.Spawn("allies", "rocket", nil)
	require.NoError(t, err)

	require.NoError(t, r.Despawn(b))
	require.NoError(t, r.Despawn(a))
	assert.Equal(t, Stats{Total: 5, Active: 0, Available: 5}, r.PoolStats("enemies", "bullet"))
	assert.Equal(t, Stats{Total: 2, Active: 0, Available: 2}, r.PoolStats("allies", "rocket"))
}

// TestRegistryDespawnUnclaimed verifies an instance no pool produced
// yields ErrNotPooled and changes no pool's counts.
func TestRegistryDespawnUnclaimed(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)

	err := r.Despawn(&bullet{})
	assert.ErrorIs(t, err, ErrNotPooled)
	assert.Equal(t, Stats{Total: 5, Active: 0, Available: 5}, r.PoolStats("enemies", "bullet"))
}

// TestRegistryBulkDespawn covers group- and tag-scoped bulk operations.
func TestRegistryBulkDespawn(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)
	rocket := bulletTemplate(3, false, 0)
	rocket.Tag = "rocket"
	_, err := r.Register(rocket)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := r.Spawn("enemies", "bullet", nil)
		require.NoError(t, err)
	}
	_, err = r.Spawn("enemies", "rocket", nil)
	require.NoError(t, err)

	require.NoError(t, r.DespawnAllWithTag("enemies", "bullet"))
	assert.Equal(t, 0, r.PoolStats("enemies", "bullet").Active)
	assert.Equal(t, 1, r.PoolStats("enemies", "rocket").Active)

	require.NoError(t, r.DespawnAllInGroup("enemies"))
	assert.Equal(t, 0, r.PoolStats("enemies", "rocket").Active)

	assert.ErrorIs(t, r.DespawnAllInGroup("missing"), ErrPoolNotFound)
	assert.ErrorIs(t, r.DespawnAllWithTag("enemies", "missing"), ErrPoolNotFound)
}

// TestRegistryPoolStatsMissing verifies stats for an unknown pool are
// zero-valued rather than an error.
func TestRegistryPoolStatsMissing(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	assert.Equal(t, Stats{}, r.PoolStats("nope", "nothing"))
}

// TestRegistryResizePool verifies resize forwarding and the not-found
// case.
func TestRegistryResizePool(t *testing.T) {
	t.Parallel()
	r := newBulletRegistry(t)

	require.NoError(t, r.ResizePool("enemies", "bullet", 8))
	assert.Equal(t, Stats{Total: 8, Active: 0, Available: 8}, r.PoolStats("enemies", "bullet"))

	assert.ErrorIs(t, r.ResizePool("enemies", "missing", 4), ErrPoolNotFound)
}

// TestRegistrySpawnTagDefaultGroup verifies the tag-only convenience
// overload targets the default group.
func TestRegistrySpawnTagDefaultGroup(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	t.Cleanup(r.Close)

	tmpl := bulletTemplate(2, false, 0)
	tmpl.Group = ""
	_, err := r.Register(tmpl)
	require.NoError(t, err)

	obj, err := r.SpawnTag("bullet", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.PoolStats(DefaultGroup, "bullet").Active)
	require.NoError(t, r.Despawn(obj))
}

// TestRegistryRegisterAll verifies bulk registration keeps going past a
// faulty template and reports it.
func TestRegistryRegisterAll(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	t.Cleanup(r.Close)

	good := bulletTemplate(2, false, 0)
	bad := Template{Tag: "no-factory"}
	err := r.RegisterAll([]Template{good, bad})
	require.Error(t, err)
	assert.Equal(t, Stats{Total: 2, Active: 0, Available: 2}, r.PoolStats("enemies", "bullet"))
}

// TestRegistryClose verifies teardown destroys every pool in every
// group.
func TestRegistryClose(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, err := r.Register(bulletTemplate(3, false, 0))
	require.NoError(t, err)

	_, err = r.Spawn("enemies", "bullet", nil)
	require.NoError(t, err)

	r.Close()
	assert.Empty(t, r.Pools())
	_, err = r.Spawn("enemies", "bullet", nil)
	assert.ErrorIs(t, err, ErrPoolNotFound)
}
