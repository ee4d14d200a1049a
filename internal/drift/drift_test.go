package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab/reference"
	"github.com/pwdraper/swiftsim/internal/space"
)

func leafCellWithGas(n int) (*cell.Arena, int32, *space.Space) {
	sp := space.New(10, true)
	sp.Gas = make([]space.GasParticle, n)
	sp.GasXtra = make([]space.GasExtended, n)
	for i := range sp.Gas {
		sp.Gas[i] = space.GasParticle{
			Pos: space.Vec3{0, 0, 0}, Vel: space.Vec3{1, 0, 0}, H: 0.1, TimeBin: 2,
		}
	}
	a := cell.NewArena()
	idx := a.Alloc()
	c := a.Get(idx)
	c.GasCount = n
	c.Dmin = 1
	return a, idx, sp
}

func TestPart_AdvancesEveryParticleToT(t *testing.T) {
	a, idx, sp := leafCellWithGas(3)
	var integ reference.Integrator
	var hydro reference.Hydro

	Part(a, idx, sp, 4, true, integ, hydro, 10.0)

	for i, p := range sp.Gas {
		assert.EqualValues(t, 4, p.TiDrift, "particle %d", i)
	}
	assert.EqualValues(t, 4, a.Get(idx).TiOldPart)
}

func TestPart_IdempotentOnRepeatedCall(t *testing.T) {
	a, idx, sp := leafCellWithGas(2)
	var integ reference.Integrator
	var hydro reference.Hydro

	Part(a, idx, sp, 4, true, integ, hydro, 10.0)
	posAfterFirst := sp.Gas[0].Pos

	Part(a, idx, sp, 4, true, integ, hydro, 10.0)
	assert.Equal(t, posAfterFirst, sp.Gas[0].Pos, "a second drift to the same t must not move particles again")
}

func TestPart_MonotonicityViolationPanics(t *testing.T) {
	a, idx, sp := leafCellWithGas(1)
	var integ reference.Integrator
	var hydro reference.Hydro

	Part(a, idx, sp, 10, true, integ, hydro, 10.0)
	assert.Panics(t, func() {
		Part(a, idx, sp, 5, true, integ, hydro, 10.0)
	})
}

func TestPart_ClampsSmoothingLengthToGlobalMax(t *testing.T) {
	a, idx, sp := leafCellWithGas(1)
	sp.Gas[0].H = 100
	var integ reference.Integrator
	var hydro reference.Hydro

	Part(a, idx, sp, 1, true, integ, hydro, 5.0)

	assert.Equal(t, 5.0, sp.Gas[0].H)
}

func TestGPart_DisplacementEnvelopeTracksMaxMovement(t *testing.T) {
	sp := space.New(10, true)
	sp.Gravity = []space.GravityParticle{
		{Pos: space.Vec3{0, 0, 0}, Vel: space.Vec3{1, 0, 0}},
		{Pos: space.Vec3{0, 0, 0}, Vel: space.Vec3{3, 0, 0}},
	}
	a := cell.NewArena()
	idx := a.Alloc()
	a.Get(idx).GravCount = 2

	var integ reference.Integrator
	GPart(a, idx, sp, 2, true, integ)

	assert.InDelta(t, 6.0, a.Get(idx).DxMaxGPart, 1e-9)
}

func TestAllMultipoles_StampsEveryNode(t *testing.T) {
	a := cell.NewArena()
	root := a.Alloc()
	child := a.Alloc()
	a.Get(root).Progeny[0] = child
	a.Get(root).Split = true
	a.Get(child).Parent = root

	var integ reference.Integrator
	AllMultipoles(a, root, 5, integ)

	assert.EqualValues(t, 5, a.Get(root).TiOldMultipole)
	assert.EqualValues(t, 5, a.Get(child).TiOldMultipole)
}

func TestActivateDrift_StopsAtSuperAndInvokesCallback(t *testing.T) {
	a := cell.NewArena()
	root := a.Alloc()
	mid := a.Alloc()
	leaf := a.Alloc()
	a.Get(mid).Parent = root
	a.Get(leaf).Parent = mid

	var invokedAt int32 = -99
	ActivateDrift(a, leaf, mid, func(at int32) { invokedAt = at })

	require.True(t, a.Get(leaf).DoDriftPart)
	assert.True(t, a.Get(mid).DoSubDriftPart)
	assert.Equal(t, mid, invokedAt)
}

func TestActivateDrift_ShortCircuitsIfAncestorAlreadyFlagged(t *testing.T) {
	a := cell.NewArena()
	root := a.Alloc()
	mid := a.Alloc()
	leaf := a.Alloc()
	sibling := a.Alloc()
	a.Get(mid).Parent = root
	a.Get(leaf).Parent = mid
	a.Get(sibling).Parent = mid
	a.Get(mid).DoSubDriftPart = true // another leaf already walked this path

	called := false
	ActivateDrift(a, sibling, root, func(at int32) { called = true })

	assert.False(t, called, "short-circuit must not re-invoke the super callback")
	assert.True(t, a.Get(sibling).DoDriftPart)
}
