package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.Equal(t, 27.0, a.DistSq(b))
}

func TestTimeBin_Active(t *testing.T) {
	assert.False(t, TimeBin(0).Active(8))
	assert.True(t, TimeBin(2).Active(8))  // step = 4, 8%4==0
	assert.False(t, TimeBin(2).Active(6)) // 6%4!=0
	assert.False(t, TimeBin(1).Active(7)) // step = 2, 7%2 != 0
}

func TestSwapGas_ExchangesParticleAndExtendedState(t *testing.T) {
	sp := New(10, true)
	sp.Gas = []GasParticle{{H: 1}, {H: 2}}
	sp.GasXtra = []GasExtended{{DxMaxSq: 0.1}, {DxMaxSq: 0.2}}

	sp.SwapGas(0, 1)

	assert.Equal(t, 2.0, sp.Gas[0].H)
	assert.Equal(t, 1.0, sp.Gas[1].H)
	assert.Equal(t, 0.2, sp.GasXtra[0].DxMaxSq)
	assert.Equal(t, 0.1, sp.GasXtra[1].DxMaxSq)
}

func TestRebuildGasGravityLinks_RemapsThroughPermutation(t *testing.T) {
	sp := New(10, true)
	sp.Gas = []GasParticle{{GPart: 0}, {GPart: 1}, {GPart: 2}}

	// Gravity particle that was at 0 moved to 2, 1 stayed, 2 moved to 0.
	perm := []int{2, 1, 0}
	sp.RebuildGasGravityLinks(perm)

	assert.Equal(t, 2, sp.Gas[0].GPart)
	assert.Equal(t, 1, sp.Gas[1].GPart)
	assert.Equal(t, 0, sp.Gas[2].GPart)
}
