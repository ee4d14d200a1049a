package multipole

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab/reference"
	"github.com/pwdraper/swiftsim/internal/space"
)

func buildOctantTree(t *testing.T) (*cell.Arena, int32, *space.Space) {
	t.Helper()
	sp := space.New(8, true)
	var gravs []space.GravityParticle
	for _, dx := range []float64{-2, 2} {
		for _, dy := range []float64{-2, 2} {
			for _, dz := range []float64{-2, 2} {
				gravs = append(gravs, space.GravityParticle{
					Pos:  space.Vec3{4 + dx, 4 + dy, 4 + dz},
					Mass: 1,
				})
			}
		}
	}
	sp.Gravity = gravs

	a := cell.NewArena()
	idx := a.Alloc()
	root := a.Get(idx)
	root.Loc = [3]float64{0, 0, 0}
	root.Width = [3]float64{8, 8, 8}
	root.Dmin = 4
	root.GravCount = len(gravs)

	cell.Subdivide(a, idx, sp)
	return a, idx, sp
}

func TestMakeMultipoles_RootAggregatesMassAndCoM(t *testing.T) {
	a, idx, sp := buildOctantTree(t)
	var g reference.Gravity

	MakeMultipoles(a, idx, sp, 10, g)

	root := a.Get(idx)
	assert.Equal(t, 8.0, root.Multipole.Mass)
	assert.InDelta(t, 4.0, root.Multipole.CoM.X(), 1e-4)
	assert.InDelta(t, 4.0, root.Multipole.CoM.Y(), 1e-4)
	assert.InDelta(t, 4.0, root.Multipole.CoM.Z(), 1e-4)
	assert.EqualValues(t, 10, root.TiOldMultipole)
}

func TestMakeMultipoles_EmptyLeafZeroed(t *testing.T) {
	sp := space.New(8, true)
	a := cell.NewArena()
	idx := a.Alloc()
	root := a.Get(idx)
	root.Loc = [3]float64{0, 0, 0}
	root.Width = [3]float64{8, 8, 8}

	var g reference.Gravity
	MakeMultipoles(a, idx, sp, 5, g)

	assert.Equal(t, 0.0, root.Multipole.Mass)
	assert.Equal(t, 0.0, root.Multipole.RMax)
}

func TestMakeMultipoles_RMaxWithinCellDiagonal(t *testing.T) {
	a, idx, sp := buildOctantTree(t)
	var g reference.Gravity
	MakeMultipoles(a, idx, sp, 1, g)

	root := a.Get(idx)
	diag := 8.0 * 1.7320508 // sqrt(3)*width
	assert.LessOrEqual(t, root.Multipole.RMax, diag+1e-6)
}

func TestVerify_AgreesWithBruteForce(t *testing.T) {
	a, idx, sp := buildOctantTree(t)
	var g reference.Gravity
	MakeMultipoles(a, idx, sp, 1, g)

	require.NoError(t, Verify(a, idx, sp, g))
	for _, p := range a.Get(idx).Progeny {
		require.NoError(t, Verify(a, p, sp, g))
	}
}
