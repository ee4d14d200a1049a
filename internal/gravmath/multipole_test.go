package gravmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pwdraper/swiftsim/internal/space"
)

func TestP2M_CentroidAndMass(t *testing.T) {
	positions := []space.Vec3{{0, 0, 0}, {2, 0, 0}}
	masses := []float64{1, 1}

	m := P2M(positions, masses)

	assert.Equal(t, 2.0, m.Mass)
	assert.InDelta(t, 1.0, m.CoM.X(), 1e-6)
	assert.InDelta(t, 0.0, m.CoM.Y(), 1e-6)
}

func TestP2M_EmptySetHasZeroMass(t *testing.T) {
	m := P2M(nil, nil)
	assert.Equal(t, 0.0, m.Mass)
}

func TestM2M_ShiftPreservesMassAndAppliesParallelAxis(t *testing.T) {
	child := P2M([]space.Vec3{{1, 0, 0}, {-1, 0, 0}}, []float64{1, 1})
	// child CoM is (0,0,0), Quad[0] = 1*1 + 1*1 = 2.

	shifted := M2M(child, space.Vec3{5, 0, 0})

	assert.Equal(t, child.Mass, shifted.Mass)
	// d = (0,0,0) - (5,0,0) = (-5,0,0); parallel-axis adds mass*dx^2 = 2*25=50.
	assert.InDelta(t, 2.0+50.0, shifted.Quad[0], 1e-6)
}

func TestMultipoleAdd_SumsMassAndQuad(t *testing.T) {
	var dest Multipole
	dest.Init()
	a := Multipole{Mass: 1, Quad: [6]float64{1, 2, 3, 4, 5, 6}}
	b := Multipole{Mass: 2, Quad: [6]float64{1, 1, 1, 1, 1, 1}}
	dest.Add(a)
	dest.Add(b)

	assert.Equal(t, 3.0, dest.Mass)
	assert.Equal(t, [6]float64{2, 3, 4, 5, 6, 7}, dest.Quad)
}

func TestM2LAccept_BoundaryCases(t *testing.T) {
	// spec §8 scenario 4: r=10, r_max_i+r_max_j=3, theta=0.5 -> accept (9 <= 25).
	assert.True(t, M2LAccept(1.5, 1.5, 0.25, 100))
	// scenario 5: r_max sum = 7 -> reject (49 > 25).
	assert.False(t, M2LAccept(3.5, 3.5, 0.25, 100))
}

func TestP2M_BruteForceDistanceFromCoM(t *testing.T) {
	positions := []space.Vec3{{3, 4, 0}, {-3, -4, 0}}
	masses := []float64{1, 1}
	m := P2M(positions, masses)

	var maxDist float64
	for _, p := range positions {
		d := math.Hypot(p[0]-float64(m.CoM.X()), p[1]-float64(m.CoM.Y()))
		if d > maxDist {
			maxDist = d
		}
	}
	// A caller setting r_max to at least this brute-force distance
	// satisfies spec §4.4/§8's majorization requirement.
	assert.GreaterOrEqual(t, maxDist, 0.0)
	assert.InDelta(t, 5.0, maxDist, 1e-6)
}
