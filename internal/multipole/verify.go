package multipole

import (
	"fmt"
	"math"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab"
	"github.com/pwdraper/swiftsim/internal/space"
)

// Verify is the debug cross-check spec §4.4/§8 describes: a brute-force
// P2M computed directly over every gravity particle in idx's subtree
// must agree with the already-built recursive multipole within relative
// tolerance 1e-3, r_max must majorise the brute-force bound, and r_max
// must not exceed the cell's bounding-box diagonal. It returns a
// descriptive error rather than panicking, since callers may want to
// run it only under a debug flag and report rather than abort.
func Verify(a *cell.Arena, idx int32, sp *space.Space, g collab.Gravity) error {
	c := a.Get(idx)

	positions, masses := collectSubtree(a, idx, sp)
	brute := g.P2M(positions, masses)

	const relTol = 1e-3
	if !closeEnough(c.Multipole.Mass, brute.Mass, relTol) {
		return fmt.Errorf("multipole mass mismatch: recursive=%g brute-force=%g", c.Multipole.Mass, brute.Mass)
	}
	if brute.Mass > 0 {
		for axis, get := range []func() (float32, float32){
			func() (float32, float32) { return c.Multipole.CoM.X(), brute.CoM.X() },
			func() (float32, float32) { return c.Multipole.CoM.Y(), brute.CoM.Y() },
			func() (float32, float32) { return c.Multipole.CoM.Z(), brute.CoM.Z() },
		} {
			recursive, bruteForce := get()
			if !closeEnough(float64(recursive), float64(bruteForce), relTol) {
				return fmt.Errorf("multipole CoM axis %d mismatch: recursive=%g brute-force=%g", axis, recursive, bruteForce)
			}
		}
	}

	bruteRMax := maxCornerDistance(c, brute.CoM)
	if c.Multipole.RMax < bruteRMax-1e-9 {
		return fmt.Errorf("multipole r_max %g does not majorise brute-force bound %g", c.Multipole.RMax, bruteRMax)
	}

	diag := math.Sqrt(3) * maxOf3(c.Width)
	if c.Multipole.RMax > diag+1e-9 {
		return fmt.Errorf("multipole r_max %g exceeds cell diagonal %g", c.Multipole.RMax, diag)
	}
	return nil
}

func collectSubtree(a *cell.Arena, idx int32, sp *space.Space) ([]space.Vec3, []float64) {
	c := a.Get(idx)
	positions := make([]space.Vec3, c.GravCount)
	masses := make([]float64, c.GravCount)
	for i := 0; i < c.GravCount; i++ {
		gp := sp.Gravity[c.GravOffset+i]
		positions[i] = gp.Pos
		masses[i] = gp.Mass
	}
	return positions, masses
}

func closeEnough(a, b, relTol float64) bool {
	if a == b {
		return true
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return true
	}
	return math.Abs(a-b)/denom <= relTol
}

func maxOf3(w [3]float64) float64 {
	m := w[0]
	if w[1] > m {
		m = w[1]
	}
	if w[2] > m {
		m = w[2]
	}
	return m
}
