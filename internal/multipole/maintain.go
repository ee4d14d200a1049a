// Package multipole implements the Multipole Maintainer (spec §4.4): the
// bottom-up recursion that builds each cell's gravitational multipole
// expansion from its particles (leaves) or from its children's already-
// shifted expansions (split nodes). The expansion value type and its
// pure P2M/M2M/MAC math live in internal/gravmath, kept separate so that
// internal/cell can hold a gravmath.Multipole field without importing
// this package (which must import internal/cell to walk the tree).
package multipole

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab"
	"github.com/pwdraper/swiftsim/internal/gravmath"
	"github.com/pwdraper/swiftsim/internal/space"
)

// MakeMultipoles builds idx's multipole expansion (and, recursively,
// every descendant's) consistent with the particles currently in sp,
// stamping TiOldMultipole = t (spec §4.4 make_multipoles).
func MakeMultipoles(a *cell.Arena, idx int32, sp *space.Space, t int64, g collab.Gravity) {
	c := a.Get(idx)

	if !c.Split {
		if c.GravCount == 0 {
			g.MultipoleInit(&c.Multipole)
			c.Multipole.CoM = toMgl(cellCenter(c))
			c.Multipole.RMax = 0
			c.TiOldMultipole = t
			return
		}
		positions := make([]space.Vec3, c.GravCount)
		masses := make([]float64, c.GravCount)
		for i := 0; i < c.GravCount; i++ {
			gp := sp.Gravity[c.GravOffset+i]
			positions[i] = gp.Pos
			masses[i] = gp.Mass
		}
		c.Multipole = g.P2M(positions, masses)
		c.Multipole.RMax = maxCornerDistance(c, c.Multipole.CoM)
		c.TiOldMultipole = t
		return
	}

	var totalMass float64
	var comAccum [3]float64
	var children []int32
	for _, p := range c.Progeny {
		if p == cell.None {
			continue
		}
		MakeMultipoles(a, p, sp, t, g)
		child := a.Get(p)
		totalMass += child.Multipole.Mass
		comAccum[0] += child.Multipole.Mass * float64(child.Multipole.CoM.X())
		comAccum[1] += child.Multipole.Mass * float64(child.Multipole.CoM.Y())
		comAccum[2] += child.Multipole.Mass * float64(child.Multipole.CoM.Z())
		children = append(children, p)
	}

	var com space.Vec3
	if totalMass > 0 {
		com = space.Vec3{comAccum[0] / totalMass, comAccum[1] / totalMass, comAccum[2] / totalMass}
	} else {
		com = cellCenter(c)
	}

	var acc gravmath.Multipole
	g.MultipoleInit(&acc)
	var maxChildBound float64
	for _, p := range children {
		child := a.Get(p)
		shifted := g.M2M(child.Multipole, com)
		g.MultipoleAdd(&acc, shifted)
		d := distance(com, fromMgl(child.Multipole.CoM))
		if bound := child.Multipole.RMax + d; bound > maxChildBound {
			maxChildBound = bound
		}
	}
	acc.Mass = totalMass
	acc.CoM = toMgl(com)

	cornerBound := maxCornerDistance(c, acc.CoM)
	if maxChildBound < cornerBound {
		acc.RMax = maxChildBound
	} else {
		acc.RMax = cornerBound
	}

	c.Multipole = acc
	c.TiOldMultipole = t
}

func cellCenter(c *cell.Cell) space.Vec3 {
	return space.Vec3{
		c.Loc[0] + c.Width[0]/2,
		c.Loc[1] + c.Width[1]/2,
		c.Loc[2] + c.Width[2]/2,
	}
}

// maxCornerDistance returns the maximum distance from com to any of the
// cell's eight bounding-box corners, the second r_max candidate spec
// §4.4 names.
func maxCornerDistance(c *cell.Cell, com mgl32.Vec3) float64 {
	var maxD float64
	comV := fromMgl(com)
	for k := 0; k < 8; k++ {
		corner := space.Vec3{c.Loc[0], c.Loc[1], c.Loc[2]}
		if k&4 != 0 {
			corner[0] += c.Width[0]
		}
		if k&2 != 0 {
			corner[1] += c.Width[1]
		}
		if k&1 != 0 {
			corner[2] += c.Width[2]
		}
		if d := distance(comV, corner); d > maxD {
			maxD = d
		}
	}
	return maxD
}

func distance(a, b space.Vec3) float64 {
	d := a.Sub(b)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

func toMgl(v space.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func fromMgl(v mgl32.Vec3) space.Vec3 {
	return space.Vec3{float64(v.X()), float64(v.Y()), float64(v.Z())}
}
