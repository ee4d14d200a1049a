// Package gravmath provides the value type and pure numerics the
// gravity collaborator and the Multipole Maintainer share: a truncated
// (monopole + quadrupole) expansion, and the P2M/M2M/MAC primitives spec
// §6 names. The spec explicitly places the polynomial form of the
// multipole derivatives out of scope (§1 Non-goals); this package picks
// the simplest truncation (quadrupole) that still exercises every call
// site the spec names, and documents that choice rather than pretending
// to physical completeness.
package gravmath

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pwdraper/swiftsim/internal/space"
)

// Multipole is a cell's gravitational expansion: total mass, center of
// mass, a conservative bounding radius, and the six independent
// components (Qxx, Qyy, Qzz, Qxy, Qxz, Qyz) of the mass-weighted second
// moment tensor about the center of mass (its trace is not removed).
type Multipole struct {
	Mass  float64
	CoM   mgl32.Vec3
	RMax  float64
	Quad  [6]float64
}

// Init zeroes m in place, matching the multipole_init collaborator hook.
func (m *Multipole) Init() {
	*m = Multipole{}
}

// Add accumulates src's moments into m (used when combining children's
// shifted expansions), matching multipole_add.
func (m *Multipole) Add(src Multipole) {
	m.Mass += src.Mass
	for i := range m.Quad {
		m.Quad[i] += src.Quad[i]
	}
}

func toMgl(v space.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// P2M builds a multipole directly from a set of point masses, the
// brute-force reference the Multipole Maintainer's recursive build must
// agree with (spec §4.4 Verification). Positions carry the particles'
// full double-precision coordinates; the resulting expansion's center of
// mass is stored single-precision (mgl32.Vec3), while the cell geometry
// itself (Loc, Width) stays float64.
func P2M(positions []space.Vec3, masses []float64) Multipole {
	var m Multipole
	if len(positions) == 0 {
		return m
	}
	var comAccum [3]float64
	for i, p := range positions {
		w := masses[i]
		comAccum[0] += p[0] * w
		comAccum[1] += p[1] * w
		comAccum[2] += p[2] * w
		m.Mass += w
	}
	if m.Mass == 0 {
		m.CoM = toMgl(centroid(positions))
		return m
	}
	comF64 := space.Vec3{comAccum[0] / m.Mass, comAccum[1] / m.Mass, comAccum[2] / m.Mass}
	m.CoM = toMgl(comF64)

	for i, p := range positions {
		r := p.Sub(comF64)
		w := masses[i]
		m.Quad[0] += w * r[0] * r[0]
		m.Quad[1] += w * r[1] * r[1]
		m.Quad[2] += w * r[2] * r[2]
		m.Quad[3] += w * r[0] * r[1]
		m.Quad[4] += w * r[0] * r[2]
		m.Quad[5] += w * r[1] * r[2]
	}
	return m
}

func centroid(positions []space.Vec3) space.Vec3 {
	var c space.Vec3
	for _, p := range positions {
		c = c.Add(p)
	}
	if len(positions) == 0 {
		return c
	}
	return c.Scale(1.0 / float64(len(positions)))
}

// M2M shifts src (a child's multipole, centered on src.CoM) onto a new
// center of expansion parentCoM using the parallel-axis theorem for the
// quadrupole term, and returns the shifted expansion. The caller adds
// the result into the parent's accumulator via Add.
func M2M(src Multipole, parentCoM space.Vec3) Multipole {
	shifted := src
	parentCoMf := toMgl(parentCoM)
	shifted.CoM = parentCoMf
	d := src.CoM.Sub(parentCoMf)
	dx, dy, dz := float64(d.X()), float64(d.Y()), float64(d.Z())
	m := src.Mass
	shifted.Quad[0] += m * dx * dx
	shifted.Quad[1] += m * dy * dy
	shifted.Quad[2] += m * dz * dz
	shifted.Quad[3] += m * dx * dy
	shifted.Quad[4] += m * dx * dz
	shifted.Quad[5] += m * dy * dz
	return shifted
}

// M2LAccept is the multipole acceptance criterion (MAC): two cells may
// interact via their multipole expansions, instead of recursing further,
// when (r_max_i + r_max_j)^2 <= theta_crit^2 * r^2.
func M2LAccept(rMaxI, rMaxJ, thetaCritSq, rSq float64) bool {
	sum := rMaxI + rMaxJ
	return sum*sum <= thetaCritSq*rSq
}
