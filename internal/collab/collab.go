// Package collab declares the narrow capability interfaces the core
// consumes from external physics collaborators (spec §6), and nothing
// else: the core depends only on these interfaces, never on a concrete
// numerics package, so a real SPH/gravity implementation can be swapped
// in without touching internal/cell, internal/drift, or
// internal/activate. Per spec §9 ("avoid pervasive indirect calls on hot
// drift/interaction paths") a caller is expected to resolve a concrete
// implementation once at startup and hold it as a typed field, not
// re-dispatch through the interface per particle.
package collab

import (
	"github.com/pwdraper/swiftsim/internal/gravmath"
	"github.com/pwdraper/swiftsim/internal/space"
)

// Integrator advances a single particle's kinematic state over an
// interval. dt is expressed in the engine's own time units (already
// converted from a tick delta by the caller).
type Integrator interface {
	DriftPart(p *space.GasParticle, xp *space.GasExtended, dt float64)
	DriftGPart(g *space.GravityParticle, dt float64)
	DriftSPart(s *space.StarParticle, dt float64)
	KickPart(p *space.GasParticle, dt float64)
	GravityDrift(m *gravmath.Multipole, dt float64, dxEnvelope float64)
}

// Hydro exposes the SPH-specific per-particle hooks the Drift Engine
// calls around an integration step; the opaque thermodynamic fields
// themselves are never read by the core.
type Hydro interface {
	InitDensityAccumulator(p *space.GasParticle)
	ConvertAfterDensity(p *space.GasParticle, xp *space.GasExtended)
}

// Gravity exposes the multipole primitives the Multipole Maintainer and
// the gravity subcell activator need.
type Gravity interface {
	P2M(positions []space.Vec3, masses []float64) gravmath.Multipole
	M2M(src gravmath.Multipole, parentCoM space.Vec3) gravmath.Multipole
	MultipoleAdd(dest *gravmath.Multipole, src gravmath.Multipole)
	MultipoleInit(m *gravmath.Multipole)
	M2LAccept(rMaxI, rMaxJ, thetaCritSq, rSq float64) bool
}
