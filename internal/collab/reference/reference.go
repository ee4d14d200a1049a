// Package reference provides minimal, concrete implementations of the
// Integrator, Hydro, and Gravity collaborator capabilities (spec §6),
// sufficient to exercise the core's drift/multipole/activation call
// sites end to end. The SPH flux solver and the multipole derivatives'
// exact polynomial form are explicitly out of scope (spec §1); this
// package is not a physically complete simulation, it is the
// monomorphised "flavour enum" choice spec §9 asks the core to pick one
// of at compile/startup time instead of dispatching through interfaces
// on the hot path.
package reference

import (
	"github.com/pwdraper/swiftsim/internal/gravmath"
	"github.com/pwdraper/swiftsim/internal/space"
)

// Integrator is a symplectic leapfrog-style position/velocity update,
// grounded on the teacher's rigid-body integration loop (now-removed
// physics.go: `Position = Position.Add(Velocity.Mul(dtSub))`),
// generalized to gas/gravity/star particles and to multipole drift.
type Integrator struct{}

func (Integrator) DriftPart(p *space.GasParticle, xp *space.GasExtended, dt float64) {
	disp := p.Vel.Scale(dt)
	p.Pos = p.Pos.Add(disp)
	xp.DxMaxSq += disp[0]*disp[0] + disp[1]*disp[1] + disp[2]*disp[2]
}

func (Integrator) DriftGPart(g *space.GravityParticle, dt float64) {
	g.Pos = g.Pos.Add(g.Vel.Scale(dt))
}

func (Integrator) DriftSPart(s *space.StarParticle, dt float64) {
	s.Pos = s.Pos.Add(s.Vel.Scale(dt))
}

// KickPart applies a half-step velocity kick. The reference collaborator
// has no external force field wired in, so it is a deliberate no-op:
// correctness of the kick-drift-kick bracketing is the core's concern
// (the scheduler's kick1/kick2 task ordering), not this collaborator's.
func (Integrator) KickPart(p *space.GasParticle, dt float64) {}

// GravityDrift inflates r_max by dxEnvelope to keep it a conservative
// bound after the particles it summarizes have moved (spec §4.3
// "Multipole drift"). It does not move the center of mass or change the
// moments; dt is unused.
func (Integrator) GravityDrift(m *gravmath.Multipole, dt float64, dxEnvelope float64) {
	m.RMax += dxEnvelope
}

// Hydro is a trivial SPH density accumulator: it resets the opaque
// entropy field to a sentinel the flux solver (out of scope) would
// overwrite, and otherwise does nothing. Grounded on spec §6's
// "opaque per-particle fields consumed by the core only through these
// calls" — the core must call these hooks at the right time without
// knowing what they do internally.
type Hydro struct{}

func (Hydro) InitDensityAccumulator(p *space.GasParticle) {
	p.Entropy = 0
}

func (Hydro) ConvertAfterDensity(p *space.GasParticle, xp *space.GasExtended) {}

// Gravity wraps internal/gravmath's pure P2M/M2M/MAC functions to
// satisfy collab.Gravity, matching spec §6's collaborator surface
// exactly (multipole_add/multipole_init as separate named hooks, even
// though gravmath.Multipole also exposes them as methods).
type Gravity struct{}

func (Gravity) P2M(positions []space.Vec3, masses []float64) gravmath.Multipole {
	return gravmath.P2M(positions, masses)
}

func (Gravity) M2M(src gravmath.Multipole, parentCoM space.Vec3) gravmath.Multipole {
	return gravmath.M2M(src, parentCoM)
}

func (Gravity) MultipoleAdd(dest *gravmath.Multipole, src gravmath.Multipole) {
	dest.Add(src)
}

func (Gravity) MultipoleInit(m *gravmath.Multipole) {
	m.Init()
}

func (Gravity) M2LAccept(rMaxI, rMaxJ, thetaCritSq, rSq float64) bool {
	return gravmath.M2LAccept(rMaxI, rMaxJ, thetaCritSq, rSq)
}
