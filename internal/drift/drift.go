// Package drift implements the Drift Engine (spec §4.3): bringing a
// subtree's particle state up to the current integer time on demand,
// while maintaining the per-cell motion envelopes (h_max, dx_max_*,
// ti_old_*) downstream admission tests read. Grounded on the teacher's
// mod_physics.go PhysicsSyncSystem/atomic.Pointer publish-latest-
// snapshot loop (idempotent application of an external integration step
// to per-entity state) and on the now-removed physics.go's leapfrog-
// style integration loop, generalized to recursive per-cell drift with
// envelope folding.
package drift

import (
	"fmt"
	"math"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab"
	"github.com/pwdraper/swiftsim/internal/space"
)

// baseUnit converts a tick delta to the physical dt an Integrator
// consumes. The core does not specify the conversion factor (a
// collaborator concern); a reasonable default of 1.0 treats a tick as
// one time unit, which is all the reference Integrator needs.
const baseUnit = 1.0

// Part advances every gas particle in idx's subtree to tick t, folding
// h_max/dx_max_part upward and stamping ti_old_part (spec §4.3
// drift_part). It is idempotent (a second call with the same t is a
// no-op) and monotonic (t < ti_old_part is fatal).
func Part(a *cell.Arena, idx int32, sp *space.Space, t int64, force bool, integ collab.Integrator, hydro collab.Hydro, hMaxGlobal float64) {
	c := a.Get(idx)
	if t < c.TiOldPart {
		panic(fmt.Sprintf("swiftsim: drift_part target %d precedes cell's ti_old_part %d", t, c.TiOldPart))
	}

	if c.Split {
		if force || c.DoSubDriftPart {
			var hMax, dxMaxSq float64
			for _, p := range c.Progeny {
				if p == cell.None {
					continue
				}
				Part(a, p, sp, t, force, integ, hydro, hMaxGlobal)
				child := a.Get(p)
				if child.HMax > hMax {
					hMax = child.HMax
				}
				if d := child.DxMaxPart * child.DxMaxPart; d > dxMaxSq {
					dxMaxSq = d
				}
			}
			c.HMax = hMax
			c.DxMaxPart = math.Sqrt(dxMaxSq)
			c.TiOldPart = t
		}
		c.DoSubDriftPart = false
		c.DoDriftPart = false
		return
	}

	if force && t > c.TiOldPart {
		dt := float64(t-c.TiOldPart) * baseUnit
		var hMax, dxMaxSq float64
		for i := c.GasOffset; i < c.GasOffset+c.GasCount; i++ {
			p := &sp.Gas[i]
			xp := &sp.GasXtra[i]
			integ.DriftPart(p, xp, dt)
			if p.H > hMaxGlobal {
				p.H = hMaxGlobal
			}
			if p.H > hMax {
				hMax = p.H
			}
			if xp.DxMaxSq > dxMaxSq {
				dxMaxSq = xp.DxMaxSq
			}
			if p.TimeBin.Active(space.Tick(t)) {
				hydro.InitDensityAccumulator(p)
			}
			p.TiDrift = space.Tick(t)
		}
		c.HMax = hMax
		c.DxMaxPart = math.Sqrt(dxMaxSq)
		c.TiOldPart = t
	}
	c.DoDriftPart = false
	c.DoSubDriftPart = false
}

// GPart is Part for the gravity particle kind (spec §4.3 drift_gpart).
func GPart(a *cell.Arena, idx int32, sp *space.Space, t int64, force bool, integ collab.Integrator) {
	c := a.Get(idx)
	if t < c.TiOldGPart {
		panic(fmt.Sprintf("swiftsim: drift_gpart target %d precedes cell's ti_old_gpart %d", t, c.TiOldGPart))
	}

	if c.Split {
		if force || c.DoSubDriftGPart {
			var dxMaxSq float64
			for _, p := range c.Progeny {
				if p == cell.None {
					continue
				}
				GPart(a, p, sp, t, force, integ)
				child := a.Get(p)
				if d := child.DxMaxGPart * child.DxMaxGPart; d > dxMaxSq {
					dxMaxSq = d
				}
			}
			c.DxMaxGPart = math.Sqrt(dxMaxSq)
			c.TiOldGPart = t
		}
		c.DoSubDriftGPart = false
		c.DoDriftGPart = false
		return
	}

	if force && t > c.TiOldGPart {
		dt := float64(t-c.TiOldGPart) * baseUnit
		var dxMaxSq float64
		for i := c.GravOffset; i < c.GravOffset+c.GravCount; i++ {
			g := &sp.Gravity[i]
			before := g.Pos
			integ.DriftGPart(g, dt)
			disp := g.Pos.Sub(before)
			if sq := disp[0]*disp[0] + disp[1]*disp[1] + disp[2]*disp[2]; sq > dxMaxSq {
				dxMaxSq = sq
			}
			g.TiDrift = space.Tick(t)
		}
		c.DxMaxGPart = math.Sqrt(dxMaxSq)
		c.TiOldGPart = t
	}
	c.DoDriftGPart = false
	c.DoSubDriftGPart = false
}

// SPart drifts every star particle in idx's subtree (spec §4.3
// drift_spart). Star particles carry no per-cell envelope of their own
// in the spec's data model; this mirrors GPart's structure without the
// dx_max bookkeeping.
func SPart(a *cell.Arena, idx int32, sp *space.Space, t int64, integ collab.Integrator) {
	c := a.Get(idx)
	if c.Split {
		for _, p := range c.Progeny {
			if p != cell.None {
				SPart(a, p, sp, t, integ)
			}
		}
		return
	}
	dt := float64(t-c.TiOldGPart) * baseUnit
	for i := c.StarOffset; i < c.StarOffset+c.StarCount; i++ {
		integ.DriftSPart(&sp.Stars[i], dt)
	}
}

// Multipole advances c's own expansion by dt, optionally inflating
// RMax by the gravity displacement envelope (spec §4.3 "Multipole
// drift": drift_multipole).
func Multipole(a *cell.Arena, idx int32, t int64, integ collab.Integrator) {
	c := a.Get(idx)
	dt := float64(t - c.TiOldMultipole)
	integ.GravityDrift(&c.Multipole, dt, c.DxMaxGPart)
	c.TiOldMultipole = t
}

// AllMultipoles recurses Multipole over idx's whole subtree (spec §4.3
// drift_all_multipoles).
func AllMultipoles(a *cell.Arena, idx int32, t int64, integ collab.Integrator) {
	Multipole(a, idx, t, integ)
	c := a.Get(idx)
	for _, p := range c.Progeny {
		if p != cell.None {
			AllMultipoles(a, p, t, integ)
		}
	}
}

// ActivateDrift records an intent to drift c's gas particles: it marks
// DoDriftPart on c, then walks ancestors setting DoSubDriftPart until
// reaching superIdx (c's registered super_hydro hook), at which point
// onReachSuper is invoked to let the caller enqueue the actual
// drift_part task on the scheduler (spec §4.3 "activate drift").
func ActivateDrift(a *cell.Arena, idx int32, superIdx int32, onReachSuper func(at int32)) {
	c := a.Get(idx)
	if c.DoDriftPart {
		return
	}
	c.DoDriftPart = true
	cur := idx
	for cur != superIdx {
		anc := a.Get(cur)
		if anc.Parent == cell.None {
			break
		}
		cur = anc.Parent
		parent := a.Get(cur)
		if parent.DoSubDriftPart {
			// Some earlier activation already walked this path up to
			// the super pointer and enqueued the drift there.
			return
		}
		parent.DoSubDriftPart = true
	}
	onReachSuper(superIdx)
}

// ActivateGPartDrift is ActivateDrift for the gravity particle kind,
// walking DoSubDriftGPart up to superIdx (spec §4.3 "activate drift",
// gravity flavour).
func ActivateGPartDrift(a *cell.Arena, idx int32, superIdx int32, onReachSuper func(at int32)) {
	c := a.Get(idx)
	if c.DoDriftGPart {
		return
	}
	c.DoDriftGPart = true
	cur := idx
	for cur != superIdx {
		anc := a.Get(cur)
		if anc.Parent == cell.None {
			break
		}
		cur = anc.Parent
		parent := a.Get(cur)
		if parent.DoSubDriftGPart {
			return
		}
		parent.DoSubDriftGPart = true
	}
	onReachSuper(superIdx)
}
