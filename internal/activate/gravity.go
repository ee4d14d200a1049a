package activate

import (
	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/drift"
	"github.com/pwdraper/swiftsim/internal/sched"
)

// UnskipGravity is UnskipHydro's gravity-flavoured counterpart (spec
// §4.5): it decides whether a gravity stub must run this step, applies
// the Multipole Acceptance Criterion to decide whether the interaction
// is resolved at this level or must descend, and activates the gpart
// drifts a leaf-leaf rejection ultimately requires.
func (act *Activator) UnskipGravity(stub *Stub, t int64) (rebuild bool) {
	ci := act.Arena.Get(stub.CI)
	hasCJ := stub.CJ != cell.None

	ciLocalActive := act.isLocal(stub.CI) && cellActiveGravity(ci, t)
	var cjLocalActive, cjForeignActive bool
	cjCell := ci
	if hasCJ {
		cjCell = act.Arena.Get(stub.CJ)
		if act.isLocal(stub.CJ) {
			cjLocalActive = cellActiveGravity(cjCell, t)
		} else {
			cjForeignActive = cellActiveGravity(cjCell, t)
		}
	}

	if !ciLocalActive && !cjLocalActive && !cjForeignActive {
		return false
	}

	sched.Activate(stub.Task)

	if hasCJ {
		act.activateGravityPair(stub.CI, stub.CJ, t)
	} else {
		act.activateGravitySelf(stub.CI, t)
	}

	if hasCJ && !act.isLocal(stub.CJ) {
		if ciLocalActive {
			activateIfPresent(stub.RecvGrav)
		}
		if cjForeignActive {
			activateIfPresent(stub.SendGrav)
			act.activateGPartDrift(stub.CI)
		}
		if ciLocalActive || cjForeignActive {
			activateIfPresent(stub.SendTi)
			activateIfPresent(stub.RecvTi)
		}
	}

	return rebuild
}

// activateGravitySelf activates the long-range/init_grav/down cluster
// for a self-type gravity task; a split cell pushes the interaction
// down into its own sub-pairs exactly like the hydro self case.
func (act *Activator) activateGravitySelf(idx int32, t int64) {
	c := act.Arena.Get(idx)
	if !c.Split {
		act.activateGPartDrift(idx)
		activateHandle(&c.InitGrav)
		activateHandle(&c.GravDown)
		return
	}
	for i := 0; i < 8; i++ {
		a := c.Progeny[i]
		if a == cell.None {
			continue
		}
		act.activateGravitySelf(a, t)
		for j := i + 1; j < 8; j++ {
			b := c.Progeny[j]
			if b != cell.None {
				act.activateGravityPair(a, b, t)
			}
		}
	}
}

// activateGravityPair drifts both multipoles to t under the multipole
// lock, then applies the MAC to the freshly-drifted expansions (spec
// §4.5 "atomically drift both multipoles to t, then apply the MAC").
// Accepted pairs need nothing further: the long-range task consumes
// the multipoles as they stand. A rejected pair descends into whichever
// side is still split (ties broken to the larger r_max, per the
// rejection scenario); a rejection between two leaves activates the
// gpart drift on both, since the interaction must fall back to direct
// summation.
func (act *Activator) activateGravityPair(ciIdx, cjIdx int32, t int64) {
	act.driftMultipoleTo(ciIdx, t)
	act.driftMultipoleTo(cjIdx, t)

	ci := act.Arena.Get(ciIdx)
	cj := act.Arena.Get(cjIdx)

	rSq := act.comDistanceSq(ci, cj)
	if act.Gravity.M2LAccept(ci.Multipole.RMax, cj.Multipole.RMax, act.Params.ThetaCritSq, rSq) {
		return
	}

	if !ci.Split && !cj.Split {
		act.activateGPartDrift(ciIdx)
		act.activateGPartDrift(cjIdx)
		return
	}

	if ci.Split && (!cj.Split || ci.Multipole.RMax >= cj.Multipole.RMax) {
		for _, a := range ci.Progeny {
			if a != cell.None {
				act.activateGravityPair(a, cjIdx, t)
			}
		}
		return
	}
	for _, b := range cj.Progeny {
		if b != cell.None {
			act.activateGravityPair(ciIdx, b, t)
		}
	}
}

func (act *Activator) activateGPartDrift(idx int32) {
	c := act.Arena.Get(idx)
	drift.ActivateGPartDrift(act.Arena, idx, c.SuperGravity, func(at int32) {
		act.Arena.Get(at).GravDown.Skipped = false
	})
}

// driftMultipoleTo advances idx's multipole to t under its own
// multipole lock (spec §4.2's subtree lock manager, kind multipole),
// so a concurrent drift_multipole task touching the same cell can
// never race the MAC test against a half-updated expansion. TryLock
// never blocks; activation runs as a single sequential tree walk per
// rank, so contention here means another activation path reached this
// cell first in the same pass, not a live race, and retrying briefly
// is correct. Already-current multipoles are left untouched so a cell
// visited by more than one pair this step is only drifted once.
func (act *Activator) driftMultipoleTo(idx int32, t int64) {
	if act.Arena.Get(idx).TiOldMultipole >= t {
		return
	}
	for !cell.TryLock(act.Arena, idx, cell.KindMultipole) {
	}
	defer cell.Unlock(act.Arena, idx, cell.KindMultipole)

	if act.Arena.Get(idx).TiOldMultipole >= t {
		return
	}
	drift.Multipole(act.Arena, idx, t, act.Integrator)
}

// comDistanceSq returns the squared minimum-image distance between
// ci's and cj's multipole centers of mass (spec §4.5 "the minimum-image
// distance between CoMs"), wrapping each axis through the periodic
// domain when act.Space is periodic.
func (act *Activator) comDistanceSq(ci, cj *cell.Cell) float64 {
	a := ci.Multipole.CoM
	b := cj.Multipole.CoM
	var sum float64
	for k := 0; k < 3; k++ {
		d := float64(a[k]) - float64(b[k])
		if act.Space.Periodic {
			box := act.Space.BoxSize[k]
			if d > box/2 {
				d -= box
			} else if d < -box/2 {
				d += box
			}
		}
		sum += d * d
	}
	return sum
}
