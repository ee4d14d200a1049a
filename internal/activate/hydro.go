package activate

import (
	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/drift"
	"github.com/pwdraper/swiftsim/internal/sched"
)

// UnskipHydro implements spec §4.5's unskip_hydro for a single density-
// phase stub: it decides whether the stub must run this step, inserts
// the supporting drift/sort/send/recv prerequisites, and reports
// whether the rebuild test fired for this pair.
func (act *Activator) UnskipHydro(stub *Stub, t int64) (rebuild bool) {
	ci := act.Arena.Get(stub.CI)
	hasCJ := stub.CJ != cell.None

	ciLocalActive := act.isLocal(stub.CI) && cellActiveHydro(ci, t)
	var cjLocalActive, cjForeignActive bool
	cjCell := ci
	if hasCJ {
		cjCell = act.Arena.Get(stub.CJ)
		if act.isLocal(stub.CJ) {
			cjLocalActive = cellActiveHydro(cjCell, t)
		} else {
			cjForeignActive = cellActiveHydro(cjCell, t)
		}
	}

	if !ciLocalActive && !cjLocalActive && !cjForeignActive {
		return false
	}

	sched.Activate(stub.Task)

	switch stub.Task.Type {
	case sched.TypeSelf:
		act.activatePartDrift(stub.CI)
	case sched.TypePair:
		ci.RequiresSort |= 1 << stub.Task.Flags
		ci.DxMaxSortOld = ci.DxMaxSort
		act.activatePartDrift(stub.CI)
		ci.DoSort |= 1 << stub.Task.Flags

		if hasCJ {
			cjCell.RequiresSort |= 1 << stub.Task.Flags
			cjCell.DxMaxSortOld = cjCell.DxMaxSort
			if act.isLocal(stub.CJ) {
				act.activatePartDrift(stub.CJ)
			}
			cjCell.DoSort |= 1 << stub.Task.Flags
		}
	case sched.TypeSubPair, sched.TypeSubSelf:
		act.activateSubcellHydro(stub, t)
	}

	if hasCJ && act.needRebuild(ci, cjCell) {
		rebuild = true
	}

	if hasCJ && !act.isLocal(stub.CJ) {
		if ciLocalActive {
			activateIfPresent(stub.RecvXV)
			activateIfPresent(stub.RecvRho)
			if act.Params.ExtraGradientLoop {
				activateIfPresent(stub.RecvGradient)
			}
		}
		if cjForeignActive {
			activateIfPresent(stub.SendXV)
			activateIfPresent(stub.SendRho)
			if act.Params.ExtraGradientLoop {
				activateIfPresent(stub.SendGradient)
			}
			act.activatePartDrift(stub.CI)
		}
		if ciLocalActive || cjForeignActive {
			activateIfPresent(stub.SendTi)
			activateIfPresent(stub.RecvTi)
		}
	}

	return rebuild
}

// activatePartDrift records the intent to drift ci's gas particles up
// to the super_hydro pointer, clearing the drift task's skip flag once
// the walk reaches it (spec §4.5 delegates the actual walk to §4.3's
// activate_drift).
func (act *Activator) activatePartDrift(idx int32) {
	c := act.Arena.Get(idx)
	drift.ActivateDrift(act.Arena, idx, c.SuperHydro, func(at int32) {
		act.Arena.Get(at).Drift.Skipped = false
	})
}

// needRebuild implements spec §4.5's rebuild test: a pair's cached
// sort became unsafe to reuse because one side's particles moved more,
// relative to the cell, than the configured fraction of dmin allows
// (dx_max_sort > SpaceMaxRelDx * dmin on either cell).
func (act *Activator) needRebuild(ci, cj *cell.Cell) bool {
	limit := act.Params.SpaceMaxRelDx
	if ci.DxMaxSort > limit*ci.Dmin {
		return true
	}
	if cj.DxMaxSort > limit*cj.Dmin {
		return true
	}
	return false
}

// activateSubcellHydro descends a sub_self or sub_pair stub to the
// leaf pairs it actually represents, activating the part-drift on
// every leaf it bottoms out at. A self-type stub (CJ absent) recurses
// over every child pair (a, b) with a <= b; a pair-type stub descends
// into whichever side is still split, tie-broken to cj, until both
// sides are leaves.
func (act *Activator) activateSubcellHydro(stub *Stub, t int64) {
	ci := act.Arena.Get(stub.CI)

	if stub.CJ == cell.None {
		if !ci.Split {
			act.activatePartDrift(stub.CI)
			return
		}
		for i := 0; i < 8; i++ {
			a := ci.Progeny[i]
			if a == cell.None {
				continue
			}
			for j := i; j < 8; j++ {
				b := ci.Progeny[j]
				if b == cell.None {
					continue
				}
				if i == j {
					act.activateSubcellHydro(&Stub{Task: stub.Task, CI: a, CJ: cell.None}, t)
				} else {
					act.activateSubcellHydro(&Stub{Task: stub.Task, CI: a, CJ: b}, t)
				}
			}
		}
		return
	}

	cj := act.Arena.Get(stub.CJ)
	if !ci.Split && !cj.Split {
		ci.RequiresSort |= 1 << stub.Task.Flags
		ci.DxMaxSortOld = ci.DxMaxSort
		act.activatePartDrift(stub.CI)
		ci.DoSort |= 1 << stub.Task.Flags

		cj.RequiresSort |= 1 << stub.Task.Flags
		cj.DxMaxSortOld = cj.DxMaxSort
		if act.isLocal(stub.CJ) {
			act.activatePartDrift(stub.CJ)
		}
		cj.DoSort |= 1 << stub.Task.Flags
		return
	}

	if ci.Split && (!cj.Split || ci.Dmin > cj.Dmin) {
		for _, a := range ci.Progeny {
			if a != cell.None {
				act.activateSubcellHydro(&Stub{Task: stub.Task, CI: a, CJ: stub.CJ}, t)
			}
		}
		return
	}
	for _, b := range cj.Progeny {
		if b != cell.None {
			act.activateSubcellHydro(&Stub{Task: stub.Task, CI: stub.CI, CJ: b}, t)
		}
	}
}

func activateIfPresent(t *sched.Task) {
	if t != nil {
		sched.Activate(t)
	}
}

// ActivateCellTasks activates a locally-owned active cell's per-cell
// task set: gradient/force phase tasks plus the ghost/kick/timestep/
// end-force/cooling/sourceterms cluster, done once per self cell after
// its pair traversal completes (spec §4.5 "After pair traversal...").
func (act *Activator) ActivateCellTasks(idx int32, t int64) {
	c := act.Arena.Get(idx)
	if !act.isLocal(idx) || !cellActiveHydro(c, t) {
		return
	}
	activateHandleList(c.Gradient)
	activateHandleList(c.Force)
	activateHandle(&c.Ghost)
	activateHandle(&c.Kick1)
	activateHandle(&c.Kick2)
	activateHandle(&c.Timestep)
	activateHandle(&c.EndForce)
	activateHandle(&c.Cooling)
	activateHandle(&c.Sourceterms)
}

func activateHandleList(hs []cell.TaskHandle) {
	for i := range hs {
		hs[i].Skipped = false
	}
}

func activateHandle(h *cell.TaskHandle) {
	h.Skipped = false
}
