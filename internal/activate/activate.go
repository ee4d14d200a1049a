// Package activate implements the Task Graph Activator (spec §4.5), the
// core of the core: given pre-constructed task stubs at every level of
// the tree, decide for this step which stubs must run, insert the
// minimal supporting prerequisites (drifts, sorts, sends, receives), and
// signal whether the tree needs a full rebuild before the next step.
// This is pure orchestration logic with no direct teacher analogue (the
// teacher has no dependency-graph activator); it is grounded structurally
// on the teacher's schedule.go stage/system registration style for how
// task stubs are declared and looked up, and on internal/sched's queue
// for how an activated task becomes runnable.
package activate

import (
	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab"
	"github.com/pwdraper/swiftsim/internal/sched"
	"github.com/pwdraper/swiftsim/internal/space"
)

// Stub is a pre-constructed candidate interaction the Activator may
// turn into live work this step: a self (cj absent) or pair task at
// some level of the tree, hydro or gravity flavoured.
type Stub struct {
	Task *sched.Task
	CI   int32
	CJ   int32 // cell.None for a self-type stub

	// ForeignOwner is the owning rank of CJ when it is not local, or
	// LocalRank when CJ is local (or absent).
	ForeignOwner int

	// SendXV/RecvXV etc. are the cooperating cross-rank endpoints for a
	// foreign pair, wired by the caller at graph construction time (nil
	// when both cells are local).
	SendXV, RecvXV, SendRho, RecvRho, SendGradient, RecvGradient *sched.Task
	SendTi, RecvTi                                               *sched.Task
	SendGrav, RecvGrav                                           *sched.Task
}

// Params bundles the configured constants the Activator's tests need.
type Params struct {
	LocalRank     int
	ThetaCritSq   float64
	SpaceMaxRelDx float64 // rebuild trigger: dx_max_sort > SpaceMaxRelDx * dmin
	ExtraGradientLoop bool
}

// Activator holds everything UnskipHydro/UnskipGravity need to decide
// and record activation against a concrete tree and particle set.
type Activator struct {
	Arena      *cell.Arena
	Space      *space.Space
	Gravity    collab.Gravity
	Integrator collab.Integrator
	Params     Params
}

func (act *Activator) owner(idx int32) int {
	return act.Arena.Get(idx).Owner
}

func (act *Activator) isLocal(idx int32) bool {
	return act.owner(idx) == act.Params.LocalRank
}

// cellActiveHydro reports whether ci currently holds a gas particle
// active at tick t, approximated at the cell level via its hydro
// end-time envelope (a cell is "active" this step iff its recorded
// ti_end_min for hydro has been reached).
func cellActiveHydro(c *cell.Cell, t int64) bool {
	return c.HydroEndMin <= t
}

func cellActiveGravity(c *cell.Cell, t int64) bool {
	return c.GravEndMin <= t
}
