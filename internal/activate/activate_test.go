package activate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab/reference"
	"github.com/pwdraper/swiftsim/internal/sched"
	"github.com/pwdraper/swiftsim/internal/space"
)

func newActivator(a *cell.Arena, sp *space.Space) *Activator {
	return &Activator{
		Arena:      a,
		Space:      sp,
		Gravity:    reference.Gravity{},
		Integrator: reference.Integrator{},
		Params: Params{
			LocalRank:     0,
			ThetaCritSq:   0.25, // theta = 0.5
			SpaceMaxRelDx: 0.1,
		},
	}
}

func twoLeafCells(t *testing.T) (*cell.Arena, int32, int32, *space.Space) {
	t.Helper()
	sp := space.New(100, true)
	a := cell.NewArena()
	root := a.Alloc()
	ci := a.Alloc()
	cj := a.Alloc()
	a.Get(root).Split = true
	a.Get(root).Progeny[0] = ci
	a.Get(root).Progeny[1] = cj
	a.Get(ci).Parent = root
	a.Get(cj).Parent = root
	a.Get(root).SuperHydro = root
	a.Get(root).SuperGravity = root
	a.Get(ci).SuperHydro = root
	a.Get(cj).SuperHydro = root
	a.Get(ci).SuperGravity = root
	a.Get(cj).SuperGravity = root
	return a, ci, cj, sp
}

func TestUnskipHydro_PairWithOneActiveCellRunsAndActivatesDrift(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)

	a.Get(ci).HydroEndMin = 0 // active at t=0
	a.Get(cj).HydroEndMin = 5 // not active yet

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeHydro, nil)
	task.Skip = true
	task.Flags = 2
	stub := &Stub{Task: task, CI: ci, CJ: cj}

	rebuild := act.UnskipHydro(stub, 0)

	assert.False(t, rebuild)
	assert.False(t, task.Skip, "task with one locally active side must be unskipped")
	assert.False(t, a.Get(ci).Drift.Skipped, "active cell's drift must be activated")
	assert.NotZero(t, a.Get(ci).RequiresSort&(1<<2))
	assert.NotZero(t, a.Get(ci).DoSort&(1<<2))
}

func TestUnskipHydro_NeitherSideActiveStaysSkipped(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)
	a.Get(ci).HydroEndMin = 5
	a.Get(cj).HydroEndMin = 5

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeHydro, nil)
	task.Skip = true
	stub := &Stub{Task: task, CI: ci, CJ: cj}

	rebuild := act.UnskipHydro(stub, 0)

	assert.False(t, rebuild)
	assert.True(t, task.Skip, "neither side active: task must remain skipped")
}

func TestUnskipHydro_ExcessiveSortDriftTriggersRebuild(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)
	a.Get(ci).HydroEndMin = 0
	a.Get(ci).Dmin = 1.0
	a.Get(ci).DxMaxSort = 1.0 // far beyond SpaceMaxRelDx*Dmin = 0.1

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeHydro, nil)
	task.Skip = true
	stub := &Stub{Task: task, CI: ci, CJ: cj}

	rebuild := act.UnskipHydro(stub, 0)
	assert.True(t, rebuild)
}

func TestUnskipHydro_CrossRankActivatesMatchingEndpoint(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)
	a.Get(ci).HydroEndMin = 0
	a.Get(ci).Owner = 0
	a.Get(cj).Owner = 1 // foreign
	a.Get(cj).HydroEndMin = 5

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeHydro, nil)
	task.Skip = true
	recvXV := &sched.Task{Skip: true}
	sendTi := &sched.Task{Skip: true}
	recvTi := &sched.Task{Skip: true}
	stub := &Stub{Task: task, CI: ci, CJ: cj, RecvXV: recvXV, SendTi: sendTi, RecvTi: recvTi}

	act.UnskipHydro(stub, 0)

	assert.False(t, recvXV.Skip, "local side active: must receive the foreign cell's xv")
	assert.False(t, sendTi.Skip)
	assert.False(t, recvTi.Skip)
}

func TestUnskipGravity_AcceptedPairNeedsNoDescent(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)
	a.Get(ci).GravEndMin = 0
	a.Get(ci).Multipole.CoM = mgl32.Vec3{0, 0, 0}
	a.Get(cj).Multipole.CoM = mgl32.Vec3{10, 0, 0}
	a.Get(ci).Multipole.RMax = 1.5
	a.Get(cj).Multipole.RMax = 1.5 // sum = 3, r = 10, theta^2=0.25 -> accept

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeGravity, nil)
	task.Skip = true
	stub := &Stub{Task: task, CI: ci, CJ: cj}

	act.UnskipGravity(stub, 0)

	assert.False(t, task.Skip)
	assert.False(t, a.Get(ci).DoDriftGPart, "accepted pair must not force a gpart drift")
}

func TestUnskipGravity_RejectedLeafPairActivatesGPartDrift(t *testing.T) {
	a, ci, cj, sp := twoLeafCells(t)
	act := newActivator(a, sp)
	a.Get(ci).GravEndMin = 0
	a.Get(ci).Multipole.CoM = mgl32.Vec3{0, 0, 0}
	a.Get(cj).Multipole.CoM = mgl32.Vec3{10, 0, 0}
	a.Get(ci).Multipole.RMax = 4
	a.Get(cj).Multipole.RMax = 3 // sum = 7 > theta*r = 5 -> reject

	task := sched.NewTask(1, sched.TypePair, sched.SubtypeGravity, nil)
	task.Skip = true
	stub := &Stub{Task: task, CI: ci, CJ: cj}

	act.UnskipGravity(stub, 0)

	assert.True(t, a.Get(ci).DoDriftGPart, "leaf-leaf MAC rejection must fall back to direct summation")
	assert.True(t, a.Get(cj).DoDriftGPart)
}

func TestComputeSuperPointers_InheritsFromShallowestOwningAncestor(t *testing.T) {
	a := cell.NewArena()
	root := a.Alloc()
	mid := a.Alloc()
	leaf := a.Alloc()
	a.Get(root).Progeny[0] = mid
	a.Get(root).Split = true
	a.Get(mid).Parent = root
	a.Get(mid).Progeny[0] = leaf
	a.Get(mid).Split = true
	a.Get(leaf).Parent = mid

	a.Get(mid).Density = []cell.TaskHandle{{ID: 1}}

	act := newActivator(a, space.New(10, true))
	act.ComputeSuperPointers(root)

	assert.Equal(t, mid, a.Get(mid).SuperHydro)
	assert.Equal(t, mid, a.Get(leaf).SuperHydro, "leaf inherits the shallowest owning ancestor; root owns none")
	assert.Equal(t, cell.None, a.Get(root).SuperHydro, "root owns no hydro tasks itself")
}

func TestActivateCellTasks_SkipsForeignOrInactiveCells(t *testing.T) {
	a := cell.NewArena()
	idx := a.Alloc()
	c := a.Get(idx)
	c.Owner = 1 // foreign to rank 0
	c.HydroEndMin = 0
	c.Kick1.Skipped = true

	act := newActivator(a, space.New(10, true))
	act.ActivateCellTasks(idx, 0)

	assert.True(t, c.Kick1.Skipped, "foreign cell's per-cell tasks must not be activated locally")
}

func TestActivateCellTasks_ActivatesLocalActiveCluster(t *testing.T) {
	a := cell.NewArena()
	idx := a.Alloc()
	c := a.Get(idx)
	c.HydroEndMin = 0
	c.Kick1.Skipped = true
	c.Timestep.Skipped = true

	act := newActivator(a, space.New(10, true))
	act.ActivateCellTasks(idx, 0)

	assert.False(t, c.Kick1.Skipped)
	assert.False(t, c.Timestep.Skipped)
}

func TestUnskipHydro_SubPairDescendsToLeavesAndDriftsBoth(t *testing.T) {
	a := cell.NewArena()
	root := a.Alloc()
	ciParent := a.Alloc()
	cjParent := a.Alloc()
	ciLeaf := a.Alloc()
	cjLeaf := a.Alloc()

	a.Get(root).SuperHydro = root
	for _, idx := range []int32{ciParent, cjParent, ciLeaf, cjLeaf} {
		a.Get(idx).SuperHydro = root
	}
	a.Get(ciParent).Parent = root
	a.Get(cjParent).Parent = root
	a.Get(ciParent).Progeny[0] = ciLeaf
	a.Get(ciParent).Split = true
	a.Get(ciLeaf).Parent = ciParent

	sp := space.New(10, true)
	act := newActivator(a, sp)
	a.Get(ciParent).HydroEndMin = 0

	task := sched.NewTask(1, sched.TypeSubPair, sched.SubtypeHydro, nil)
	task.Skip = true
	stub := &Stub{Task: task, CI: ciParent, CJ: cjParent}

	require.NotPanics(t, func() { act.UnskipHydro(stub, 0) })
	assert.True(t, a.Get(ciLeaf).DoDriftPart, "sub_pair descent must reach and drift the leaf")
}
