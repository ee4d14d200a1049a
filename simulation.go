package swiftsim

import (
	"github.com/pwdraper/swiftsim/internal/activate"
	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/collab"
	"github.com/pwdraper/swiftsim/internal/drift"
	"github.com/pwdraper/swiftsim/internal/engine"
	"github.com/pwdraper/swiftsim/internal/multipole"
	"github.com/pwdraper/swiftsim/internal/sched"
	"github.com/pwdraper/swiftsim/internal/space"
)

// defaultKernelGamma is the cubic-spline kernel's support-radius factor
// Sanitize's h-clamp test divides by; the exact kernel shape is the
// Hydro collaborator's concern (out of scope here), but the Cell Tree
// still needs a concrete value to clamp against.
const defaultKernelGamma = 1.825742

// Clock is the step counter the core's tick-driven drift/activation
// calls read, replacing the ad hoc "current tick" the teacher's
// Time resource plays for wall-clock frame timing.
type Clock struct {
	Tick int64
}

// RebuildFlag carries the Step Reducer's combined rebuild decision
// across the step boundary into the next step's Rebuild stage.
type RebuildFlag struct {
	Needed bool
}

// SimulationModule wires the Cell Tree, Drift Engine, Multipole
// Maintainer, Task Graph Activator and Step Reducer into the App's
// fixed five-stage pipeline (spec §4, §9). It owns no domain state
// itself: every field here is supplied by the caller (typically
// cmd/swiftsim-run), and Install only registers resources and systems
// against the App the teacher's Module convention already defines.
type SimulationModule struct {
	Space   *space.Space
	Arena   *cell.Arena
	Root    int32
	Workers int

	Rank          int
	TagMax        uint32
	ThetaCritSq   float64
	SpaceMaxRelDx float64

	Integrator collab.Integrator
	Hydro      collab.Hydro
	Gravity    collab.Gravity

	HMaxGlobal float64
}

func (m SimulationModule) Install(app *App, cmd *Commands) {
	ctx := engine.NewContext(m.Rank, m.TagMax)
	pool := sched.NewPool(m.Workers)
	act := &activate.Activator{
		Arena:      m.Arena,
		Space:      m.Space,
		Gravity:    m.Gravity,
		Integrator: m.Integrator,
		Params: activate.Params{
			LocalRank:     m.Rank,
			ThetaCritSq:   m.ThetaCritSq,
			SpaceMaxRelDx: m.SpaceMaxRelDx,
		},
	}
	clock := &Clock{}
	rebuildFlag := &RebuildFlag{Needed: true}

	cmd.AddResources(m.Space, m.Arena, ctx, pool, act, clock, rebuildFlag)

	root, arena, sp := m.Root, m.Arena, m.Space
	integ, hydro, grav := m.Integrator, m.Hydro, m.Gravity
	hMaxGlobal := m.HMaxGlobal

	app.UseSystem(System(func(flag *RebuildFlag, a *cell.Arena) {
		if !flag.Needed {
			return
		}
		cell.Sanitize(a, root, sp, cell.DefaultSanitizeThreshold, defaultKernelGamma)
		flag.Needed = false
	}).InStage(StageRebuild))

	app.UseSystem(System(func(c *Clock, a *cell.Arena) {
		c.Tick++
		drift.Part(a, root, sp, c.Tick, true, integ, hydro, hMaxGlobal)
		drift.GPart(a, root, sp, c.Tick, true, integ)
		drift.AllMultipoles(a, root, c.Tick, integ)
		multipole.MakeMultipoles(a, root, sp, c.Tick, grav)
	}).InStage(StageDrift))

	app.UseSystem(System(func(a *activate.Activator) {
		a.ComputeSuperPointers(root)
		a.ActivateCellTasks(root, clock.Tick)
	}).InStage(StageActivate))

	app.UseSystem(System(func(p *sched.Pool) {
		// Task stubs are constructed by a caller-supplied graph-building
		// step before Execute runs; the minimal driver queues none.
	}).InStage(StageExecute))

	app.UseSystem(System(func(c *Clock, flag *RebuildFlag) {
		rootCell := arena.Get(root)
		local := engine.Summary{
			Rank:        m.Rank,
			HydroEndMin: rootCell.HydroEndMin,
			GravEndMin:  rootCell.GravEndMin,
		}
		global := engine.Combine([]engine.Summary{local})
		engine.Apply(arena, root, global)
		if global.Rebuild {
			flag.Needed = true
		}
		app.Logger().Infof("step %d: tick=%d hydro_end_min=%d grav_end_min=%d rebuild=%v",
			cmd.Step(), c.Tick, global.HydroEndMin, global.GravEndMin, global.Rebuild)
	}).InStage(StageReduce))
}
