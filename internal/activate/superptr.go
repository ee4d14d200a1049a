package activate

import "github.com/pwdraper/swiftsim/internal/cell"

// ComputeSuperPointers is the top-down pass that stamps every cell's
// super_hydro/super_gravity/super pointer with the shallowest self-or-
// ancestor owning tasks of that class (spec §4.5). It must run once,
// top-down from the root, after the tree's task stubs are registered
// and before the first UnskipHydro/UnskipGravity call, since
// activatePartDrift/activateGPartDrift stop their ancestor walk at
// these pointers.
func (act *Activator) ComputeSuperPointers(idx int32) {
	act.computeSuperPointers(idx, cell.None, cell.None, cell.None)
}

func (act *Activator) computeSuperPointers(idx, parentHydro, parentGravity, parentAny int32) {
	c := act.Arena.Get(idx)

	superHydro := parentHydro
	if superHydro == cell.None && ownsHydroTasks(c) {
		superHydro = idx
	}
	superGravity := parentGravity
	if superGravity == cell.None && ownsGravityTasks(c) {
		superGravity = idx
	}
	super := parentAny
	if super == cell.None && (ownsHydroTasks(c) || ownsGravityTasks(c) || ownsOtherTasks(c)) {
		super = idx
	}

	c.SuperHydro = superHydro
	c.SuperGravity = superGravity
	c.Super = super

	for _, p := range c.Progeny {
		if p != cell.None {
			act.computeSuperPointers(p, superHydro, superGravity, super)
		}
	}
}

func ownsHydroTasks(c *cell.Cell) bool {
	return len(c.Density) > 0 || len(c.Gradient) > 0 || len(c.Force) > 0
}

func ownsGravityTasks(c *cell.Cell) bool {
	return len(c.Gravity) > 0 || c.InitGrav.Valid() || c.GravDown.Valid() || c.GravLongRange.Valid()
}

func ownsOtherTasks(c *cell.Cell) bool {
	return c.Kick1.Valid() || c.Kick2.Valid() || c.Timestep.Valid() ||
		c.EndForce.Valid() || c.Cooling.Valid() || c.Sourceterms.Valid() ||
		len(c.SendRecv) > 0
}
