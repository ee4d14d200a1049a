// Package cell implements the Cell Tree: an adaptive octree over a
// periodic cubical domain whose nodes hold non-owning windows into the
// particle arrays owned by internal/space. Cells are addressed by a
// 32-bit arena index rather than a pointer (spec §9 "Cyclic references
// (parent <-> progeny)": an arena with an integer back-reference avoids
// an owning cycle between parent and child).
package cell

import "github.com/pwdraper/swiftsim/internal/gravmath"

// None is the arena index used for an absent parent, progeny slot, or
// super pointer.
const None int32 = -1

// Cell is one node of the oct-tree.
type Cell struct {
	// Geometry
	Loc   [3]float64 // origin corner
	Width [3]float64 // side lengths (equal on all axes for a cube)
	Dmin  float64     // half-side lower bound, min(Width)/2
	Depth int

	Parent  int32
	Progeny [8]int32
	Split   bool

	// Particle windows: offset+count into Space's parallel arrays.
	GasOffset, GasCount       int
	GravOffset, GravCount     int
	StarOffset, StarCount     int

	// Temporal state
	TiOldPart      int64
	TiOldGPart     int64
	TiOldMultipole int64
	HydroEndMin    int64
	HydroEndMax    int64
	GravEndMin     int64
	GravEndMax     int64

	// Motion bounds
	HMax       float64
	DxMaxPart  float64
	DxMaxGPart float64
	DxMaxSort  float64

	// dx_max_sort snapshot taken when a pair activation recorded the
	// required sort direction, used by the rebuild test.
	DxMaxSortOld float64

	// Locks: one packed lock+hold word per kind (see lock.go).
	lockGas   lockWord
	lockGrav  lockWord
	lockStars lockWord
	lockMulti lockWord

	// Sorting cache: bit i set means direction i is valid/required/pending.
	Sorted       uint16
	RequiresSort uint16
	DoSort       uint16
	SortCache    [13][]int32 // particle indices (into the gas window) per direction, lazily built

	// Scheduling hooks (spec §3 "singly-linked lists of task handles
	// grouped by phase, plus direct handles for per-cell tasks").
	Density  []TaskHandle
	Gradient []TaskHandle
	Force    []TaskHandle
	Gravity  []TaskHandle

	Drift      TaskHandle
	Sort       TaskHandle
	Ghost      TaskHandle
	Kick1      TaskHandle
	Kick2      TaskHandle
	Timestep   TaskHandle
	EndForce   TaskHandle
	Cooling    TaskHandle
	Sourceterms TaskHandle
	InitGrav       TaskHandle
	GravDown       TaskHandle
	GravLongRange  TaskHandle
	SendRecv       []TaskHandle

	// Super pointers: shallowest self-or-ancestor owning tasks of the
	// relevant class.
	SuperHydro   int32
	SuperGravity int32
	Super        int32

	// Flags
	DoDriftPart     bool
	DoDriftGPart    bool
	DoSubDriftPart  bool
	DoSubDriftGPart bool
	Tag             int
	Owner           int

	Multipole gravmath.Multipole
}

// TaskHandle is an opaque reference to a scheduled task, set by the
// Task Graph Activator and consumed by the scheduler. A zero value
// means "no task registered at this hook".
type TaskHandle struct {
	ID      int64
	Skipped bool
}

func (h TaskHandle) Valid() bool { return h.ID != 0 }

// Arena owns every Cell in a tree by index, so parent/progeny/super
// references can be plain int32s instead of pointers.
type Arena struct {
	cells []Cell
	free  []int32
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc returns the index of a fresh zeroed cell, reusing a freed slot
// when one is available.
func (a *Arena) Alloc() int32 {
	var idx int32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
		a.cells[idx] = Cell{}
	} else {
		idx = int32(len(a.cells))
		a.cells = append(a.cells, Cell{})
	}
	c := a.Get(idx)
	c.Parent = None
	c.SuperHydro = None
	c.SuperGravity = None
	c.Super = None
	for i := range c.Progeny {
		c.Progeny[i] = None
	}
	return idx
}

// Free returns idx to the pool. Callers must first detach idx from any
// parent's Progeny slot and from any sibling/ancestor references.
func (a *Arena) Free(idx int32) {
	a.free = append(a.free, idx)
}

// Get returns a pointer to the cell at idx. The pointer is invalidated
// by any further Alloc call that grows the backing slice; callers
// should not retain it across an Alloc.
func (a *Arena) Get(idx int32) *Cell {
	return &a.cells[idx]
}

// Len returns the number of slots ever allocated (including freed
// ones still occupying a slot).
func (a *Arena) Len() int {
	return len(a.cells)
}
