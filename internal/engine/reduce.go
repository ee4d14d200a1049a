package engine

import "github.com/pwdraper/swiftsim/internal/cell"

// Summary is one rank's per-step outcome: the envelopes the Task Graph
// Activator computed while walking its local tree, the update counts
// its tasks performed, and whether anything it saw demands a rebuild.
type Summary struct {
	Rank int

	HydroEndMin int64
	GravEndMin  int64

	UpdatedGas     int
	UpdatedGravity int
	UpdatedStars   int

	Rebuild bool
}

// Combine folds every rank's Summary into the single global decision
// every rank then applies (spec §4.6): sum the update counts, take the
// minimum of each kind's ti_end_min, and OR the rebuild flag. Combine
// panics on an empty input since a step with zero ranks reporting is a
// caller programming error, not a degenerate but valid summary.
func Combine(summaries []Summary) Summary {
	if len(summaries) == 0 {
		panic("swiftsim: engine.Combine called with no per-rank summaries")
	}
	out := Summary{
		HydroEndMin: summaries[0].HydroEndMin,
		GravEndMin:  summaries[0].GravEndMin,
	}
	for _, s := range summaries {
		if s.HydroEndMin < out.HydroEndMin {
			out.HydroEndMin = s.HydroEndMin
		}
		if s.GravEndMin < out.GravEndMin {
			out.GravEndMin = s.GravEndMin
		}
		out.UpdatedGas += s.UpdatedGas
		out.UpdatedGravity += s.UpdatedGravity
		out.UpdatedStars += s.UpdatedStars
		out.Rebuild = out.Rebuild || s.Rebuild
	}
	return out
}

// Apply writes the globally combined envelope back onto idx's cell, the
// floor every rank's next-step activity test reads (spec §4.6 "apply
// the global result back to every rank's engine state").
func Apply(a *cell.Arena, idx int32, global Summary) {
	c := a.Get(idx)
	c.HydroEndMin = global.HydroEndMin
	c.GravEndMin = global.GravEndMin
}
