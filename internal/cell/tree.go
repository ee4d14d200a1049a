package cell

// SubtreeSize counts nodes in the subtree rooted at idx: 1 plus the sum
// of each present child's subtree size (spec §4.1 subtree_size).
func SubtreeSize(a *Arena, idx int32) int {
	c := a.Get(idx)
	if !c.Split {
		return 1
	}
	n := 1
	for _, p := range c.Progeny {
		if p != None {
			n += SubtreeSize(a, p)
		}
	}
	return n
}

// LinkParticles assigns idx's particle windows starting at the given
// absolute offsets, then recurses depth-first into present progeny so
// each child's window is contiguous and the parent's window equals the
// concatenation of its children's (spec §4.1 link_particles). Leaf
// counts are assumed already populated (by subdivide or unpack); split
// nodes have their counts re-derived as the sum of their children's.
// Returns the total particle count (gas+grav+star) linked under idx.
func LinkParticles(a *Arena, idx int32, gasBase, gravBase, starBase int) int {
	c := a.Get(idx)
	c.GasOffset, c.GravOffset, c.StarOffset = gasBase, gravBase, starBase

	if !c.Split {
		return c.GasCount + c.GravCount + c.StarCount
	}

	gCursor, vCursor, sCursor := gasBase, gravBase, starBase
	var totalGas, totalGrav, totalStar int
	for _, p := range c.Progeny {
		if p == None {
			continue
		}
		LinkParticles(a, p, gCursor, vCursor, sCursor)
		child := a.Get(p)
		gCursor += child.GasCount
		vCursor += child.GravCount
		sCursor += child.StarCount
		totalGas += child.GasCount
		totalGrav += child.GravCount
		totalStar += child.StarCount
	}
	c.GasCount, c.GravCount, c.StarCount = totalGas, totalGrav, totalStar
	return totalGas + totalGrav + totalStar
}
