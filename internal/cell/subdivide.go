package cell

import "github.com/pwdraper/swiftsim/internal/space"

// octant classifies a position against a center using the strict
// spec-mandated 3-bit classifier (x>=cx)<<2 | (y>=cy)<<1 | (z>=cz):
// bit 2 is the x test, bit 1 the y test, bit 0 the z test.
func octant(pos space.Vec3, center space.Vec3) int {
	var k int
	if pos[0] >= center[0] {
		k |= 4
	}
	if pos[1] >= center[1] {
		k |= 2
	}
	if pos[2] >= center[2] {
		k |= 1
	}
	return k
}

// partitionResult carries, for one particle-kind window, the resulting
// per-octant counts and the permutation from the window's original
// relative position to its final relative position (origRelIndex ->
// newRelIndex), needed only for the gravity window so gas/star
// back-links can be re-derived.
type partitionResult struct {
	counts [8]int
	// permOldToNew[origRelIndex] = newRelIndex
	permOldToNew []int
}

// bucketPartition performs the in-place 8-way partition spec §4.1
// describes as a bucket cycle: a single left-to-right pass in which, on
// reaching a bucket's cursor slot, a misclassified occupant is swapped
// directly into its own bucket's cursor slot and that bucket's cursor
// advances; a correctly classified occupant just advances the current
// bucket's cursor. Each position is visited at most once per bucket
// boundary crossing, giving O(n) total swaps. classify reports the
// octant of the element currently at absolute index i; swap exchanges
// the elements (and any auxiliary record) at absolute indices i and j.
func bucketPartition(offset, count int, classify func(i int) int, swap func(i, j int)) partitionResult {
	var counts [8]int
	for i := offset; i < offset+count; i++ {
		counts[classify(i)]++
	}

	var start [9]int
	for k := 0; k < 8; k++ {
		start[k+1] = start[k] + counts[k]
	}

	// loc[relPos] tracks the original relative position of whichever
	// element currently sits at relPos, so the final permutation can be
	// read off once partitioning completes.
	loc := make([]int, count)
	for i := range loc {
		loc[i] = i
	}

	cursor := start
	b := 0
	for b < 8 {
		if cursor[b] >= start[b+1] {
			b++
			continue
		}
		i := cursor[b]
		bi := classify(offset + i)
		if bi == b {
			cursor[b]++
			continue
		}
		j := cursor[bi]
		swap(offset+i, offset+j)
		loc[i], loc[j] = loc[j], loc[i]
		cursor[bi]++
	}

	perm := make([]int, count)
	for newPos, orig := range loc {
		perm[orig] = newPos
	}
	return partitionResult{counts: counts, permOldToNew: perm}
}

// Subdivide partitions idx's gas, gravity, and star windows into eight
// octants about the cell's geometric center, re-derives the gas<->
// gravity and star<->gravity back-links, and allocates eight progeny
// cells (spec §4.1 subdivide). An octant with no particles still gets a
// child cell with an empty window at the expected pivot-derived loc.
// idx must not already be split.
func Subdivide(a *Arena, idx int32, sp *space.Space) {
	c := a.Get(idx)
	if c.Split {
		panic("swiftsim: subdivide called on an already-split cell")
	}

	center := space.Vec3{
		c.Loc[0] + c.Width[0]/2,
		c.Loc[1] + c.Width[1]/2,
		c.Loc[2] + c.Width[2]/2,
	}

	gravRes := bucketPartition(c.GravOffset, c.GravCount,
		func(i int) int { return octant(sp.Gravity[i].Pos, center) },
		func(i, j int) { sp.SwapGravity(i, j) })

	remapGPart := func(oldAbs int) int {
		rel := oldAbs - c.GravOffset
		return c.GravOffset + gravRes.permOldToNew[rel]
	}
	for i := c.GasOffset; i < c.GasOffset+c.GasCount; i++ {
		sp.Gas[i].GPart = remapGPart(sp.Gas[i].GPart)
	}
	for i := c.StarOffset; i < c.StarOffset+c.StarCount; i++ {
		sp.Stars[i].GPart = remapGPart(sp.Stars[i].GPart)
	}

	gasRes := bucketPartition(c.GasOffset, c.GasCount,
		func(i int) int { return octant(sp.Gas[i].Pos, center) },
		func(i, j int) { sp.SwapGas(i, j) })

	starRes := bucketPartition(c.StarOffset, c.StarCount,
		func(i int) int { return octant(sp.Stars[i].Pos, center) },
		func(i, j int) { sp.SwapStars(i, j) })

	gasCursor, gravCursor, starCursor := c.GasOffset, c.GravOffset, c.StarOffset
	parentLoc, parentWidth, parentDepth := c.Loc, c.Width, c.Depth
	childWidth := [3]float64{parentWidth[0] / 2, parentWidth[1] / 2, parentWidth[2] / 2}
	childDmin := minOf3(childWidth) / 2
	for k := 0; k < 8; k++ {
		childIdx := a.Alloc()
		child := a.Get(childIdx)
		child.Parent = idx
		child.Depth = parentDepth + 1
		child.Width = childWidth
		child.Dmin = childDmin
		child.Loc = childOrigin(parentLoc, parentWidth, k)

		child.GasOffset, child.GasCount = gasCursor, gasRes.counts[k]
		child.GravOffset, child.GravCount = gravCursor, gravRes.counts[k]
		child.StarOffset, child.StarCount = starCursor, starRes.counts[k]
		gasCursor += gasRes.counts[k]
		gravCursor += gravRes.counts[k]
		starCursor += starRes.counts[k]

		// Re-fetch c: Alloc may have grown the arena's backing slice and
		// invalidated the earlier pointer.
		a.Get(idx).Progeny[k] = childIdx
	}
	a.Get(idx).Split = true
}

func minOf3(w [3]float64) float64 {
	m := w[0]
	if w[1] < m {
		m = w[1]
	}
	if w[2] < m {
		m = w[2]
	}
	return m
}

// childOrigin returns the origin corner of octant k of a cell with the
// given origin and width, using the same axis ordering as octant's bit
// layout (bit 2 = x, bit 1 = y, bit 0 = z).
func childOrigin(loc, width [3]float64, k int) [3]float64 {
	half := [3]float64{width[0] / 2, width[1] / 2, width[2] / 2}
	out := loc
	if k&4 != 0 {
		out[0] += half[0]
	}
	if k&2 != 0 {
		out[1] += half[1]
	}
	if k&1 != 0 {
		out[2] += half[2]
	}
	return out
}
