package cell

// PackedNode is one entry of a flat, pointer-free depth-first image of
// a cell tree (spec §4.1 pack/unpack). Sibling/child structure is
// recovered from FirstChild/NextSibling indices into the same slice
// (-1 for absent), so the image can cross a transport boundary with a
// plain serializer.
type PackedNode struct {
	Loc   [3]float64
	Width [3]float64
	Dmin  float64
	Depth int
	Split bool
	Tag   int

	GasCount, GravCount, StarCount int

	TiOldPart      int64
	TiOldGPart     int64
	TiOldMultipole int64
	HydroEndMin    int64
	HydroEndMax    int64
	GravEndMin     int64
	GravEndMax     int64

	FirstChild  int32 // index into the packed slice, or None
	NextSibling int32 // index into the packed slice, or None
}

// Pack produces a depth-first flat image of the subtree rooted at idx.
func Pack(a *Arena, idx int32) []PackedNode {
	var out []PackedNode
	packInto(a, idx, &out)
	return out
}

// packInto appends idx's node, recurses into its children depth-first,
// and backpatches FirstChild/NextSibling once each child's position in
// out is known.
func packInto(a *Arena, idx int32, out *[]PackedNode) int32 {
	c := a.Get(idx)
	myPos := int32(len(*out))
	*out = append(*out, PackedNode{
		Loc: c.Loc, Width: c.Width, Dmin: c.Dmin, Depth: c.Depth,
		Split: c.Split, Tag: c.Tag,
		GasCount: c.GasCount, GravCount: c.GravCount, StarCount: c.StarCount,
		TiOldPart: c.TiOldPart, TiOldGPart: c.TiOldGPart, TiOldMultipole: c.TiOldMultipole,
		HydroEndMin: c.HydroEndMin, HydroEndMax: c.HydroEndMax,
		GravEndMin: c.GravEndMin, GravEndMax: c.GravEndMax,
		FirstChild: None, NextSibling: None,
	})

	var prevChildPos int32 = None
	for _, p := range c.Progeny {
		if p == None {
			continue
		}
		childPos := packInto(a, p, out)
		if prevChildPos == None {
			(*out)[myPos].FirstChild = childPos
		} else {
			(*out)[prevChildPos].NextSibling = childPos
		}
		prevChildPos = childPos
	}
	return myPos
}

// Unpack reconstructs a cell subtree from a flat image produced by
// Pack, allocating fresh arena cells, and returns the root's index.
// Particle windows are not carried by the image; callers must follow
// with LinkParticles once the particle arrays themselves are in place.
func Unpack(a *Arena, nodes []PackedNode, parent int32) int32 {
	if len(nodes) == 0 {
		return None
	}
	return unpackAt(a, nodes, 0, parent)
}

func unpackAt(a *Arena, nodes []PackedNode, pos int32, parent int32) int32 {
	n := nodes[pos]
	idx := a.Alloc()
	c := a.Get(idx)
	c.Loc, c.Width, c.Dmin, c.Depth = n.Loc, n.Width, n.Dmin, n.Depth
	c.Split, c.Tag = n.Split, n.Tag
	c.GasCount, c.GravCount, c.StarCount = n.GasCount, n.GravCount, n.StarCount
	c.TiOldPart, c.TiOldGPart, c.TiOldMultipole = n.TiOldPart, n.TiOldGPart, n.TiOldMultipole
	c.HydroEndMin, c.HydroEndMax = n.HydroEndMin, n.HydroEndMax
	c.GravEndMin, c.GravEndMax = n.GravEndMin, n.GravEndMax
	c.Parent = parent

	k := 0
	for child := n.FirstChild; child != None; {
		childIdx := unpackAt(a, nodes, child, idx)
		a.Get(idx).Progeny[k] = childIdx
		k++
		child = nodes[child].NextSibling
	}
	return idx
}

// StepInfo is the narrower per-step scalar image spec §4.1 calls
// pack_step_info: just the fields a cross-rank step summary exchange
// needs, without the rest of the tree geometry.
type StepInfo struct {
	HydroEndMin, HydroEndMax int64
	GravEndMin, GravEndMax   int64
	DxMaxPart, DxMaxGPart, DxMaxSort float64
}

// PackStepInfo produces a depth-first flat image of per-step scalars
// for idx's subtree.
func PackStepInfo(a *Arena, idx int32) []StepInfo {
	var out []StepInfo
	packStepInfoInto(a, idx, &out)
	return out
}

func packStepInfoInto(a *Arena, idx int32, out *[]StepInfo) {
	c := a.Get(idx)
	*out = append(*out, StepInfo{
		HydroEndMin: c.HydroEndMin, HydroEndMax: c.HydroEndMax,
		GravEndMin: c.GravEndMin, GravEndMax: c.GravEndMax,
		DxMaxPart: c.DxMaxPart, DxMaxGPart: c.DxMaxGPart, DxMaxSort: c.DxMaxSort,
	})
	for _, p := range c.Progeny {
		if p != None {
			packStepInfoInto(a, p, out)
		}
	}
}

// MultipolePacked is the per-node payload of pack_multipoles.
type MultipolePacked struct {
	Mass float64
	CoM  [3]float32
	RMax float64
	Quad [6]float64
}

// PackMultipoles produces a depth-first snapshot of every node's
// multipole value in idx's subtree.
func PackMultipoles(a *Arena, idx int32) []MultipolePacked {
	var out []MultipolePacked
	packMultipolesInto(a, idx, &out)
	return out
}

func packMultipolesInto(a *Arena, idx int32, out *[]MultipolePacked) {
	c := a.Get(idx)
	m := c.Multipole
	*out = append(*out, MultipolePacked{
		Mass: m.Mass, CoM: [3]float32{m.CoM.X(), m.CoM.Y(), m.CoM.Z()},
		RMax: m.RMax, Quad: m.Quad,
	})
	for _, p := range c.Progeny {
		if p != None {
			packMultipolesInto(a, p, out)
		}
	}
}
