package space

// Space owns the particle arrays for the whole simulation. Cells never
// own particles themselves; they hold non-owning windows (offset+count)
// into these slices, and the Cell Tree's subdivide pass reorders the
// slices in place to keep each cell's particles contiguous.
type Space struct {
	BoxSize  Vec3 // cubical periodic domain side length (same on all axes)
	Periodic bool

	Gas     []GasParticle
	GasXtra []GasExtended // one-to-one with Gas
	Gravity []GravityParticle
	Stars   []StarParticle
}

// New returns an empty Space over a cubical periodic domain of the given
// side length.
func New(boxSize float64, periodic bool) *Space {
	return &Space{
		BoxSize:  Vec3{boxSize, boxSize, boxSize},
		Periodic: periodic,
	}
}

// NGas, NGravity, NStars report the current length of each array. Cell
// windows are expressed relative to these, not to any capacity.
func (s *Space) NGas() int     { return len(s.Gas) }
func (s *Space) NGravity() int { return len(s.Gravity) }
func (s *Space) NStars() int   { return len(s.Stars) }

// SwapGas exchanges two gas particles (and their extended state) by
// absolute index, used by the Cell Tree's bucket-cycle partition.
func (s *Space) SwapGas(i, j int) {
	if i == j {
		return
	}
	s.Gas[i], s.Gas[j] = s.Gas[j], s.Gas[i]
	s.GasXtra[i], s.GasXtra[j] = s.GasXtra[j], s.GasXtra[i]
}

// SwapGravity exchanges two gravity particles by absolute index.
func (s *Space) SwapGravity(i, j int) {
	if i == j {
		return
	}
	s.Gravity[i], s.Gravity[j] = s.Gravity[j], s.Gravity[i]
}

// SwapStars exchanges two star particles by absolute index.
func (s *Space) SwapStars(i, j int) {
	if i == j {
		return
	}
	s.Stars[i], s.Stars[j] = s.Stars[j], s.Stars[i]
}

// RebuildGasGravityLinks rewrites every gas particle's GPart index to
// remap absolute gravity indices through perm: a particle whose gravity
// counterpart lived at absolute index old now lives at perm[old]. It
// keeps gas (and, via RebuildStarGravityLinks, star) back-links valid
// after a permutation of the whole gravity array; Subdivide does not
// call it and remaps its own window in place instead (spec §3:
// "re-derive the gas<->gravity and star<->gravity back-links from the
// new positions").
func (s *Space) RebuildGasGravityLinks(perm []int) {
	for i := range s.Gas {
		s.Gas[i].GPart = perm[s.Gas[i].GPart]
	}
}

// RebuildStarGravityLinks is RebuildGasGravityLinks for star particles.
func (s *Space) RebuildStarGravityLinks(perm []int) {
	for i := range s.Stars {
		s.Stars[i].GPart = perm[s.Stars[i].GPart]
	}
}
