package cell

import "github.com/pwdraper/swiftsim/internal/space"

// DefaultSanitizeThreshold is the default local-particle-count cutoff
// below which a subtree gets its smoothing lengths clamped (spec §4.1
// Sanitisation).
const DefaultSanitizeThreshold = 1000

// Sanitize clamps absurd smoothing lengths once per affected subtree: it
// descends past any node whose gas count is still at or above
// threshold (so the clamp happens at most once per particle, at the
// shallowest subtree small enough to need it), then clamps h==0 or
// h>dmin/(1.2*kernelGamma) to the upper bound for every gas particle in
// that subtree's window, and finally recomputes h_max bottom-up over
// the whole subtree rooted at idx regardless of where clamping occurred.
func Sanitize(a *Arena, idx int32, sp *space.Space, threshold int, kernelGamma float64) {
	c := a.Get(idx)
	if c.Split && c.GasCount >= threshold {
		for _, p := range c.Progeny {
			if p != None {
				Sanitize(a, p, sp, threshold, kernelGamma)
			}
		}
		recomputeHMax(a, idx, sp)
		return
	}

	upper := c.Dmin / (1.2 * kernelGamma)
	for i := c.GasOffset; i < c.GasOffset+c.GasCount; i++ {
		h := sp.Gas[i].H
		if h == 0 || h > upper {
			sp.Gas[i].H = upper
		}
	}
	recomputeHMax(a, idx, sp)
}

func recomputeHMax(a *Arena, idx int32, sp *space.Space) float64 {
	c := a.Get(idx)
	if !c.Split {
		var hmax float64
		for i := c.GasOffset; i < c.GasOffset+c.GasCount; i++ {
			if sp.Gas[i].H > hmax {
				hmax = sp.Gas[i].H
			}
		}
		c.HMax = hmax
		return hmax
	}
	var hmax float64
	for _, p := range c.Progeny {
		if p != None {
			if h := recomputeHMax(a, p, sp); h > hmax {
				hmax = h
			}
		}
	}
	c.HMax = hmax
	return hmax
}
