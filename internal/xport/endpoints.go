package xport

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pwdraper/swiftsim/internal/cell"
	"github.com/pwdraper/swiftsim/internal/logx"
	"github.com/pwdraper/swiftsim/internal/sched"
	"github.com/pwdraper/swiftsim/internal/space"
)

func mgl32Vec3(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// XVPayload is what send_xv/recv_xv exchange: the positions, velocities
// and time-bins of one cell's gas window, addressed by the packed cell
// topology the receiver unpacks against its own foreign-cell mirror.
type XVPayload struct {
	Nodes []cell.PackedNode
	Pos   []space.Vec3
	Vel   []space.Vec3
	Bins  []space.TimeBin
}

// RhoPayload is send_rho/recv_rho's payload: the density-phase result
// (opaque entropy accumulator) per gas particle in the window.
type RhoPayload struct {
	Entropy []float64
}

// GradientPayload is send_gradient/recv_gradient's payload, carried only
// when the Hydro collaborator's scheme needs the optional third loop
// (spec §6 "extra_gradient_loop").
type GradientPayload struct {
	H []float64
}

// TiPayload is send_ti/recv_ti's payload: the per-cell step-info image.
type TiPayload struct {
	Info []cell.StepInfo
}

// GravPayload is send_grav/recv_grav's payload: the multipole image.
type GravPayload struct {
	Multipoles []cell.MultipolePacked
}

// Endpoints binds a Loopback to one rank's identity and a tag
// allocator, producing the send/recv task bodies the Task Graph
// Activator wires into its cross-rank stubs.
type Endpoints struct {
	Transport *Loopback
	Tags      *TagAllocator
	Rank      int
	Log       logx.Logger
}

func (e *Endpoints) logger() logx.Logger {
	if e.Log == nil {
		return logx.Nop
	}
	return e.Log
}

// SendXV builds the send_xv task body for gas window [offset,offset+n)
// of cell idx, addressed to toRank under tag.
func (e *Endpoints) SendXV(a *cell.Arena, sp *space.Space, idx int32, offset, n int, toRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		pos := make([]space.Vec3, n)
		vel := make([]space.Vec3, n)
		bins := make([]space.TimeBin, n)
		for i := 0; i < n; i++ {
			pos[i] = sp.Gas[offset+i].Pos
			vel[i] = sp.Gas[offset+i].Vel
			bins[i] = sp.Gas[offset+i].TimeBin
		}
		payload := XVPayload{Nodes: cell.Pack(a, idx), Pos: pos, Vel: vel, Bins: bins}
		if err := e.Transport.Send(tag, KindXV, e.Rank, toRank, payload); err != nil {
			e.logger().Warnf("xport: send_xv %d->%d tag %d: %v", e.Rank, toRank, tag, err)
			return sched.Retry
		}
		return sched.Done
	}
}

// RecvXV builds the recv_xv task body applying an inbound XVPayload
// onto the local mirror of the foreign gas window starting at offset.
func (e *Endpoints) RecvXV(sp *space.Space, offset int, fromRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		p, ok := e.Transport.TryRecv(tag, KindXV, fromRank, e.Rank)
		if !ok {
			return sched.Retry
		}
		payload := p.(XVPayload)
		for i := range payload.Pos {
			sp.Gas[offset+i].Pos = payload.Pos[i]
			sp.Gas[offset+i].Vel = payload.Vel[i]
			sp.Gas[offset+i].TimeBin = payload.Bins[i]
		}
		return sched.Done
	}
}

// SendRho/RecvRho mirror SendXV/RecvXV for the density-phase result.
func (e *Endpoints) SendRho(sp *space.Space, offset, n int, toRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		entropy := make([]float64, n)
		for i := 0; i < n; i++ {
			entropy[i] = sp.Gas[offset+i].Entropy
		}
		if err := e.Transport.Send(tag, KindRho, e.Rank, toRank, RhoPayload{Entropy: entropy}); err != nil {
			e.logger().Warnf("xport: send_rho %d->%d tag %d: %v", e.Rank, toRank, tag, err)
			return sched.Retry
		}
		return sched.Done
	}
}

func (e *Endpoints) RecvRho(sp *space.Space, offset int, fromRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		p, ok := e.Transport.TryRecv(tag, KindRho, fromRank, e.Rank)
		if !ok {
			return sched.Retry
		}
		payload := p.(RhoPayload)
		for i, v := range payload.Entropy {
			sp.Gas[offset+i].Entropy = v
		}
		return sched.Done
	}
}

// SendGradient/RecvGradient mirror SendRho/RecvRho for the optional
// third (gradient) loop, carrying the smoothing length used to derive it.
func (e *Endpoints) SendGradient(sp *space.Space, offset, n int, toRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		h := make([]float64, n)
		for i := 0; i < n; i++ {
			h[i] = sp.Gas[offset+i].H
		}
		if err := e.Transport.Send(tag, KindGradient, e.Rank, toRank, GradientPayload{H: h}); err != nil {
			e.logger().Warnf("xport: send_gradient %d->%d tag %d: %v", e.Rank, toRank, tag, err)
			return sched.Retry
		}
		return sched.Done
	}
}

func (e *Endpoints) RecvGradient(sp *space.Space, offset int, fromRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		p, ok := e.Transport.TryRecv(tag, KindGradient, fromRank, e.Rank)
		if !ok {
			return sched.Retry
		}
		payload := p.(GradientPayload)
		for i, v := range payload.H {
			sp.Gas[offset+i].H = v
		}
		return sched.Done
	}
}

// SendTi/RecvTi exchange the per-cell step-info summary a foreign pair
// needs to decide activity without the full particle payload.
func (e *Endpoints) SendTi(a *cell.Arena, idx int32, toRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		payload := TiPayload{Info: cell.PackStepInfo(a, idx)}
		if err := e.Transport.Send(tag, KindTi, e.Rank, toRank, payload); err != nil {
			e.logger().Warnf("xport: send_ti %d->%d tag %d: %v", e.Rank, toRank, tag, err)
			return sched.Retry
		}
		return sched.Done
	}
}

func (e *Endpoints) RecvTi(a *cell.Arena, idx int32, fromRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		p, ok := e.Transport.TryRecv(tag, KindTi, fromRank, e.Rank)
		if !ok {
			return sched.Retry
		}
		payload := p.(TiPayload)
		applyStepInfo(a, idx, payload.Info)
		return sched.Done
	}
}

func applyStepInfo(a *cell.Arena, idx int32, info []cell.StepInfo) {
	pos := 0
	var walk func(idx int32)
	walk = func(idx int32) {
		c := a.Get(idx)
		if pos >= len(info) {
			return
		}
		si := info[pos]
		pos++
		c.HydroEndMin, c.HydroEndMax = si.HydroEndMin, si.HydroEndMax
		c.GravEndMin, c.GravEndMax = si.GravEndMin, si.GravEndMax
		c.DxMaxPart, c.DxMaxGPart, c.DxMaxSort = si.DxMaxPart, si.DxMaxGPart, si.DxMaxSort
		for _, p := range c.Progeny {
			if p != cell.None {
				walk(p)
			}
		}
	}
	walk(idx)
}

// SendGrav/RecvGrav exchange a subtree's multipole images for the
// foreign side of a gravity pair the MAC rejected at long range.
func (e *Endpoints) SendGrav(a *cell.Arena, idx int32, toRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		payload := GravPayload{Multipoles: cell.PackMultipoles(a, idx)}
		if err := e.Transport.Send(tag, KindGrav, e.Rank, toRank, payload); err != nil {
			e.logger().Warnf("xport: send_grav %d->%d tag %d: %v", e.Rank, toRank, tag, err)
			return sched.Retry
		}
		return sched.Done
	}
}

func (e *Endpoints) RecvGrav(a *cell.Arena, idx int32, fromRank int, tag Tag) func() sched.Result {
	return func() sched.Result {
		p, ok := e.Transport.TryRecv(tag, KindGrav, fromRank, e.Rank)
		if !ok {
			return sched.Retry
		}
		payload := p.(GravPayload)
		applyMultipoles(a, idx, payload.Multipoles)
		return sched.Done
	}
}

func applyMultipoles(a *cell.Arena, idx int32, ms []cell.MultipolePacked) {
	pos := 0
	var walk func(idx int32)
	walk = func(idx int32) {
		c := a.Get(idx)
		if pos >= len(ms) {
			return
		}
		m := ms[pos]
		pos++
		c.Multipole.Mass = m.Mass
		c.Multipole.CoM = mgl32Vec3(m.CoM)
		c.Multipole.RMax = m.RMax
		c.Multipole.Quad = m.Quad
		for _, p := range c.Progeny {
			if p != cell.None {
				walk(p)
			}
		}
	}
	walk(idx)
}
