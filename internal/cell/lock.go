package cell

import "sync/atomic"

// Kind selects which of a cell's four independent locks (gas, gravity,
// stars, multipole) an operation targets. Each kind has its own word,
// so concurrent writers to different kinds on the same cell never
// contend (spec §4.2 "Rationale").
type Kind int

const (
	KindGas Kind = iota
	KindGravity
	KindStars
	KindMultipole
)

// lockWord packs a cell's own try-lock bit and its descendant "hold"
// counter into a single uint32, CAS'd directly rather than guarded by
// a sync.Mutex (spec §9 "Coarse-grained locks over deep recursion":
// implement try_lock/unlock with atomic CAS on a single integer per
// cell per kind).
type lockWord struct {
	word atomic.Uint32
}

const lockedBit uint32 = 1 << 31
const holdMask uint32 = lockedBit - 1

func (w *lockWord) hold() uint32 {
	return w.word.Load() &^ lockedBit
}

// tryAcquireOwn sets the locked bit if clear, without regard to hold.
func (w *lockWord) tryAcquireOwn() bool {
	for {
		old := w.word.Load()
		if old&lockedBit != 0 {
			return false
		}
		if w.word.CompareAndSwap(old, old|lockedBit) {
			return true
		}
	}
}

func (w *lockWord) releaseOwn() {
	for {
		old := w.word.Load()
		if w.word.CompareAndSwap(old, old&^lockedBit) {
			return
		}
	}
}

func (w *lockWord) incHold() {
	for {
		old := w.word.Load()
		if w.word.CompareAndSwap(old, old+1) {
			return
		}
	}
}

func (w *lockWord) decHold() {
	for {
		old := w.word.Load()
		if old&holdMask == 0 {
			panic("swiftsim: hold counter underflow")
		}
		if w.word.CompareAndSwap(old, old-1) {
			return
		}
	}
}

func (c *Cell) lockFor(kind Kind) *lockWord {
	switch kind {
	case KindGas:
		return &c.lockGas
	case KindGravity:
		return &c.lockGrav
	case KindStars:
		return &c.lockStars
	case KindMultipole:
		return &c.lockMulti
	default:
		panic("swiftsim: unknown lock kind")
	}
}

// TryLock attempts to acquire exclusive write access to c's kind-k
// particle array, propagating a hold bump through every strict
// ancestor. It never blocks: on any contention it fully unwinds and
// reports false. Ancestors are found through each cell's Parent field
// in a (None at the root).
func TryLock(a *Arena, idx int32, kind Kind) bool {
	c := a.Get(idx)
	own := c.lockFor(kind)

	if own.hold() != 0 {
		return false
	}
	if !own.tryAcquireOwn() {
		return false
	}
	if own.hold() != 0 {
		own.releaseOwn()
		return false
	}

	bumped := make([]int32, 0, 8)
	cur := c.Parent
	for cur != None {
		anc := a.Get(cur)
		w := anc.lockFor(kind)
		if !w.tryAcquireOwn() {
			for i := len(bumped) - 1; i >= 0; i-- {
				a.Get(bumped[i]).lockFor(kind).decHold()
			}
			own.releaseOwn()
			return false
		}
		w.incHold()
		w.releaseOwn()
		bumped = append(bumped, cur)
		cur = anc.Parent
	}
	return true
}

// Unlock releases idx's kind-k lock and decrements the hold counter of
// every strict ancestor. Callers must only unlock a kind they
// successfully locked via TryLock.
func Unlock(a *Arena, idx int32, kind Kind) {
	c := a.Get(idx)
	c.lockFor(kind).releaseOwn()
	cur := c.Parent
	for cur != None {
		anc := a.Get(cur)
		anc.lockFor(kind).decHold()
		cur = anc.Parent
	}
}
