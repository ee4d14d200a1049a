package cell

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a 3-level chain root -> mid -> leaf and returns their
// indices.
func chain(a *Arena) (root, mid, leaf int32) {
	root = a.Alloc()
	mid = a.Alloc()
	leaf = a.Alloc()
	a.Get(mid).Parent = root
	a.Get(leaf).Parent = mid
	return
}

func TestTryLock_SucceedsAndBumpsAncestorHold(t *testing.T) {
	a := NewArena()
	root, mid, leaf := chain(a)

	ok := TryLock(a, leaf, KindGas)
	require.True(t, ok)

	assert.EqualValues(t, 1, a.Get(mid).lockFor(KindGas).hold())
	assert.EqualValues(t, 1, a.Get(root).lockFor(KindGas).hold())
	assert.True(t, a.Get(leaf).lockFor(KindGas).word.Load()&lockedBit != 0)
}

func TestUnlock_RestoresHoldToPriorValue(t *testing.T) {
	a := NewArena()
	root, mid, leaf := chain(a)

	require.True(t, TryLock(a, leaf, KindGas))
	Unlock(a, leaf, KindGas)

	assert.EqualValues(t, 0, a.Get(mid).lockFor(KindGas).hold())
	assert.EqualValues(t, 0, a.Get(root).lockFor(KindGas).hold())
	assert.EqualValues(t, 0, a.Get(leaf).lockFor(KindGas).word.Load())
}

func TestTryLock_HeldDescendantBlocksAncestor(t *testing.T) {
	a := NewArena()
	root, _, leaf := chain(a)

	require.True(t, TryLock(a, leaf, KindGas))
	assert.False(t, TryLock(a, root, KindGas), "an ancestor of a held cell must not itself be lockable")
}

func TestTryLock_DifferentKindsDoNotContend(t *testing.T) {
	a := NewArena()
	_, _, leaf := chain(a)

	require.True(t, TryLock(a, leaf, KindGas))
	assert.True(t, TryLock(a, leaf, KindGravity), "gas and gravity locks on the same cell are independent")
}

func TestTryLock_SiblingSubtreesDoNotContend(t *testing.T) {
	a := NewArena()
	root := a.Alloc()
	left := a.Alloc()
	right := a.Alloc()
	a.Get(left).Parent = root
	a.Get(right).Parent = root

	require.True(t, TryLock(a, left, KindGas))
	assert.True(t, TryLock(a, right, KindGas), "a lock on one subtree must not block a disjoint sibling subtree")
}

func TestTryLock_ConcurrentNonOverlap(t *testing.T) {
	a := NewArena()
	root, mid, leaf := chain(a)
	_ = root
	_ = mid

	const workers = 64
	var successes int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if TryLock(a, leaf, KindGas) {
				mu.Lock()
				successes++
				mu.Unlock()
				Unlock(a, leaf, KindGas)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, successes, 1, "at least one worker should have won the lock")
	assert.EqualValues(t, 0, a.Get(leaf).lockFor(KindGas).word.Load(), "every successful lock must be matched by an unlock")
}
