// Package swifterr formats the single fatal diagnostic line the core
// emits on a programming-invariant violation (spec: cell under-drifted at
// read, particle assigned to wrong octant, hold counter underflow, a
// multipole radius exceeding the cell diagonal, a missing cooperative
// send/recv link). These are never recovered from inside the core; the
// caller decides whether to let the panic propagate or to recover at a
// top-level boundary (the App's Run loop installs no recover, so the
// panic propagates out of Run).
package swifterr

import "fmt"

// CellInfo is the minimal identity a diagnostic needs from a cell,
// decoupled from internal/cell to avoid an import cycle.
type CellInfo struct {
	Index int32
	Depth int
}

// Fatalf formats a diagnostic naming the cell, its depth, and the
// violated predicate, then panics. Programming-invariant violations are
// always fatal (spec §7); there is no recoverable path here.
func Fatalf(cell CellInfo, predicate string, args ...any) {
	msg := fmt.Sprintf("swiftsim: invariant violated at cell #%d (depth %d): %s",
		cell.Index, cell.Depth, fmt.Sprintf(predicate, args...))
	panic(msg)
}

// TransportFatalf reports a cross-rank transport failure, which spec §7
// also classifies as fatal (never retried).
func TransportFatalf(rank int, op string, err error) {
	panic(fmt.Sprintf("swiftsim: transport failure on rank %d during %s: %v", rank, op, err))
}
