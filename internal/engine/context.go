// Package engine provides the per-rank glue spec §9 calls for: a
// Context carrying the ambient state the original global variables
// held (the MPI tag counter, the local rank id, a run identifier for
// diagnostics), threaded by pointer instead of read from package
// scope, plus the Step Reducer (§4.6) that folds every rank's summary
// into the one decision every rank then applies.
package engine

import "github.com/google/uuid"

// Context is the per-rank ambient state spec §9's "no global mutable
// state" redesign flag demands: every place the original implementation
// would have read a process-wide global now takes a *Context instead.
type Context struct {
	RunID uuid.UUID
	Rank  int

	nextTag uint32
	tagMax  uint32
}

// NewContext returns a Context for rank, allocating tags from
// [0, tagMax).
func NewContext(rank int, tagMax uint32) *Context {
	if tagMax == 0 {
		tagMax = 1
	}
	return &Context{RunID: uuid.New(), Rank: rank, tagMax: tagMax}
}

// NextTag returns the next cell tag in a monotonically wrapping
// sequence, replacing the original implementation's cell_next_tag
// global counter.
func (c *Context) NextTag() int {
	t := c.nextTag
	c.nextTag = (c.nextTag + 1) % c.tagMax
	return int(t)
}
