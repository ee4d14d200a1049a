// Package xport implements the cross-rank transport collaborator spec
// §6 carves out: packing a cell subtree and its particle windows into
// wire-sized payloads, exchanging them by tag between ranks, and
// exposing the result as the send_xv/recv_xv/.../send_grav/recv_grav
// task endpoints the Task Graph Activator schedules. Grounded on the
// teacher's world.go WorldComponent: a mutex-protected pending-payload
// map per destination that a consumer drains and applies on its own
// schedule, generalized from "pending sectors applied to the main
// XBrickMap" to "pending packed cell payloads applied to a local cell
// tree or particle array".
package xport

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Tag identifies one logical exchange between a specific (source,
// destination, kind) triple within a step, mirroring the bounded tag
// space a real MPI transport must allocate from (spec §6 "tags are a
// bounded resource the core must not exhaust mid-run").
type Tag uint32

// Kind distinguishes the payload classes the Task Graph Activator's
// send/recv stubs exchange.
type Kind int

const (
	KindXV Kind = iota
	KindRho
	KindGradient
	KindTi
	KindGrav
)

func (k Kind) String() string {
	switch k {
	case KindXV:
		return "xv"
	case KindRho:
		return "rho"
	case KindGradient:
		return "gradient"
	case KindTi:
		return "ti"
	case KindGrav:
		return "grav"
	default:
		return "unknown"
	}
}

// TagAllocator hands out tags from a bounded, wrapping range, grounded
// on the same mutex-protected-counter shape as the teacher's
// WorldComponent.mu guarding shared mutable state (here a scalar
// counter rather than a map).
type TagAllocator struct {
	mu   sync.Mutex
	next uint32
	max  uint32
}

// NewTagAllocator returns an allocator cycling through [0, max).
func NewTagAllocator(max uint32) *TagAllocator {
	if max == 0 {
		max = 1
	}
	return &TagAllocator{max: max}
}

func (a *TagAllocator) Next() Tag {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := a.next
	a.next = (a.next + 1) % a.max
	return Tag(t)
}

// Payload is whatever a send endpoint packs and a recv endpoint
// unpacks; the transport itself never interprets it.
type Payload any

// Envelope is one pending cross-rank message, addressed by the triple
// a recv call must match to claim it.
type Envelope struct {
	Tag        Tag
	Kind       Kind
	FromRank   int
	ToRank     int
	RunID      uuid.UUID
	Payload    Payload
}

type key struct {
	tag      Tag
	kind     Kind
	fromRank int
	toRank   int
}

// Loopback is an in-process Transport: every rank's outbox is the same
// shared, mutex-protected map, exactly as the teacher's
// WorldComponent.pendingSectors is a single map written by background
// loaders and drained by the main-thread streaming system. It is the
// only transport in this package; there is no Transport interface, and
// Endpoints holds a *Loopback directly.
type Loopback struct {
	mu      sync.Mutex
	pending map[key]Envelope
	runID   uuid.UUID
}

// NewLoopback returns an empty in-process transport tagged with a
// fresh run identifier, used to disambiguate envelopes in diagnostics
// when multiple Loopback instances run in the same test binary.
func NewLoopback() *Loopback {
	return &Loopback{pending: make(map[key]Envelope), runID: uuid.New()}
}

// Send deposits payload for toRank to claim with a matching Recv.
// Overwriting an unclaimed envelope for the same key is a programming
// error (the activator must not re-send before the prior send of the
// same kind/tag/rank-pair was received) and is reported rather than
// silently dropped.
func (l *Loopback) Send(tag Tag, kind Kind, fromRank, toRank int, payload Payload) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{tag: tag, kind: kind, fromRank: fromRank, toRank: toRank}
	if _, exists := l.pending[k]; exists {
		return fmt.Errorf("xport: envelope %v/%s %d->%d already pending, unclaimed", tag, kind, fromRank, toRank)
	}
	l.pending[k] = Envelope{Tag: tag, Kind: kind, FromRank: fromRank, ToRank: toRank, RunID: l.runID, Payload: payload}
	return nil
}

// TryRecv claims and removes a pending envelope matching the given
// coordinates, reporting false when nothing has arrived yet (the
// scheduler's non-blocking retry convention: a recv task that finds
// nothing yet returns sched.Retry rather than blocking).
func (l *Loopback) TryRecv(tag Tag, kind Kind, fromRank, toRank int) (Payload, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{tag: tag, kind: kind, fromRank: fromRank, toRank: toRank}
	env, ok := l.pending[k]
	if !ok {
		return nil, false
	}
	delete(l.pending, k)
	return env.Payload, true
}

// Pending reports how many envelopes are sitting unclaimed, useful for
// end-of-step diagnostics and tests asserting nothing was leaked.
func (l *Loopback) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
