package sched

import (
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of workers that drains a ready queue of Tasks to
// completion. There is no suspension point inside a task body (spec
// §5): a body either finishes or returns Retry to be re-queued, never
// blocks.
type Pool struct {
	workers int
}

// NewPool returns a pool with the given worker count. A non-positive
// count is treated as 1.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// RunToCompletion seeds the ready queue with every task that starts
// with no inbound dependencies, then drains tasks (including their
// newly-unblocked dependents, and any that return Retry) until every
// task in the set has completed. Within a step, any topological order
// that respects dependencies is acceptable (spec §5); this pool makes
// no stronger ordering guarantee than that.
//
// A Skip'd task is treated as already satisfied: it is popped, its
// dependents' counters are decremented, and it never calls Run.
func (p *Pool) RunToCompletion(tasks []*Task) {
	if len(tasks) == 0 {
		return
	}

	// Capacity generous enough that a retry requeue or a dependent
	// unblock never has to block on a full channel: at most len(tasks)
	// items can be genuinely pending, plus room for transient retries.
	ready := make(chan *Task, len(tasks)*2+8)

	var remaining atomic.Int32
	remaining.Store(int32(len(tasks)))

	for _, t := range tasks {
		if t.deps.Load() == 0 {
			ready <- t
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ready {
				if task.Skip {
					finish(task, ready, &remaining)
					continue
				}
				if task.Run() == Retry {
					ready <- task
					continue
				}
				finish(task, ready, &remaining)
			}
		}()
	}
	wg.Wait()
}

// finish marks task complete, decrements every dependent's inbound
// counter, pushes any dependent that just reached zero, and closes the
// ready channel once every task in the original set has finished.
func finish(task *Task, ready chan *Task, remaining *atomic.Int32) {
	for _, dep := range task.dependents {
		if dep.deps.Add(-1) == 0 {
			ready <- dep
		}
	}
	if remaining.Add(-1) == 0 {
		close(ready)
	}
}
