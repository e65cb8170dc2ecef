package compiler

import (
	"sync"

	"github.com/jfd16/mariana/internal/schedule"
)

// ClosureQueue is the schedule.ClosureEnqueuer this module supplies:
// when the injected backend.MethodCompiler discovers a `newfunction`
// targeting a method-info not yet compiled (after checking
// Context.Closures for reuse), it calls Enqueue so the scheduler's
// phase-4 drain (spec.md §4.I) picks it up on the next pass. Guarded by
// its own mutex rather than the context lock, since a parallel phase's
// workers may enqueue concurrently regardless of Options.ParallelCompileThreads.
type ClosureQueue struct {
	mu      sync.Mutex
	pending []schedule.Job
}

// Enqueue adds a closure-body compilation job to the pending queue.
func (q *ClosureQueue) Enqueue(job schedule.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, job)
}

// DrainPending implements schedule.ClosureEnqueuer.
func (q *ClosureQueue) DrainPending() []schedule.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	drained := q.pending
	q.pending = nil
	return drained
}
