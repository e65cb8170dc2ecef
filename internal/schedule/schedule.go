// Package schedule implements the Compilation Scheduler (spec.md §4.I,
// §5): four strictly ordered phases of method-body compilation, run
// either sequentially or on a bounded worker pool, with phase 4 (scoped
// closures) repeatedly drained because compiling a closure may enqueue
// further closures.
//
// The worker pool follows the same shape as
// cmd/ailang/eval_suite.go's runBenchmarksParallel: a sync.WaitGroup plus
// a buffered-channel semaphore bounding concurrency, with a
// sync.Mutex-protected shared-state block (here, only the phase's
// first-error bookkeeping) instead of a free-for-all of goroutines.
// The scheduler never acquires the context lock itself; see compile.
package schedule

import (
	"sync"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
)

// Job is one unit of method-body compilation (spec.md §4.I).
type Job struct {
	Target backend.CompileTarget
}

// ContextLock is the single coarse lock spec.md §5 calls for. The
// Scheduler stores it in its Lock field but does not call Lock or
// Unlock on it; workers run MethodCompiler.Compile without holding it.
type ContextLock interface {
	Lock()
	Unlock()
}

// noopLock is used in sequential mode, where no lock is needed.
type noopLock struct{}

func (noopLock) Lock()   {}
func (noopLock) Unlock() {}

// ClosureEnqueuer lets a compiled method discover further scoped
// closures (phase 4 is drained, not run once) without the scheduler
// importing the classbuild/capscope packages that decide what a
// closure is.
type ClosureEnqueuer interface {
	// DrainPending returns every closure job enqueued since the last
	// call, or nil when none are pending.
	DrainPending() []Job
}

// Scheduler runs the four ordered phases of spec.md §4.I.
type Scheduler struct {
	File     *abc.File
	Compiler backend.MethodCompiler
	Asm      backend.AssemblyBuilder
	Lock     ContextLock
	Width    int // <=1 disables parallelism

	Closures ClosureEnqueuer
}

// New returns a Scheduler. A nil lock defaults to a no-op (appropriate
// when width <= 1).
func New(file *abc.File, compiler backend.MethodCompiler, asm backend.AssemblyBuilder, lock ContextLock, width int, closures ClosureEnqueuer) *Scheduler {
	if lock == nil {
		lock = noopLock{}
	}
	return &Scheduler{File: file, Compiler: compiler, Asm: asm, Lock: lock, Width: width, Closures: closures}
}

// Run executes all four phases in the happens-before order spec.md §5
// requires: no job in phase N starts before every job in phase N-1 has
// completed. Within a phase jobs are unordered and, when Width > 1, run
// concurrently. The first compile error among a phase's workers is
// returned; the phase's remaining errors are discarded, matching
// spec.md §7's propagation rule.
func (s *Scheduler) Run(scriptInit, staticInit, methods []Job) error {
	for _, phase := range [][]Job{scriptInit, staticInit, methods} {
		if err := s.runPhase(phase); err != nil {
			return err
		}
	}
	return s.drainClosures()
}

// drainClosures implements phase 4: repeatedly runs whatever the
// ClosureEnqueuer has accumulated until a drain returns nothing new,
// since compiling one closure may itself enqueue more (spec.md §4.I).
func (s *Scheduler) drainClosures() error {
	if s.Closures == nil {
		return nil
	}
	for {
		pending := s.Closures.DrainPending()
		if len(pending) == 0 {
			return nil
		}
		if err := s.runPhase(pending); err != nil {
			return err
		}
	}
}

func (s *Scheduler) runPhase(jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	if s.Width <= 1 {
		return s.runSequential(jobs)
	}
	return s.runParallel(jobs)
}

func (s *Scheduler) runSequential(jobs []Job) error {
	for _, j := range jobs {
		if err := s.compile(j); err != nil {
			return err
		}
	}
	return nil
}

// runParallel mirrors runBenchmarksParallel: a
// sync.WaitGroup plus a buffered-channel semaphore sized to s.Width,
// collecting each worker's error and keeping only the first.
func (s *Scheduler) runParallel(jobs []Job) error {
	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, s.Width)
		errMu    sync.Mutex
		firstErr error
	)

	for _, j := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.compile(job); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}(j)
	}

	wg.Wait()
	return firstErr
}

// compile runs one job's MethodCompiler.Compile call. The context lock
// is the compiler's to acquire internally around its interning/
// enqueueing side effects (spec.md §5) — the scheduler itself only
// bounds concurrency, it doesn't hold the lock across the whole call.
func (s *Scheduler) compile(j Job) error {
	return s.Compiler.Compile(s.File, j.Target, s.Asm)
}
