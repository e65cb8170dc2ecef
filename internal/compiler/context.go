// Package compiler wires every component (internal/constpool,
// internal/helpers, internal/capscope, internal/globals,
// internal/classbuild, internal/sig, internal/schedule,
// internal/finalize) into the single Context spec.md §2's data flow
// describes, owning the one coarse lock spec.md §5 calls normative.
package compiler

import (
	"sync"

	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/capscope"
	"github.com/jfd16/mariana/internal/config"
	"github.com/jfd16/mariana/internal/constpool"
	"github.com/jfd16/mariana/internal/globals"
	"github.com/jfd16/mariana/internal/helpers"
	"github.com/jfd16/mariana/internal/mangle"
	"github.com/jfd16/mariana/internal/schedule"
)

// Context is the single-owner compilation context spec.md §5
// describes: every lazy-creation cache and interning table
// (constpool.Pool, helpers.Emitter, capscope.Factory, the closure
// table) lives here, guarded by one mutex engaged only when
// config.ParallelCompileThreads > 1 — in sequential mode the lock is
// elided entirely, matching spec.md §5's "Shared-resource policy".
type Context struct {
	Options config.CompileOptions

	Asm     backend.AssemblyBuilder
	Mangler *mangle.Mangler

	ConstPool    *constpool.Pool
	Helpers      *helpers.Emitter
	CapScope     *capscope.Factory
	Closures     *schedule.ClosureTable
	ClosureQueue *ClosureQueue
	Globals      *globals.Stager

	mu       sync.Mutex
	parallel bool
}

// New wires a fresh Context. anyType is the target assembly's untyped-
// value type handle, used by helpers.Emitter (spec.md §3) for its
// generic element/result types. domain is the
// host application domain globals.Stager layers staging in front of.
func New(opts config.CompileOptions, asm backend.AssemblyBuilder, anyType backend.TypeHandle, domain globals.Domain) *Context {
	return &Context{
		Options:      opts,
		Asm:          asm,
		Mangler:      mangle.New(),
		ConstPool:    constpool.New(),
		Helpers:      helpers.New(asm, anyType),
		CapScope:     capscope.New(mangle.New(), asm),
		Closures:     schedule.NewClosureTable(),
		ClosureQueue: &ClosureQueue{},
		Globals:      globals.New(domain, opts.IncludeInheritedGlobals, conflictPolicy(opts.AppDomainConflictRes)),
		parallel:     opts.ParallelCompileThreads > 1,
	}
}

func conflictPolicy(r config.ConflictResolution) globals.ConflictPolicy {
	switch r {
	case config.ConflictUseChild:
		return globals.USE_CHILD
	case config.ConflictUseParent:
		return globals.USE_PARENT
	default:
		return globals.FAIL
	}
}

// Lock acquires the context's single coarse lock. In sequential mode
// (parallel == false) it is a no-op, per spec.md §5's "in single-thread
// mode the lock is elided".
func (c *Context) Lock() {
	if c.parallel {
		c.mu.Lock()
	}
}

// Unlock releases the lock acquired by Lock. Safe to call unconditionally;
// mirrors Lock's no-op behavior in sequential mode.
func (c *Context) Unlock() {
	if c.parallel {
		c.mu.Unlock()
	}
}
