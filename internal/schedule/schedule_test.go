package schedule

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

type recordingCompiler struct {
	mu      sync.Mutex
	order   []string
	fail    map[string]bool
}

func (c *recordingCompiler) Compile(file *abc.File, target backend.CompileTarget, asm backend.AssemblyBuilder) error {
	name := target.Method.Name
	c.mu.Lock()
	c.order = append(c.order, name)
	shouldFail := c.fail[name]
	c.mu.Unlock()
	if shouldFail {
		return cperrors.New(cperrors.ABC002MethodMissingBody, nil, "forced failure for %s", name)
	}
	return nil
}

func jobFor(name string) Job {
	return Job{Target: backend.CompileTarget{Method: &abc.MethodInfo{Name: name}}}
}

func TestPhasesRunInOrderSequential(t *testing.T) {
	comp := &recordingCompiler{fail: map[string]bool{}}
	s := New(nil, comp, backend.NewFake(), nil, 1, nil)

	err := s.Run(
		[]Job{jobFor("scriptInit")},
		[]Job{jobFor("staticInit")},
		[]Job{jobFor("method1"), jobFor("method2")},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(comp.order) != 4 || comp.order[0] != "scriptInit" || comp.order[1] != "staticInit" {
		t.Fatalf("expected scriptInit then staticInit first, got %v", comp.order)
	}
}

func TestParallelPhaseReturnsFirstError(t *testing.T) {
	comp := &recordingCompiler{fail: map[string]bool{"bad": true}}
	s := New(nil, comp, backend.NewFake(), nil, 4, nil)

	err := s.Run(nil, nil, []Job{jobFor("ok1"), jobFor("bad"), jobFor("ok2")})
	if err == nil {
		t.Fatalf("expected the phase error to propagate")
	}
}

func TestParallelPhaseBoundsConcurrency(t *testing.T) {
	var active, maxActive int32
	comp := &countingCompiler{active: &active, maxActive: &maxActive}
	s := New(nil, comp, backend.NewFake(), nil, 2, nil)

	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = jobFor(fmt.Sprintf("m%d", i))
	}
	if err := s.Run(nil, nil, jobs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if atomic.LoadInt32(&maxActive) > 2 {
		t.Fatalf("expected at most 2 concurrent workers, observed %d", maxActive)
	}
}

type countingCompiler struct {
	active, maxActive *int32
}

func (c *countingCompiler) Compile(file *abc.File, target backend.CompileTarget, asm backend.AssemblyBuilder) error {
	n := atomic.AddInt32(c.active, 1)
	for {
		cur := atomic.LoadInt32(c.maxActive)
		if n <= cur || atomic.CompareAndSwapInt32(c.maxActive, cur, n) {
			break
		}
	}
	atomic.AddInt32(c.active, -1)
	return nil
}

type drainOnce struct {
	pending [][]Job
	idx     int
}

func (d *drainOnce) DrainPending() []Job {
	if d.idx >= len(d.pending) {
		return nil
	}
	j := d.pending[d.idx]
	d.idx++
	return j
}

func TestClosurePhaseDrainsUntilEmpty(t *testing.T) {
	comp := &recordingCompiler{fail: map[string]bool{}}
	closures := &drainOnce{pending: [][]Job{{jobFor("closure1")}, {jobFor("closure2")}}}
	s := New(nil, comp, backend.NewFake(), nil, 1, closures)

	if err := s.Run(nil, nil, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(comp.order) != 2 || comp.order[0] != "closure1" || comp.order[1] != "closure2" {
		t.Fatalf("expected both rounds of closures compiled in order, got %v", comp.order)
	}
}

func TestClosureTableReuseAndMismatch(t *testing.T) {
	m := &abc.MethodInfo{Name: "f", Body: &abc.MethodBody{}}
	table := NewClosureTable()

	assignCount := 0
	assign := func() (backend.MethodHandle, error) {
		assignCount++
		return backend.MethodHandle(assignCount), nil
	}

	h1, reused1, err := table.GetOrRegister(m, "sig-A", assign)
	if err != nil || reused1 {
		t.Fatalf("first registration should not be reused, err=%v reused=%v", err, reused1)
	}

	h2, reused2, err := table.GetOrRegister(m, "sig-A", assign)
	if err != nil || !reused2 || h2 != h1 {
		t.Fatalf("matching signature must reuse the same handle, got h2=%v reused=%v err=%v", h2, reused2, err)
	}

	_, _, err = table.GetOrRegister(m, "sig-B", assign)
	if err == nil {
		t.Fatalf("expected a mismatching captured-scope signature to fail")
	}
	rep, ok := cperrors.AsReport(err)
	if !ok || rep.Code != cperrors.FUN002ScopeMismatch {
		t.Fatalf("expected FUN002ScopeMismatch, got %+v", rep)
	}
}

func TestClosureTableRejectsMissingBody(t *testing.T) {
	m := &abc.MethodInfo{Name: "f"} // no Body
	table := NewClosureTable()
	_, _, err := table.GetOrRegister(m, "sig-A", func() (backend.MethodHandle, error) { return 0, nil })
	if err == nil {
		t.Fatalf("expected a method_info with no body to be rejected")
	}
}
