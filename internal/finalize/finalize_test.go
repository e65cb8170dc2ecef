package finalize

import (
	"errors"
	"testing"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

type fakeLoader struct {
	identity backend.LoadedAssembly
	err      error
}

func (f fakeLoader) Load(image []byte) (backend.LoadedAssembly, error) {
	return f.identity, f.err
}

type fakeDomain struct {
	defined map[abc.QName]any
}

func newFakeDomain() *fakeDomain { return &fakeDomain{defined: make(map[abc.QName]any)} }

func (d *fakeDomain) Define(name abc.QName, trait any, hideFromParent bool) error {
	d.defined[name] = trait
	return nil
}

func TestFinalizeRejectsMismatchedLoaderIdentity(t *testing.T) {
	asm := backend.NewFake()
	loader := fakeLoader{identity: backend.LoadedAssembly{Name: "wrong", Version: "1.0", ModuleVersion: "abc"}}
	f := New(asm, loader)

	_, err := f.Finalize("myasm", ExpectedIdentity{Name: "myasm", Version: "1.0", ModuleVersion: "abc"},
		nil, nil, newFakeDomain(), nil, RunNone)
	if err == nil {
		t.Fatalf("expected a loader-identity mismatch to fail")
	}
	rep, ok := cperrors.AsReport(err)
	if !ok || rep.Code != cperrors.LDR001CustomLoaderRejected {
		t.Fatalf("expected LDR001, got %+v", rep)
	}
}

func TestFinalizeAcceptsMatchingLoaderIdentity(t *testing.T) {
	asm := backend.NewFake()
	identity := backend.LoadedAssembly{Name: "myasm", Version: "1.0", ModuleVersion: "abc"}
	f := New(asm, fakeLoader{identity: identity})

	_, err := f.Finalize("myasm", ExpectedIdentity{Name: "myasm", Version: "1.0", ModuleVersion: "abc"},
		nil, nil, newFakeDomain(), nil, RunNone)
	if err != nil {
		t.Fatalf("expected a matching identity to pass, got %v", err)
	}
}

func TestFinalizeBackPatchesAndCommitsGlobals(t *testing.T) {
	asm := backend.NewFake()
	identity := backend.LoadedAssembly{
		Name: "a", Version: "1", ModuleVersion: "m",
		ResolveType: func(h backend.TypeHandle) any { return int(h) * 10 },
	}
	f := New(asm, fakeLoader{identity: identity})

	var patched any
	targets := []BackPatchTarget{
		{HasType: true, TypeHandle: 3, Apply: func(v any) { patched = v }},
	}
	dom := newFakeDomain()
	q := abc.QName{Local: "Foo"}
	globals := []GlobalCommit{{Name: q, Trait: "the-trait"}}

	_, err := f.Finalize("a", ExpectedIdentity{Name: "a", Version: "1", ModuleVersion: "m"}, targets, globals, dom, nil, RunNone)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if patched != 30 {
		t.Fatalf("expected back-patch to apply ResolveType(3)=30, got %#v", patched)
	}
	if dom.defined[q] != "the-trait" {
		t.Fatalf("expected global trait to be committed to the domain")
	}
}

func TestRunEntryPointsHonorsMode(t *testing.T) {
	var invoked []backend.MethodHandle
	identity := backend.LoadedAssembly{
		Invoke: func(h backend.MethodHandle) error { invoked = append(invoked, h); return nil },
	}
	eps := []EntryPoint{{Handle: 1}, {Handle: 2, IsFinal: true}}

	invoked = nil
	if err := runEntryPoints(identity, eps, RunEntryPoints); err != nil {
		t.Fatalf("runEntryPoints: %v", err)
	}
	if len(invoked) != 1 || invoked[0] != 2 {
		t.Fatalf("RunEntryPoints should invoke only the final script, got %v", invoked)
	}

	invoked = nil
	if err := runEntryPoints(identity, eps, RunAll); err != nil {
		t.Fatalf("runEntryPoints: %v", err)
	}
	if len(invoked) != 2 {
		t.Fatalf("RunAll should invoke every script, got %v", invoked)
	}

	invoked = nil
	if err := runEntryPoints(identity, eps, RunNone); err != nil {
		t.Fatalf("runEntryPoints: %v", err)
	}
	if len(invoked) != 0 {
		t.Fatalf("RunNone should invoke nothing, got %v", invoked)
	}
}

type wrappedErr struct {
	msg   string
	inner error
}

func (w *wrappedErr) Error() string { return w.msg }
func (w *wrappedErr) Unwrap() error { return w.inner }

func TestUnwrapTypeInitException(t *testing.T) {
	root := errors.New("root cause")
	wrapped := &wrappedErr{msg: "type init failed", inner: &wrappedErr{msg: "nested", inner: root}}

	got := unwrapTypeInitException(wrapped)
	if got != root {
		t.Fatalf("expected unwrapping to reach the root cause, got %v", got)
	}
}
