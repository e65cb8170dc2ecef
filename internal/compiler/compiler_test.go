package compiler

import (
	"testing"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/config"
	"github.com/jfd16/mariana/internal/finalize"
)

type noopCompiler struct{ calls int }

func (c *noopCompiler) Compile(file *abc.File, target backend.CompileTarget, asm backend.AssemblyBuilder) error {
	c.calls++
	return nil
}

type fakeLoader struct{ identity backend.LoadedAssembly }

func (f fakeLoader) Load(image []byte) (backend.LoadedAssembly, error) { return f.identity, nil }

type fakeDomain struct{ defined map[abc.QName]any }

func newFakeDomain() *fakeDomain { return &fakeDomain{defined: make(map[abc.QName]any)} }

func (d *fakeDomain) Lookup(q abc.QName) (any, bool, bool) {
	t, ok := d.defined[q]
	return t, ok, false
}

func (d *fakeDomain) Define(name abc.QName, trait any, hideFromParent bool) error {
	d.defined[name] = trait
	return nil
}

func publicNS(uri string) *abc.Namespace { return &abc.Namespace{Kind: abc.NSKindPackage, URI: uri} }

// buildSimpleFile returns a one-class, one-script ABC file: class Foo
// extends Object with a single instance method bar(), plus a script
// whose init traits declare Foo as a global and whose init method has a
// body (so it's scheduled as an entry point).
func buildSimpleFile() *abc.File {
	ns := publicNS("")
	fooName := abc.QName{NS: ns, Local: "Foo"}
	barMethod := &abc.MethodInfo{Name: "bar", Body: &abc.MethodBody{}}

	foo := &abc.ClassInfo{
		Name: fooName,
		InstanceTraits: []abc.TraitInfo{
			{Name: abc.QName{NS: ns, Local: "bar"}, Kind: abc.TraitMethod, MethodInfo: barMethod},
		},
		InstanceCtor: &abc.MethodInfo{Name: "Foo", Body: &abc.MethodBody{}},
		ClassInit:    &abc.MethodInfo{Name: "Foo$cinit"},
	}

	scriptInit := &abc.MethodInfo{Name: "script0", Body: &abc.MethodBody{}}
	script := &abc.ScriptInfo{
		Init:   scriptInit,
		Traits: []abc.TraitInfo{{Name: fooName, Kind: abc.TraitClass, ClassInfo: foo}},
	}

	return &abc.File{
		Name:    "test.abc",
		Classes: []*abc.ClassInfo{foo},
		Scripts: []*abc.ScriptInfo{script},
		Methods: []*abc.MethodInfo{barMethod, scriptInit},
	}
}

func TestCompileSimpleFileProducesImage(t *testing.T) {
	file := buildSimpleFile()
	asm := backend.NewFake()
	ctx := New(config.Default(), asm, backend.TypeHandle(0), newFakeDomain())

	compiler := &noopCompiler{}
	identity := backend.LoadedAssembly{Name: "out"}
	result, err := ctx.Compile(file, compiler, backend.TypeHandle(0), fakeLoader{identity: identity},
		finalize.ExpectedIdentity{Name: "out"}, newFakeDomain())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.Image) == 0 {
		t.Fatalf("expected a non-empty emitted image")
	}
	if len(result.Classes) != 1 {
		t.Fatalf("expected one class, got %d", len(result.Classes))
	}
	foo := result.Classes[0]
	if foo.TypeHandle == backend.TypeHandle(backend.InvalidHandle) {
		t.Fatalf("expected Foo to have an emitted type handle")
	}
	// ctor + instance method + script init + static init(none, no body)
	if compiler.calls < 2 {
		t.Fatalf("expected at least the ctor and bar() to be compiled, got %d calls", compiler.calls)
	}
}

func TestCompileRejectsUnresolvedParent(t *testing.T) {
	ns := publicNS("")
	child := &abc.ClassInfo{
		Name:   abc.QName{NS: ns, Local: "Child"},
		Parent: &abc.Multiname{Kind: abc.MNQName, NS: ns, Local: "Missing"},
	}
	file := &abc.File{Classes: []*abc.ClassInfo{child}}

	asm := backend.NewFake()
	ctx := New(config.Default(), asm, backend.TypeHandle(0), newFakeDomain())
	_, err := ctx.Compile(file, &noopCompiler{}, backend.TypeHandle(0), fakeLoader{}, finalize.ExpectedIdentity{}, newFakeDomain())
	if err == nil {
		t.Fatalf("expected an unresolved parent multiname to fail")
	}
}
