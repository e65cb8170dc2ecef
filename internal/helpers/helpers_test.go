package helpers

import (
	"testing"

	"github.com/jfd16/mariana/internal/backend"
)

func TestGetOrCreateIsLazyAndCached(t *testing.T) {
	asm := backend.NewFake()
	e := New(asm, 0)

	if len(asm.Types) != 0 {
		t.Fatalf("helper container must not be created before first use")
	}

	h1 := e.GetOrCreate(NewArray, 3)
	if len(asm.Types) != 1 {
		t.Fatalf("expected helper container to be created on first use")
	}
	h2 := e.GetOrCreate(NewArray, 3)
	if h1 != h2 {
		t.Fatalf("repeated requests for the same (family, arity) must return the same handle")
	}

	h3 := e.GetOrCreate(NewArray, 4)
	if h3 == h1 {
		t.Fatalf("different arities must produce different helpers")
	}
	if len(asm.Types) != 1 {
		t.Fatalf("container type must only be created once, got %d", len(asm.Types))
	}
}

func TestNewObjectArityDoublesParamCount(t *testing.T) {
	asm := backend.NewFake()
	e := New(asm, 0)

	h := e.GetOrCreate(NewObject, 3)
	m := asm.Methods[h]
	if len(m.Sig.Params) != 6 {
		t.Fatalf("expected 6 params (3 key/value pairs), got %d", len(m.Sig.Params))
	}
}

func TestFamiliesDoNotCollideByName(t *testing.T) {
	asm := backend.NewFake()
	e := New(asm, 0)
	a := e.GetOrCreate(NewArray, 2)
	o := e.GetOrCreate(NewObject, 2)
	r := e.GetOrCreate(ArgArray, 2)
	if asm.Methods[a].Name == asm.Methods[o].Name || asm.Methods[o].Name == asm.Methods[r].Name {
		t.Fatalf("distinct helper families must mangle to distinct names")
	}
}
