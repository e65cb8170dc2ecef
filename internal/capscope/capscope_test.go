package capscope

import (
	"testing"

	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/mangle"
)

func TestGetContainerForDedupesStructurallyEqualSequences(t *testing.T) {
	asm := backend.NewFake()
	f := New(mangle.New(), asm)

	classA := new(int) // stand-in identity for *classbuild.Class
	items1 := []Item{
		{Tag: TagGlobal},
		{Tag: TagClass, ClassPtr: classA},
		{Tag: TagObject, Type: 7, IsWith: true},
	}
	items2 := []Item{
		{Tag: TagGlobal},
		{Tag: TagClass, ClassPtr: classA},
		{Tag: TagObject, Type: 7, IsWith: true},
	}

	c1 := f.GetContainerFor(items1)
	c2 := f.GetContainerFor(items2)
	if c1 != c2 {
		t.Fatalf("structurally equal sequences must share one container type")
	}
	if len(asm.Types) != 1 {
		t.Fatalf("expected exactly one container type to be emitted, got %d", len(asm.Types))
	}
}

func TestGetContainerForDistinguishesSequences(t *testing.T) {
	asm := backend.NewFake()
	f := New(mangle.New(), asm)

	classA := new(int)
	classB := new(int)

	c1 := f.GetContainerFor([]Item{{Tag: TagClass, ClassPtr: classA}})
	c2 := f.GetContainerFor([]Item{{Tag: TagClass, ClassPtr: classB}})
	if c1 == c2 {
		t.Fatalf("different class pointers must not dedupe to the same container")
	}

	c3 := f.GetContainerFor([]Item{{Tag: TagObject, Type: 1, IsWith: false}})
	c4 := f.GetContainerFor([]Item{{Tag: TagObject, Type: 1, IsWith: true}})
	if c3 == c4 {
		t.Fatalf("with-flag must participate in the dedup key")
	}

	c5 := f.GetContainerFor([]Item{{Tag: TagObject}, {Tag: TagGlobal}})
	c6 := f.GetContainerFor([]Item{{Tag: TagGlobal}, {Tag: TagObject}})
	if c5 == c6 {
		t.Fatalf("item order must participate in the dedup key")
	}
}

func TestBindOptionsForGlobalAndWithItems(t *testing.T) {
	global := Item{Tag: TagGlobal}
	if global.BindOptions()&SearchPrototype == 0 || global.BindOptions()&SearchDynamic == 0 {
		t.Fatalf("global item must search prototype and dynamic properties")
	}

	with := Item{Tag: TagObject, IsWith: true}
	if with.BindOptions()&SearchDynamic == 0 {
		t.Fatalf("with-scope item must search dynamic properties")
	}

	plain := Item{Tag: TagObject}
	if plain.BindOptions()&SearchDynamic != 0 {
		t.Fatalf("plain object item must not search dynamic properties")
	}
	if plain.BindOptions()&SearchTraits == 0 {
		t.Fatalf("every item must search traits")
	}
}
