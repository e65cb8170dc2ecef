// Package capscope implements the Captured-Scope Factory (spec.md §4.C):
// canonicalizing sequences of scope-stack items into deduplicated
// scope-container types.
//
// Factory is not safe for concurrent use on its own — per spec.md §5 the
// dedup cache is one of the resources the owning compilation context
// serializes behind its single coarse lock, so Factory does its own
// plain-map bookkeeping and leaves locking to the caller.
package capscope

import (
	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/mangle"
)

// Tag is the "underlying-type-tag" component of a captured-scope item.
type Tag int

const (
	// TagObject is a plain scope-stack value of some AVM2 type, captured
	// from a local, a `with` target, or a constant.
	TagObject Tag = iota
	// TagGlobal is the implicit global-object scope item.
	TagGlobal
	// TagClass is a class object pulled from the constant pool — the
	// implicit tail item every class's captured scope carries.
	TagClass
)

// Item is one captured-scope item: the (tag, class-pointer-or-null,
// is_with_scope) triple from spec.md §3. ClassPtr is an opaque,
// comparable identity (typically *classbuild.Class) so this package does
// not need to import the class-builder and create an import cycle; it is
// only ever compared for equality, never dereferenced here. Type is the
// field type used when Tag == TagObject.
type Item struct {
	Tag     Tag
	ClassPtr any
	Type    backend.TypeHandle
	IsWith  bool
}

// Container is the synthetic captured-scope container type (spec.md §3):
// one typed field per non-constant item, plus a lazily-built runtime
// scope-stack field/method.
type Container struct {
	Type       backend.TypeHandle
	ItemFields []backend.FieldHandle // parallel to the Items slice passed to getContainerFor
	Items      []Item

	StackField  backend.FieldHandle
	StackMethod backend.MethodHandle
}

// Factory canonicalizes item sequences into deduplicated Container values.
type Factory struct {
	mangler   *mangle.Mangler
	asm       backend.AssemblyBuilder
	cache     map[string]*Container
	classOrds map[any]int
	nextOrd   int
	nextName  int
}

// New returns a Factory that emits container types through asm.
func New(mangler *mangle.Mangler, asm backend.AssemblyBuilder) *Factory {
	return &Factory{
		mangler:   mangler,
		asm:       asm,
		cache:     make(map[string]*Container),
		classOrds: make(map[any]int),
	}
}

// classOrdinal assigns each distinct class identity a stable small integer
// so structurally-equal sequences hash identically regardless of pointer
// representation, while distinct class identities never collide.
func (f *Factory) classOrdinal(classPtr any) int {
	if classPtr == nil {
		return -1
	}
	if ord, ok := f.classOrds[classPtr]; ok {
		return ord
	}
	ord := f.nextOrd
	f.nextOrd++
	f.classOrds[classPtr] = ord
	return ord
}

func (f *Factory) sigKeyOrdinal(items []Item) string {
	b := make([]byte, 0, len(items)*16)
	for _, it := range items {
		ord := f.classOrdinal(it.ClassPtr)
		b = append(b, byte(it.Tag), byte(it.Type), byte(it.Type>>8), byte(it.Type>>16), byte(it.Type>>24))
		b = append(b, byte(ord), byte(ord>>8), byte(ord>>16), byte(ord>>24))
		if it.IsWith {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	}
	return string(b)
}

// GetContainerFor implements `getContainerFor(items)`: returns the
// deduplicated container type for this items sequence, generating it on
// first sight (spec.md §8 property 1 — container dedup).
func (f *Factory) GetContainerFor(items []Item) *Container {
	sk := f.sigKeyOrdinal(items)
	if c, ok := f.cache[sk]; ok {
		return c
	}

	name := f.mangler.CreateScopeContainerName(f.nextName)
	f.nextName++

	typ := f.asm.DefineType(name, backend.TypeClass, backend.TypeAttrs{Sealed: true, Final: true}, backend.InvalidHandle, nil)
	f.asm.DefineCtor(typ, backend.Signature{})

	fields := make([]backend.FieldHandle, len(items))
	for i, it := range items {
		if it.Tag == TagClass {
			// The implicit CLASS tail item is pulled from the constant
			// pool at stack-build time, not stored as its own field.
			fields[i] = backend.InvalidHandle
			continue
		}
		fields[i] = f.asm.DefineField(typ, mangle.ItemFieldName(i), it.Type, false, true)
	}

	stackField := f.asm.DefineField(typ, "<scopeStack>", backend.InvalidHandle, false, false)
	stackMethod := f.asm.DefineMethod(typ, "<getScopeStack>", backend.Signature{HasReturn: true}, false, true, true)

	c := &Container{
		Type:        typ,
		ItemFields:  fields,
		Items:       append([]Item(nil), items...),
		StackField:  stackField,
		StackMethod: stackMethod,
	}
	f.cache[sk] = c
	return c
}

// BindOptions computes the bind-options mask spec.md §4.C prescribes for
// pushing one captured-scope item onto a runtime scope stack.
type BindOptions int

const (
	SearchTraits BindOptions = 1 << iota
	SearchPrototype
	SearchDynamic
)

func (it Item) BindOptions() BindOptions {
	opts := SearchTraits
	if it.Tag == TagGlobal {
		opts |= SearchPrototype | SearchDynamic
	}
	if it.IsWith {
		opts |= SearchDynamic
	}
	return opts
}
