// Package classbuild implements the Class Builder (spec.md §4.G): the
// three-pass (DEF, TRAITS, EMITTED) state machine that turns each
// abc.ClassInfo into a Class with a resolved trait table and, finally,
// emitted backend handles.
package classbuild

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	cperrors "github.com/jfd16/mariana/internal/errors"
	"github.com/jfd16/mariana/internal/slotmap"
)

// State is the per-class compilation-context state machine (spec.md §3).
type State int

const (
	StateInit State = iota
	StateDefCreating
	StateDefCreated
	StateTraitsCreating
	StateTraitsCreated
	StateTraitsEmitted
)

// TraitKind mirrors abc.TraitKind after Pass 2 has resolved
// getter/setter pairs into single Property traits and classified
// everything else.
type TraitKind int

const (
	TraitField TraitKind = iota
	TraitConst
	TraitMethod
	TraitProperty
	TraitClassAlias
)

// Trait is one resolved class (or script-global) member. It satisfies
// slotmap.Trait.
type Trait struct {
	Name     abc.QName
	Kind     TraitKind
	Static   bool
	Declarer *Class // nil for script-global traits

	// Field/Const
	DeclaredType *abc.Multiname // nil means untyped ("*")
	FieldType    backend.TypeHandle
	FieldHandle  backend.FieldHandle
	ReadOnly     bool
	DefaultValue any

	// Method (and Property's getter/setter, each represented as an
	// embedded *MethodTrait)
	Method *MethodTrait

	// Property
	Getter *MethodTrait
	Setter *MethodTrait

	// ClassAlias
	Aliased *Class

	Metadata []abc.Metadata
}

func (t *Trait) IsStaticTrait() bool { return t.Static }

// MethodTrait is the resolved signature plus flags for a method/
// getter/setter trait (spec.md §3 "Method signature").
type MethodTrait struct {
	Info       *abc.MethodInfo
	Static     bool
	Final      bool
	Override   bool
	Handle     backend.MethodHandle
	Signature  backend.Signature
}

func (m *MethodTrait) IsStaticMethod() bool { return m.Static }

// SyntheticKind distinguishes the ordinary classes parsed from ABC from
// the two synthetic subkinds spec.md §3 names.
type SyntheticKind int

const (
	SyntheticNone SyntheticKind = iota
	SyntheticCatchScope
	SyntheticActivation
	SyntheticScopeContainer
)

// Class represents one AVM2 type under construction, or one of the
// synthetic subkinds (spec.md §3).
type Class struct {
	Source *abc.ClassInfo // nil for purely synthetic classes
	Name   abc.QName
	State  State

	Synthetic SyntheticKind

	IsInterface bool
	IsFinal     bool
	IsDynamic   bool

	ProtectedNS *abc.Namespace

	Parent     *Class
	Interfaces []*Class // declared directly

	// closure is the memoized transitive interface closure; nil until
	// computed by ComputeInterfaceClosure.
	closure []*Class

	InstanceTraits []*Trait
	StaticTraits   []*Trait

	InstanceCtor *MethodTrait
	ClassInit    *MethodTrait

	InstanceSlots *slotmap.Map
	StaticSlots   *slotmap.Map

	// Emission outputs, valid once State == StateTraitsEmitted.
	TypeHandle backend.TypeHandle
	CtorHandle backend.CtorHandle
	InitHandle backend.MethodHandle

	Metadata []abc.Metadata

	// RuntimeType is back-patched by the Finalizer once the assembly is
	// loaded (spec.md §3, §4.J).
	RuntimeType any
}

// NewClass returns a Class in StateInit wrapping src.
func NewClass(src *abc.ClassInfo) *Class {
	return &Class{
		Source:        src,
		Name:          src.Name,
		IsInterface:   src.IsInterface(),
		IsFinal:       src.IsFinal(),
		IsDynamic:     src.IsDynamic(),
		ProtectedNS:   src.ProtectedNS,
		State:         StateInit,
		InstanceSlots: slotmap.New(),
		StaticSlots:   slotmap.New(),
		Metadata:      src.Metadata,
	}
}

// enterDefCreating transitions Init -> DefCreating, rejecting re-entry
// (cycle detection, spec.md §4.G Pass 1).
func (c *Class) enterDefCreating() error {
	switch c.State {
	case StateDefCreating:
		return cperrors.New(cperrors.ABC007ClassCircularRef, &cperrors.Where{Class: c.Name.Local},
			"class %s participates in a definition cycle", c.Name.Local)
	case StateInit:
		c.State = StateDefCreating
		return nil
	default:
		return nil // already past DEF_CREATING, nothing to do
	}
}
