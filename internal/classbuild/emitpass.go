package classbuild

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
)

// TypeResolver maps a resolved multiname to the backend type handle of
// the class it names, emitting that class first if necessary. Supplied
// by the wiring layer so classbuild never imports constpool/globals
// directly.
type TypeResolver func(mn *abc.Multiname) (backend.TypeHandle, error)

// EmitPass implements spec.md §4.G Pass 3: emits the type handle,
// instance constructor, static initializer, and one field/method handle
// per declared trait. Parent and interface classes are emitted first
// (Pass 3 is itself recursive over the DAG Pass 1 built).
func (r *Registry) EmitPass(c *Class, asm backend.AssemblyBuilder, resolveType TypeResolver, anyType backend.TypeHandle) error {
	if c.State == StateTraitsEmitted {
		return nil
	}

	var parentHandle backend.TypeHandle = backend.InvalidHandle
	if c.Parent != nil {
		if err := r.EmitPass(c.Parent, asm, resolveType, anyType); err != nil {
			return err
		}
		parentHandle = c.Parent.TypeHandle
	}

	ifaceHandles := make([]backend.TypeHandle, 0, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		if err := r.EmitPass(iface, asm, resolveType, anyType); err != nil {
			return err
		}
		ifaceHandles = append(ifaceHandles, iface.TypeHandle)
	}

	kind := backend.TypeClass
	if c.IsInterface {
		kind = backend.TypeInterface
	}
	if c.Synthetic == SyntheticCatchScope || c.Synthetic == SyntheticActivation || c.Synthetic == SyntheticScopeContainer {
		kind = backend.TypeValueType
	}

	attrs := backend.TypeAttrs{Sealed: !c.IsDynamic, Final: c.IsFinal, Dynamic: c.IsDynamic, Interface: c.IsInterface}
	c.TypeHandle = asm.DefineType(c.Name.Local, kind, attrs, parentHandle, ifaceHandles)

	if !c.IsInterface && c.InstanceCtor != nil {
		sig := methodSignature(c.InstanceCtor.Info, resolveType, anyType)
		c.CtorHandle = asm.DefineCtor(c.TypeHandle, sig)
	}
	if c.ClassInit != nil {
		c.InitHandle = asm.DefineMethod(c.TypeHandle, c.Name.Local+"$cinit", backend.Signature{}, true, false, true)
	}

	for _, t := range c.InstanceTraits {
		if err := emitTrait(c, t, asm, resolveType, anyType); err != nil {
			return err
		}
	}
	for _, t := range c.StaticTraits {
		if err := emitTrait(c, t, asm, resolveType, anyType); err != nil {
			return err
		}
	}

	c.State = StateTraitsEmitted
	return nil
}

func emitTrait(c *Class, t *Trait, asm backend.AssemblyBuilder, resolveType TypeResolver, anyType backend.TypeHandle) error {
	switch t.Kind {
	case TraitField, TraitConst:
		fieldType := anyType
		if t.DeclaredType != nil {
			if h, err := resolveType(t.DeclaredType); err == nil {
				fieldType = h
			}
		}
		t.FieldType = fieldType
		t.FieldHandle = asm.DefineField(c.TypeHandle, t.Name.Local, fieldType, t.Static, t.Kind == TraitConst)

	case TraitMethod:
		sig := methodSignature(t.Method.Info, resolveType, anyType)
		virtual := !t.Static && !t.Method.Final
		h := asm.DefineMethod(c.TypeHandle, t.Name.Local, sig, t.Static, virtual, t.Method.Final)
		t.Method.Handle = h
		t.Method.Signature = sig

	case TraitProperty:
		if t.Getter != nil {
			sig := methodSignature(t.Getter.Info, resolveType, anyType)
			t.Getter.Handle = asm.DefineMethod(c.TypeHandle, "get_"+t.Name.Local, sig, t.Static, !t.Static && !t.Getter.Final, t.Getter.Final)
			t.Getter.Signature = sig
		}
		if t.Setter != nil {
			sig := methodSignature(t.Setter.Info, resolveType, anyType)
			t.Setter.Handle = asm.DefineMethod(c.TypeHandle, "set_"+t.Name.Local, sig, t.Static, !t.Static && !t.Setter.Final, t.Setter.Final)
			t.Setter.Signature = sig
		}

	case TraitClassAlias:
		// No separate handle: lookups of t.Name resolve to t.Aliased's
		// already-emitted TypeHandle.
	}
	return nil
}

func methodSignature(m *abc.MethodInfo, resolveType TypeResolver, anyType backend.TypeHandle) backend.Signature {
	if m == nil {
		return backend.Signature{}
	}
	sig := backend.Signature{HasReturn: m.HasReturn, HasRest: m.HasRest}
	if m.HasReturn && m.ReturnType != nil {
		if h, err := resolveType(m.ReturnType); err == nil {
			sig.ReturnType = h
		} else {
			sig.ReturnType = anyType
		}
	} else {
		sig.ReturnType = anyType
	}
	for _, p := range m.Params {
		ph := anyType
		if p.Type != nil {
			if h, err := resolveType(p.Type); err == nil {
				ph = h
			}
		}
		sig.Params = append(sig.Params, backend.ParamSig{Name: p.Name, Type: ph, IsOptional: p.IsOptional})
	}
	return sig
}
