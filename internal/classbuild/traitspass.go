package classbuild

import (
	"fmt"

	"github.com/jfd16/mariana/internal/abc"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// CoerceDefault converts a raw (value, declaredType) pair per spec.md
// §4.H's default-value coercion table. classbuild depends on it only
// through this function value — the real implementation lives in
// internal/sig, which in turn depends on classbuild's Class/Trait
// types, so the dependency can't run the other way. The wiring layer
// (internal/compiler) passes sig.CoerceDefault as TraitsPass's coerce
// argument. With a nil CoerceDefault, Slot/Const default values are not
// resolved at all and DefaultValue stays nil, which is adequate for
// tests that don't exercise typed defaults.
type CoerceDefaultFunc func(value any, declaredType *abc.Multiname) (any, error)

// propertyHalf accumulates a getter and/or setter for one property name
// while walking trait records, before they're flushed into a single
// Property trait (spec.md §4.G Pass 2).
type propertyHalf struct {
	getter *abc.TraitInfo
	setter *abc.TraitInfo
}

// TraitsPass implements spec.md §4.G Pass 2: synthesizes the instance
// constructor and static initializer (skipped for interfaces), walks
// every ABC trait record classifying it, assigns slot/disp ids through
// the slot map, and combines matching getter/setter pairs into Property
// traits.
func (r *Registry) TraitsPass(c *Class, coerce CoerceDefaultFunc) error {
	if c.State >= StateTraitsCreated {
		return nil
	}
	if c.State != StateDefCreated {
		if err := r.DefinePass(c); err != nil {
			return err
		}
	}
	c.State = StateTraitsCreating

	if c.Parent != nil {
		if err := r.TraitsPass(c.Parent, coerce); err != nil {
			return err
		}
		c.InstanceSlots.AddParentSlots(c.Parent.InstanceSlots)
	}

	if !c.IsInterface && c.Source != nil {
		c.InstanceCtor = &MethodTrait{Info: c.Source.InstanceCtor}
		c.ClassInit = &MethodTrait{Info: c.Source.ClassInit, Static: true}
	}

	instProps := make(map[abc.QName]*propertyHalf)
	staticProps := make(map[abc.QName]*propertyHalf)

	if c.Source != nil {
		for i := range c.Source.InstanceTraits {
			if err := r.classifyTrait(c, &c.Source.InstanceTraits[i], false, coerce, instProps); err != nil {
				return err
			}
		}
		for i := range c.Source.StaticTraits {
			if err := r.classifyTrait(c, &c.Source.StaticTraits[i], true, coerce, staticProps); err != nil {
				return err
			}
		}
	}

	flushProperties(c, instProps, false)
	flushProperties(c, staticProps, true)

	c.State = StateTraitsCreated
	return nil
}

func (r *Registry) classifyTrait(c *Class, ti *abc.TraitInfo, static bool, coerce CoerceDefaultFunc, props map[abc.QName]*propertyHalf) error {
	slots := c.InstanceSlots
	if static {
		slots = c.StaticSlots
	}

	switch ti.Kind {
	case abc.TraitSlot, abc.TraitConst:
		t := &Trait{Name: ti.Name, Static: static, Declarer: c, Metadata: ti.Metadata, DeclaredType: ti.TypeName}
		if ti.Kind == abc.TraitConst {
			t.Kind = TraitConst
		} else {
			t.Kind = TraitField
		}
		if ti.ValueKind != abc.ConstNone && coerce != nil {
			raw, err := rawDefault(r.File, ti)
			if err != nil {
				return err
			}
			v, err := coerce(raw, ti.TypeName)
			if err != nil {
				return err
			}
			t.DefaultValue = v
		}
		if !slots.TryAddSlot(ti.SlotID, t) {
			return cperrors.New(cperrors.ABC006SlotIDTaken, &cperrors.Where{Class: c.Name.Local},
				"slot %d already occupied on %s", ti.SlotID, c.Name.Local)
		}
		appendTrait(c, t, static)

	case abc.TraitMethod:
		mt := &MethodTrait{Info: ti.MethodInfo, Static: static, Final: ti.IsFinal, Override: ti.IsOverride}
		t := &Trait{Name: ti.Name, Kind: TraitMethod, Static: static, Declarer: c, Method: mt, Metadata: ti.Metadata}
		if !slots.TryAddMethod(ti.DispID, mt) {
			return cperrors.New(cperrors.ABC006SlotIDTaken, &cperrors.Where{Class: c.Name.Local},
				"disp id %d already occupied on %s", ti.DispID, c.Name.Local)
		}
		appendTrait(c, t, static)

	case abc.TraitGetter, abc.TraitSetter:
		h, ok := props[ti.Name]
		if !ok {
			h = &propertyHalf{}
			props[ti.Name] = h
		}
		if ti.Kind == abc.TraitGetter {
			h.getter = ti
		} else {
			h.setter = ti
		}

	case abc.TraitClass:
		if !static {
			return cperrors.New(cperrors.TYP003InstanceClassTrait, &cperrors.Where{Class: c.Name.Local},
				"class-alias trait %s must be static", ti.Name.Local)
		}
		aliased, err := r.Resolve(&abc.Multiname{Kind: abc.MNQName, NS: ti.Name.NS, Local: ti.Name.Local})
		if err != nil {
			return err
		}
		t := &Trait{Name: ti.Name, Kind: TraitClassAlias, Static: true, Declarer: c, Aliased: aliased, Metadata: ti.Metadata}
		appendTrait(c, t, true)

	default:
		return cperrors.New(cperrors.ABC005InvalidTraitKind, &cperrors.Where{Class: c.Name.Local},
			"function traits are not supported (%s)", ti.Name.Local)
	}
	return nil
}

// rawDefault dereferences ti's (ValueKind, ValueIndex) default-value
// reference through file's constant pools into the typed Go value
// CoerceDefaultFunc expects (spec.md §4.G/§4.H).
func rawDefault(file *abc.File, ti *abc.TraitInfo) (any, error) {
	if file == nil {
		return nil, fmt.Errorf("cannot resolve default value of %s: no constant pool available", ti.Name.Local)
	}
	return file.ResolveConst(ti.ValueKind, ti.ValueIndex)
}

func appendTrait(c *Class, t *Trait, static bool) {
	if static {
		c.StaticTraits = append(c.StaticTraits, t)
	} else {
		c.InstanceTraits = append(c.InstanceTraits, t)
	}
}

func flushProperties(c *Class, props map[abc.QName]*propertyHalf, static bool) {
	for name, h := range props {
		t := &Trait{Name: name, Kind: TraitProperty, Static: static, Declarer: c}
		if h.getter != nil {
			t.Getter = &MethodTrait{Info: h.getter.MethodInfo, Static: static, Final: h.getter.IsFinal, Override: h.getter.IsOverride}
		}
		if h.setter != nil {
			t.Setter = &MethodTrait{Info: h.setter.MethodInfo, Static: static, Final: h.setter.IsFinal, Override: h.setter.IsOverride}
		}
		appendTrait(c, t, static)
	}
}
