package classbuild

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/slotmap"
)

// CatchScopeFactory synthesizes and reuses catch-scope classes (spec.md
// §3, §4.G): one typed field at slot 1 when the handler binds a
// variable name, fieldless otherwise. Identical shapes — same bound
// type + qname, or both unnamed — are reused across handlers.
type CatchScopeFactory struct {
	reg       *Registry
	byVarShape map[catchShapeKey]*Class
	anonCount int
}

type catchShapeKey struct {
	hasVar bool
	typeNS string
	typeLocal string
}

// NewCatchScopeFactory returns a factory backed by reg, so synthesized
// classes are visible to later passes the same way ordinary classes
// are.
func NewCatchScopeFactory(reg *Registry) *CatchScopeFactory {
	return &CatchScopeFactory{reg: reg, byVarShape: make(map[catchShapeKey]*Class)}
}

// GetOrCreate returns the (possibly shared) catch-scope class for an
// exception handler, keyed by whether it binds a variable and, if so,
// the bound type.
func (f *CatchScopeFactory) GetOrCreate(h abc.ExceptionHandler, mangledName string, typeName abc.QName) *Class {
	key := catchShapeKey{hasVar: h.VarName != ""}
	if key.hasVar {
		if typeName.NS != nil {
			key.typeNS = typeName.NS.URI
		}
		key.typeLocal = typeName.Local
	}
	if existing, ok := f.byVarShape[key]; ok {
		return existing
	}

	c := &Class{
		Name:          abc.QName{Local: mangledName},
		Synthetic:     SyntheticCatchScope,
		State:         StateDefCreated,
		InstanceSlots: slotmap.New(),
	}
	if key.hasVar {
		c.InstanceTraits = append(c.InstanceTraits, &Trait{
			Name:         abc.QName{Local: "value"},
			Kind:         TraitField,
			Declarer:     c,
			DeclaredType: &abc.Multiname{Kind: abc.MNQName, NS: typeName.NS, Local: typeName.Local},
		})
		c.InstanceSlots.TryAddSlot(1, c.InstanceTraits[0])
	}
	c.State = StateTraitsCreated
	f.byVarShape[key] = c
	return c
}

// ActivationFactory synthesizes one activation class per activation
// record: one field per activation slot, each initialized in the
// constructor from its coerced default, or NaN for untyped Number
// fields (spec.md §3, §4.G). Activation classes are not deduplicated —
// each activation record in the source is semantically distinct.
type ActivationFactory struct{}

// Create builds the activation class for slots, named mangledName. file
// supplies the constant pools any slot's default value indexes into.
func (ActivationFactory) Create(file *abc.File, mangledName string, slots []abc.TraitInfo, coerce CoerceDefaultFunc) (*Class, error) {
	c := &Class{
		Name:          abc.QName{Local: mangledName},
		Synthetic:     SyntheticActivation,
		State:         StateTraitsCreated,
		InstanceSlots: slotmap.New(),
	}
	for _, ti := range slots {
		t := &Trait{Name: ti.Name, Kind: TraitField, Declarer: c, DeclaredType: ti.TypeName}
		if ti.ValueKind != abc.ConstNone && coerce != nil {
			raw, err := rawDefault(file, &ti)
			if err != nil {
				return nil, err
			}
			v, err := coerce(raw, ti.TypeName)
			if err != nil {
				return nil, err
			}
			t.DefaultValue = v
		} else if isUntypedNumberField(ti.TypeName) {
			t.DefaultValue = numberNaN{}
		}
		c.InstanceTraits = append(c.InstanceTraits, t)
		c.InstanceSlots.TryAddSlot(ti.SlotID, t)
	}
	return c, nil
}

// numberNaN is a sentinel distinguishing "defaults to NaN" from an
// explicit coerced zero value; the per-method compiler's constructor
// emission recognizes it and emits the NaN literal directly.
type numberNaN struct{}

func isUntypedNumberField(typeName *abc.Multiname) bool {
	return typeName != nil && typeName.Local == "Number"
}
