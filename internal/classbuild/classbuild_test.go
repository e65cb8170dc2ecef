package classbuild

import (
	"testing"

	"github.com/jfd16/mariana/internal/abc"
)

func pkgNS(uri string) *abc.Namespace { return &abc.Namespace{Kind: abc.NSKindPackage, URI: uri} }

func mnOf(ns *abc.Namespace, local string) *abc.Multiname {
	return &abc.Multiname{Kind: abc.MNQName, NS: ns, Local: local}
}

func newTestRegistry(classes map[string]*abc.ClassInfo) *Registry {
	built := make(map[abc.QName]*Class)
	var reg *Registry
	resolve := func(mn *abc.Multiname) (*Class, error) {
		q := abc.QName{NS: mn.NS, Local: mn.Local}
		if c, ok := built[q]; ok {
			return c, nil
		}
		src, ok := classes[mn.Local]
		if !ok {
			return nil, nil
		}
		c := reg.Declare(src)
		built[q] = c
		return c, nil
	}
	reg = NewRegistry(resolve)
	return reg
}

func TestDefinePassDetectsCycle(t *testing.T) {
	ns := pkgNS("p")
	a := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "A"}, Parent: mnOf(ns, "B")}
	b := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "B"}, Parent: mnOf(ns, "A")}

	reg := newTestRegistry(map[string]*abc.ClassInfo{"A": a, "B": b})
	ca := reg.Declare(a)

	if err := reg.DefinePass(ca); err == nil {
		t.Fatalf("expected a cycle error, got nil")
	}
}

func TestInterfaceTransitiveClosure(t *testing.T) {
	ns := pkgNS("p")
	i1 := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "I1"}, Kind: abc.ClassInterface}
	i2 := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "I2"}, Kind: abc.ClassInterface, Interfaces: []*abc.Multiname{mnOf(ns, "I1")}}
	parent := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "P"}, Interfaces: []*abc.Multiname{mnOf(ns, "I1")}}
	c := &abc.ClassInfo{
		Name:       abc.QName{NS: ns, Local: "C"},
		Parent:     mnOf(ns, "P"),
		Interfaces: []*abc.Multiname{mnOf(ns, "I2")},
	}

	reg := newTestRegistry(map[string]*abc.ClassInfo{"I1": i1, "I2": i2, "P": parent, "C": c})
	cc := reg.Declare(c)
	if err := reg.DefinePass(cc); err != nil {
		t.Fatalf("DefinePass: %v", err)
	}

	closure := cc.ImplementedInterfaces()
	names := make(map[string]bool)
	for _, i := range closure {
		names[i.Name.Local] = true
	}
	if !names["I1"] || !names["I2"] {
		t.Fatalf("expected closure to contain I1 and I2, got %v", closure)
	}
	if len(closure) != 2 {
		t.Fatalf("expected no duplicates in closure, got %d entries: %v", len(closure), closure)
	}
}

func TestParentFinalRejected(t *testing.T) {
	ns := pkgNS("p")
	parent := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "P"}, Kind: abc.ClassFinal}
	c := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "C"}, Parent: mnOf(ns, "P")}

	reg := newTestRegistry(map[string]*abc.ClassInfo{"P": parent, "C": c})
	cc := reg.Declare(c)
	if err := reg.DefinePass(cc); err == nil {
		t.Fatalf("expected extending a final class to fail")
	}
}

func TestTraitsPassCombinesGetterSetter(t *testing.T) {
	ns := pkgNS("p")
	prop := abc.QName{NS: ns, Local: "x"}
	src := &abc.ClassInfo{
		Name: abc.QName{NS: ns, Local: "C"},
		InstanceTraits: []abc.TraitInfo{
			{Name: prop, Kind: abc.TraitGetter, MethodInfo: &abc.MethodInfo{HasReturn: true}},
			{Name: prop, Kind: abc.TraitSetter, MethodInfo: &abc.MethodInfo{}},
		},
	}
	reg := newTestRegistry(map[string]*abc.ClassInfo{"C": src})
	c := reg.Declare(src)
	if err := reg.TraitsPass(c, nil); err != nil {
		t.Fatalf("TraitsPass: %v", err)
	}

	if len(c.InstanceTraits) != 1 {
		t.Fatalf("expected getter+setter to combine into one property trait, got %d", len(c.InstanceTraits))
	}
	pt := c.InstanceTraits[0]
	if pt.Kind != TraitProperty || pt.Getter == nil || pt.Setter == nil {
		t.Fatalf("expected a combined property trait with both accessors, got %+v", pt)
	}
}

func TestTraitsPassResolvesTypedDefaultThroughFilePool(t *testing.T) {
	ns := pkgNS("p")
	src := &abc.ClassInfo{
		Name: abc.QName{NS: ns, Local: "C"},
		InstanceTraits: []abc.TraitInfo{
			{Name: abc.QName{NS: ns, Local: "x"}, Kind: abc.TraitSlot, SlotID: 1,
				TypeName: mnOf(ns, "int"), ValueKind: abc.ConstInt, ValueIndex: 0},
		},
	}
	reg := newTestRegistry(map[string]*abc.ClassInfo{"C": src})
	reg.File = &abc.File{Ints: []int32{5}}
	c := reg.Declare(src)

	passthrough := func(v any, _ *abc.Multiname) (any, error) { return v, nil }
	if err := reg.TraitsPass(c, passthrough); err != nil {
		t.Fatalf("TraitsPass: %v", err)
	}
	if got := c.InstanceTraits[0].DefaultValue; got != int32(5) {
		t.Fatalf("expected the default to resolve through File.Ints to int32(5), got %#v", got)
	}
}

func TestTraitsPassRejectsFunctionTraits(t *testing.T) {
	ns := pkgNS("p")
	src := &abc.ClassInfo{
		Name: abc.QName{NS: ns, Local: "C"},
		InstanceTraits: []abc.TraitInfo{
			{Name: abc.QName{NS: ns, Local: "f"}, Kind: abc.TraitFunction},
		},
	}
	reg := newTestRegistry(map[string]*abc.ClassInfo{"C": src})
	c := reg.Declare(src)
	if err := reg.TraitsPass(c, nil); err == nil {
		t.Fatalf("expected function traits to be rejected")
	}
}

func TestTraitsPassRejectsInstanceClassAlias(t *testing.T) {
	ns := pkgNS("p")
	aliased := &abc.ClassInfo{Name: abc.QName{NS: ns, Local: "Aliased"}}
	src := &abc.ClassInfo{
		Name: abc.QName{NS: ns, Local: "C"},
		InstanceTraits: []abc.TraitInfo{
			{Name: abc.QName{NS: ns, Local: "Alias"}, Kind: abc.TraitClass, ClassInfo: aliased},
		},
	}
	reg := newTestRegistry(map[string]*abc.ClassInfo{"Aliased": aliased, "C": src})
	c := reg.Declare(src)
	if err := reg.TraitsPass(c, nil); err == nil {
		t.Fatalf("expected instance-position class-alias trait to be rejected")
	}
}

func TestCatchScopeFactoryReusesIdenticalShapes(t *testing.T) {
	reg := newTestRegistry(nil)
	f := NewCatchScopeFactory(reg)
	ns := pkgNS("p")
	typeName := abc.QName{NS: ns, Local: "Error"}

	h1 := abc.ExceptionHandler{VarName: "e", CatchType: mnOf(ns, "Error")}
	c1 := f.GetOrCreate(h1, "<CatchScope>", typeName)
	c2 := f.GetOrCreate(h1, "<CatchScope>", typeName)
	if c1 != c2 {
		t.Fatalf("identical catch-scope shapes must be reused")
	}

	h3 := abc.ExceptionHandler{} // no var name: fieldless
	c3 := f.GetOrCreate(h3, "<CatchScope>", abc.QName{})
	if c3 == c1 {
		t.Fatalf("fieldless and typed-field catch scopes must not be reused across each other")
	}
	if len(c3.InstanceTraits) != 0 {
		t.Fatalf("fieldless catch scope must have no fields, got %d", len(c3.InstanceTraits))
	}
}

func TestActivationFieldsDefaultToNaNForUntypedNumber(t *testing.T) {
	ns := pkgNS("p")
	slots := []abc.TraitInfo{
		{Name: abc.QName{NS: ns, Local: "n"}, Kind: abc.TraitSlot, SlotID: 1, TypeName: mnOf(ns, "Number")},
	}
	c, err := ActivationFactory{}.Create(nil, "<Activation>", slots, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := c.InstanceTraits[0].DefaultValue.(numberNaN); !ok {
		t.Fatalf("expected untyped Number activation field to default to NaN, got %#v", c.InstanceTraits[0].DefaultValue)
	}
}
