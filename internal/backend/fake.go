package backend

// Fake is a minimal in-memory AssemblyBuilder used by this module's own
// tests (and suitable as the default loader-less backend for smoke tests):
// it records every definition but performs no real code generation or
// serialization.
type Fake struct {
	Types   []FakeType
	Fields  []FakeField
	Methods []FakeMethod
	Ctors   []FakeCtor

	Overrides []FakeOverride
	Impls     []FakeImpl
	Bodies    map[interface{}]MethodBuilder
}

type FakeType struct {
	Name       string
	Kind       TypeKind
	Attrs      TypeAttrs
	Parent     TypeHandle
	Interfaces []TypeHandle
}

type FakeField struct {
	Owner    TypeHandle
	Name     string
	Type     TypeHandle
	Static   bool
	ReadOnly bool
}

type FakeMethod struct {
	Owner   TypeHandle
	Name    string
	Sig     Signature
	Static  bool
	Virtual bool
	Final   bool
}

type FakeCtor struct {
	Owner TypeHandle
	Sig   Signature
}

type FakeOverride struct{ Derived, Base MethodHandle }

type FakeImpl struct {
	Class, Iface      TypeHandle
	IfaceMethod, Impl MethodHandle
}

// NewFake returns a ready-to-use Fake.
func NewFake() *Fake {
	return &Fake{Bodies: make(map[interface{}]MethodBuilder)}
}

func (f *Fake) DefineType(name string, kind TypeKind, attrs TypeAttrs, parent TypeHandle, interfaces []TypeHandle) TypeHandle {
	f.Types = append(f.Types, FakeType{Name: name, Kind: kind, Attrs: attrs, Parent: parent, Interfaces: interfaces})
	return TypeHandle(len(f.Types) - 1)
}

func (f *Fake) DefineField(owner TypeHandle, name string, fieldType TypeHandle, static, readOnly bool) FieldHandle {
	f.Fields = append(f.Fields, FakeField{Owner: owner, Name: name, Type: fieldType, Static: static, ReadOnly: readOnly})
	return FieldHandle(len(f.Fields) - 1)
}

func (f *Fake) DefineMethod(owner TypeHandle, name string, sig Signature, static, virtual, final bool) MethodHandle {
	f.Methods = append(f.Methods, FakeMethod{Owner: owner, Name: name, Sig: sig, Static: static, Virtual: virtual, Final: final})
	return MethodHandle(len(f.Methods) - 1)
}

func (f *Fake) DefineCtor(owner TypeHandle, sig Signature) CtorHandle {
	f.Ctors = append(f.Ctors, FakeCtor{Owner: owner, Sig: sig})
	return CtorHandle(len(f.Ctors) - 1)
}

func (f *Fake) SetMethodBody(handle interface{}, body MethodBuilder) {
	f.Bodies[handle] = body
}

func (f *Fake) SetOverride(derived, base MethodHandle) {
	f.Overrides = append(f.Overrides, FakeOverride{Derived: derived, Base: base})
}

func (f *Fake) SetInterfaceImpl(class, iface TypeHandle, ifaceMethod, impl MethodHandle) {
	f.Impls = append(f.Impls, FakeImpl{Class: class, Iface: iface, IfaceMethod: ifaceMethod, Impl: impl})
}

func (f *Fake) Finish(assemblyName string) ([]byte, error) {
	return []byte(assemblyName), nil
}

var _ AssemblyBuilder = (*Fake)(nil)
