package backend

import "testing"

func TestSignatureRequiredParamCount(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		want int
	}{
		{"no params", Signature{}, 0},
		{"all required", Signature{Params: []ParamSig{{}, {}}}, 2},
		{"optional tail", Signature{Params: []ParamSig{{}, {IsOptional: true}, {IsOptional: true}}}, 1},
		{"optional first", Signature{Params: []ParamSig{{IsOptional: true}, {}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.RequiredParamCount(); got != tt.want {
				t.Fatalf("RequiredParamCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFakeDefineTypeAssignsSequentialHandles(t *testing.T) {
	f := NewFake()
	a := f.DefineType("A", TypeClass, TypeAttrs{}, InvalidHandle, nil)
	b := f.DefineType("B", TypeClass, TypeAttrs{}, a, nil)
	if a != 0 || b != 1 {
		t.Fatalf("expected sequential handles 0,1, got %d,%d", a, b)
	}
	if f.Types[b].Parent != a {
		t.Fatalf("expected B's recorded parent to be A's handle")
	}
}

func TestFakeDefineFieldMethodCtorRecordOwner(t *testing.T) {
	f := NewFake()
	ty := f.DefineType("A", TypeClass, TypeAttrs{}, InvalidHandle, nil)

	field := f.DefineField(ty, "x", ty, false, false)
	if f.Fields[field].Owner != ty || f.Fields[field].Name != "x" {
		t.Fatalf("field not recorded against owner correctly: %+v", f.Fields[field])
	}

	method := f.DefineMethod(ty, "m", Signature{}, false, true, false)
	if f.Methods[method].Owner != ty || !f.Methods[method].Virtual {
		t.Fatalf("method not recorded correctly: %+v", f.Methods[method])
	}

	ctor := f.DefineCtor(ty, Signature{})
	if f.Ctors[ctor].Owner != ty {
		t.Fatalf("ctor not recorded against owner correctly: %+v", f.Ctors[ctor])
	}
}

func TestFakeSetMethodBodyAndOverrideAndInterfaceImpl(t *testing.T) {
	f := NewFake()
	iface := f.DefineType("I", TypeInterface, TypeAttrs{Interface: true}, InvalidHandle, nil)
	class := f.DefineType("C", TypeClass, TypeAttrs{}, InvalidHandle, []TypeHandle{iface})

	base := f.DefineMethod(class, "base", Signature{}, false, true, false)
	derived := f.DefineMethod(class, "derived", Signature{}, false, true, false)
	f.SetOverride(derived, base)
	if len(f.Overrides) != 1 || f.Overrides[0].Derived != derived || f.Overrides[0].Base != base {
		t.Fatalf("expected one recorded override, got %+v", f.Overrides)
	}

	ifaceMethod := f.DefineMethod(iface, "im", Signature{}, false, true, false)
	f.SetInterfaceImpl(class, iface, ifaceMethod, derived)
	if len(f.Impls) != 1 || f.Impls[0].Impl != derived {
		t.Fatalf("expected one recorded interface impl, got %+v", f.Impls)
	}

	body := MethodBuilder{Instructions: []byte{1, 2, 3}, Locals: 2, MaxStack: 4}
	f.SetMethodBody(derived, body)
	if got := f.Bodies[derived]; got.MaxStack != 4 || len(got.Instructions) != 3 {
		t.Fatalf("expected body to round-trip by handle, got %+v", got)
	}
}

func TestFakeFinishReturnsAssemblyNameBytes(t *testing.T) {
	f := NewFake()
	image, err := f.Finish("myasm")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(image) != "myasm" {
		t.Fatalf("expected Finish to echo the assembly name, got %q", image)
	}
}
