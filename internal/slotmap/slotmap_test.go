package slotmap

import "testing"

type fakeTrait struct{ static bool }

func (f fakeTrait) IsStaticTrait() bool { return f.static }

type fakeMethod struct{ static bool }

func (f fakeMethod) IsStaticMethod() bool { return f.static }

func TestTryAddSlotInjectivity(t *testing.T) {
	m := New()
	tr := fakeTrait{static: false}
	if !m.TryAddSlot(3, tr) {
		t.Fatalf("first add of slot 3 should succeed")
	}
	got, ok := m.GetSlot(3, false)
	if !ok || got != Trait(tr) {
		t.Fatalf("expected to read back the trait just added")
	}
	if m.TryAddSlot(3, fakeTrait{static: false}) {
		t.Fatalf("second add of the same (id, isStatic) should fail")
	}
	// A static slot with the same numeric id is a different key.
	if !m.TryAddSlot(3, fakeTrait{static: true}) {
		t.Fatalf("static slot 3 should be independent of instance slot 3")
	}
}

func TestNonPositiveSlotIgnored(t *testing.T) {
	m := New()
	if !m.TryAddSlot(0, fakeTrait{}) {
		t.Fatalf("slot id 0 should be ignored, not fail")
	}
	if !m.TryAddSlot(-1, fakeTrait{}) {
		t.Fatalf("negative slot id should be ignored, not fail")
	}
	if _, ok := m.GetSlot(0, false); ok {
		t.Fatalf("ignored slot id should not be retrievable")
	}
}

func TestTryAddMethodByDispID(t *testing.T) {
	m := New()
	if !m.TryAddMethod(1, fakeMethod{static: false}) {
		t.Fatalf("first add of disp id 1 should succeed")
	}
	if m.TryAddMethod(1, fakeMethod{static: false}) {
		t.Fatalf("duplicate disp id should fail")
	}
	if _, ok := m.GetMethodByDispID(1, false); !ok {
		t.Fatalf("expected to find method at disp id 1")
	}
}

func TestAddParentSlotsCopiesOnlyInstance(t *testing.T) {
	parent := New()
	parent.TryAddSlot(1, fakeTrait{static: false})
	parent.TryAddSlot(2, fakeTrait{static: true})

	child := New()
	child.AddParentSlots(parent)

	if _, ok := child.GetSlot(1, false); !ok {
		t.Fatalf("expected inherited instance slot 1")
	}
	if _, ok := child.GetSlot(2, true); ok {
		t.Fatalf("static slots must not be inherited")
	}
}
