// Package slotmap implements the Slot Map (spec.md §4.B): an index
// structure mapping (slot-id, staticness) to a trait and (disp-id,
// staticness) to a method, with parent-inherited instance slots copied in
// at class-initialization time.
package slotmap

// Trait is the minimal surface the slot map needs from a class's trait.
// internal/classbuild's richer Trait type satisfies this.
type Trait interface {
	IsStaticTrait() bool
}

// Method is the minimal surface the slot map needs from a class's method.
type Method interface {
	IsStaticMethod() bool
}

type slotKey struct {
	id     int
	static bool
}

// Map is one class's slot/disp-id index. Create one with New; the zero
// value has nil maps and cannot record entries.
type Map struct {
	slots   map[slotKey]Trait
	methods map[slotKey]Method
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		slots:   make(map[slotKey]Trait),
		methods: make(map[slotKey]Method),
	}
}

// TryAddSlot implements `tryAddSlot(slotId, trait)`. A non-positive slotId
// is ignored (returns true without recording anything, per spec.md §4.B);
// an already-occupied (id, staticness) key returns false.
func (m *Map) TryAddSlot(slotID int, t Trait) bool {
	if slotID <= 0 {
		return true
	}
	k := slotKey{id: slotID, static: t.IsStaticTrait()}
	if _, exists := m.slots[k]; exists {
		return false
	}
	m.slots[k] = t
	return true
}

// TryAddMethod implements `tryAddMethod(dispId, method)`.
func (m *Map) TryAddMethod(dispID int, meth Method) bool {
	if dispID <= 0 {
		return true
	}
	k := slotKey{id: dispID, static: meth.IsStaticMethod()}
	if _, exists := m.methods[k]; exists {
		return false
	}
	m.methods[k] = meth
	return true
}

// GetSlot implements `getSlot(slotId, isStatic)`.
func (m *Map) GetSlot(slotID int, isStatic bool) (Trait, bool) {
	t, ok := m.slots[slotKey{id: slotID, static: isStatic}]
	return t, ok
}

// GetMethodByDispID implements `getMethodByDispId(dispId, isStatic)`.
func (m *Map) GetMethodByDispID(dispID int, isStatic bool) (Method, bool) {
	meth, ok := m.methods[slotKey{id: dispID, static: isStatic}]
	return meth, ok
}

// AddParentSlots implements `addParentSlots(parentMap)`: copies only the
// parent's instance (non-static) slot entries. Disp-ids for inherited
// virtual methods are looked up through the declaring class, not copied
// here — only field/const slots participate in instance-slot inheritance.
func (m *Map) AddParentSlots(parent *Map) {
	if parent == nil {
		return
	}
	for k, t := range parent.slots {
		if !k.static {
			m.slots[k] = t
		}
	}
}
