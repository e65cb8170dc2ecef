// Package abc defines the input data model the compilation core reads: a
// parsed ABC (ActionScript Byte Code) file's index-addressed pools (spec.md
// §3). The byte-stream parser itself is a non-core collaborator — this
// package only fixes the shape of what it hands us.
package abc

import "fmt"

// NamespaceKind enumerates the AVM2 namespace kinds.
type NamespaceKind uint8

const (
	NSKindNamespace NamespaceKind = iota
	NSKindPackage
	NSKindPackageInternal
	NSKindProtected
	NSKindExplicit
	NSKindStaticProtected
	NSKindPrivate
	NSKindAny
)

// Namespace is one entry of the ABC namespace pool.
type Namespace struct {
	Kind NamespaceKind
	URI  string
	// PrivateID distinguishes otherwise-identical private namespaces
	// (AVM2 private namespaces are unique per declaration, not per URI).
	PrivateID int
}

// IsAny reports whether this is the wildcard "any namespace" entry.
func (n Namespace) IsAny() bool { return n.Kind == NSKindAny }

// NamespaceSet is one entry of the ABC namespace_set pool: an unordered set
// of candidate namespaces for a multiname.
type NamespaceSet struct {
	Namespaces []*Namespace
}

// MultinameKind enumerates the variant multiname encodings.
type MultinameKind uint8

const (
	MNQName MultinameKind = iota
	MNQNameA
	MNMultiname
	MNMultinameA
	MNRTQName
	MNRTQNameA
	MNRTQNameL
	MNRTQNameLA
	MNMultinameL
	MNMultinameLA
	MNTypeName // generic instantiation: Def<Args...>
)

// IsRuntimeQualified reports whether resolving this multiname requires a
// namespace (and/or name) supplied on the scope stack at run time. These
// are disallowed in most static-resolution contexts (spec.md §3).
func (k MultinameKind) IsRuntimeQualified() bool {
	switch k {
	case MNRTQName, MNRTQNameA, MNRTQNameL, MNRTQNameLA:
		return true
	}
	return false
}

// Multiname is one entry of the ABC multiname pool.
type Multiname struct {
	Kind MultinameKind

	// Single-namespace variants (QName, QNameA, RTQName, RTQNameA).
	NS *Namespace

	// Namespace-set variants (Multiname, MultinameA, MultinameL, MultinameLA).
	NSSet *NamespaceSet

	// Local name; empty for the "L" (late-bound name) variants.
	Local string

	// TypeName: the generic definition multiname and its type arguments.
	// Only meaningful when Kind == MNTypeName.
	GenericDef  *Multiname
	GenericArgs []*Multiname
}

// QName is a single resolved name: exactly one namespace plus a local name.
// Produced by resolving a Multiname against a scope, or directly from a
// MNQName/MNQNameA entry.
type QName struct {
	NS    *Namespace
	Local string
}

func (q QName) Equal(o QName) bool {
	if q.Local != o.Local {
		return false
	}
	if q.NS == nil || o.NS == nil {
		return q.NS == o.NS
	}
	return q.NS.Kind == o.NS.Kind && q.NS.URI == o.NS.URI && q.NS.PrivateID == o.NS.PrivateID
}

// TraitKind enumerates the ABC trait_info kinds.
type TraitKind uint8

const (
	TraitSlot TraitKind = iota
	TraitMethod
	TraitGetter
	TraitSetter
	TraitClass
	TraitFunction
	TraitConst
)

// TraitInfo is one raw ABC trait record, attached either to a class_info's
// instance/static trait list or to a script_info's trait list.
type TraitInfo struct {
	Name QName
	Kind TraitKind

	// Slot/Const
	SlotID     int // 1-based; 0 means none (the slot map ignores non-positive ids)
	TypeName   *Multiname
	ValueIndex int // index into the appropriate constant pool, or -1
	ValueKind  ConstKind

	// Method/Getter/Setter/Function
	DispID     int // 1-based; 0 means none (the slot map ignores non-positive ids)
	MethodInfo *MethodInfo
	IsFinal    bool
	IsOverride bool

	// Class
	ClassInfo *ClassInfo

	Metadata []Metadata
}

// Metadata is an ABC metadata_info record attached to a trait or class.
type Metadata struct {
	Name  string
	Items map[string]string
}

// ConstKind enumerates the constant-pool a default value index refers into.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstUInt
	ConstDouble
	ConstUTF8
	ConstTrue
	ConstFalse
	ConstNull
	ConstUndefined
	ConstNamespace
)

// NullValue represents an explicit ABC `null` default, distinguished
// from Go's nil (which this module's coercion table reserves for
// `undefined`, spec.md §4.H).
type NullValue struct{}

// Param describes one formal parameter of a method signature.
type Param struct {
	Name        string // only present when emitParamNames is honored upstream
	Type        *Multiname
	IsOptional  bool
	HasDefault  bool
	DefaultKind ConstKind
	DefaultIdx  int
}

// MethodInfo is one ABC method_info record: the signature, independent of
// whether (or how many times) it has a body.
type MethodInfo struct {
	Index      int
	Name       string
	ReturnType *Multiname // nil means untyped ("*"); HasReturn distinguishes void
	HasReturn  bool
	Params     []Param
	HasRest    bool
	NeedArguments bool // ABC NEED_ARGUMENTS flag
	NeedRest      bool // ABC NEED_REST flag
	SetsDXNS      bool

	// Body is nil for abstract/interface methods and native methods.
	Body *MethodBody
}

// RequiredParamCount returns the count of leading parameters with no
// default and not marked optional.
func (m *MethodInfo) RequiredParamCount() int {
	n := 0
	for _, p := range m.Params {
		if p.IsOptional || p.HasDefault {
			break
		}
		n++
	}
	return n
}

// ExceptionHandler is one exception_info record in a method_body.
type ExceptionHandler struct {
	From, To, Target int
	CatchType        *Multiname // nil means catch-all
	VarName          string     // empty means no bound variable
}

// MethodBody is the ABC method_body record for a method_info.
type MethodBody struct {
	Method          *MethodInfo
	MaxStack        int
	MaxScopeDepth   int
	InitScopeDepth  int
	LocalCount      int
	Code            []byte
	ExceptionTable  []ExceptionHandler
	ActivationSlots []TraitInfo // traits of the synthetic activation object, if any
}

// ClassKind enumerates the flags that distinguish an AVM2 class.
type ClassKind uint8

const (
	ClassSealed ClassKind = 0
	ClassFinal  ClassKind = 1 << iota
	ClassInterface
	ClassDynamic
)

// ClassInfo is one ABC class (instance_info + class_info pair).
type ClassInfo struct {
	Index int
	Name  QName
	Kind  ClassKind

	ProtectedNS *Namespace // nil if the class declares none

	// Parent is nil for interfaces and for Object itself.
	Parent *Multiname

	// Interfaces are the multinames declared directly on this class
	// (not the transitive closure — that is computed by classbuild).
	Interfaces []*Multiname

	InstanceTraits []TraitInfo
	StaticTraits   []TraitInfo

	InstanceCtor *MethodInfo
	ClassInit    *MethodInfo // static initializer

	Metadata []Metadata
}

func (c *ClassInfo) IsInterface() bool { return c.Kind&ClassInterface != 0 }
func (c *ClassInfo) IsFinal() bool     { return c.Kind&ClassFinal != 0 }
func (c *ClassInfo) IsDynamic() bool   { return c.Kind&ClassDynamic != 0 }

// ScriptInfo is one ABC script_info record: a top-level init method plus
// the global traits it declares.
type ScriptInfo struct {
	Index  int
	Init   *MethodInfo
	Traits []TraitInfo
}

// File is a fully-parsed ABC file: the pools the rest of this module reads
// by index. The concrete byte-stream parser that produces one is out of
// scope (spec.md §1); tests construct File literals directly.
type File struct {
	Name    string
	Classes []*ClassInfo
	Scripts []*ScriptInfo
	Methods []*MethodInfo

	// Ints, UInts, Doubles and Strings are the constant pools a Slot/
	// Const TraitInfo's ValueIndex selects into, according to ValueKind.
	Ints    []int32
	UInts   []uint32
	Doubles []float64
	Strings []string

	namespaces    []*Namespace
	namespaceSets []*NamespaceSet
}

// ResolveConst dereferences a (kind, index) default-value reference into
// the Go value spec.md §4.H's coercion table expects: int32/uint32/
// float64/string/bool for the typed pools, NullValue{} for an explicit
// ABC `null`, and nil for `undefined` or "no default at all".
func (f *File) ResolveConst(kind ConstKind, index int) (any, error) {
	switch kind {
	case ConstNone, ConstUndefined:
		return nil, nil
	case ConstInt:
		if index < 0 || index >= len(f.Ints) {
			return nil, fmt.Errorf("int constant index %d out of range", index)
		}
		return f.Ints[index], nil
	case ConstUInt:
		if index < 0 || index >= len(f.UInts) {
			return nil, fmt.Errorf("uint constant index %d out of range", index)
		}
		return f.UInts[index], nil
	case ConstDouble:
		if index < 0 || index >= len(f.Doubles) {
			return nil, fmt.Errorf("double constant index %d out of range", index)
		}
		return f.Doubles[index], nil
	case ConstUTF8:
		if index < 0 || index >= len(f.Strings) {
			return nil, fmt.Errorf("string constant index %d out of range", index)
		}
		return f.Strings[index], nil
	case ConstTrue:
		return true, nil
	case ConstFalse:
		return false, nil
	case ConstNull:
		return NullValue{}, nil
	default:
		return nil, fmt.Errorf("unsupported default-value kind %d", kind)
	}
}

// GetMethodBody returns the parsed body for a method_info, or nil if the
// method has none (interface/native method). This is the accessor the
// per-method IR/codegen collaborator uses (spec.md §6).
func (f *File) GetMethodBody(m *MethodInfo) *MethodBody {
	if m == nil {
		return nil
	}
	return m.Body
}

// EntryScript returns the last script_info in the file, which AVM2
// designates as the SWF's entry point (spec.md §4.J, RUN_ENTRY_POINTS).
func (f *File) EntryScript() *ScriptInfo {
	if len(f.Scripts) == 0 {
		return nil
	}
	return f.Scripts[len(f.Scripts)-1]
}
