// Package backend fixes the external interfaces spec.md §6 names but does
// not itself implement: the target-assembly writer/loader and the
// per-method IR/codegen compiler. Only their inputs/outputs are specified
// here (spec.md §1 Non-goals); a real implementation lives outside this
// module's scope and is injected through these interfaces.
package backend

import "github.com/jfd16/mariana/internal/abc"

// TypeHandle, FieldHandle, MethodHandle and CtorHandle are the stable
// assembly-metadata handles spec.md §6 calls getEntityHandle. They are
// opaque to the core — it never inspects their internals, only threads
// them through to later emission/back-patch calls.
type (
	TypeHandle   int
	FieldHandle  int
	MethodHandle int
	CtorHandle   int
)

const InvalidHandle = -1

// TypeKind distinguishes the handful of target type shapes the core emits.
type TypeKind int

const (
	TypeClass TypeKind = iota
	TypeInterface
	TypeValueType // used for catch-scope/activation/scope-container synthetics when eligible
)

// TypeAttrs carries the AVM2-derived flags a DefineType call needs.
type TypeAttrs struct {
	Sealed    bool
	Final     bool
	Dynamic   bool
	Interface bool
}

// Signature mirrors spec.md §3's "Method signature": the shape a target
// method/ctor handle is defined with.
type Signature struct {
	HasReturn bool
	// ReturnType is InvalidHandle for void.
	ReturnType  TypeHandle
	Params      []ParamSig
	HasRest     bool
}

// ParamSig is one formal parameter of a Signature.
type ParamSig struct {
	Name       string
	Type       TypeHandle
	IsOptional bool
}

// RequiredParamCount mirrors abc.MethodInfo.RequiredParamCount for target
// signatures built during emission.
func (s Signature) RequiredParamCount() int {
	n := 0
	for _, p := range s.Params {
		if p.IsOptional {
			break
		}
		n++
	}
	return n
}

// AssemblyBuilder is the subset of the target-assembly writer the core
// drives while emitting types, fields, methods and their bodies. A real
// writer serializes type/method/signature metadata and code (spec.md §1);
// this module only depends on the interface.
type AssemblyBuilder interface {
	DefineType(name string, kind TypeKind, attrs TypeAttrs, parent TypeHandle, interfaces []TypeHandle) TypeHandle
	DefineField(owner TypeHandle, name string, fieldType TypeHandle, static, readOnly bool) FieldHandle
	DefineMethod(owner TypeHandle, name string, sig Signature, static, virtual, final bool) MethodHandle
	DefineCtor(owner TypeHandle, sig Signature) CtorHandle

	// SetMethodBody installs the verified instruction stream a
	// MethodCompiler produced for a method or constructor handle.
	SetMethodBody(handle interface{}, body MethodBuilder)

	// SetOverride records that `derived` overrides `base`.
	SetOverride(derived, base MethodHandle)
	// SetInterfaceImpl records that `class` satisfies `iface`'s method
	// `ifaceMethod` via `impl`.
	SetInterfaceImpl(class, iface TypeHandle, ifaceMethod, impl MethodHandle)

	// Finish serializes the accumulated image.
	Finish(assemblyName string) ([]byte, error)
}

// MethodBuilder is the opaque per-method output handle a MethodCompiler
// fills in; the core never reads its contents, only passes it along.
type MethodBuilder struct {
	Instructions []byte
	Locals       int
	MaxStack     int
}

// ScopeItemRef describes one item of a captured scope as the backend sees
// it: either a reference to an already-emitted scope-container field, or a
// well-known constant-pool slot (GLOBAL/CLASS items).
type ScopeItemRef struct {
	ContainerField FieldHandle
	IsConstantSlot bool
	ConstantIndex  int
}

// CapturedScopeRef is what the core passes a MethodCompiler as the
// compiled method's captured scope (spec.md §6 "capturedScope" input).
type CapturedScopeRef struct {
	ContainerType TypeHandle
	Items         []ScopeItemRef
}

// MethodRole flags which of the four scheduler phases a method belongs to
// (spec.md §4.I).
type MethodRole int

const (
	RoleScriptInit MethodRole = iota
	RoleStaticInit
	RoleInstanceOrStatic
	RoleScopedClosure
)

// CompileTarget is what the core hands the per-method compiler: the ABC
// method or constructor to compile, into which output handle.
type CompileTarget struct {
	Method *abc.MethodInfo
	Output interface{} // MethodHandle or CtorHandle
	Scope  *CapturedScopeRef
	Role   MethodRole
}

// MethodCompiler is the single operation the per-method IR/codegen backend
// exposes (spec.md §6). It reads bytecode through abc.File.GetMethodBody
// and writes verified target bytecode into target.Output via the
// AssemblyBuilder.SetMethodBody call.
type MethodCompiler interface {
	Compile(file *abc.File, target CompileTarget, asm AssemblyBuilder) error
}

// Loader is the caller-supplied callback that loads emitted image bytes
// (spec.md §6 `assemblyLoader` option). The returned LoadedAssembly's
// Name, Version and ModuleVersion must match what was emitted, or
// finalize.Finalizer rejects it (LDR001).
type Loader interface {
	Load(image []byte) (LoadedAssembly, error)
}

// LoadedAssembly is the minimal surface the Finalizer needs back from a
// loaded assembly to back-patch staged traits and run entry points.
type LoadedAssembly struct {
	Name          string
	Version       string
	ModuleVersion string

	// ResolveType/ResolveMethod/ResolveField/ResolveCtor map the handles
	// the core minted during emission to the loader's runtime objects.
	ResolveType   func(TypeHandle) any
	ResolveMethod func(MethodHandle) any
	ResolveField  func(FieldHandle) any
	ResolveCtor   func(CtorHandle) any

	// Invoke runs a script entry point (a static initializer with no
	// arguments) by method handle, surfacing its error unwrapped from any
	// nested type-initialization wrapper (spec.md §4.J, §7).
	Invoke func(MethodHandle) error
}
