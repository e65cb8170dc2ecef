// Package helpers implements the Helper Emitter (spec.md §4.D): lazily
// synthesized small variadic helpers keyed by arity, used to avoid
// per-call-site inline code bloat for the three common N-ary ABC
// operations (newarray, newobject, argument packing).
//
// Emitter is not safe for concurrent use on its own; see capscope's
// package doc for why (spec.md §5 — one context-level lock covers every
// lazy-creation cache, this one included).
package helpers

import "github.com/jfd16/mariana/internal/backend"

// Family names one of the three helper families.
type Family int

const (
	NewArray Family = iota
	NewObject
	ArgArray
)

// MaxArity is the highest arity each family will synthesize a dedicated
// helper for; above it, callers fall back to open-coded emission rather
// than growing the helper container without bound.
const MaxArity = 8

// Emitter lazily creates one helper-container type (created on first use
// of any family) and, within it, one method per (family, arity) pair
// actually requested.
type Emitter struct {
	asm       backend.AssemblyBuilder
	container backend.TypeHandle
	methods   map[famArity]backend.MethodHandle
	anyType   backend.TypeHandle
}

type famArity struct {
	fam   Family
	arity int
}

// New returns an Emitter that will lazily define its container type in
// asm, using anyType as the target assembly's "any"/untyped value type for
// the families whose elements/results are untyped.
func New(asm backend.AssemblyBuilder, anyType backend.TypeHandle) *Emitter {
	return &Emitter{
		asm:       asm,
		container: backend.InvalidHandle,
		methods:   make(map[famArity]backend.MethodHandle),
		anyType: anyType,
	}
}

func (e *Emitter) ensureContainer() backend.TypeHandle {
	if e.container == backend.InvalidHandle && len(e.methods) == 0 {
		e.container = e.asm.DefineType("<Helpers>", backend.TypeClass, backend.TypeAttrs{Sealed: true, Final: true}, backend.InvalidHandle, nil)
	}
	return e.container
}

func familyMethodName(fam Family, arity int) string {
	switch fam {
	case NewArray:
		return arrayName(arity)
	case NewObject:
		return objectName(arity)
	default:
		return argArrayName(arity)
	}
}

func arrayName(n int) string    { return namePrefix("newarray", n) }
func objectName(n int) string   { return namePrefix("newobject", n) }
func argArrayName(n int) string { return namePrefix("argarray", n) }

func namePrefix(base string, n int) string {
	digits := [10]byte{}
	i := len(digits)
	if n == 0 {
		i--
		digits[i] = '0'
	}
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return base + string(digits[i:])
}

// GetOrCreate returns the method handle for the (family, arity) helper,
// defining it on first request. Callers above MaxArity should not call
// this — they open-code instead (spec.md §4.D).
func (e *Emitter) GetOrCreate(fam Family, arity int) backend.MethodHandle {
	k := famArity{fam, arity}
	if h, ok := e.methods[k]; ok {
		return h
	}

	container := e.ensureContainer()
	sig := e.signatureFor(fam, arity)
	h := e.asm.DefineMethod(container, familyMethodName(fam, arity), sig, true, false, true)
	e.methods[k] = h
	return h
}

func (e *Emitter) signatureFor(fam Family, arity int) backend.Signature {
	switch fam {
	case NewArray, ArgArray:
		params := make([]backend.ParamSig, arity)
		for i := range params {
			params[i] = backend.ParamSig{Type: e.anyType}
		}
		return backend.Signature{HasReturn: true, ReturnType: e.anyType, Params: params}
	default: // NewObject: arity key/value pairs
		params := make([]backend.ParamSig, arity*2)
		for i := range params {
			params[i] = backend.ParamSig{Type: e.anyType}
		}
		return backend.Signature{HasReturn: true, ReturnType: e.anyType, Params: params}
	}
}
