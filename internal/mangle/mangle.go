// Package mangle implements the Name Mangler (spec.md §4.A): a pure
// function from AVM2 qualified names to target-assembly identifiers.
//
// AVM2 local names are arbitrary UTF-8 and may contain characters the
// target identifier grammar forbids, or differ only by Unicode
// normalization form. Every local name is NFC-normalized before mangling,
// the same approach internal/lexer/normalize.go takes at its lexer
// boundary, to guarantee that visually-identical names never collide or
// diverge after round-tripping through different encodings.
package mangle

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jfd16/mariana/internal/abc"
)

// internalNS is a marker no AVM2 source can ever express through any
// namespace kind, used to build synthetic names (containers, stubs,
// catch-scope/activation classes) that can never collide with a user name.
const internalNS = "\x00mariana-internal\x00"

// Mangler maps QNames to target identifiers. It is stateless except for a
// counter used to keep synthetic anonymous-function names unique within a
// compile; two Manglers never need to agree, so it carries no shared lock.
type Mangler struct {
	anonCounter int
}

// New returns a ready-to-use Mangler.
func New() *Mangler { return &Mangler{} }

func normalizeLocal(local string) string {
	b := []byte(local)
	if !norm.NFC.IsNormal(b) {
		b = norm.NFC.Bytes(b)
	}
	return string(b)
}

// sanitize replaces every rune the target identifier grammar forbids with
// an escape sequence, so the result is always a valid bare identifier.
// Escaping is unambiguous (no two distinct inputs produce the same output)
// because '_' itself is escaped whenever it would otherwise be ambiguous
// with an escape marker.
func sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_':
			b.WriteString("_u5F_")
		case i == 0 && !isIdentStart(r):
			fmt.Fprintf(&b, "_u%X_", r)
		case i > 0 && !isIdentCont(r):
			fmt.Fprintf(&b, "_u%X_", r)
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "_empty_"
	}
	return b.String()
}

func isIdentStart(r rune) bool {
	return r == '$' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// nsTag produces a short, collision-free tag for a namespace so that two
// QNames with the same local name in different namespaces mangle to
// different identifiers. Package namespaces (by far the common case) tag
// with their URI directly; everything else (protected, private, explicit,
// any) tags with a hash of kind+URI+private-id so synthetic and
// user-expressible namespaces can never collide (spec.md §4.A contract).
func nsTag(ns *abc.Namespace) string {
	if ns == nil {
		return ""
	}
	switch ns.Kind {
	case abc.NSKindPackage:
		if ns.URI == "" || ns.URI == internalNS {
			return "" // internal package-less names: no tag needed, see below
		}
		return "@" + sanitize(ns.URI)
	default:
		h := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%d", ns.Kind, ns.URI, ns.PrivateID)))
		return "@" + hex.EncodeToString(h[:6])
	}
}

// createName mangles a QName into a bare member/type identifier.
func (m *Mangler) createName(q abc.QName) string {
	local := sanitize(normalizeLocal(q.Local))
	tag := nsTag(q.NS)
	if tag == "" {
		return local
	}
	return local + tag
}

// CreateName implements the `createName` operation (spec.md §4.A):
// mangles a trait's QName into its member identifier.
func (m *Mangler) CreateName(q abc.QName) string {
	return m.createName(q)
}

// CreateGetterName implements `createGetterName`.
func (m *Mangler) CreateGetterName(q abc.QName) string {
	return "get_" + m.createName(q)
}

// CreateSetterName implements `createSetterName`.
func (m *Mangler) CreateSetterName(q abc.QName) string {
	return "set_" + m.createName(q)
}

// CreateTypeName implements `createTypeName`: mangles a class QName into
// its target-assembly type name.
func (m *Mangler) CreateTypeName(q abc.QName) string {
	return m.createName(q)
}

// CreateScopeContainerName implements `createScopeContainerName(n)`: a
// synthetic captured-scope container type name, keyed by a monotonically
// increasing dedup-cache index `n` so distinct structural signatures never
// collide (spec.md §4.C).
func (m *Mangler) CreateScopeContainerName(n int) string {
	return fmt.Sprintf("<ScopeContainer>$%d", n)
}

// CreateCatchScopeClassName implements `createCatchScopeClassName(n)`.
func (m *Mangler) CreateCatchScopeClassName(n int) string {
	return fmt.Sprintf("<CatchScope>$%d", n)
}

// CreateActivationClassName implements `createActivationClassName(n)`.
func (m *Mangler) CreateActivationClassName(n int) string {
	return fmt.Sprintf("<Activation>$%d", n)
}

// CreateAnonFunctionName implements `createAnonFunctionName(n)`: used for
// closures created from the `newfunction` opcode, which have no ABC name.
func (m *Mangler) CreateAnonFunctionName(n int) string {
	return fmt.Sprintf("<anonymous>$%d", n)
}

// NextAnonFunctionName allocates and mangles the next anonymous-function
// name from this Mangler's own counter, for callers that don't maintain
// their own index (e.g. the scheduler discovering closures on the fly).
func (m *Mangler) NextAnonFunctionName() string {
	n := m.anonCounter
	m.anonCounter++
	return m.CreateAnonFunctionName(n)
}

// CreateScriptContainerName implements `createScriptContainerName(n)`: the
// synthetic type holding one ABC script's global traits.
func (m *Mangler) CreateScriptContainerName(n int) string {
	return fmt.Sprintf("<Script>$%d", n)
}

// CreateMethodImplStubName implements `createMethodImplStubName(baseType,
// base)`: the bridge method emitted at an implementing/overriding class
// when a direct override directive isn't legal (spec.md §4.H).
func (m *Mangler) CreateMethodImplStubName(baseType string, base abc.QName) string {
	return fmt.Sprintf("<stub>%s$%s", sanitize(baseType), m.createName(base))
}

// InternalNamespace is the reserved namespace used to build QNames for
// symbols that are not AVM2-expressible (e.g. the synthetic `item{i}`
// fields of a captured-scope container). It is guaranteed disjoint from
// every namespace a Multiname resolver can produce from ABC input.
var InternalNamespace = &abc.Namespace{Kind: abc.NSKindPackage, URI: internalNS}

// ItemFieldName returns the name of the i'th captured-scope-item field
// (spec.md §3, "Captured-scope container type").
func ItemFieldName(i int) string {
	return fmt.Sprintf("item%d", i)
}
