package constpool

import "github.com/jfd16/mariana/internal/abc"

// NSCtorKind is the most-specific namespace constructor available for a
// given namespace value, chosen to minimize the static initializer's
// per-entry argument count (spec.md §4.E point 2).
type NSCtorKind int

const (
	NSCtorAny NSCtorKind = iota
	NSCtorPrivateByID
	NSCtorURIOnly
	NSCtorKindAndURI
)

// MostSpecificNSCtor picks the narrowest constructor that reproduces ns.
func MostSpecificNSCtor(ns *abc.Namespace) NSCtorKind {
	switch {
	case ns == nil || ns.IsAny():
		return NSCtorAny
	case ns.Kind == abc.NSKindPrivate:
		return NSCtorPrivateByID
	case ns.Kind == abc.NSKindPackage:
		return NSCtorURIOnly
	default:
		return NSCtorKindAndURI
	}
}

// QNameHasFastPath reports whether q can use the "public name" fast-path
// constructor (spec.md §4.E point 3): a package-namespace QName needs only
// its local name plus the well-known public-namespace singleton, instead
// of constructing a fresh namespace argument.
func QNameHasFastPath(q abc.QName) bool {
	return q.NS != nil && q.NS.Kind == abc.NSKindPackage && q.NS.URI == ""
}

// StepKind enumerates the ordered operations in the static-initializer
// plan. The exact instruction encoding of each step belongs to the target
// backend (spec.md §1 Non-goals); this plan fixes their *order* and the
// *data* each step needs, which is the part spec.md §4.E actually
// specifies.
type StepKind int

const (
	StepAllocArrays StepKind = iota
	StepInitNamespace
	StepInitQName
	StepInitNamespaceSet
	StepRegexSlotsNil
)

// Step is one entry of the ordered static-initializer plan.
type Step struct {
	Kind StepKind

	// StepAllocArrays
	Counts Counts

	// StepInitNamespace
	NSIndex    int
	NSCtor     NSCtorKind
	Namespace  *abc.Namespace
	LangVisible bool

	// StepInitQName
	QNameIndex int
	QNameFast  bool
	QName      abc.QName

	// StepInitNamespaceSet
	SetIndex   int
	SetMembers []int

	// StepRegexSlotsNil
	RegexCount int
}

// Plan builds the ordered static-initializer plan (spec.md §4.E points
// 1-5):
//  1. allocate arrays sized to final counts;
//  2. initialize namespaces in reverse order, most-specific ctor first;
//  3. initialize qnames similarly, with a public-name fast path;
//  4. initialize namespace sets reusing one scratch array sized to the
//     largest set;
//  5. leave regex slots null.
func (p *Pool) Plan() []Step {
	var steps []Step

	steps = append(steps, Step{Kind: StepAllocArrays, Counts: p.Counts()})

	for i := len(p.internalNS) - 1; i >= 0; i-- {
		ns := p.internalNS[i]
		steps = append(steps, Step{Kind: StepInitNamespace, NSIndex: i, NSCtor: MostSpecificNSCtor(ns), Namespace: ns})
	}
	for i := len(p.langNS) - 1; i >= 0; i-- {
		ns := p.langNS[i]
		steps = append(steps, Step{Kind: StepInitNamespace, NSIndex: i, NSCtor: MostSpecificNSCtor(ns), Namespace: ns, LangVisible: true})
	}

	for i := len(p.internalQName) - 1; i >= 0; i-- {
		q := p.internalQName[i]
		steps = append(steps, Step{Kind: StepInitQName, QNameIndex: i, QNameFast: QNameHasFastPath(q), QName: q})
	}
	for i := len(p.langQName) - 1; i >= 0; i-- {
		q := p.langQName[i]
		steps = append(steps, Step{Kind: StepInitQName, QNameIndex: i, QNameFast: QNameHasFastPath(q), QName: q, LangVisible: true})
	}

	for i, members := range p.nsSets {
		steps = append(steps, Step{Kind: StepInitNamespaceSet, SetIndex: i, SetMembers: members})
	}

	steps = append(steps, Step{Kind: StepRegexSlotsNil, RegexCount: len(p.regexSlots)})

	return steps
}
