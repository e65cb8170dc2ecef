// Package constpool implements the Constant Pool (spec.md §4.E): interned,
// indexed collections for classes, traits, namespaces, qualified names
// (internal and language-visible variants), namespace sets and regex
// slots, plus the static-initializer plan that materializes them at
// runtime.
//
// Pool is not safe for concurrent use on its own; see capscope's package
// doc (spec.md §5 — interning is one of the operations serialized behind
// the owning context's single lock).
package constpool

import "github.com/jfd16/mariana/internal/abc"

type nsKey struct {
	kind abc.NamespaceKind
	uri  string
	id   int
}

func keyOfNS(ns *abc.Namespace) nsKey {
	if ns == nil {
		return nsKey{}
	}
	return nsKey{kind: ns.Kind, uri: ns.URI, id: ns.PrivateID}
}

type qnameKey struct {
	ns    nsKey
	local string
}

func keyOfQName(q abc.QName) qnameKey {
	return qnameKey{ns: keyOfNS(q.NS), local: q.Local}
}

// RegexSlot is one interned regex constant: pattern + flags, materialized
// lazily at first use (spec.md §4.E point 5).
type RegexSlot struct {
	Pattern string
	Flags   string
}

// Pool holds the seven interned sets plus the flattened namespace-set
// pool.
type Pool struct {
	classes    []any
	classIdx   map[any]int
	traits     []any
	traitIdx   map[any]int

	internalNS []*abc.Namespace
	internalNSIdx map[nsKey]int
	langNS     []*abc.Namespace
	langNSIdx  map[nsKey]int

	internalQName []abc.QName
	internalQNameIdx map[qnameKey]int
	langQName     []abc.QName
	langQNameIdx  map[qnameKey]int

	// nsSets stores each set's member namespace indices in input order;
	// NamespaceSetLengths/NamespaceSetIndices flatten this at emission
	// time into the two parallel arrays spec.md §4.E describes.
	nsSets    [][]int
	nsSetIdx  map[string]int

	regexSlots []RegexSlot
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		classIdx:         make(map[any]int),
		traitIdx:         make(map[any]int),
		internalNSIdx:    make(map[nsKey]int),
		langNSIdx:        make(map[nsKey]int),
		internalQNameIdx: make(map[qnameKey]int),
		langQNameIdx:     make(map[qnameKey]int),
		nsSetIdx:         make(map[string]int),
	}
}

// GetClassIndex implements `getIndex(class)`, interning by identity.
func (p *Pool) GetClassIndex(class any) int {
	if idx, ok := p.classIdx[class]; ok {
		return idx
	}
	idx := len(p.classes)
	p.classes = append(p.classes, class)
	p.classIdx[class] = idx
	return idx
}

// GetTraitIndex implements `getIndex(trait)`, interning by identity.
func (p *Pool) GetTraitIndex(trait any) int {
	if idx, ok := p.traitIdx[trait]; ok {
		return idx
	}
	idx := len(p.traits)
	p.traits = append(p.traits, trait)
	p.traitIdx[trait] = idx
	return idx
}

// GetNamespaceIndex implements `getIndex(namespace)`: the internal-variant
// pool, used for namespaces never surfaced in language-visible metadata.
func (p *Pool) GetNamespaceIndex(ns *abc.Namespace) int {
	return intern(ns, keyOfNS(ns), &p.internalNS, p.internalNSIdx)
}

// GetLanguageVisibleNamespaceIndex implements the language-visible
// namespace variant (emitted when emitPropertyDefinitions is set).
func (p *Pool) GetLanguageVisibleNamespaceIndex(ns *abc.Namespace) int {
	return intern(ns, keyOfNS(ns), &p.langNS, p.langNSIdx)
}

func intern(ns *abc.Namespace, k nsKey, slice *[]*abc.Namespace, idx map[nsKey]int) int {
	if i, ok := idx[k]; ok {
		return i
	}
	i := len(*slice)
	*slice = append(*slice, ns)
	idx[k] = i
	return i
}

// GetQNameIndex implements `getIndex(qname)`: the internal-variant pool.
func (p *Pool) GetQNameIndex(q abc.QName) int {
	return internQName(q, &p.internalQName, p.internalQNameIdx)
}

// GetLanguageVisibleQNameIndex implements the language-visible qname
// variant.
func (p *Pool) GetLanguageVisibleQNameIndex(q abc.QName) int {
	return internQName(q, &p.langQName, p.langQNameIdx)
}

func internQName(q abc.QName, slice *[]abc.QName, idx map[qnameKey]int) int {
	k := keyOfQName(q)
	if i, ok := idx[k]; ok {
		return i
	}
	i := len(*slice)
	*slice = append(*slice, q)
	idx[k] = i
	return i
}

// AddNamespaceSet implements `addNamespaceSet(nsSet)`: interns the set of
// namespaces (each individually interned into the internal-namespace
// pool first) and returns its stable index into the flattened pool.
func (p *Pool) AddNamespaceSet(nsSet *abc.NamespaceSet) int {
	members := make([]int, len(nsSet.Namespaces))
	for i, ns := range nsSet.Namespaces {
		members[i] = p.GetNamespaceIndex(ns)
	}
	key := string(encodeInts(members))
	if idx, ok := p.nsSetIdx[key]; ok {
		return idx
	}
	idx := len(p.nsSets)
	p.nsSets = append(p.nsSets, members)
	p.nsSetIdx[key] = idx
	return idx
}

func encodeInts(xs []int) []byte {
	b := make([]byte, 0, len(xs)*4)
	for _, x := range xs {
		b = append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	return b
}

// AddRegExpSlot implements `addRegExpSlot(pattern, flags)`.
func (p *Pool) AddRegExpSlot(pattern, flags string) int {
	for i, s := range p.regexSlots {
		if s.Pattern == pattern && s.Flags == flags {
			return i
		}
	}
	idx := len(p.regexSlots)
	p.regexSlots = append(p.regexSlots, RegexSlot{Pattern: pattern, Flags: flags})
	return idx
}

// Counts reports the final size of every pool, for the static
// initializer's array-allocation step.
type Counts struct {
	Classes, Traits                   int
	InternalNamespaces, LangNamespaces int
	InternalQNames, LangQNames         int
	NamespaceSets, Regex               int
}

func (p *Pool) Counts() Counts {
	return Counts{
		Classes:            len(p.classes),
		Traits:             len(p.traits),
		InternalNamespaces: len(p.internalNS),
		LangNamespaces:     len(p.langNS),
		InternalQNames:     len(p.internalQName),
		LangQNames:         len(p.langQName),
		NamespaceSets:      len(p.nsSets),
		Regex:              len(p.regexSlots),
	}
}

// NamespaceSetArrays flattens the ns-set pool into the two parallel arrays
// spec.md §4.E describes: per-set length, and concatenated member
// namespace indices, using the internal-namespace pool.
func (p *Pool) NamespaceSetArrays() (lengths []int, indices []int) {
	lengths = make([]int, len(p.nsSets))
	for i, members := range p.nsSets {
		lengths[i] = len(members)
		indices = append(indices, members...)
	}
	return lengths, indices
}

// LargestNamespaceSet returns the size of the biggest interned namespace
// set, used to size the scratch array the static initializer reuses while
// initializing every set (spec.md §4.E point 4).
func (p *Pool) LargestNamespaceSet() int {
	max := 0
	for _, s := range p.nsSets {
		if len(s) > max {
			max = len(s)
		}
	}
	return max
}

// Classes/Traits/InternalNamespaces/... expose the interned values in
// index order, for the Finalizer's back-patch pass (spec.md §4.J).
func (p *Pool) Classes() []any              { return p.classes }
func (p *Pool) Traits() []any               { return p.traits }
func (p *Pool) InternalNamespaces() []*abc.Namespace { return p.internalNS }
func (p *Pool) LangNamespaces() []*abc.Namespace     { return p.langNS }
func (p *Pool) InternalQNames() []abc.QName          { return p.internalQName }
func (p *Pool) LangQNames() []abc.QName              { return p.langQName }
func (p *Pool) RegexSlots() []RegexSlot              { return p.regexSlots }
