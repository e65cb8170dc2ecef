// Package globals implements the Global Trait Stager (spec.md §4.F): a
// staging table for the traits declared by the current compilation,
// layered in front of a host application domain, with a configurable
// name-conflict policy.
//
// Stager is not safe for concurrent use on its own; see capscope's
// package doc (spec.md §5 — staging lookups and inserts are serialized
// behind the owning context's single lock along with every other
// lazy-creation cache).
package globals

import "github.com/jfd16/mariana/internal/abc"

// ConflictPolicy controls what happens when a newly staged trait's
// multiname already resolves to something, either in the staging table
// or in the application domain (spec.md §4.F).
type ConflictPolicy int

const (
	// FAIL rejects the new definition unconditionally.
	FAIL ConflictPolicy = iota
	// USE_CHILD lets the current compilation's definition win, hiding
	// the domain's existing binding.
	USE_CHILD
	// USE_PARENT keeps the existing (domain or earlier-staged)
	// definition and rejects the new one.
	USE_PARENT
)

// Domain is the host application-domain lookup surface this package
// layers staging in front of. cmd/marianac's memDomain satisfies this;
// tests use a fake.
type Domain interface {
	// Lookup resolves a QName against the domain. found reports whether
	// anything matched; inherited reports whether the match came from a
	// parent domain (only meaningful when found is true).
	Lookup(q abc.QName) (trait any, found bool, inherited bool)
}

// Script identifies the ABC script_info that declared a staged trait,
// used to detect the same-script unconditional-failure rule.
type Script = *abc.ScriptInfo

type staged struct {
	trait  any
	script Script
}

// table is keyed directly by abc.QName, which embeds a *Namespace
// pointer. This relies on namespaces being pointer-interned in the
// owning ABC file's namespace pool (the parser never allocates two
// distinct *Namespace values for the same logical namespace), the same
// assumption constpool's identity-keyed class/trait pools make.

// Stager holds the staging table for one compilation.
type Stager struct {
	domain          Domain
	includeInherited bool
	policy          ConflictPolicy

	table map[abc.QName]staged
}

// New returns a Stager layered over domain. includeInherited controls
// whether Lookup's domain leg considers traits the domain inherited
// from a parent domain; policy is the conflict-resolution rule applied
// when a Stage call's multiname already resolves to something.
func New(domain Domain, includeInherited bool, policy ConflictPolicy) *Stager {
	return &Stager{
		domain:           domain,
		includeInherited: includeInherited,
		policy:           policy,
		table:            make(map[abc.QName]staged),
	}
}

// LookupResult is the outcome of a three-way Lookup.
type LookupResult struct {
	Trait     any
	Found     bool
	Ambiguous bool
}

// Lookup implements the three-way resolution of spec.md §4.F: check the
// staging table, then the application domain (honoring
// includeInherited). A multiname that matches in both tables but under
// different namespaces is reported Ambiguous rather than resolved.
func (s *Stager) Lookup(mn *abc.Multiname, candidates []*abc.Namespace) LookupResult {
	var stagedHit *abc.QName
	var stagedTrait any
	for _, ns := range candidates {
		q := abc.QName{NS: ns, Local: mn.Local}
		if st, ok := s.table[q]; ok {
			qCopy := q
			stagedHit = &qCopy
			stagedTrait = st.trait
			break
		}
	}

	var domainHit *abc.QName
	var domainTrait any
	for _, ns := range candidates {
		q := abc.QName{NS: ns, Local: mn.Local}
		trait, found, inherited := s.domain.Lookup(q)
		if found && (!inherited || s.includeInherited) {
			qCopy := q
			domainHit = &qCopy
			domainTrait = trait
			break
		}
	}

	switch {
	case stagedHit != nil && domainHit != nil:
		if !stagedHit.Equal(*domainHit) {
			return LookupResult{Ambiguous: true}
		}
		return LookupResult{Trait: stagedTrait, Found: true}
	case stagedHit != nil:
		return LookupResult{Trait: stagedTrait, Found: true}
	case domainHit != nil:
		return LookupResult{Trait: domainTrait, Found: true}
	default:
		return LookupResult{}
	}
}

// StageResult reports the outcome of a Stage call.
type StageResult int

const (
	StageOK StageResult = iota
	StageRejected
)

// Stage implements `stage(qname, trait, script)`: records trait under
// qname in the staging table, applying the conflict policy (spec.md
// §4.F) against whatever already resolves there — staged-by-another or
// domain-resident. Two conflicting traits declared by the same script
// always fail, regardless of policy.
func (s *Stager) Stage(q abc.QName, trait any, script Script) StageResult {
	if existing, ok := s.table[q]; ok {
		if existing.script != nil && script != nil && existing.script == script {
			return StageRejected
		}
		return s.resolveConflict(q, trait, script)
	}

	if _, found, inherited := s.domain.Lookup(q); found && (!inherited || s.includeInherited) {
		return s.resolveConflict(q, trait, script)
	}

	s.table[q] = staged{trait: trait, script: script}
	return StageOK
}

// resolveConflict applies the configured policy once a conflict (with
// either an existing staged entry or a domain-resident trait) has been
// detected.
func (s *Stager) resolveConflict(q abc.QName, trait any, script Script) StageResult {
	if s.policy != USE_CHILD {
		return StageRejected
	}
	s.table[q] = staged{trait: trait, script: script}
	return StageOK
}

// StagedTraits returns every trait currently staged, for the
// Finalizer's commit-to-domain pass (spec.md §4.J).
func (s *Stager) StagedTraits() map[abc.QName]any {
	out := make(map[abc.QName]any, len(s.table))
	for q, st := range s.table {
		out[q] = st.trait
	}
	return out
}
