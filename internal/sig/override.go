package sig

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/classbuild"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// FindAncestorMethod implements spec.md §4.H's override protected-
// namespace walk: if name is qualified by c's own protected namespace,
// each ancestor is searched re-qualified with *that* ancestor's own
// protected namespace (AVM2's protected namespace is per-class, not
// inherited verbatim), retrying up the chain until an ancestor with no
// protected namespace of its own (a non-ABC-derived class) is reached.
// Otherwise the name is searched as-is at each ancestor.
func FindAncestorMethod(c *classbuild.Class, name abc.QName, ownProtectedNS *abc.Namespace) (*classbuild.MethodTrait, *classbuild.Class) {
	isProtected := ownProtectedNS != nil && name.NS != nil &&
		name.NS.Kind == ownProtectedNS.Kind && name.NS.URI == ownProtectedNS.URI

	for anc := c.Parent; anc != nil; anc = anc.Parent {
		lookupName := name
		if isProtected && anc.ProtectedNS != nil {
			lookupName = abc.QName{NS: anc.ProtectedNS, Local: name.Local}
		}
		if m := findMethodTrait(anc, lookupName); m != nil {
			return m, anc
		}
		if anc.Source == nil {
			break // reached a non-ABC-derived (synthetic/platform) ancestor
		}
	}
	return nil, nil
}

func findMethodTrait(c *classbuild.Class, name abc.QName) *classbuild.MethodTrait {
	for _, t := range c.InstanceTraits {
		if !t.Name.Equal(name) {
			continue
		}
		if t.Kind == classbuild.TraitMethod {
			return t.Method
		}
	}
	return nil
}

// CheckOverride resolves the base method via the protected-namespace
// walk and verifies override legality (spec.md §4.H), returning the
// resolved base so the caller can decide whether a stub is required.
func CheckOverride(c *classbuild.Class, override *classbuild.Trait) (*classbuild.MethodTrait, *classbuild.Class, error) {
	base, owner := FindAncestorMethod(c, override.Name, c.ProtectedNS)
	if base == nil {
		return nil, nil, cperrors.New(cperrors.RES002ClassNotFound, &cperrors.Where{Class: c.Name.Local, Method: override.Name.Local},
			"no base method %s found to override", override.Name.Local)
	}
	if !OverrideOK(override.Method, base) {
		return nil, nil, cperrors.New(cperrors.TYP005IllegalOverride, &cperrors.Where{Class: c.Name.Local, Method: override.Name.Local},
			"override of %s is not signature-compatible with its base", override.Name.Local)
	}
	return base, owner, nil
}

// CheckInterfaceImplementations verifies, for every method of every
// interface in c's transitive closure, that c declares a compatibly-
// signatured trait of the same name in either the interface's
// namespace or the public namespace (spec.md §4.H). Properties check
// their getter and setter independently, each only when the interface
// declares it.
func CheckInterfaceImplementations(c *classbuild.Class, publicNS *abc.Namespace) error {
	for _, iface := range c.ImplementedInterfaces() {
		for _, it := range iface.InstanceTraits {
			switch it.Kind {
			case classbuild.TraitMethod:
				if !implementsMethod(c, it.Name, it.Method, publicNS) {
					return missingImpl(c, iface, it.Name)
				}
			case classbuild.TraitProperty:
				if it.Getter != nil && !implementsAccessor(c, it.Name, it.Getter, publicNS, true) {
					return missingImpl(c, iface, it.Name)
				}
				if it.Setter != nil && !implementsAccessor(c, it.Name, it.Setter, publicNS, false) {
					return missingImpl(c, iface, it.Name)
				}
			}
		}
	}
	return nil
}

func missingImpl(c, iface *classbuild.Class, name abc.QName) error {
	return cperrors.New(cperrors.TYP007InterfaceMethodUnimpl, &cperrors.Where{Class: c.Name.Local, Method: name.Local},
		"%s does not implement %s.%s", c.Name.Local, iface.Name.Local, name.Local)
}

func implementsMethod(c *classbuild.Class, name abc.QName, ifaceMethod *classbuild.MethodTrait, publicNS *abc.Namespace) bool {
	for _, candidateNS := range []*abc.Namespace{name.NS, publicNS} {
		q := abc.QName{NS: candidateNS, Local: name.Local}
		for _, t := range c.InstanceTraits {
			if t.Kind == classbuild.TraitMethod && t.Name.Equal(q) && OverrideOK(t.Method, ifaceMethod) {
				return true
			}
		}
	}
	return false
}

func implementsAccessor(c *classbuild.Class, name abc.QName, ifaceAccessor *classbuild.MethodTrait, publicNS *abc.Namespace, isGetter bool) bool {
	for _, candidateNS := range []*abc.Namespace{name.NS, publicNS} {
		q := abc.QName{NS: candidateNS, Local: name.Local}
		for _, t := range c.InstanceTraits {
			if t.Kind != classbuild.TraitProperty || !t.Name.Equal(q) {
				continue
			}
			accessor := t.Setter
			if isGetter {
				accessor = t.Getter
			}
			if accessor != nil && OverrideOK(accessor, ifaceAccessor) {
				return true
			}
		}
	}
	return false
}
