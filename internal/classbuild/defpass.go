package classbuild

import (
	"github.com/jfd16/mariana/internal/abc"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// Registry owns every Class under construction for one compilation,
// keyed by qualified name, plus the resolver Pass 1 uses to turn parent/
// interface multinames into Classes.
type Registry struct {
	byName  map[abc.QName]*Class
	Resolve func(mn *abc.Multiname) (*Class, error)

	// File supplies the int/uint/double/string constant pools
	// Slot/Const default values (ValueIndex, ValueKind) index into.
	// Set by the caller after NewRegistry; left nil is only safe for
	// callers that never stage a trait with a default value.
	File *abc.File
}

// NewRegistry returns an empty Registry. resolve looks up a multiname
// (declared parent or interface) against the staged globals + the
// object domain; it is supplied by the caller wiring classbuild into
// the rest of the core so this package stays independent of
// internal/globals.
func NewRegistry(resolve func(mn *abc.Multiname) (*Class, error)) *Registry {
	return &Registry{byName: make(map[abc.QName]*Class), Resolve: resolve}
}

// Declare registers src's Class under construction, in StateInit.
func (r *Registry) Declare(src *abc.ClassInfo) *Class {
	c := NewClass(src)
	r.byName[c.Name] = c
	return c
}

// Lookup returns the Class previously Declared under q, if any.
func (r *Registry) Lookup(q abc.QName) (*Class, bool) {
	c, ok := r.byName[q]
	return c, ok
}

// DefinePass runs spec.md §4.G Pass 1 for c: resolves the parent
// multiname (interfaces must have none), verifies the parent is
// neither final nor an interface, resolves declared interfaces and
// verifies each is actually an interface, and computes the transitive
// interface closure. Re-entrant calls while c is mid-pass are rejected
// as a cycle.
func (r *Registry) DefinePass(c *Class) error {
	if c.State >= StateDefCreated {
		return nil
	}
	if err := c.enterDefCreating(); err != nil {
		return err
	}

	src := c.Source
	if src != nil && src.Parent != nil {
		if c.IsInterface {
			return cperrors.New(cperrors.TYP001CannotExtendClass, &cperrors.Where{Class: c.Name.Local},
				"interface %s must not declare a parent", c.Name.Local)
		}
		parent, err := r.resolveAndDefine(src.Parent)
		if err != nil {
			return err
		}
		if parent.IsFinal || parent.IsInterface {
			return cperrors.New(cperrors.TYP001CannotExtendClass, &cperrors.Where{Class: c.Name.Local},
				"class %s cannot extend final class or interface %s", c.Name.Local, parent.Name.Local)
		}
		c.Parent = parent
	}

	if src != nil {
		for _, mn := range src.Interfaces {
			iface, err := r.resolveAndDefine(mn)
			if err != nil {
				return err
			}
			if !iface.IsInterface {
				return cperrors.New(cperrors.TYP002CannotImplementInterface, &cperrors.Where{Class: c.Name.Local},
					"%s is not an interface", iface.Name.Local)
			}
			c.Interfaces = append(c.Interfaces, iface)
		}
	}

	c.closure = computeInterfaceClosure(c)
	c.State = StateDefCreated
	return nil
}

func (r *Registry) resolveAndDefine(mn *abc.Multiname) (*Class, error) {
	target, err := r.Resolve(mn)
	if err != nil {
		return nil, err
	}
	if err := r.DefinePass(target); err != nil {
		return nil, err
	}
	return target, nil
}

// computeInterfaceClosure implements testable property 3: union(each
// declared interface ∪ its closure, parent's closure), deduplicated.
func computeInterfaceClosure(c *Class) []*Class {
	seen := make(map[*Class]bool)
	var out []*Class
	add := func(i *Class) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	for _, iface := range c.Interfaces {
		add(iface)
		for _, anc := range iface.closure {
			add(anc)
		}
	}
	if c.Parent != nil {
		for _, anc := range c.Parent.closure {
			add(anc)
		}
	}
	return out
}

// ImplementedInterfaces returns c's transitive interface closure,
// computed by DefinePass.
func (c *Class) ImplementedInterfaces() []*Class {
	return c.closure
}
