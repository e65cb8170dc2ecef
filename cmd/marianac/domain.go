package main

import "github.com/jfd16/mariana/internal/abc"

// memDomain is a minimal in-process application domain: enough to
// satisfy globals.Domain (read side, consulted while staging) and
// finalize.Domain (write side, committed into after a successful
// compile). A real host embeds its own domain implementation; this one
// only exists so cmd/marianac can drive the core end to end without one.
type memDomain struct {
	traits map[abc.QName]any
}

func newMemDomain() *memDomain {
	return &memDomain{traits: make(map[abc.QName]any)}
}

func (d *memDomain) Lookup(q abc.QName) (trait any, found bool, inherited bool) {
	t, ok := d.traits[q]
	return t, ok, false
}

func (d *memDomain) Define(name abc.QName, trait any, hideFromParent bool) error {
	d.traits[name] = trait
	return nil
}
