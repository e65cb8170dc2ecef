// Package finalize implements the Finalizer (spec.md §4.J): emits the
// final assembly image, loads it (custom or default loader), validates
// loaded identity against what was emitted, back-patches staged traits
// and classes with their resolved runtime members, commits staged
// globals into the application domain, and runs script entry points.
package finalize

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// RunMode selects which script entry points Finalize runs (spec.md §6
// `scriptInitializerRunMode`).
type RunMode int

const (
	RunNone RunMode = iota
	RunEntryPoints
	RunAll
)

// ExpectedIdentity is the assembly identity the core emitted, checked
// against whatever the loader hands back (spec.md §4.J).
type ExpectedIdentity struct {
	Name          string
	Version       string
	ModuleVersion string
}

// BackPatchTarget is one staged trait or class awaiting its resolved
// runtime member, handed in by the wiring layer so this package never
// imports classbuild/globals directly.
type BackPatchTarget struct {
	TypeHandle   backend.TypeHandle
	FieldHandle  backend.FieldHandle
	MethodHandle backend.MethodHandle
	CtorHandle   backend.CtorHandle
	HasType      bool
	HasField     bool
	HasMethod    bool
	HasCtor      bool

	// Apply receives the resolved runtime object and stores it on the
	// owning Class/Trait (e.g. Class.RuntimeType = v).
	Apply func(v any)
}

// GlobalCommit is one staged global trait ready to be committed to the
// application domain (spec.md §4.F's staging table, already filtered of
// duplicates by its conflict policy).
type GlobalCommit struct {
	Name  abc.QName
	Trait any
}

// Domain is the subset of the application domain the Finalizer writes
// to (spec.md §6 `tryDefineGlobalTrait`).
type Domain interface {
	Define(name abc.QName, trait any, hideFromParent bool) error
}

// EntryPoint is one script's static-initializer handle to Invoke per
// the configured RunMode.
type EntryPoint struct {
	Handle  backend.MethodHandle
	IsFinal bool // true only for the last script in the ABC file
}

// Finalizer drives spec.md §4.J's post-scheduling steps.
type Finalizer struct {
	Asm    backend.AssemblyBuilder
	Loader backend.Loader // nil uses DefaultLoader
}

// New returns a Finalizer. A nil loader falls back to DefaultLoader.
func New(asm backend.AssemblyBuilder, loader backend.Loader) *Finalizer {
	if loader == nil {
		loader = DefaultLoader{}
	}
	return &Finalizer{Asm: asm, Loader: loader}
}

// Finalize runs the full sequence: serialize, load, validate identity,
// back-patch, commit globals, run entry points. It returns the emitted
// image so the caller doesn't need to (and must not) call Asm.Finish a
// second time itself.
func (f *Finalizer) Finalize(
	assemblyName string,
	expected ExpectedIdentity,
	targets []BackPatchTarget,
	globals []GlobalCommit,
	domain Domain,
	entryPoints []EntryPoint,
	mode RunMode,
) ([]byte, error) {
	image, err := f.Asm.Finish(assemblyName)
	if err != nil {
		return nil, err
	}

	loaded, err := f.Loader.Load(image)
	if err != nil {
		return nil, err
	}
	// The default loader is a stand-in for the platform's real loader
	// (out of scope, spec.md §1); its identity always matches what was
	// emitted, so only caller-supplied loaders are subject to the
	// identity check spec.md §4.J describes.
	if _, isDefault := f.Loader.(DefaultLoader); !isDefault {
		if err := validateIdentity(expected, loaded); err != nil {
			return nil, err
		}
	}

	for _, t := range targets {
		backPatch(t, loaded)
	}

	for _, g := range globals {
		if err := domain.Define(g.Name, g.Trait, false); err != nil {
			return nil, err
		}
	}

	if err := runEntryPoints(loaded, entryPoints, mode); err != nil {
		return nil, err
	}
	return image, nil
}

func validateIdentity(expected ExpectedIdentity, loaded backend.LoadedAssembly) error {
	if loaded.Name != expected.Name || loaded.Version != expected.Version || loaded.ModuleVersion != expected.ModuleVersion {
		return cperrors.New(cperrors.LDR001CustomLoaderRejected, nil,
			"loader returned assembly %q v%s (module %s), expected %q v%s (module %s)",
			loaded.Name, loaded.Version, loaded.ModuleVersion,
			expected.Name, expected.Version, expected.ModuleVersion)
	}
	return nil
}

func backPatch(t BackPatchTarget, loaded backend.LoadedAssembly) {
	switch {
	case t.HasType && loaded.ResolveType != nil:
		t.Apply(loaded.ResolveType(t.TypeHandle))
	case t.HasField && loaded.ResolveField != nil:
		t.Apply(loaded.ResolveField(t.FieldHandle))
	case t.HasMethod && loaded.ResolveMethod != nil:
		t.Apply(loaded.ResolveMethod(t.MethodHandle))
	case t.HasCtor && loaded.ResolveCtor != nil:
		t.Apply(loaded.ResolveCtor(t.CtorHandle))
	}
}

func runEntryPoints(loaded backend.LoadedAssembly, entryPoints []EntryPoint, mode RunMode) error {
	if mode == RunNone || loaded.Invoke == nil {
		return nil
	}
	for _, ep := range entryPoints {
		if mode == RunEntryPoints && !ep.IsFinal {
			continue
		}
		if err := loaded.Invoke(ep.Handle); err != nil {
			return unwrapTypeInitException(err)
		}
	}
	return nil
}

// typeInitWrapper is the nested wrapper a runtime may use to surface a
// static-initializer failure; unwrapTypeInitException strips every
// layer so the originating error surfaces (spec.md §4.J, §7).
type typeInitWrapper interface {
	Unwrap() error
}

func unwrapTypeInitException(err error) error {
	for {
		w, ok := err.(typeInitWrapper)
		if !ok {
			return err
		}
		inner := w.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
