package compiler

import (
	"fmt"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/classbuild"
	"github.com/jfd16/mariana/internal/config"
	cperrors "github.com/jfd16/mariana/internal/errors"
	"github.com/jfd16/mariana/internal/finalize"
	"github.com/jfd16/mariana/internal/globals"
	"github.com/jfd16/mariana/internal/schedule"
	"github.com/jfd16/mariana/internal/sig"
)

// Result is everything Compile produces: the serialized image plus the
// per-class registry a caller (or test) may want to inspect before
// finalization.
type Result struct {
	Image    []byte
	Registry *classbuild.Registry
	Classes  []*classbuild.Class
}

// Compile runs the full data flow spec.md §2 lays out against one parsed
// ABC file: the class builder (G) resolves definitions and traits,
// override/interface checks (H) run against the resolved trait tables,
// every class and trait is emitted by the class builder's EmitPass, the
// scheduler (I) compiles every method body in its four ordered phases,
// and Finalize (J) writes, loads, back-patches and runs the assembly.
// Compile itself does not call the Context's ConstPool, Helpers or
// CapScope; nothing is interned into the constant pool here.
func (c *Context) Compile(file *abc.File, methodCompiler backend.MethodCompiler, anyType backend.TypeHandle, loader backend.Loader, expected finalize.ExpectedIdentity, domain finalize.Domain) (*Result, error) {
	reg := c.buildRegistry(file)

	classes := make([]*classbuild.Class, len(file.Classes))
	for i, ci := range file.Classes {
		cls, ok := reg.Lookup(ci.Name)
		if !ok {
			cls = reg.Declare(ci)
		}
		classes[i] = cls
	}

	if err := c.stageScriptGlobals(file, classes); err != nil {
		return nil, err
	}

	for _, cls := range classes {
		if err := reg.DefinePass(cls); err != nil {
			return nil, err
		}
	}
	for _, cls := range classes {
		if err := reg.TraitsPass(cls, sig.CoerceDefault); err != nil {
			return nil, err
		}
	}
	for _, cls := range classes {
		if err := c.checkOverrides(cls); err != nil {
			return nil, err
		}
	}

	resolveType := c.typeResolver(reg, anyType)
	for _, cls := range classes {
		if err := reg.EmitPass(cls, c.Asm, resolveType, anyType); err != nil {
			return nil, err
		}
	}

	scriptHandles := c.emitScriptInits(file)

	if err := c.scheduleBodies(file, methodCompiler, classes, scriptHandles); err != nil {
		return nil, err
	}

	targets, globalCommits := c.collectBackPatchAndGlobals(classes)
	entryPoints := c.collectEntryPoints(file, scriptHandles)

	// An empty EmitAssemblyName falls back to a name derived from the ABC
	// file's name.
	assemblyName := c.Options.EmitAssemblyName
	if assemblyName == "" {
		assemblyName = "mariana$" + file.Name
	}

	f := finalize.New(c.Asm, loader)
	mode := finalizeRunMode(c.Options.ScriptInitializerRunMode)
	image, err := f.Finalize(assemblyName, expected, targets, globalCommits, domain, entryPoints, mode)
	if err != nil {
		return nil, fmt.Errorf("finalize assembly: %w", err)
	}

	return &Result{Image: image, Registry: reg, Classes: classes}, nil
}

// buildRegistry wires a classbuild.Registry whose resolver lazily
// declares file-local classes on first reference and otherwise falls
// back to the staged-globals domain (spec.md §4.D); a multiname neither
// declared in this file nor already staged is RES002.
func (c *Context) buildRegistry(file *abc.File) *classbuild.Registry {
	var reg *classbuild.Registry
	resolve := func(mn *abc.Multiname) (*classbuild.Class, error) {
		q := abc.QName{NS: mn.NS, Local: mn.Local}
		if cls, ok := reg.Lookup(q); ok {
			return cls, nil
		}
		for _, ci := range file.Classes {
			if ci.Name.Equal(q) {
				return reg.Declare(ci), nil
			}
		}
		if cls, ok := c.lookupGlobalClass(mn); ok {
			return cls, nil
		}
		return nil, cperrors.New(cperrors.RES002ClassNotFound, nil, "class %s not found", mn.Local)
	}
	reg = classbuild.NewRegistry(resolve)
	reg.File = file
	return reg
}

// stageScriptGlobals implements the globals half of spec.md §4.F: every
// script-level trait is staged under its qualified name, so later
// scripts' multiname references resolve through c.Globals (buildRegistry's
// resolve closure falls back to lookupGlobalClass), and so the Finalizer
// eventually commits every surviving one into the application domain.
// Class traits are staged as the already-declared *classbuild.Class;
// everything else (global functions/vars) is staged as the raw
// *abc.TraitInfo, since this module builds no further representation of
// them (spec.md §1 Non-goals — only classes are modeled structurally).
func (c *Context) stageScriptGlobals(file *abc.File, classes []*classbuild.Class) error {
	byClassInfo := make(map[*abc.ClassInfo]*classbuild.Class, len(classes))
	for _, cls := range classes {
		byClassInfo[cls.Source] = cls
	}
	for _, s := range file.Scripts {
		seen := make(map[abc.QName]bool, len(s.Traits))
		for i := range s.Traits {
			ti := &s.Traits[i]
			var staged any = ti
			if ti.Kind == abc.TraitClass {
				if cls, ok := byClassInfo[ti.ClassInfo]; ok {
					staged = cls
				}
			}
			sameScript := seen[ti.Name]
			seen[ti.Name] = true
			if c.Globals.Stage(ti.Name, staged, s) == globals.StageRejected {
				// USE_PARENT keeps the earlier definition without failing;
				// a same-script conflict fails under every policy.
				if sameScript || c.Options.AppDomainConflictRes != config.ConflictUseParent {
					return cperrors.New(cperrors.RES001AlreadyDefined, nil,
						"global %s already defined", ti.Name.Local)
				}
			}
		}
	}
	return nil
}

func candidateNamespaces(mn *abc.Multiname) []*abc.Namespace {
	if mn.NS != nil {
		return []*abc.Namespace{mn.NS}
	}
	if mn.NSSet != nil {
		return mn.NSSet.Namespaces
	}
	return nil
}

func (c *Context) lookupGlobalClass(mn *abc.Multiname) (*classbuild.Class, bool) {
	res := c.Globals.Lookup(mn, candidateNamespaces(mn))
	if !res.Found || res.Ambiguous {
		return nil, false
	}
	cls, ok := res.Trait.(*classbuild.Class)
	return cls, ok
}

// typeResolver adapts classbuild.Registry's resolver into the
// classbuild.TypeResolver EmitPass needs: resolve the multiname to a
// Class, emitting it first if its own EmitPass hasn't run yet.
func (c *Context) typeResolver(reg *classbuild.Registry, anyType backend.TypeHandle) classbuild.TypeResolver {
	var resolveType classbuild.TypeResolver
	resolveType = func(mn *abc.Multiname) (backend.TypeHandle, error) {
		cls, err := reg.Resolve(mn)
		if err != nil {
			return anyType, err
		}
		if err := reg.EmitPass(cls, c.Asm, resolveType, anyType); err != nil {
			return anyType, err
		}
		return cls.TypeHandle, nil
	}
	return resolveType
}

// checkOverrides implements spec.md §4.H for every method/property trait
// declared Override, plus spec.md §4.G's interface-completeness check.
func (c *Context) checkOverrides(cls *classbuild.Class) error {
	for _, t := range cls.InstanceTraits {
		switch t.Kind {
		case classbuild.TraitMethod:
			if t.Method.Override {
				if err := c.checkOneOverride(cls, t, t.Method); err != nil {
					return err
				}
			}
		case classbuild.TraitProperty:
			for _, half := range []*classbuild.MethodTrait{t.Getter, t.Setter} {
				if half != nil && half.Override {
					wrapped := &classbuild.Trait{Name: t.Name, Kind: classbuild.TraitMethod, Static: half.Static, Declarer: cls, Method: half}
					if err := c.checkOneOverride(cls, wrapped, half); err != nil {
						return err
					}
				}
			}
		}
	}
	if len(cls.ImplementedInterfaces()) > 0 {
		publicNS := &abc.Namespace{Kind: abc.NSKindPackage}
		if err := sig.CheckInterfaceImplementations(cls, publicNS); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) checkOneOverride(cls *classbuild.Class, t *classbuild.Trait, method *classbuild.MethodTrait) error {
	base, owner, err := sig.CheckOverride(cls, t)
	if err != nil {
		return err
	}
	// StubRequired's "inherited-not-local" disjunct fires when base isn't
	// declared on cls's immediate parent, not when it isn't declared on
	// cls itself (FindAncestorMethod never starts searching at cls, so
	// owner can never equal cls).
	if reason := sig.StubRequired(cls.Parent, owner, method, base); reason != sig.StubNone {
		sig.CreateStub(method, base, reason, nil)
	}
	return nil
}

// emitScriptInits defines one backend method per script_info's init
// method (spec.md §4.B "script inits" schedule phase); scripts have no
// owning type, so they're defined with an invalid owner handle, the
// convention backend.AssemblyBuilder implementations use for top-level
// functions.
func (c *Context) emitScriptInits(file *abc.File) []backend.MethodHandle {
	handles := make([]backend.MethodHandle, len(file.Scripts))
	for i, s := range file.Scripts {
		if s.Init == nil {
			handles[i] = backend.MethodHandle(backend.InvalidHandle)
			continue
		}
		handles[i] = c.Asm.DefineMethod(backend.TypeHandle(backend.InvalidHandle), fmt.Sprintf("script%d$init", s.Index), backend.Signature{}, true, false, true)
	}
	return handles
}

// scheduleBodies drives internal/schedule's four ordered phases (spec.md
// §4.I): script inits, class static inits, every remaining method with a
// body, then the closure worklist.
func (c *Context) scheduleBodies(file *abc.File, compiler backend.MethodCompiler, classes []*classbuild.Class, scriptHandles []backend.MethodHandle) error {
	var scriptInit, staticInit, methods []schedule.Job

	for i, s := range file.Scripts {
		if s.Init != nil && s.Init.Body != nil {
			scriptInit = append(scriptInit, schedule.Job{Target: backend.CompileTarget{
				Method: s.Init, Output: scriptHandles[i], Role: backend.RoleScriptInit,
			}})
		}
	}

	for _, cls := range classes {
		if cls.ClassInit != nil && cls.ClassInit.Info != nil && cls.ClassInit.Info.Body != nil {
			staticInit = append(staticInit, schedule.Job{Target: backend.CompileTarget{
				Method: cls.ClassInit.Info, Output: cls.InitHandle, Role: backend.RoleStaticInit,
			}})
		}
		if cls.InstanceCtor != nil && cls.InstanceCtor.Info != nil && cls.InstanceCtor.Info.Body != nil {
			methods = append(methods, schedule.Job{Target: backend.CompileTarget{
				Method: cls.InstanceCtor.Info, Output: cls.CtorHandle, Role: backend.RoleInstanceOrStatic,
			}})
		}
		for _, t := range cls.InstanceTraits {
			methods = append(methods, methodJobsFor(t)...)
		}
		for _, t := range cls.StaticTraits {
			methods = append(methods, methodJobsFor(t)...)
		}
	}

	sched := schedule.New(file, compiler, c.Asm, c, c.Options.ParallelCompileThreads, c.ClosureQueue)
	return sched.Run(scriptInit, staticInit, methods)
}

func methodJobsFor(t *classbuild.Trait) []schedule.Job {
	var jobs []schedule.Job
	add := func(m *classbuild.MethodTrait) {
		if m != nil && m.Info != nil && m.Info.Body != nil {
			jobs = append(jobs, schedule.Job{Target: backend.CompileTarget{
				Method: m.Info, Output: m.Handle, Role: backend.RoleInstanceOrStatic,
			}})
		}
	}
	switch t.Kind {
	case classbuild.TraitMethod:
		add(t.Method)
	case classbuild.TraitProperty:
		add(t.Getter)
		add(t.Setter)
	}
	return jobs
}

func finalizeRunMode(m config.RunMode) finalize.RunMode {
	switch m {
	case config.RunModeAll:
		return finalize.RunAll
	case config.RunModeNone:
		return finalize.RunNone
	default:
		return finalize.RunEntryPoints
	}
}

// collectBackPatchAndGlobals gathers the back-patch targets and global-
// trait commits the Finalizer needs (spec.md §4.J): every emitted
// class's RuntimeType back-patch, and one GlobalCommit per script-level
// trait staged into c.Globals.
func (c *Context) collectBackPatchAndGlobals(classes []*classbuild.Class) ([]finalize.BackPatchTarget, []finalize.GlobalCommit) {
	var targets []finalize.BackPatchTarget
	for _, cls := range classes {
		cls := cls
		targets = append(targets, finalize.BackPatchTarget{
			HasType: true, TypeHandle: cls.TypeHandle,
			Apply: func(v any) { cls.RuntimeType = v },
		})
	}

	var globalCommits []finalize.GlobalCommit
	for q, trait := range c.Globals.StagedTraits() {
		globalCommits = append(globalCommits, finalize.GlobalCommit{Name: q, Trait: trait})
	}
	return targets, globalCommits
}

// collectEntryPoints builds one finalize.EntryPoint per script with an
// init method, flagging only the last script as IsFinal (spec.md §4.J,
// RUN_ENTRY_POINTS): AVM2 designates the last script_info the SWF's true
// entry point.
func (c *Context) collectEntryPoints(file *abc.File, scriptHandles []backend.MethodHandle) []finalize.EntryPoint {
	var entryPoints []finalize.EntryPoint
	lastIdx := len(file.Scripts) - 1
	for i, s := range file.Scripts {
		if s.Init == nil {
			continue
		}
		entryPoints = append(entryPoints, finalize.EntryPoint{
			Handle:  scriptHandles[i],
			IsFinal: i == lastIdx,
		})
	}
	return entryPoints
}
