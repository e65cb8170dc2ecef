package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jfd16/mariana/internal/abc"
)

// fixture is the JSON input schema cmd/marianac reads in place of a real
// ABC byte-stream: the parser that produces an abc.File from a .swf/.abc
// binary is outside this module's scope (spec.md §1 Non-goals). Namespaces
// are identified by a short name and resolved against a single flat table
// per file, since fixtures only need enough namespace structure to
// exercise protected-namespace override resolution and conflict policies,
// not the full AVM2 namespace-kind lattice.
type fixture struct {
	Namespaces []fixtureNamespace `json:"namespaces"`
	Classes    []fixtureClass     `json:"classes"`
	Scripts    []fixtureScript    `json:"scripts"`
}

type fixtureNamespace struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "package", "protected", "internal", "private"; default "package"
	URI  string `json:"uri"`
}

type fixtureMultiname struct {
	NS    string `json:"ns"`
	Local string `json:"local"`
}

type fixtureMethod struct {
	Name       string             `json:"name"`
	Params     []fixtureParam     `json:"params"`
	ReturnType *fixtureMultiname  `json:"returnType"`
	HasReturn  bool               `json:"hasReturn"`
	HasRest    bool               `json:"hasRest"`
	HasBody    bool               `json:"hasBody"`
}

type fixtureParam struct {
	Name       string            `json:"name"`
	Type       *fixtureMultiname `json:"type"`
	IsOptional bool              `json:"isOptional"`
}

type fixtureTrait struct {
	Name       fixtureMultiname  `json:"name"`
	Kind       string            `json:"kind"` // slot, const, method, getter, setter, class
	Static     bool              `json:"static"`
	Type       *fixtureMultiname `json:"type"`
	Method     *fixtureMethod    `json:"method"`
	IsFinal    bool              `json:"isFinal"`
	IsOverride bool              `json:"isOverride"`
	ClassRef   string            `json:"classRef"` // for kind == "class": local class name aliased
}

type fixtureClass struct {
	Name           string            `json:"name"`
	NS             string            `json:"ns"`
	Parent         *fixtureMultiname `json:"parent"`
	Interfaces     []fixtureMultiname `json:"interfaces"`
	IsInterface    bool              `json:"isInterface"`
	IsFinal        bool              `json:"isFinal"`
	IsDynamic      bool              `json:"isDynamic"`
	ProtectedNS    string            `json:"protectedNs"`
	InstanceCtor   *fixtureMethod    `json:"instanceCtor"`
	ClassInit      *fixtureMethod    `json:"classInit"`
	InstanceTraits []fixtureTrait    `json:"instanceTraits"`
	StaticTraits   []fixtureTrait    `json:"staticTraits"`
}

type fixtureScriptTrait struct {
	Name     fixtureMultiname `json:"name"`
	Kind     string           `json:"kind"`
	ClassRef string           `json:"classRef"`
}

type fixtureScript struct {
	Init   *fixtureMethod       `json:"init"`
	Traits []fixtureScriptTrait `json:"traits"`
}

// loadFixture reads and converts a JSON fixture file into an abc.File.
func loadFixture(path string) (*abc.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return fx.toFile()
}

func (fx *fixture) toFile() (*abc.File, error) {
	nsByName := make(map[string]*abc.Namespace, len(fx.Namespaces))
	for _, n := range fx.Namespaces {
		nsByName[n.Name] = &abc.Namespace{Kind: namespaceKind(n.Kind), URI: n.URI}
	}
	resolveNS := func(name string) *abc.Namespace {
		if name == "" {
			return nil
		}
		if ns, ok := nsByName[name]; ok {
			return ns
		}
		ns := &abc.Namespace{Kind: abc.NSKindPackage, URI: name}
		nsByName[name] = ns
		return ns
	}
	resolveMN := func(mn *fixtureMultiname) *abc.Multiname {
		if mn == nil {
			return nil
		}
		return &abc.Multiname{Kind: abc.MNQName, NS: resolveNS(mn.NS), Local: mn.Local}
	}
	resolveMethod := func(m *fixtureMethod) *abc.MethodInfo {
		if m == nil {
			return nil
		}
		info := &abc.MethodInfo{Name: m.Name, HasReturn: m.HasReturn, HasRest: m.HasRest}
		if m.ReturnType != nil {
			info.ReturnType = resolveMN(m.ReturnType)
		}
		for _, p := range m.Params {
			info.Params = append(info.Params, abc.Param{Name: p.Name, Type: resolveMN(p.Type), IsOptional: p.IsOptional})
		}
		if m.HasBody {
			info.Body = &abc.MethodBody{}
		}
		return info
	}
	resolveTrait := func(t fixtureTrait, classByName map[string]*abc.ClassInfo) (abc.TraitInfo, error) {
		ti := abc.TraitInfo{
			Name:     abc.QName{NS: resolveNS(t.Name.NS), Local: t.Name.Local},
			IsFinal:  t.IsFinal,
			IsOverride: t.IsOverride,
		}
		switch t.Kind {
		case "slot":
			ti.Kind = abc.TraitSlot
			ti.TypeName = resolveMN(t.Type)
		case "const":
			ti.Kind = abc.TraitConst
			ti.TypeName = resolveMN(t.Type)
		case "method":
			ti.Kind = abc.TraitMethod
			ti.MethodInfo = resolveMethod(t.Method)
		case "getter":
			ti.Kind = abc.TraitGetter
			ti.MethodInfo = resolveMethod(t.Method)
		case "setter":
			ti.Kind = abc.TraitSetter
			ti.MethodInfo = resolveMethod(t.Method)
		case "class":
			ti.Kind = abc.TraitClass
			ti.ClassInfo = classByName[t.ClassRef]
		default:
			return ti, fmt.Errorf("unknown trait kind %q", t.Kind)
		}
		return ti, nil
	}

	classByName := make(map[string]*abc.ClassInfo, len(fx.Classes))
	classes := make([]*abc.ClassInfo, 0, len(fx.Classes))
	for i, fc := range fx.Classes {
		ci := &abc.ClassInfo{
			Index: i,
			Name:  abc.QName{NS: resolveNS(fc.NS), Local: fc.Name},
		}
		if fc.IsInterface {
			ci.Kind |= abc.ClassInterface
		}
		if fc.IsFinal {
			ci.Kind |= abc.ClassFinal
		}
		if fc.IsDynamic {
			ci.Kind |= abc.ClassDynamic
		}
		if fc.ProtectedNS != "" {
			ci.ProtectedNS = resolveNS(fc.ProtectedNS)
		}
		if fc.Parent != nil {
			ci.Parent = resolveMN(fc.Parent)
		}
		for _, mn := range fc.Interfaces {
			mn := mn
			ci.Interfaces = append(ci.Interfaces, resolveMN(&mn))
		}
		ci.InstanceCtor = resolveMethod(fc.InstanceCtor)
		ci.ClassInit = resolveMethod(fc.ClassInit)
		classByName[fc.Name] = ci
		classes = append(classes, ci)
	}

	// Second pass: traits, now that every class is known (class-alias
	// traits and script TraitClass entries may reference any class).
	for i, fc := range fx.Classes {
		ci := classes[i]
		for _, t := range fc.InstanceTraits {
			ti, err := resolveTrait(t, classByName)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", fc.Name, err)
			}
			ci.InstanceTraits = append(ci.InstanceTraits, ti)
		}
		for _, t := range fc.StaticTraits {
			ti, err := resolveTrait(t, classByName)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", fc.Name, err)
			}
			ci.StaticTraits = append(ci.StaticTraits, ti)
		}
	}

	var methods []*abc.MethodInfo
	for _, ci := range classes {
		if ci.InstanceCtor != nil {
			methods = append(methods, ci.InstanceCtor)
		}
		if ci.ClassInit != nil {
			methods = append(methods, ci.ClassInit)
		}
		for _, t := range ci.InstanceTraits {
			if t.MethodInfo != nil {
				methods = append(methods, t.MethodInfo)
			}
		}
		for _, t := range ci.StaticTraits {
			if t.MethodInfo != nil {
				methods = append(methods, t.MethodInfo)
			}
		}
	}

	var scripts []*abc.ScriptInfo
	for i, fs := range fx.Scripts {
		s := &abc.ScriptInfo{Index: i, Init: resolveMethod(fs.Init)}
		if s.Init != nil {
			methods = append(methods, s.Init)
		}
		for _, t := range fs.Traits {
			s.Traits = append(s.Traits, abc.TraitInfo{
				Name:      abc.QName{NS: resolveNS(t.Name.NS), Local: t.Name.Local},
				Kind:      abc.TraitClass,
				ClassInfo: classByName[t.ClassRef],
			})
		}
		scripts = append(scripts, s)
	}

	return &abc.File{Classes: classes, Scripts: scripts, Methods: methods}, nil
}

func namespaceKind(name string) abc.NamespaceKind {
	switch name {
	case "protected":
		return abc.NSKindProtected
	case "internal":
		return abc.NSKindPackageInternal
	case "private":
		return abc.NSKindPrivate
	case "explicit":
		return abc.NSKindExplicit
	case "staticProtected":
		return abc.NSKindStaticProtected
	default:
		return abc.NSKindPackage
	}
}
