package sig

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/classbuild"
)

// StubReason names which of the four disjuncts (spec.md §4.H "Stub
// emission") triggered stub synthesis, for diagnostics and tests.
type StubReason int

const (
	StubNone StubReason = iota
	StubInheritedNotLocal
	StubNotVirtual
	StubRestShapeDiffers
	StubDefaultVsWrapper
)

// StubRequired evaluates the four-disjunct stub-necessity predicate
// (spec.md §4.H, testable property 5) for one (override, base) pair
// resolved at owner. It reports the first disjunct that held, or
// StubNone if a direct override directive suffices.
func StubRequired(c, owner *classbuild.Class, override, base *classbuild.MethodTrait) StubReason {
	switch {
	case owner != c:
		return StubInheritedNotLocal
	case override.Final:
		return StubNotVirtual
	case restShapeDiffers(override.Info, base.Info):
		return StubRestShapeDiffers
	case overrideDefaultVsWrapper(override.Info, base.Info):
		return StubDefaultVsWrapper
	default:
		return StubNone
	}
}

func restShapeDiffers(override, base *abc.MethodInfo) bool {
	if override == nil || base == nil {
		return false
	}
	return override.NeedArguments != base.NeedArguments || override.NeedRest != base.NeedRest
}

// overrideDefaultVsWrapper implements disjunct (iv): the override
// declares an explicit default for a parameter the base only marked
// optional via its type (no explicit default value recorded) — an
// "optional-wrapper type" in spec.md's terms.
func overrideDefaultVsWrapper(override, base *abc.MethodInfo) bool {
	if override == nil || base == nil {
		return false
	}
	n := len(base.Params)
	if len(override.Params) < n {
		n = len(override.Params)
	}
	for i := 0; i < n; i++ {
		bp, op := base.Params[i], override.Params[i]
		if bp.IsOptional && !bp.HasDefault && op.HasDefault {
			return true
		}
	}
	return false
}

// StubParam describes one parameter of a synthesized stub, enough for
// the per-method compiler to emit the forwarding/defaulting logic
// (spec.md §4.H).
type StubParam struct {
	Name               string
	IsOptionalWrapper  bool // true for disjunct (iv)'s special-cased parameter
	OverrideDefault    any
}

// StubPlan is what CreateStub hands the backend: forward every
// argument to base's implementation (resolved at owner), substituting
// OverrideDefault for any StubParam whose wrapper "is-specified" flag
// is false at the call site.
type StubPlan struct {
	Reason    StubReason
	Target    *classbuild.MethodTrait // the method the stub forwards to
	Params    []StubParam
}

// CreateStub builds the forwarding plan for a stub required by
// StubRequired. The per-method compiler (outside this module's scope,
// spec.md §1) turns it into an actual method body.
func CreateStub(override, base *classbuild.MethodTrait, reason StubReason, coercedDefaults []any) StubPlan {
	plan := StubPlan{Reason: reason, Target: base}
	if override.Info == nil {
		return plan
	}
	for i, p := range override.Info.Params {
		sp := StubParam{Name: p.Name}
		if reason == StubDefaultVsWrapper && i < len(base.Info.Params) {
			bp := base.Info.Params[i]
			if bp.IsOptional && !bp.HasDefault && p.HasDefault {
				sp.IsOptionalWrapper = true
				if i < len(coercedDefaults) {
					sp.OverrideDefault = coercedDefaults[i]
				}
			}
		}
		plan.Params = append(plan.Params, sp)
	}
	return plan
}
