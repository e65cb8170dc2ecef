// Package sig implements the Signature & Override Checker (spec.md
// §4.H): default-value coercion, override legality, interface
// implementation checking (with the protected-namespace ancestor
// walk), and stub-method synthesis for signature-incompatible
// overrides.
package sig

import (
	"math"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/classbuild"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// wellKnownType names the handful of declared-type locals the
// coercion and override rules special-case (spec.md §4.H). Comparing
// on local name is adequate here because these are AVM2's
// fixed public-namespace builtins, never user-redeclared.
const (
	typeInt     = "int"
	typeUInt    = "uint"
	typeNumber  = "Number"
	typeObject  = "Object"
)

func localOf(mn *abc.Multiname) string {
	if mn == nil {
		return ""
	}
	return mn.Local
}

// CoerceDefault implements spec.md §4.H's default-value coercion table.
// This is the function classbuild.CoerceDefaultFunc wires in.
func CoerceDefault(value any, declaredType *abc.Multiname) (any, error) {
	typeName := localOf(declaredType)

	switch v := value.(type) {
	case nil: // undefined
		switch typeName {
		case "":
			return nil, nil
		case typeInt:
			return int32(0), nil
		case typeUInt:
			return uint32(0), nil
		case typeNumber:
			return math.NaN(), nil
		default:
			return nil, nil
		}
	case abc.NullValue:
		switch typeName {
		case "":
			return abc.NullValue{}, nil
		case typeInt:
			return int32(0), nil
		case typeUInt:
			return uint32(0), nil
		case typeNumber:
			return 0.0, nil
		default:
			return abc.NullValue{}, nil
		}
	case int32, uint32, float64:
		if typeName == "" || typeName == typeObject {
			return v, nil
		}
		switch typeName {
		case typeInt:
			return toInt32(v), nil
		case typeUInt:
			return toUint32(v), nil
		case typeNumber:
			return toFloat64(v), nil
		default:
			return nil, cperrors.New(cperrors.TYP006IllegalDefaultValue, nil,
				"numeric default cannot coerce to declared type %s", typeName)
		}
	default:
		if typeName == "" || typeName == typeObject {
			return v, nil
		}
		return nil, cperrors.New(cperrors.TYP006IllegalDefaultValue, nil,
			"default value of type %T cannot coerce to declared type %s", v, typeName)
	}
}

func toInt32(v any) int32 {
	switch x := v.(type) {
	case int32:
		return x
	case uint32:
		return int32(x)
	case float64:
		return int32(x)
	}
	return 0
}

func toUint32(v any) uint32 {
	switch x := v.(type) {
	case int32:
		return uint32(x)
	case uint32:
		return x
	case float64:
		return uint32(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case int32:
		return float64(x)
	case uint32:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

// OverrideOK implements spec.md §4.H's override legality rule: base
// must exist and not be final; hasReturn/returnType/hasRest/param-count
// must match; each parameter pair must match in (type, isOptional).
// hasDefault is deliberately excluded, per spec.md, since certain ABC
// conventions intentionally vary it between override and base.
func OverrideOK(override, base *classbuild.MethodTrait) bool {
	if base == nil || base.Final {
		return false
	}
	bm, om := base.Info, override.Info
	if bm == nil || om == nil {
		return false
	}
	if bm.HasReturn != om.HasReturn {
		return false
	}
	if bm.HasReturn && localOf(bm.ReturnType) != localOf(om.ReturnType) {
		return false
	}
	if bm.HasRest != om.HasRest {
		return false
	}
	if len(bm.Params) != len(om.Params) {
		return false
	}
	for i := range bm.Params {
		bp, op := bm.Params[i], om.Params[i]
		if bp.IsOptional != op.IsOptional {
			return false
		}
		if localOf(bp.Type) != localOf(op.Type) {
			return false
		}
	}
	return true
}
