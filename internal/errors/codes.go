// Package errors provides centralized error code definitions for the
// marianac compilation core. All error codes follow a consistent taxonomy
// so tooling can group failures by phase.
package errors

// Error code constants organized by phase (spec.md §7).
const (
	// ============================================================================
	// Structural ABC errors (ABC###)
	// ============================================================================

	ABC001MethodMultipleBodies  = "ABC001"
	ABC002MethodMissingBody     = "ABC002"
	ABC003MethodNoBodyAllowed   = "ABC003"
	ABC004MethodInfoAlreadyUsed = "ABC004"
	ABC005InvalidTraitKind      = "ABC005"
	ABC006SlotIDTaken           = "ABC006"
	ABC007ClassCircularRef      = "ABC007"
	ABC008RuntimeNameInvalid    = "ABC008"
	ABC009ExceptionVarInvalid   = "ABC009"
	ABC010NoRequiredParams      = "ABC010"

	// ============================================================================
	// Name-resolution errors (RES###)
	// ============================================================================

	RES001AlreadyDefined          = "RES001"
	RES002ClassNotFound           = "RES002"
	RES003AmbiguousNameMatch      = "RES003"
	RES004NonGenericTypeApplied   = "RES004"
	RES005TypeArgCountIncorrect   = "RES005"
	RES006ApplyTypeNonClass       = "RES006"

	// ============================================================================
	// Type-system errors (TYP###)
	// ============================================================================

	TYP001CannotExtendClass          = "TYP001"
	TYP002CannotImplementInterface   = "TYP002"
	TYP003InstanceClassTrait         = "TYP003"
	TYP004InterfaceNonMethod         = "TYP004"
	TYP005IllegalOverride            = "TYP005"
	TYP006IllegalDefaultValue        = "TYP006"
	TYP007InterfaceMethodUnimpl      = "TYP007"

	// ============================================================================
	// newfunction errors (FUN###)
	// ============================================================================

	FUN001InvalidMethod   = "FUN001"
	FUN002ScopeMismatch   = "FUN002"

	// ============================================================================
	// Loader errors (LDR###)
	// ============================================================================

	LDR001CustomLoaderRejected = "LDR001"
)

// Info provides structured information about an error code.
type Info struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// Registry maps error codes to their information.
var Registry = map[string]Info{
	ABC001MethodMultipleBodies:  {ABC001MethodMultipleBodies, "abcread", "structure", "method_info has more than one method_body"},
	ABC002MethodMissingBody:     {ABC002MethodMissingBody, "abcread", "structure", "method requires a body but none was supplied"},
	ABC003MethodNoBodyAllowed:   {ABC003MethodNoBodyAllowed, "abcread", "structure", "method must not have a body (e.g. interface method)"},
	ABC004MethodInfoAlreadyUsed: {ABC004MethodInfoAlreadyUsed, "abcread", "structure", "method_info already bound to a different handle"},
	ABC005InvalidTraitKind:      {ABC005InvalidTraitKind, "classbuild", "trait", "trait record kind is not valid in this context"},
	ABC006SlotIDTaken:           {ABC006SlotIDTaken, "classbuild", "slot", "slot or disp id already occupied"},
	ABC007ClassCircularRef:      {ABC007ClassCircularRef, "classbuild", "cycle", "class definition graph contains a cycle"},
	ABC008RuntimeNameInvalid:    {ABC008RuntimeNameInvalid, "resolve", "multiname", "runtime-qualified multiname used where disallowed"},
	ABC009ExceptionVarInvalid:   {ABC009ExceptionVarInvalid, "classbuild", "catchscope", "exception handler variable name is invalid"},
	ABC010NoRequiredParams:      {ABC010NoRequiredParams, "sig", "signature", "required parameter follows an optional parameter"},

	RES001AlreadyDefined:        {RES001AlreadyDefined, "globals", "conflict", "global trait already defined"},
	RES002ClassNotFound:         {RES002ClassNotFound, "resolve", "lookup", "referenced class could not be resolved"},
	RES003AmbiguousNameMatch:    {RES003AmbiguousNameMatch, "resolve", "lookup", "multiname resolves to more than one candidate"},
	RES004NonGenericTypeApplied: {RES004NonGenericTypeApplied, "resolve", "generic", "applyType target is not a generic class"},
	RES005TypeArgCountIncorrect: {RES005TypeArgCountIncorrect, "resolve", "generic", "applyType argument count does not match arity"},
	RES006ApplyTypeNonClass:     {RES006ApplyTypeNonClass, "resolve", "generic", "applyType base multiname did not resolve to a class"},

	TYP001CannotExtendClass:        {TYP001CannotExtendClass, "classbuild", "inheritance", "parent class is final or an interface"},
	TYP002CannotImplementInterface: {TYP002CannotImplementInterface, "classbuild", "inheritance", "declared interface multiname is not an interface"},
	TYP003InstanceClassTrait:       {TYP003InstanceClassTrait, "classbuild", "trait", "class-alias trait declared as instance member"},
	TYP004InterfaceNonMethod:       {TYP004InterfaceNonMethod, "classbuild", "trait", "interface declared a non-method trait"},
	TYP005IllegalOverride:          {TYP005IllegalOverride, "sig", "override", "override signature incompatible with base"},
	TYP006IllegalDefaultValue:      {TYP006IllegalDefaultValue, "sig", "default", "default value cannot coerce to the declared parameter type"},
	TYP007InterfaceMethodUnimpl:    {TYP007InterfaceMethodUnimpl, "sig", "interface", "class does not implement a declared interface method"},

	FUN001InvalidMethod: {FUN001InvalidMethod, "schedule", "newfunction", "newfunction referenced a method_info with no method_body"},
	FUN002ScopeMismatch: {FUN002ScopeMismatch, "schedule", "newfunction", "newfunction reused a method_info with a mismatching captured scope"},

	LDR001CustomLoaderRejected: {LDR001CustomLoaderRejected, "finalize", "loader", "caller-supplied loader returned an assembly with a different identity"},
}

// GetInfo returns information about an error code.
func GetInfo(code string) (Info, bool) {
	info, exists := Registry[code]
	return info, exists
}

// IsPhase checks if the error code belongs to the given phase.
func IsPhase(code, phase string) bool {
	info, exists := GetInfo(code)
	return exists && info.Phase == phase
}
