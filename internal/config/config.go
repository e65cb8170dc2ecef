// Package config loads CompileOptions from a YAML file (spec.md §6's
// configuration-options table), following the same pattern as
// internal/eval_harness's spec loader: read the file, unmarshal with
// gopkg.in/yaml.v3, validate the handful of fields that have no sane
// zero-value default.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConflictResolution mirrors globals.ConflictPolicy in YAML-friendly
// string form.
type ConflictResolution string

const (
	ConflictFail      ConflictResolution = "FAIL"
	ConflictUseChild  ConflictResolution = "USE_CHILD"
	ConflictUseParent ConflictResolution = "USE_PARENT"
)

// RunMode mirrors finalize.RunMode in YAML-friendly string form.
type RunMode string

const (
	RunModeNone         RunMode = "NONE"
	RunModeEntryPoints  RunMode = "RUN_ENTRY_POINTS"
	RunModeAll          RunMode = "RUN_ALL"
)

// IntegerArithmeticMode mirrors the per-method compiler's
// `integerArithmeticMode` option (spec.md §6); the core only threads it
// through verbatim.
type IntegerArithmeticMode string

const (
	IntegerArithmeticDefault     IntegerArithmeticMode = "DEFAULT"
	IntegerArithmeticExplicitOnly IntegerArithmeticMode = "EXPLICIT_ONLY"
	IntegerArithmeticAggressive  IntegerArithmeticMode = "AGGRESSIVE"
)

// CompileOptions is the single options value spec.md §6 describes.
type CompileOptions struct {
	EmitAssemblyName         string                `yaml:"emit_assembly_name"`
	ParallelCompileThreads   int                   `yaml:"parallel_compile_threads"`
	AppDomainConflictRes     ConflictResolution    `yaml:"app_domain_conflict_resolution"`
	ScriptInitializerRunMode RunMode               `yaml:"script_initializer_run_mode"`
	EmitPropertyDefinitions  bool                  `yaml:"emit_property_definitions"`
	EmitParamNames           bool                  `yaml:"emit_param_names"`
	IntegerArithmeticMode    IntegerArithmeticMode `yaml:"integer_arithmetic_mode"`
	IncludeInheritedGlobals  bool                  `yaml:"include_inherited_globals"`
}

// Default returns the options spec.md implies when nothing is
// configured: sequential compilation, FAIL on global conflicts, run
// only entry-point scripts.
func Default() CompileOptions {
	return CompileOptions{
		ParallelCompileThreads:   1,
		AppDomainConflictRes:     ConflictFail,
		ScriptInitializerRunMode: RunModeEntryPoints,
		IntegerArithmeticMode:    IntegerArithmeticDefault,
	}
}

// Load reads and validates a CompileOptions YAML file, starting from
// Default() so an omitted field keeps its sane default rather than
// zeroing out.
func Load(path string) (CompileOptions, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate rejects configurations with no sane runtime meaning.
func (o CompileOptions) Validate() error {
	switch o.AppDomainConflictRes {
	case ConflictFail, ConflictUseChild, ConflictUseParent:
	default:
		return fmt.Errorf("invalid app_domain_conflict_resolution: %q", o.AppDomainConflictRes)
	}
	switch o.ScriptInitializerRunMode {
	case RunModeNone, RunModeEntryPoints, RunModeAll:
	default:
		return fmt.Errorf("invalid script_initializer_run_mode: %q", o.ScriptInitializerRunMode)
	}
	switch o.IntegerArithmeticMode {
	case IntegerArithmeticDefault, IntegerArithmeticExplicitOnly, IntegerArithmeticAggressive:
	default:
		return fmt.Errorf("invalid integer_arithmetic_mode: %q", o.IntegerArithmeticMode)
	}
	if o.ParallelCompileThreads < 0 {
		return fmt.Errorf("parallel_compile_threads must be >= 0, got %d", o.ParallelCompileThreads)
	}
	return nil
}
