package main

import (
	"fmt"
	"os"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	"github.com/jfd16/mariana/internal/compiler"
	"github.com/jfd16/mariana/internal/config"
	cperrors "github.com/jfd16/mariana/internal/errors"
	"github.com/jfd16/mariana/internal/finalize"
)

// stubMethodCompiler stands in for the real per-method IR/codegen
// backend (spec.md §1 Non-goals): it accepts every compile target and
// writes an empty body, so the rest of the pipeline — scheduling,
// finalization, back-patching — can be exercised without one.
type stubMethodCompiler struct{ compiled int }

func (s *stubMethodCompiler) Compile(file *abc.File, target backend.CompileTarget, asm backend.AssemblyBuilder) error {
	s.compiled++
	asm.SetMethodBody(target.Output, backend.MethodBuilder{})
	return nil
}

func runCompile(args []string) int {
	fs := newFlagSet("compile")
	fixturePath := fs.String("fixture", "", "path to a JSON class-graph fixture (required)")
	configPath := fs.String("config", "", "path to a marianac.yaml config file (optional)")
	fs.Parse(args)

	if *fixturePath == "" {
		fmt.Fprintf(os.Stderr, "%s: -fixture is required\n", red("Error"))
		fs.Usage()
		return 1
	}

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			return 1
		}
		opts = loaded
	}
	if opts.EmitAssemblyName == "" {
		opts.EmitAssemblyName = "marianac-out"
	}

	file, err := loadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}

	asm := backend.NewFake()
	anyType := asm.DefineType("*", backend.TypeClass, backend.TypeAttrs{Dynamic: true}, backend.InvalidHandle, nil)
	domain := newMemDomain()
	ctx := compiler.New(opts, asm, anyType, domain)

	methodCompiler := &stubMethodCompiler{}
	identity := finalize.ExpectedIdentity{Name: opts.EmitAssemblyName, Version: "1.0", ModuleVersion: "dev"}
	loaded := backend.LoadedAssembly{Name: identity.Name, Version: identity.Version, ModuleVersion: identity.ModuleVersion}

	result, err := ctx.Compile(file, methodCompiler, anyType, echoLoader{loaded}, identity, domain)
	if err != nil {
		if rep, ok := cperrors.AsReport(err); ok {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", red("["+rep.Code+"]"), red("compile failed"), rep.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("compile failed"), err)
		}
		return 1
	}

	fmt.Printf("%s %d classes, %d methods compiled, %d bytes emitted\n",
		green("✓"), len(result.Classes), methodCompiler.compiled, len(result.Image))
	for _, cls := range result.Classes {
		fmt.Printf("  %s %s\n", cyan("class"), cls.Name.Local)
	}
	return 0
}

type echoLoader struct{ identity backend.LoadedAssembly }

func (l echoLoader) Load(image []byte) (backend.LoadedAssembly, error) { return l.identity, nil }
