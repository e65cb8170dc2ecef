package finalize

import "github.com/jfd16/mariana/internal/backend"

// DefaultLoader is used when no `assemblyLoader` option is configured
// (spec.md §6). It is a trivial echo loader: real deployments load the
// emitted image bytes through the target platform's own assembly
// loader, which is outside this module's scope (spec.md §1 Non-goals)
// — this default exists only so Finalize has something to call in
// tests and in configurations that never supply a custom loader.
type DefaultLoader struct {
	// Identity is what Load reports back; tests set it to match
	// whatever ExpectedIdentity they're validating against.
	Identity ExpectedIdentity
}

func (d DefaultLoader) Load(image []byte) (backend.LoadedAssembly, error) {
	return backend.LoadedAssembly{
		Name:          d.Identity.Name,
		Version:       d.Identity.Version,
		ModuleVersion: d.Identity.ModuleVersion,
	}, nil
}
