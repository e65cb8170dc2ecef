package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "marianac.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeTemp(t, "emit_assembly_name: MyAssembly\n")
	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "MyAssembly", opts.EmitAssemblyName)
	require.Equal(t, ConflictFail, opts.AppDomainConflictRes)
	require.Equal(t, RunModeEntryPoints, opts.ScriptInitializerRunMode)
	require.Equal(t, 1, opts.ParallelCompileThreads)
}

func TestLoadRejectsInvalidEnum(t *testing.T) {
	path := writeTemp(t, "app_domain_conflict_resolution: NONSENSE\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNegativeThreads(t *testing.T) {
	path := writeTemp(t, "parallel_compile_threads: -1\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTemp(t, "parallel_compile_threads: 8\napp_domain_conflict_resolution: USE_CHILD\n")
	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, opts.ParallelCompileThreads)
	require.Equal(t, ConflictUseChild, opts.AppDomainConflictRes)
}
