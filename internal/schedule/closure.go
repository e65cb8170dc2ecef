package schedule

import (
	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/backend"
	cperrors "github.com/jfd16/mariana/internal/errors"
)

// ClosureTable implements spec.md §4.I's closure-method reuse rule: a
// `newfunction` referencing a method-info already compiled as a
// closure reuses that compiled method only if the new captured-scope
// signature matches exactly; a mismatch is FUN002.
type ClosureTable struct {
	byMethod map[*abc.MethodInfo]closureEntry
}

type closureEntry struct {
	sigKey string
	handle backend.MethodHandle
}

// NewClosureTable returns an empty table.
func NewClosureTable() *ClosureTable {
	return &ClosureTable{byMethod: make(map[*abc.MethodInfo]closureEntry)}
}

// GetOrRegister implements `createNewFunction(methodInfo, scope)`'s
// reuse check: if m was previously registered with an identical
// scope signature, its existing handle is returned (reused is true);
// if m was previously registered with a *different* signature, FUN002
// is returned. Otherwise m is registered fresh with assign's result.
func (t *ClosureTable) GetOrRegister(m *abc.MethodInfo, sigKey string, assign func() (backend.MethodHandle, error)) (handle backend.MethodHandle, reused bool, err error) {
	if m.Body == nil {
		return backend.InvalidHandle, false, cperrors.New(cperrors.FUN001InvalidMethod, nil,
			"newfunction referenced method_info %s with no method_body", m.Name)
	}

	if existing, ok := t.byMethod[m]; ok {
		if existing.sigKey != sigKey {
			return backend.InvalidHandle, false, cperrors.New(cperrors.FUN002ScopeMismatch, nil,
				"newfunction reused method_info %s with a mismatching captured scope", m.Name)
		}
		return existing.handle, true, nil
	}

	h, err := assign()
	if err != nil {
		return backend.InvalidHandle, false, err
	}
	t.byMethod[m] = closureEntry{sigKey: sigKey, handle: h}
	return h, false, nil
}
