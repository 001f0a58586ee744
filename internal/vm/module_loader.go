package vm

import (
	"fmt"
	"os"

	"jx9/internal/value"
)

// loader tracks which paths (as passed, not resolved) import() has already pulled in, so a
// module's top-level side effects run at most once per VM — include()
// always re-runs, matching the require-vs-require_once-style split the
// original keeps between the two verbs.
type loader struct {
	imported map[string]bool
}

// registerModuleBuiltins installs include()/import(), the single-file/
// module load verbs from spec §4.2/§2(h). This is deliberately not a
// package-manager or dependency resolver (see DESIGN.md's trim entry for
// internal/packages) — both verbs just read a file and hand it to Eval,
// the same compile-and-splice-into-the-running-VM path the REPL uses.
func (vm *VM) registerModuleBuiltins() {
	ld := &loader{imported: make(map[string]bool)}

	vm.RegisterNative("include", func(vm *VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("include(path) expects 1 argument")
		}
		return vm.loadModule(args[0].RawString())
	})

	vm.RegisterNative("import", func(vm *VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("import(path) expects 1 argument")
		}
		path := args[0].RawString()
		if ld.imported[path] {
			return value.Bool(false), nil
		}
		ld.imported[path] = true
		return vm.loadModule(path)
	})
}

// loadModule reads path and evaluates it against this VM's own global
// frame and function table via Eval, so variables and functions it
// declares become visible to the including script.
func (vm *VM) loadModule(path string) (value.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return value.Null(), fmt.Errorf("include: %w", err)
	}
	v, err := vm.Eval(string(src))
	if err != nil {
		return value.Null(), fmt.Errorf("include: %s: %w", path, err)
	}
	return v, nil
}
