package vm

import (
	"fmt"

	"jx9/internal/compiler"
	"jx9/internal/lexer"
	"jx9/internal/parser"
	"jx9/internal/value"
)

// Eval compiles src as a standalone program and runs it against this VM's
// existing global frame, merging any functions it declares into the
// running program. This is the shared mechanism the REPL, the demo host's
// one-shot `run` subcommand, and include()/import() all build on to extend
// a live VM with more source after New().
func (vm *VM) Eval(src string) (value.Value, error) {
	scanner := lexer.NewScanner(src)
	tokens := scanner.ScanTokens()
	p := parser.New(tokens)
	stmts := p.ParseProgram()
	if len(p.Errors) > 0 {
		return value.Null(), fmt.Errorf("parse errors: %v", p.Errors)
	}
	program, errs := compiler.Compile(stmts)
	if len(errs) > 0 {
		return value.Null(), fmt.Errorf("compile errors: %v", errs)
	}
	for name, fns := range program.Functions {
		vm.program.Functions[name] = append(vm.program.Functions[name], fns...)
	}
	globalFrame := newFrame("")
	globalFrame.locals = vm.globals
	globalFrame.superglobals = vm.globals
	result, err := vm.runChunk(program.Main, globalFrame)
	if _, ok := err.(*haltSignal); ok {
		return value.Null(), nil
	}
	return result, err
}
