// Package compiler lowers a parser.Stmt/parser.Expr tree into bytecode.Chunk
// instruction streams, one chunk per function body (plus small side chunks
// for default-argument expressions, static initializers, and switch-case
// guards, matching the bytecode package's P3 SwitchTable/ForeachNames design).
package compiler

import "jx9/internal/bytecode"

// ParamProto is a compiled formal parameter: Default is nil when the
// parameter has no default, else a standalone chunk evaluated lazily by the
// VM on a call that omits the argument.
type ParamProto struct {
	Name     string
	TypeHint string
	Default  *bytecode.Chunk
}

// Function is one compiled JX9 function (named or lambda). Declaring a
// second function under an already-used name does not replace the first:
// the compiler appends it as another overload of that name (see
// Program.Functions), and the VM picks among them at call time by matching
// the caller's argument kinds against each overload's Params TypeHints —
// longest matching prefix wins, ties go to the first declared (vm.call,
// selectOverload).
type Function struct {
	Name   string
	Params []ParamProto
	Chunk  *bytecode.Chunk

	// StaticInit holds one initializer chunk per `static $x = expr;`
	// declaration inside the function body, keyed by the static variable's
	// name (the string OpStatic's P2 literal index resolves to).
	StaticInit map[string]*bytecode.Chunk
}

// Program is the result of compiling a whole source file: a main chunk
// (the implicit top-level function) plus every named/lambda function
// reached while walking it. Functions is keyed by declared name; each
// entry holds every overload declared under that name, in declaration
// order, so `foo(int $a)` and `foo(string $a)` coexist instead of the
// second silently replacing the first.
type Program struct {
	Main      *bytecode.Chunk
	Functions map[string][]*Function
}
