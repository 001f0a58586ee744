// Command jx9 is a thin embedding example over internal/engine: run/repl/
// dump are all just different callers of the same Engine handle a real
// host embedding this package would use, plus a disassembly path that
// only needs the compiler, not a live VM.
package main

import (
	"bufio"
	"fmt"
	"os"

	"jx9/internal/bytecode"
	"jx9/internal/compiler"
	"jx9/internal/engine"
	"jx9/internal/errors"
	"jx9/internal/lexer"
	"jx9/internal/parser"
	"jx9/internal/repl"
)

const version = "0.1.0"

// commandAliases mirrors the short-form dispatch the teacher's CLI used
// for its own subcommands (r/i/d for run/repl/dump).
var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"d": "dump",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Printf("jx9 %s\n", version)
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jx9 run <file.jx9>")
			os.Exit(1)
		}
		runFile(args[1])
	case "repl":
		repl.Start(os.Stdin, os.Stdout)
	case "dump":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jx9 dump <file.jx9>")
			os.Exit(1)
		}
		dumpFile(args[1])
	default:
		showUsage()
		os.Exit(1)
	}
}

func runFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read file: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New()
	eng.VM.SetFile(filename)
	for _, a := range os.Args[2:] {
		eng.AppendArgv(a)
	}
	defer eng.Destroy()

	if _, err := eng.Compile(string(source)); err != nil {
		if se, ok := err.(*errors.ScriptError); ok {
			fmt.Fprintln(os.Stderr, se.Error())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// dumpFile compiles filename and prints its bytecode disassembly, the
// lightweight introspection aid the teacher's `--dump`-style flags gave
// for its own hotfix VMs, adapted to JX9's P1/P2/P3 instruction shape.
func dumpFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read file: %v\n", err)
		os.Exit(1)
	}
	scanner := lexer.NewScanner(string(source))
	tokens := scanner.ScanTokens()
	p := parser.New(tokens)
	stmts := p.ParseProgram()
	if len(p.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "parse errors: %v\n", p.Errors)
		os.Exit(1)
	}
	program, errs := compiler.Compile(stmts)
	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "compile errors: %v\n", errs)
		os.Exit(1)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	fmt.Fprintln(w, "; main")
	bytecode.Disassemble(w, program.Main)
	for name, fns := range program.Functions {
		for i, fn := range fns {
			if len(fns) > 1 {
				fmt.Fprintf(w, "\n; function %s (overload %d)\n", name, i)
			} else {
				fmt.Fprintf(w, "\n; function %s\n", name)
			}
			bytecode.Disassemble(w, fn.Chunk)
		}
	}
}

func showUsage() {
	fmt.Println("jx9 - embeddable document-store scripting engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  jx9 run <file.jx9>     Compile and run a script          (alias: r)")
	fmt.Println("  jx9 repl               Start the interactive REPL        (alias: i)")
	fmt.Println("  jx9 dump <file.jx9>    Print a script's bytecode listing (alias: d)")
	fmt.Println("  jx9 version            Show the version")
	fmt.Println("  jx9 help               Show this message")
}
