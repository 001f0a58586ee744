// Package repl implements the interactive read-eval-print loop the jx9
// demo host's `repl` subcommand drives: one line in, immediately compiled
// and run against a long-lived VM so variables and functions declared on
// one line stay visible on the next.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"jx9/internal/engine"
)

// Start runs the loop, reading lines from in and writing prompts/output to
// out, until EOF or a line that is exactly "exit".
func Start(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "jx9 repl | type 'exit' to quit")
	scanner := bufio.NewScanner(in)

	eng := engine.New()
	eng.SetOutputConsumer(func(s string) { fmt.Fprint(out, s) })
	defer eng.Destroy()

	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}
		result, err := eng.Compile(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if !result.IsNull() {
			fmt.Fprintf(out, "=> %s\n", result.ToStringValue(nil))
		}
	}
}
