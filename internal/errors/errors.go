// internal/errors/errors.go
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Severity is the JX9 diagnostic level: Notice and Warning are recoverable
// (the VM keeps running after reporting them), Error and ParseError halt
// the current compile or call.
type Severity string

const (
	Notice     Severity = "Notice"
	Warning    Severity = "Warning"
	Error      Severity = "Error"
	ParseError Severity = "ParseError"
)

// SourceLocation is a position in a JX9 source file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ScriptError is the error value the compiler and VM both raise; its
// Error() string is the exact line format a host's output consumer sees.
type ScriptError struct {
	Sev      Severity
	Message  string
	Location SourceLocation
	Function string // enclosing JX9 function name, empty at top level
	Cause    error  // wrapped Go error from a foreign-function call, if any
}

// Error renders "<file> <Severity>: [<function>(): ]<message>\n", the wire
// format JX9's output consumer expects.
func (e *ScriptError) Error() string {
	file := e.Location.File
	if file == "" {
		file = "-"
	}
	if e.Function != "" {
		return fmt.Sprintf("%s %s: %s(): %s\n", file, e.Sev, e.Function, e.Message)
	}
	return fmt.Sprintf("%s %s: %s\n", file, e.Sev, e.Message)
}

func (e *ScriptError) Unwrap() error { return e.Cause }

func New(sev Severity, file string, line, col int, format string, args ...interface{}) *ScriptError {
	return &ScriptError{
		Sev:      sev,
		Message:  fmt.Sprintf(format, args...),
		Location: SourceLocation{File: file, Line: line, Column: col},
	}
}

func NewParseError(file string, line, col int, format string, args ...interface{}) *ScriptError {
	return New(ParseError, file, line, col, format, args...)
}

func NewRuntimeError(file string, line, col int, format string, args ...interface{}) *ScriptError {
	return New(Error, file, line, col, format, args...)
}

func NewWarning(file string, line, col int, format string, args ...interface{}) *ScriptError {
	return New(Warning, file, line, col, format, args...)
}

func NewNotice(file string, line, col int, format string, args ...interface{}) *ScriptError {
	return New(Notice, file, line, col, format, args...)
}

func (e *ScriptError) InFunction(name string) *ScriptError {
	e.Function = name
	return e
}

// Wrap attaches a host-side Go error (typically from a foreign function
// such as internal/database or internal/stream) as the cause, preserving
// its stack trace via github.com/pkg/errors so the original failure site
// survives being re-reported as a JX9 Error-severity line.
func Wrap(cause error, file string, line, col int, context string) *ScriptError {
	wrapped := pkgerrors.Wrap(cause, context)
	return &ScriptError{
		Sev:      Error,
		Message:  wrapped.Error(),
		Location: SourceLocation{File: file, Line: line, Column: col},
		Cause:    wrapped,
	}
}
