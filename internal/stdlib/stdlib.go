// Package stdlib registers JX9's builtin foreign-function library — string,
// array, type-predicate, cast, formatting, and database helpers — against a
// VM instance. None of it is special to the compiler or bytecode; every
// builtin is an ordinary vm.NativeFunc reached the same way a host's own
// foreign functions are.
package stdlib

import (
	"jx9/internal/database"
	"jx9/internal/stream"
	"jx9/internal/vm"
)

// Register installs the full standard builtin set, including the
// database.Manager-backed db_* family and the stream.Manager-backed
// stream_* family, onto m.
func Register(m *vm.VM, mgr *database.Manager, streams *stream.Manager) {
	registerStrings(m)
	registerArrays(m)
	registerTypes(m)
	registerMisc(m)
	registerDatabase(m, mgr)
	registerStreams(m, streams)
}
