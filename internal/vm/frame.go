package vm

import (
	"jx9/internal/compiler"
	"jx9/internal/value"
)

// foreachCtx is one live FOREACH_INIT/FOREACH_STEP pair; contexts nest in
// LIFO order since an inner loop's Init/Step pair always fully unwinds
// before the enclosing loop's next Step runs.
type foreachCtx struct {
	m       *value.Hashmap
	keyName string
	valName string
}

// Frame is one function activation: its own variable table (a function
// does not see a calling function's locals unless named in an `uplink`
// statement; top-level globals stay readable through superglobals) and
// its own foreach-context stack.
type Frame struct {
	funcName string
	locals   map[string]value.Value
	foreach  []*foreachCtx

	// fn is the specific overload this frame is executing, so statics and
	// other per-overload lookups don't need to re-run selectOverload or
	// risk picking a sibling overload sharing the same funcName.
	fn *compiler.Function

	// parent is the frame that issued the CALL landing here, used only to
	// resolve `uplink` names; JX9 functions are otherwise lexically closed.
	parent *Frame
	// uplinked records names copied in from parent so their current value
	// can be copied back out when the frame returns (uplink is modeled as
	// copy-in/copy-out rather than true aliasing, see design notes).
	uplinked []string
	// staticNames records every name bound by a STATIC instruction this
	// call, so the call's current value can be saved back to vm.statics.
	staticNames []string

	// superglobals is the VM-wide table consulted when a name is absent
	// from this frame's own locals, so $_GET/$_SERVER/$argv/etc. (and any
	// name installed via InstallSuperglobal) stay visible inside every
	// function body regardless of how deep the call stack is. The VM points
	// it at the global variable table itself, so every top-level variable
	// is readable this way; writes still go to the frame's own locals.
	superglobals map[string]value.Value
}

func newFrame(funcName string) *Frame {
	return &Frame{funcName: funcName, locals: make(map[string]value.Value)}
}

func (f *Frame) get(name string) value.Value {
	if v, ok := f.locals[name]; ok {
		return v
	}
	if f.superglobals != nil {
		if v, ok := f.superglobals[name]; ok {
			return v
		}
	}
	return value.Null()
}

func (f *Frame) set(name string, v value.Value) {
	f.locals[name] = v
}

func (f *Frame) pushForeach(ctx *foreachCtx) {
	f.foreach = append(f.foreach, ctx)
}

func (f *Frame) topForeach() *foreachCtx {
	if len(f.foreach) == 0 {
		return nil
	}
	return f.foreach[len(f.foreach)-1]
}

func (f *Frame) popForeach() {
	if len(f.foreach) == 0 {
		return
	}
	f.foreach = f.foreach[:len(f.foreach)-1]
}
