// Package vm executes compiled JX9 bytecode: a single-threaded,
// register-less stack dispatcher operating on one Program (a main chunk
// plus every function/lambda body reached while compiling it).
package vm

import (
	"fmt"

	"jx9/internal/bytecode"
	"jx9/internal/compiler"
	"jx9/internal/errors"
	"jx9/internal/serialize"
	"jx9/internal/value"
)

// maxCallDepth bounds JX9 function-call recursion; exceeding it raises a
// recoverable Error rather than letting a runaway script exhaust the Go
// stack.
const maxCallDepth = 512

// haltSignal unwinds every active runChunk call back to Run when a script
// executes die()/exit(); it is not a ScriptError since it isn't a failure.
type haltSignal struct {
	status value.Value
}

func (h *haltSignal) Error() string { return "jx9: halted" }

// VM holds everything that outlives a single call: globals, registered
// foreign functions/constants, per-function static storage, and the output
// sink print()/dump() write through.
type VM struct {
	program *compiler.Program
	globals map[string]value.Value
	natives map[string]NativeFunc
	statics map[string]map[string]value.Value

	output func(string)
	file   string

	callDepth    int
	maxCallDepth int

	// activeFrame is the JX9 function frame currently issuing a native call,
	// so a native like func_get_args() can read the caller's own argument
	// list without NativeFunc needing a Frame in its signature.
	activeFrame *Frame
}

func New(program *compiler.Program) *VM {
	vm := &VM{
		program:      program,
		globals:      make(map[string]value.Value),
		natives:      make(map[string]NativeFunc),
		statics:      make(map[string]map[string]value.Value),
		output:       func(s string) { fmt.Print(s) },
		file:         "-",
		maxCallDepth: maxCallDepth,
	}
	vm.RegisterNative("__print", func(vm *VM, args []value.Value) (value.Value, error) {
		for _, a := range args {
			vm.output(a.ToStringValue(serialize.JSONFn))
		}
		return value.Null(), nil
	})
	vm.registerModuleBuiltins()
	return vm
}

// SetOutput installs the callback print()/string-interpolation output is
// consumed by, replacing the default (write to stdout).
func (vm *VM) SetOutput(fn func(string)) { vm.output = fn }

// WriteOutput writes s through the same sink print() uses, for builtins
// like dump() that produce output outside the normal CONSUME/print path.
func (vm *VM) WriteOutput(s string) { vm.output(s) }

// warnDivisionByZero reports the recoverable Warning the original raises
// from jx9VmThrowError on a division/modulo by zero, through the same
// consumer an embedder's error-reporting configure verb already writes
// script errors to — division by zero never halts the script, so this is
// unconditional rather than gated behind EnableErrorReporting.
func (vm *VM) warnDivisionByZero() {
	vm.output(errors.NewWarning(vm.file, 0, 0, "Division by zero").Error())
}

// SetFile names the source file used in error wire-format lines.
func (vm *VM) SetFile(f string) { vm.file = f }

// SetMaxCallDepth overrides the recursion guard (default 512), the
// embedding API's "set recursion depth" configure verb (spec §6).
func (vm *VM) SetMaxCallDepth(n int) { vm.maxCallDepth = n }

// SetGlobal installs name=v directly into the global frame, the embedding
// API's "install a superglobal entry" configure verb — unlike
// RegisterConstant, the value is not marked with value.ConstSlot.
func (vm *VM) SetGlobal(name string, v value.Value) { vm.globals[name] = v }

// Run executes the program's top-level chunk to completion.
func (vm *VM) Run() error {
	globalFrame := newFrame("")
	globalFrame.locals = vm.globals
	globalFrame.superglobals = vm.globals
	_, err := vm.runChunk(vm.program.Main, globalFrame)
	if _, ok := err.(*haltSignal); ok {
		return nil
	}
	return err
}

func constToValue(c interface{}) value.Value {
	switch v := c.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case int64:
		return value.Int(v)
	case float64:
		return value.Real(v)
	case string:
		return value.Str(v)
	default:
		return value.Null()
	}
}

func constName(chunk *bytecode.Chunk, idx uint32) string {
	if int(idx) >= len(chunk.Constants) {
		return ""
	}
	s, _ := chunk.Constants[idx].(string)
	return s
}

// runChunk executes one instruction stream against frame fr's locals: it is
// used both for full function bodies (terminated by an explicit DONE) and
// for the small standalone chunks the compiler emits for default-argument
// expressions, static initializers, and switch-case guards (which simply
// run off the end of their code and yield the top of their own stack).
func (vm *VM) runChunk(chunk *bytecode.Chunk, fr *Frame) (value.Value, error) {
	stack := make([]value.Value, 0, chunk.Len()/4+8)
	push := func(v value.Value) { stack = append(stack, v) }
	pop := func() value.Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	popN := func(n int) []value.Value {
		out := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			out[i] = pop()
		}
		return out
	}

	code := chunk.Code
	ip := 0
	for ip < len(code) {
		op := bytecode.OpCode(code[ip])
		opOff := ip
		ip++

		switch op {
		case bytecode.OpNoop:

		case bytecode.OpDone:
			p1 := chunk.ReadP1(ip)
			ip += 4
			if p1 == 1 {
				return pop(), nil
			}
			return value.Null(), nil

		case bytecode.OpHalt:
			p1 := chunk.ReadP1(ip)
			ip += 4
			status := value.Null()
			if p1 == 1 {
				status = pop()
				if status.Is(value.KindString) {
					vm.output(status.RawString())
				}
			}
			return value.Null(), &haltSignal{status: status}

		case bytecode.OpJmp:
			target := chunk.ReadP2(ip)
			ip = int(target)

		case bytecode.OpJz:
			keep := chunk.ReadP1(ip)
			target := chunk.ReadP2(ip + 4)
			ip += 8
			var top value.Value
			if keep == 1 {
				top = stack[len(stack)-1]
			} else {
				top = pop()
			}
			if !top.ToBool() {
				ip = int(target)
			}

		case bytecode.OpJnz:
			keep := chunk.ReadP1(ip)
			target := chunk.ReadP2(ip + 4)
			ip += 8
			var top value.Value
			if keep == 1 {
				top = stack[len(stack)-1]
			} else {
				top = pop()
			}
			if top.ToBool() {
				ip = int(target)
			}

		case bytecode.OpPop:
			n := chunk.ReadP1(ip)
			ip += 4
			for i := int32(0); i < n && len(stack) > 0; i++ {
				pop()
			}

		case bytecode.OpLoadC:
			idx := chunk.ReadP2(ip)
			ip += 4
			push(constToValue(chunk.Constants[idx]))

		case bytecode.OpLoadVar:
			idx := chunk.ReadP2(ip)
			ip += 4
			push(vm.loadVar(fr, constName(chunk, idx)))

		case bytecode.OpStoreVar:
			idx := chunk.ReadP2(ip)
			ip += 4
			v := pop()
			fr.set(constName(chunk, idx), v)
			push(v)

		case bytecode.OpAddStore, bytecode.OpSubStore, bytecode.OpMulStore,
			bytecode.OpDivStore, bytecode.OpModStore, bytecode.OpCatStore:
			idx := chunk.ReadP2(ip)
			ip += 4
			name := constName(chunk, idx)
			rhs := pop()
			cur := fr.get(name)
			var result value.Value
			switch op {
			case bytecode.OpAddStore:
				result = addValues(cur, rhs)
			case bytecode.OpSubStore:
				result = subValues(cur, rhs)
			case bytecode.OpMulStore:
				result = mulValues(cur, rhs)
			case bytecode.OpDivStore:
				result = divValues(vm, cur, rhs)
			case bytecode.OpModStore:
				result = modValues(vm, cur, rhs)
			case bytecode.OpCatStore:
				result = concatValues([]value.Value{cur, rhs})
			}
			fr.set(name, result)
			push(result)

		case bytecode.OpCvtInt:
			push(value.Int(pop().ToInt()))
		case bytecode.OpCvtReal:
			push(value.Real(pop().ToReal()))
		case bytecode.OpCvtStr:
			push(value.Str(pop().ToStringValue(serialize.JSONFn)))
		case bytecode.OpCvtBool:
			push(value.Bool(pop().ToBool()))
		case bytecode.OpCvtNull:
			pop()
			push(value.Null())
		case bytecode.OpCvtNumeric:
			v := pop()
			if v.Is(value.KindReal) {
				push(value.Real(v.ToReal()))
			} else {
				push(value.Int(v.ToInt()))
			}
		case bytecode.OpCvtArray:
			push(value.FromHashmap(pop().ToHashmap()))

		case bytecode.OpAdd:
			b, a := pop(), pop()
			push(addValues(a, b))
		case bytecode.OpSub:
			b, a := pop(), pop()
			push(subValues(a, b))
		case bytecode.OpMul:
			b, a := pop(), pop()
			push(mulValues(a, b))
		case bytecode.OpDiv:
			b, a := pop(), pop()
			push(divValues(vm, a, b))
		case bytecode.OpMod:
			b, a := pop(), pop()
			push(modValues(vm, a, b))
		case bytecode.OpNeg:
			push(negValue(pop()))

		case bytecode.OpBAnd:
			b, a := pop(), pop()
			push(bandValues(a, b))
		case bytecode.OpBOr:
			b, a := pop(), pop()
			push(borValues(a, b))
		case bytecode.OpBXor:
			b, a := pop(), pop()
			push(bxorValues(a, b))
		case bytecode.OpBNot:
			push(bnotValue(pop()))
		case bytecode.OpShl:
			b, a := pop(), pop()
			push(shlValues(a, b))
		case bytecode.OpShr:
			b, a := pop(), pop()
			push(shrValues(a, b))

		case bytecode.OpLXor:
			b, a := pop(), pop()
			push(value.Bool(a.ToBool() != b.ToBool()))
		case bytecode.OpLNot:
			push(value.Bool(!pop().ToBool()))

		case bytecode.OpCat:
			n := chunk.ReadP1(ip)
			ip += 4
			push(concatValues(popN(int(n))))

		case bytecode.OpEq, bytecode.OpNeq, bytecode.OpTEq, bytecode.OpTNe,
			bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			ip += 4 // P2 unused ("push the bool" mode only, see compiler)
			b, a := pop(), pop()
			push(value.Bool(vm.evalComparison(op, a, b)))

		case bytecode.OpNewArray:
			n := chunk.ReadP2(ip)
			ip += 4
			elems := popN(int(n))
			m := value.NewHashmap()
			for _, e := range elems {
				m.Append(e)
			}
			push(value.FromHashmap(m))

		case bytecode.OpNewObject:
			n := chunk.ReadP2(ip)
			ip += 4
			pairs := popN(int(n) * 2)
			m := value.NewHashmap()
			m.SetObjectMode(true)
			for i := 0; i < len(pairs); i += 2 {
				key, val := pairs[i], pairs[i+1]
				if key.Is(value.KindInt) {
					m.InsertInt(key.ToInt(), val)
				} else {
					m.InsertStr(key.ToStringValue(serialize.JSONFn), val)
				}
			}
			push(value.FromHashmap(m))

		case bytecode.OpLoadIdx:
			ip += 4 // P2 unused placeholder
			key := pop()
			container := pop()
			push(indexGet(container, key))

		case bytecode.OpStoreIdx:
			val := pop()
			key := pop()
			container := pop()
			indexSet(container, key, val)
			push(val)

		case bytecode.OpMember:
			idx := chunk.ReadP2(ip)
			ip += 4
			obj := pop()
			push(memberGet(obj, constName(chunk, idx)))

		case bytecode.OpMemberSet:
			idx := chunk.ReadP2(ip)
			ip += 4
			val := pop()
			obj := pop()
			memberSet(obj, constName(chunk, idx), val)
			push(val)

		case bytecode.OpEnsureContainer:
			mode := chunk.ReadP1(ip)
			idx := chunk.ReadP2(ip + 4)
			ip += 8
			cur := pop()
			name := constName(chunk, idx)
			if cur.IsNull() {
				m := value.NewHashmap()
				m.SetObjectMode(mode == 1)
				cur = value.FromHashmap(m)
				fr.set(name, cur)
			}
			push(cur)

		case bytecode.OpEnsureIdxContainer:
			mode := chunk.ReadP1(ip)
			ip += 4
			key := pop()
			container := pop()
			push(ensureIdxContainer(container, key, mode == 1))

		case bytecode.OpEnsureMemberContainer:
			mode := chunk.ReadP1(ip)
			idx := chunk.ReadP2(ip + 4)
			ip += 8
			container := pop()
			push(ensureMemberContainer(container, constName(chunk, idx), mode == 1))

		case bytecode.OpForeachInit:
			hasKey := chunk.ReadP1(ip)
			ip += 4
			_ = hasKey
			names, _ := chunk.P3At(opOff).(*bytecode.ForeachNames)
			coll := pop()
			m := coll.ToHashmap()
			m.ResetCursor()
			fr.pushForeach(&foreachCtx{m: m, keyName: names.KeyName, valName: names.ValueName})

		case bytecode.OpForeachStep:
			target := chunk.ReadP2(ip)
			ip += 4
			ctx := fr.topForeach()
			if ctx == nil || !ctx.m.CursorValid() {
				fr.popForeach()
				ip = int(target)
				continue
			}
			k, v := ctx.m.CursorEntry()
			if ctx.keyName != "" {
				fr.set(ctx.keyName, k)
			}
			fr.set(ctx.valName, v)
			ctx.m.CursorAdvance()

		case bytecode.OpSwitch:
			table, _ := chunk.P3At(opOff).(*bytecode.SwitchTable)
			subj := pop()
			matched := false
			for _, cs := range table.Cases {
				guardVal, err := vm.runChunk(cs.CaseChunk, fr)
				if err != nil {
					return value.Null(), err
				}
				if value.LooseEqual(subj, guardVal, serialize.JSONFn) {
					ip = cs.Target
					matched = true
					break
				}
			}
			if !matched {
				if table.HasDefault {
					ip = table.DefaultTo
				} else {
					ip = table.ExitTarget
				}
			}

		case bytecode.OpCall:
			argc := chunk.ReadP1(ip)
			ip += 4
			callee := pop()
			args := popN(int(argc))
			result, err := vm.call(callee.ToStringValue(serialize.JSONFn), args, fr)
			if err != nil {
				return value.Null(), err
			}
			push(result)

		case bytecode.OpMkFunc:
			idx := chunk.ReadP2(ip)
			ip += 4
			push(value.Str(constName(chunk, idx)))

		case bytecode.OpUplink:
			count := chunk.ReadP1(ip)
			ip += 4
			idxs, _ := chunk.P3At(opOff).([]int)
			for i := 0; i < int(count) && i < len(idxs); i++ {
				name := constName(chunk, uint32(idxs[i]))
				if fr.parent != nil {
					fr.locals[name] = fr.parent.get(name)
					fr.uplinked = append(fr.uplinked, name)
				}
			}

		case bytecode.OpStatic:
			idx := chunk.ReadP2(ip)
			ip += 4
			name := constName(chunk, idx)
			vm.bindStatic(fr, name)

		case bytecode.OpConsume:
			n := chunk.ReadP1(ip)
			ip += 4
			vals := popN(int(n))
			for _, v := range vals {
				vm.output(v.ToStringValue(serialize.JSONFn))
			}

		case bytecode.OpDeclareConst:
			idx := chunk.ReadP2(ip)
			ip += 4
			v := pop()
			vm.RegisterConstant(constName(chunk, idx), v)

		default:
			return value.Null(), errors.NewRuntimeError(vm.file, 0, 0, "unimplemented opcode %s", op)
		}
	}

	if len(stack) > 0 {
		return stack[len(stack)-1], nil
	}
	return value.Null(), nil
}

func (vm *VM) evalComparison(op bytecode.OpCode, a, b value.Value) bool {
	switch op {
	case bytecode.OpEq:
		return value.LooseEqual(a, b, serialize.JSONFn)
	case bytecode.OpNeq:
		return !value.LooseEqual(a, b, serialize.JSONFn)
	case bytecode.OpTEq:
		return value.StrictEqual(a, b, serialize.JSONFn)
	case bytecode.OpTNe:
		return !value.StrictEqual(a, b, serialize.JSONFn)
	case bytecode.OpLt:
		return value.Compare(a, b, serialize.JSONFn) < 0
	case bytecode.OpLe:
		return value.Compare(a, b, serialize.JSONFn) <= 0
	case bytecode.OpGt:
		return value.Compare(a, b, serialize.JSONFn) > 0
	case bytecode.OpGe:
		return value.Compare(a, b, serialize.JSONFn) >= 0
	}
	return false
}

// loadVar resolves a NAME literal: a leading '$' marks a bareword
// identifier reference (a constant if one is registered, else a bare
// function-name value usable as a CALL callee); anything else is an
// ordinary per-frame variable lookup.
func (vm *VM) loadVar(fr *Frame, name string) value.Value {
	if len(name) > 0 && name[0] == '$' {
		bare := name[1:]
		if cv, ok := vm.globals[bare]; ok {
			return cv
		}
		return value.Str(bare)
	}
	return fr.get(name)
}

func (vm *VM) bindStatic(fr *Frame, name string) {
	fn := fr.fn
	if vm.statics[fr.funcName] == nil {
		vm.statics[fr.funcName] = make(map[string]value.Value)
	}
	if _, ok := vm.statics[fr.funcName][name]; !ok {
		init := value.Null()
		if fn != nil {
			if initChunk, ok := fn.StaticInit[name]; ok {
				v, _ := vm.runChunk(initChunk, fr)
				init = v
			}
		}
		vm.statics[fr.funcName][name] = init
	}
	fr.set(name, vm.statics[fr.funcName][name])
	fr.staticNames = append(fr.staticNames, name)
}

// call dispatches a named callee: natives first (host-registered foreign
// functions take priority so a script cannot shadow, say, db_query), then
// user-defined functions/lambdas compiled into the program. caller is the
// frame issuing the call, threaded through only so `uplink` can reach it.
func (vm *VM) call(name string, args []value.Value, caller *Frame) (value.Value, error) {
	if native, ok := vm.natives[name]; ok {
		prev := vm.activeFrame
		vm.activeFrame = caller
		result, err := native(vm, args)
		vm.activeFrame = prev
		return result, err
	}
	overloads, ok := vm.program.Functions[name]
	if !ok || len(overloads) == 0 {
		return value.Null(), errors.NewRuntimeError(vm.file, 0, 0, "call to undefined function %s()", name)
	}
	fn := selectOverload(overloads, args)
	vm.callDepth++
	defer func() { vm.callDepth-- }()
	if vm.callDepth > vm.maxCallDepth {
		return value.Null(), errors.NewRuntimeError(vm.file, 0, 0, "max recursion depth (%d) exceeded in %s()", vm.maxCallDepth, name)
	}

	fr := newFrame(name)
	fr.parent = caller
	fr.superglobals = vm.globals
	fr.fn = fn
	argsArr := value.NewHashmap()
	for i, p := range fn.Params {
		if i < len(args) {
			fr.set(p.Name, castToHint(args[i], p.TypeHint))
		} else if p.Default != nil {
			v, err := vm.runChunk(p.Default, fr)
			if err != nil {
				return value.Null(), err
			}
			fr.set(p.Name, v)
		} else {
			fr.set(p.Name, value.Null())
		}
	}
	for _, a := range args {
		argsArr.Append(a)
	}
	fr.set("__args", value.FromHashmap(argsArr))

	result, err := vm.runChunk(fn.Chunk, fr)

	for _, name := range fr.uplinked {
		if caller != nil {
			caller.set(name, fr.get(name))
		}
	}
	for _, name := range fr.staticNames {
		if vm.statics[fr.funcName] != nil {
			vm.statics[fr.funcName][name] = fr.get(name)
		}
	}

	if err != nil {
		return value.Null(), err
	}
	return result, nil
}
