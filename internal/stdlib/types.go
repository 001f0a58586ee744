package stdlib

import (
	"fmt"

	"jx9/internal/serialize"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerTypes installs the is_* type predicates and the weak-type
// intval/floatval/strval/boolval casts, mirroring jx9_lib.c's predicate and
// cast builtins. The VM also dispatches CVT_* opcodes, but the parser has no
// `(int)`/`(string)` cast syntax and the compiler never emits them, so these
// builtins are the way scripts cast.
func registerTypes(m *vm.VM) {
	predicate := func(name string, match func(value.Value) bool) {
		m.RegisterNative(name, func(_ *vm.VM, args []value.Value) (value.Value, error) {
			if len(args) < 1 {
				return value.Null(), fmt.Errorf("%s(value) expects 1 argument", name)
			}
			return value.Bool(match(args[0])), nil
		})
	}

	predicate("is_array", func(v value.Value) bool {
		return v.IsHashmap() && v.Hashmap() != nil && !v.Hashmap().IsObjectMode()
	})
	predicate("is_string", func(v value.Value) bool { return v.Is(value.KindString) })
	predicate("is_int", func(v value.Value) bool { return v.Is(value.KindInt) })
	predicate("is_float", func(v value.Value) bool { return v.Is(value.KindReal) })
	predicate("is_bool", func(v value.Value) bool { return v.Is(value.KindBool) })
	predicate("is_null", func(v value.Value) bool { return v.IsNull() })
	predicate("is_callable", func(v value.Value) bool { return v.IsCallable() })

	m.RegisterNative("intval", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Int(oneArg(args).ToInt()), nil
	})
	m.RegisterNative("floatval", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Real(oneArg(args).ToReal()), nil
	})
	m.RegisterNative("strval", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Str(oneArg(args).ToStringValue(serialize.JSONFn)), nil
	})
	m.RegisterNative("boolval", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Bool(oneArg(args).ToBool()), nil
	})
}

func oneArg(args []value.Value) value.Value {
	if len(args) < 1 {
		return value.Null()
	}
	return args[0]
}
