package stdlib

import (
	"fmt"
	"sort"

	"jx9/internal/serialize"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerArrays installs the array/hashmap builtin family: count,
// array_keys/array_values, array_merge, in_array, array_push/array_pop, and
// sort — grounded on jx9_lib.c's jx9Builtin_array_* family, restricted to
// ARRAY-mode hashmaps where order is index-defined.
func registerArrays(m *vm.VM) {
	m.RegisterNative("count", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("count(array) expects 1 argument")
		}
		return value.Int(int64(args[0].ToHashmap().Len())), nil
	})

	m.RegisterNative("array_keys", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("array_keys(array) expects 1 argument")
		}
		out := value.NewHashmap()
		for _, k := range args[0].ToHashmap().Keys() {
			out.Append(k)
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("array_values", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("array_values(array) expects 1 argument")
		}
		out := value.NewHashmap()
		for _, v := range args[0].ToHashmap().Values() {
			out.Append(v)
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("array_merge", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		out := value.NewHashmap()
		for _, a := range args {
			src := a.ToHashmap()
			for _, k := range src.Keys() {
				v, _ := entryFor(src, k)
				if k.Is(value.KindInt) {
					out.Append(v)
				} else {
					out.InsertStr(k.RawString(), v)
				}
			}
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("in_array", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("in_array(needle, array) expects 2 arguments")
		}
		needle := args[0]
		for _, v := range args[1].ToHashmap().Values() {
			if value.LooseEqual(needle, v, serialize.JSONFn) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	m.RegisterNative("array_push", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("array_push(array, value) expects 2 arguments")
		}
		arr := args[0].Hashmap()
		if arr == nil {
			return value.Null(), fmt.Errorf("array_push: first argument is not an array")
		}
		arr.Append(args[1])
		return value.Int(int64(arr.Len())), nil
	})

	m.RegisterNative("array_pop", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("array_pop(array) expects 1 argument")
		}
		arr := args[0].Hashmap()
		if arr == nil || arr.Len() == 0 {
			return value.Null(), nil
		}
		keys := arr.Keys()
		last := keys[len(keys)-1]
		v, _ := entryFor(arr, last)
		if last.Is(value.KindInt) {
			arr.DeleteInt(last.RawInt())
		} else {
			arr.DeleteStr(last.RawString())
		}
		return v, nil
	})

	m.RegisterNative("sort", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("sort(array) expects 1 argument")
		}
		arr := args[0].Hashmap()
		if arr == nil {
			return value.Null(), fmt.Errorf("sort: argument is not an array")
		}
		if !arr.IsArrayMode() {
			return value.Null(), fmt.Errorf("sort: only supported on array-mode hashmaps")
		}
		vals := arr.Values()
		sort.SliceStable(vals, func(i, j int) bool { return valueLess(vals[i], vals[j]) })
		for i, v := range vals {
			arr.InsertInt(int64(i), v)
		}
		return value.Bool(true), nil
	})
}

func entryFor(m *value.Hashmap, key value.Value) (value.Value, bool) {
	if key.Is(value.KindInt) {
		return m.GetInt(key.RawInt())
	}
	return m.GetStr(key.RawString())
}

func valueLess(a, b value.Value) bool {
	if a.Is(value.KindString) && b.Is(value.KindString) {
		return a.RawString() < b.RawString()
	}
	return a.ToReal() < b.ToReal()
}
