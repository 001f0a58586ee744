package stdlib

import (
	"fmt"
	"strings"

	"jx9/internal/serialize"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerStrings installs the string builtin family: strlen, substr,
// str_replace, explode, implode, trim/ltrim/rtrim, and sprintf/vsprintf
// formatting, matching the breadth of helpers jx9_lib.c registers under
// jx9Builtin_string_*.
func registerStrings(m *vm.VM) {
	m.RegisterNative("strlen", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("strlen(str) expects 1 argument")
		}
		return value.Int(int64(len(args[0].ToStringValue(serialize.JSONFn)))), nil
	})

	m.RegisterNative("substr", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("substr(str, start [, len]) expects at least 2 arguments")
		}
		s := args[0].ToStringValue(serialize.JSONFn)
		start := clampIndex(args[1].ToInt(), len(s))
		end := len(s)
		if len(args) >= 3 {
			n := args[2].ToInt()
			if n < 0 {
				end = clampIndex(int64(len(s))+n, len(s))
			} else {
				end = clampIndex(start+int(n), len(s))
			}
		}
		if end < start {
			end = start
		}
		return value.Str(s[start:end]), nil
	})

	m.RegisterNative("str_replace", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 3 {
			return value.Null(), fmt.Errorf("str_replace(search, replace, subject) expects 3 arguments")
		}
		search := args[0].ToStringValue(serialize.JSONFn)
		replace := args[1].ToStringValue(serialize.JSONFn)
		subject := args[2].ToStringValue(serialize.JSONFn)
		return value.Str(strings.ReplaceAll(subject, search, replace)), nil
	})

	m.RegisterNative("explode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("explode(sep, str) expects 2 arguments")
		}
		sep := args[0].ToStringValue(serialize.JSONFn)
		s := args[1].ToStringValue(serialize.JSONFn)
		parts := strings.Split(s, sep)
		out := value.NewHashmap()
		for _, p := range parts {
			out.Append(value.Str(p))
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("implode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("implode(sep, array) expects 2 arguments")
		}
		sep := args[0].ToStringValue(serialize.JSONFn)
		arr := args[1].ToHashmap()
		parts := make([]string, 0, arr.Len())
		for _, v := range arr.Values() {
			parts = append(parts, v.ToStringValue(serialize.JSONFn))
		}
		return value.Str(strings.Join(parts, sep)), nil
	})

	m.RegisterNative("trim", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimSpace(oneArgString(args))), nil
	})
	m.RegisterNative("ltrim", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimLeft(oneArgString(args), " \t\n\r\v\f")), nil
	})
	m.RegisterNative("rtrim", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimRight(oneArgString(args), " \t\n\r\v\f")), nil
	})

	m.RegisterNative("sprintf", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return value.Null(), fmt.Errorf("sprintf(fmt, ...) expects at least 1 argument")
		}
		return value.Str(formatString(args[0].ToStringValue(serialize.JSONFn), args[1:])), nil
	})

	m.RegisterNative("vsprintf", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Null(), fmt.Errorf("vsprintf(fmt, array) expects 2 arguments")
		}
		arr := args[1].ToHashmap()
		return value.Str(formatString(args[0].ToStringValue(serialize.JSONFn), arr.Values())), nil
	})
}

func oneArgString(args []value.Value) string {
	if len(args) < 1 {
		return ""
	}
	return args[0].ToStringValue(serialize.JSONFn)
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		i = int64(n) + i
	}
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return n
	}
	return int(i)
}

// formatString implements the %s/%d/%f/%x/%% conversions jx9Builtin_sprintf
// supports; any other %-sequence is copied to the output unchanged.
func formatString(layout string, args []value.Value) string {
	var b strings.Builder
	argi := 0
	next := func() value.Value {
		if argi < len(args) {
			v := args[argi]
			argi++
			return v
		}
		return value.Null()
	}
	for i := 0; i < len(layout); i++ {
		c := layout[i]
		if c != '%' || i == len(layout)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch layout[i] {
		case '%':
			b.WriteByte('%')
		case 's':
			b.WriteString(next().ToStringValue(serialize.JSONFn))
		case 'd':
			b.WriteString(fmt.Sprintf("%d", next().ToInt()))
		case 'f':
			b.WriteString(fmt.Sprintf("%f", next().ToReal()))
		case 'x':
			b.WriteString(fmt.Sprintf("%x", next().ToInt()))
		default:
			b.WriteByte('%')
			b.WriteByte(layout[i])
		}
	}
	return b.String()
}
