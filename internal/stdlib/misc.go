package stdlib

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"jx9/internal/serialize"
	"jx9/internal/value"
	"jx9/internal/vm"
)

// registerMisc installs the remaining builtin library surface named in
// spec §2(h): json_encode/decode, func_get_args, rand, dump/var_dump,
// parse_url, and the utf8_encode/decode pair.
func registerMisc(m *vm.VM) {
	m.RegisterNative("json_encode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		return value.Str(serialize.Encode(oneArg(args))), nil
	})

	m.RegisterNative("json_decode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		s := oneArgString(args)
		v, err := serialize.Decode(s)
		if err != nil {
			return value.Null(), fmt.Errorf("json_decode: %w", err)
		}
		return v, nil
	})

	m.RegisterNative("func_get_args", func(vm *vm.VM, _ []value.Value) (value.Value, error) {
		out := value.NewHashmap()
		for _, a := range vm.CallerArgs() {
			out.Append(a)
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("rand", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		switch len(args) {
		case 0:
			return value.Int(rand.Int63()), nil
		case 1:
			max := args[0].ToInt()
			if max <= 0 {
				return value.Int(0), nil
			}
			return value.Int(rand.Int63n(max)), nil
		default:
			lo, hi := args[0].ToInt(), args[1].ToInt()
			if hi <= lo {
				return value.Int(lo), nil
			}
			return value.Int(lo + rand.Int63n(hi-lo+1)), nil
		}
	})

	// dump writes a human-readable rendering of each argument through the
	// output consumer, the way print() does, but annotated with type info
	// and humanize-formatted magnitudes for ints/byte-sized strings.
	m.RegisterNative("dump", func(vm *vm.VM, args []value.Value) (value.Value, error) {
		for _, a := range args {
			vm.WriteOutput(dumpOne(a, 0) + "\n")
		}
		return value.Null(), nil
	})

	m.RegisterNative("var_dump", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(dumpOne(a, 0))
			b.WriteByte('\n')
		}
		return value.Str(b.String()), nil
	})

	m.RegisterNative("parse_url", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		raw := oneArgString(args)
		u, err := url.Parse(raw)
		if err != nil {
			return value.Null(), fmt.Errorf("parse_url: %w", err)
		}
		out := value.NewHashmap()
		out.SetObjectMode(true)
		if u.Scheme != "" {
			out.InsertStr("scheme", value.Str(u.Scheme))
		}
		if u.Hostname() != "" {
			out.InsertStr("host", value.Str(u.Hostname()))
		}
		if u.Port() != "" {
			out.InsertStr("port", value.Str(u.Port()))
		}
		if u.Path != "" {
			out.InsertStr("path", value.Str(u.Path))
		}
		if u.RawQuery != "" {
			out.InsertStr("query", value.Str(u.RawQuery))
		}
		if u.Fragment != "" {
			out.InsertStr("fragment", value.Str(u.Fragment))
		}
		if u.User != nil {
			out.InsertStr("user", value.Str(u.User.Username()))
		}
		return value.FromHashmap(out), nil
	})

	m.RegisterNative("utf8_encode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		// JX9 strings are already UTF-8 byte sequences; kept as an identity
		// pass-through for scripts ported from the Latin-1-assuming original.
		return value.Str(oneArgString(args)), nil
	})

	m.RegisterNative("utf8_decode", func(_ *vm.VM, args []value.Value) (value.Value, error) {
		s := oneArgString(args)
		if !utf8.ValidString(s) {
			return value.Null(), fmt.Errorf("utf8_decode: invalid UTF-8 input")
		}
		return value.Str(s), nil
	})
}

func dumpOne(v value.Value, depth int) string {
	indent := strings.Repeat("  ", depth)
	switch {
	case v.Is(value.KindInt):
		n := v.RawInt()
		if n >= 1000 || n <= -1000 {
			return fmt.Sprintf("%sint(%d) /* %s */", indent, n, humanize.Comma(n))
		}
		return fmt.Sprintf("%sint(%d)", indent, n)
	case v.Is(value.KindReal):
		return fmt.Sprintf("%sfloat(%s)", indent, v.ToStringValue(serialize.JSONFn))
	case v.Is(value.KindBool):
		return fmt.Sprintf("%sbool(%t)", indent, v.RawBool())
	case v.Is(value.KindString):
		s := v.RawString()
		size := humanize.Bytes(uint64(len(s)))
		return fmt.Sprintf("%sstring(%d) %q /* %s */", indent, len(s), s, size)
	case v.IsHashmap():
		mp := v.Hashmap()
		kind := "array"
		if mp != nil && mp.IsObjectMode() {
			kind = "object"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s(%d) {\n", indent, kind, mp.Len())
		for _, k := range mp.Keys() {
			val, _ := entryFor(mp, k)
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString(fmt.Sprintf("[%s]=>\n", k.ToStringValue(serialize.JSONFn)))
			b.WriteString(dumpOne(val, depth+1))
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteByte('}')
		return b.String()
	case v.IsResource():
		return fmt.Sprintf("%sresource(%v)", indent, v.ResourceData())
	default:
		return indent + "NULL"
	}
}
