// Package value implements the JX9 dynamic value system: a tagged variant
// carrying null, bool, int, real, string, hashmap, and resource data, plus
// the coercion and comparison rules the language depends on.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is a bitset over the value's simultaneously-held representations.
// INT and REAL may both be set after a successful numeric promotion; the
// presentation priority is REAL > INT > BOOL > NULL (see TypeName).
type Kind uint8

const (
	KindNull Kind = 1 << iota
	KindBool
	KindInt
	KindReal
	KindString
	KindHashmap
	KindResource
)

// NoSlot marks a Value as not backed by a VM global-pool slot.
const NoSlot = -1

// ConstSlot marks a Value registered as a constant. The VM's store
// instructions do not check the mark, so an assignment to the same name
// replaces the value.
const ConstSlot = -2

// Value is the tagged JX9 runtime variant. It is always copied by the VM
// except for Hashmap/Resource payloads, which are reference-counted and
// shared (see Hashmap.Ref / Hashmap.Unref).
type Value struct {
	kind Kind

	boolVal   bool
	intVal    int64
	realVal   float64
	strVal    []byte
	mapVal    *Hashmap
	resVal    interface{}

	// Index identifies this value's slot in the VM's global object pool.
	// NoSlot means the value is not (yet) backed by a named slot; ConstSlot
	// marks a value registered as a constant (assignment is not blocked).
	Index int
}

func Null() Value { return Value{kind: KindNull, Index: NoSlot} }

func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b, Index: NoSlot} }

func Int(i int64) Value { return Value{kind: KindInt, intVal: i, Index: NoSlot} }

func Real(f float64) Value { return Value{kind: KindReal, realVal: f, Index: NoSlot} }

func Str(s string) Value { return Value{kind: KindString, strVal: []byte(s), Index: NoSlot} }

func StrBytes(b []byte) Value { return Value{kind: KindString, strVal: b, Index: NoSlot} }

func FromHashmap(m *Hashmap) Value {
	m.Ref()
	return Value{kind: KindHashmap, mapVal: m, Index: NoSlot}
}

func Resource(r interface{}) Value { return Value{kind: KindResource, resVal: r, Index: NoSlot} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Is(k Kind) bool { return v.kind&k != 0 }

func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsHashmap() bool  { return v.kind == KindHashmap }
func (v Value) IsResource() bool { return v.kind == KindResource }
func (v Value) IsCallable() bool { return v.kind == KindString || v.kind == KindHashmap }

// Hashmap returns the backing map, or nil if this value is not a hashmap.
func (v Value) Hashmap() *Hashmap { return v.mapVal }

// ResourceData returns the opaque host payload, or nil.
func (v Value) ResourceData() interface{} { return v.resVal }

// RawString returns the raw bytes without any coercion; only meaningful
// when Kind() == KindString.
func (v Value) RawString() string { return string(v.strVal) }

// RawBool/RawInt/RawReal return the stored representation directly, without
// triggering coercion; callers that need PHP/JX9-style coercion should use
// ToBool/ToInt/ToReal instead.
func (v Value) RawBool() bool    { return v.boolVal }
func (v Value) RawInt() int64    { return v.intVal }
func (v Value) RawReal() float64 { return v.realVal }

// TypeName returns the JX9 type name of v, following the REAL > INT > BOOL > NULL presentation priority for values
// that carry more than one simultaneous representation.
func (v Value) TypeName() string {
	switch {
	case v.kind&KindHashmap != 0:
		if v.mapVal != nil && v.mapVal.IsObjectMode() {
			return "object"
		}
		return "array"
	case v.kind&KindResource != 0:
		return "resource"
	case v.kind&KindReal != 0:
		return "float"
	case v.kind&KindInt != 0:
		return "int"
	case v.kind&KindBool != 0:
		return "bool"
	case v.kind&KindString != 0:
		return "string"
	default:
		return "null"
	}
}

// ---- Coercion (spec §4.3) ----

// ToBool applies the bool-coercion rules: false iff the value is null,
// exactly zero (int/real), an empty/"false"/all-zero-bytes string, or an
// empty hashmap.
func (v Value) ToBool() bool {
	switch {
	case v.kind&KindHashmap != 0:
		return v.mapVal != nil && v.mapVal.Len() > 0
	case v.kind&KindResource != 0:
		return v.resVal != nil
	case v.kind&KindReal != 0:
		return v.realVal != 0
	case v.kind&KindInt != 0:
		return v.intVal != 0
	case v.kind&KindBool != 0:
		return v.boolVal
	case v.kind&KindString != 0:
		return !stringIsFalsy(v.strVal)
	default:
		return false
	}
}

func stringIsFalsy(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	if string(b) == "false" {
		return true
	}
	for _, c := range b {
		if c != '0' {
			return false
		}
	}
	return true
}

// ToInt applies the int-coercion rules, truncating toward zero and
// clamping out-of-range reals to math.MinInt64.
func (v Value) ToInt() int64 {
	switch {
	case v.kind&KindInt != 0:
		return v.intVal
	case v.kind&KindReal != 0:
		return realToInt(v.realVal)
	case v.kind&KindBool != 0:
		if v.boolVal {
			return 1
		}
		return 0
	case v.kind&KindString != 0:
		return stringToInt(string(v.strVal))
	case v.kind&KindHashmap != 0:
		if v.mapVal != nil && v.mapVal.Len() > 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func realToInt(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= 9223372036854775807.0 || f < -9223372036854775808.0 {
		return math.MinInt64
	}
	return int64(f)
}

// stringToInt implements: optional sign, then 0x/0b/0-prefix base
// selection, else base 10; leading whitespace skipped, parse stops at the
// first non-digit, empty string is 0.
func stringToInt(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i >= len(s) {
		return 0
	}
	neg := false
	if s[i] == '+' || s[i] == '-' {
		neg = s[i] == '-'
		i++
	}
	base := 10
	rest := s[i:]
	switch {
	case strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X"):
		base = 16
		rest = rest[2:]
	case strings.HasPrefix(rest, "0b") || strings.HasPrefix(rest, "0B"):
		base = 2
		rest = rest[2:]
	case strings.HasPrefix(rest, "0") && len(rest) > 1:
		base = 8
		rest = rest[1:]
	}
	end := 0
	for end < len(rest) && digitValue(rest[end]) < base {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(rest[:end], base, 64)
	if err != nil {
		// overflow: fall back to unsigned parse and reinterpret, matching
		// the original's wraparound behavior for huge literals.
		u, uerr := strconv.ParseUint(rest[:end], base, 64)
		if uerr != nil {
			return 0
		}
		n = int64(u)
	}
	if neg {
		return -n
	}
	return n
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}

// ToReal applies the real-coercion rules: sign, integer part, optional
// '.'fraction, optional e[+-]exponent; unparseable input yields 0.
func (v Value) ToReal() float64 {
	switch {
	case v.kind&KindReal != 0:
		return v.realVal
	case v.kind&KindInt != 0:
		return float64(v.intVal)
	case v.kind&KindBool != 0:
		if v.boolVal {
			return 1
		}
		return 0
	case v.kind&KindString != 0:
		return stringToReal(string(v.strVal))
	default:
		return 0
	}
}

func stringToReal(s string) float64 {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < n && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	if i == start {
		return 0
	}
	f, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0
	}
	return f
}

// ToStringValue applies the string-coercion rules (real uses %.15g,
// hashmaps serialize to JSON — see the serialize package for the encoder
// actually used by json_encode; this is the lightweight in-VM variant used
// by string concatenation and string-cast).
func (v Value) ToStringValue(jsonFn func(Value) string) string {
	switch {
	case v.kind&KindString != 0:
		return string(v.strVal)
	case v.kind&KindReal != 0:
		return strconv.FormatFloat(v.realVal, 'g', 15, 64)
	case v.kind&KindInt != 0:
		return strconv.FormatInt(v.intVal, 10)
	case v.kind&KindBool != 0:
		if v.boolVal {
			return "1"
		}
		return ""
	case v.kind&KindHashmap != 0:
		if jsonFn != nil {
			return jsonFn(v)
		}
		return "Array"
	case v.kind&KindResource != 0:
		return fmt.Sprintf("Resource id #%p", v.resVal)
	default:
		return ""
	}
}

// ToHashmap applies the hashmap-coercion rule: a one-element ARRAY-mode map
// at key 0 for any scalar, an empty map for NULL and RESOURCE.
func (v Value) ToHashmap() *Hashmap {
	if v.kind&KindHashmap != 0 {
		return v.mapVal
	}
	m := NewHashmap()
	if v.kind == KindNull || v.kind&KindResource != 0 {
		return m
	}
	m.InsertInt(0, v)
	return m
}
