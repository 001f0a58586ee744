package value

import "strconv"

// LooseEqual implements JX9's `==`: bool-vs-any compares both as bool;
// numeric-vs-string compares numerically if the string looks numeric,
// otherwise both sides compare as strings; hashmap-vs-hashmap does a deep,
// insertion-order, cycle-guarded comparison after a size check; null
// matches only null or an empty hashmap.
func LooseEqual(a, b Value, jsonFn func(Value) string) bool {
	return looseEqual(a, b, jsonFn, newVisitSet())
}

func looseEqual(a, b Value, jsonFn func(Value) string, seen *visitSet) bool {
	if a.kind == KindBool || b.kind == KindBool {
		return a.ToBool() == b.ToBool()
	}
	if a.kind == KindNull || b.kind == KindNull {
		return isNullish(a) && isNullish(b)
	}
	if a.kind&KindHashmap != 0 && b.kind&KindHashmap != 0 {
		return hashmapEqual(a.Hashmap(), b.Hashmap(), jsonFn, seen)
	}
	if a.kind&KindHashmap != 0 || b.kind&KindHashmap != 0 {
		return false
	}
	aNum := a.kind&(KindInt|KindReal) != 0
	bNum := b.kind&(KindInt|KindReal) != 0
	if aNum && bNum {
		return a.ToReal() == b.ToReal()
	}
	if aNum && b.kind&KindString != 0 {
		if isNumericString(b.RawString()) {
			return a.ToReal() == b.ToReal()
		}
		return a.ToStringValue(jsonFn) == b.ToStringValue(jsonFn)
	}
	if bNum && a.kind&KindString != 0 {
		if isNumericString(a.RawString()) {
			return a.ToReal() == b.ToReal()
		}
		return a.ToStringValue(jsonFn) == b.ToStringValue(jsonFn)
	}
	return a.ToStringValue(jsonFn) == b.ToStringValue(jsonFn)
}

func isNullish(v Value) bool {
	if v.kind == KindNull {
		return true
	}
	if v.kind&KindHashmap != 0 {
		return v.Hashmap() == nil || v.Hashmap().Len() == 0
	}
	return false
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// StrictEqual implements `===`: identical type tag and identical contents.
func StrictEqual(a, b Value, jsonFn func(Value) string) bool {
	return strictEqual(a, b, jsonFn, newVisitSet())
}

func strictEqual(a, b Value, jsonFn func(Value) string, seen *visitSet) bool {
	if a.kind != b.kind {
		return false
	}
	switch {
	case a.kind == KindNull:
		return true
	case a.kind&KindBool != 0:
		return a.boolVal == b.boolVal
	case a.kind&KindInt != 0:
		return a.intVal == b.intVal
	case a.kind&KindReal != 0:
		return a.realVal == b.realVal
	case a.kind&KindString != 0:
		return string(a.strVal) == string(b.strVal)
	case a.kind&KindHashmap != 0:
		return hashmapEqual(a.Hashmap(), b.Hashmap(), jsonFn, seen)
	case a.kind&KindResource != 0:
		return a.resVal == b.resVal
	default:
		return false
	}
}

// visitSet guards cyclic hashmap graphs during comparison,
// bounded to the same depth the encoder enforces (32).
type visitSet struct {
	seen  map[*Hashmap]bool
	depth int
}

func newVisitSet() *visitSet { return &visitSet{seen: make(map[*Hashmap]bool)} }

const maxCompareDepth = 32

func hashmapEqual(a, b *Hashmap, jsonFn func(Value) string, seen *visitSet) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	if seen.seen[a] || seen.depth >= maxCompareDepth {
		return true // cycle or depth cap: treat as equal rather than loop forever
	}
	seen.seen[a] = true
	seen.depth++
	defer func() { seen.depth--; delete(seen.seen, a) }()

	bKeys := b.Keys()
	bVals := b.Values()
	aKeys := a.Keys()
	aVals := a.Values()
	for i := range aKeys {
		if !StrictEqual(aKeys[i], bKeys[i], jsonFn) {
			return false
		}
		if !looseEqual(aVals[i], bVals[i], jsonFn, seen) {
			return false
		}
	}
	return true
}

// Compare implements `<`,`<=`,`>`,`>=` ordering: same numeric promotion as
// LooseEqual; strings compare lexicographically by raw bytes with the
// shorter-is-less tiebreak. Returns -1, 0, or 1.
func Compare(a, b Value, jsonFn func(Value) string) int {
	if a.kind&KindString != 0 && b.kind&KindString != 0 {
		return compareBytes(a.strVal, b.strVal)
	}
	aNum := a.kind&(KindInt|KindReal|KindBool) != 0
	bNum := b.kind&(KindInt|KindReal|KindBool) != 0
	if aNum && bNum {
		return compareFloat(a.ToReal(), b.ToReal())
	}
	if a.kind&KindString != 0 && bNum && isNumericString(a.RawString()) {
		return compareFloat(a.ToReal(), b.ToReal())
	}
	if b.kind&KindString != 0 && aNum && isNumericString(b.RawString()) {
		return compareFloat(a.ToReal(), b.ToReal())
	}
	return compareBytes([]byte(a.ToStringValue(jsonFn)), []byte(b.ToStringValue(jsonFn)))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
