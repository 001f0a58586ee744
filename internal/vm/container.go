package vm

import "jx9/internal/value"

// indexGet implements `$container[$key]`: non-hashmap containers coerce
// through Value.ToHashmap() first (spec §4.3's scalar-to-one-element-array
// rule), so indexing a scalar at key 0 reads the scalar itself.
func indexGet(container, key value.Value) value.Value {
	m := container.ToHashmap()
	if key.Is(value.KindInt) {
		if v, ok := m.GetInt(key.ToInt()); ok {
			return v
		}
		return value.Null()
	}
	k := key.ToStringValue(nil)
	if v, ok := m.GetStr(k); ok {
		return v
	}
	return value.Null()
}

// indexSet implements `$container[$key] = $value`; container must already be
// a hashmap by the time this runs (ENSURE_CONTAINER upgrades a bare NULL
// variable target before this executes).
func indexSet(container, key, val value.Value) {
	m := container.Hashmap()
	if m == nil {
		return
	}
	if key.IsNull() {
		m.Append(val)
		return
	}
	if key.Is(value.KindInt) {
		m.InsertInt(key.ToInt(), val)
		return
	}
	m.InsertStr(key.ToStringValue(nil), val)
}

// memberGet implements `$obj.prop`, identical storage to index access but
// always string-keyed.
func memberGet(obj value.Value, prop string) value.Value {
	m := obj.ToHashmap()
	if v, ok := m.GetStr(prop); ok {
		return v
	}
	return value.Null()
}

func memberSet(obj value.Value, prop string, val value.Value) {
	m := obj.Hashmap()
	if m == nil {
		return
	}
	m.InsertStr(prop, val)
}

// ensureIdxContainer implements the write-path half of `$container[$key]`
// one level past the outermost variable: container must already be a
// hashmap (its own autovivification already ran), and container[key] is
// replaced with a fresh hashmap in the given mode when it is missing or
// NULL, so a chain like `$a.users[0].name` can keep climbing through the
// `[0]` step instead of reading a disconnected NULL.
func ensureIdxContainer(container, key value.Value, asObject bool) value.Value {
	m := container.Hashmap()
	if m == nil {
		return value.Null()
	}
	var cur value.Value
	var ok bool
	if key.Is(value.KindInt) {
		cur, ok = m.GetInt(key.ToInt())
	} else {
		cur, ok = m.GetStr(key.ToStringValue(nil))
	}
	if ok && !cur.IsNull() {
		return cur
	}
	fresh := value.NewHashmap()
	fresh.SetObjectMode(asObject)
	cur = value.FromHashmap(fresh)
	if key.IsNull() {
		m.Append(cur)
	} else if key.Is(value.KindInt) {
		m.InsertInt(key.ToInt(), cur)
	} else {
		m.InsertStr(key.ToStringValue(nil), cur)
	}
	return cur
}

// ensureMemberContainer is ensureIdxContainer's `.prop` counterpart.
func ensureMemberContainer(obj value.Value, prop string, asObject bool) value.Value {
	m := obj.Hashmap()
	if m == nil {
		return value.Null()
	}
	if cur, ok := m.GetStr(prop); ok && !cur.IsNull() {
		return cur
	}
	fresh := value.NewHashmap()
	fresh.SetObjectMode(asObject)
	cur := value.FromHashmap(fresh)
	m.InsertStr(prop, cur)
	return cur
}
