package value

import (
	"golang.org/x/exp/slices"
)

// entry is one ordered slot in a Hashmap. A key is either an integer
// (ARRAY-mode-compatible) or a string; exactly one of intKey/strKey is
// meaningful, selected by isInt.
type entry struct {
	isInt  bool
	intKey int64
	strKey string
	val    Value
}

// Hashmap is the order-preserving container backing both JSON arrays and
// JSON objects. Keys may be 64-bit integers or byte strings within the same
// map; insertion order is preserved and iterated deterministically. It is
// reference-counted: FromHashmap/Ref increments, Unref decrements and frees
// at zero.
type Hashmap struct {
	entries []entry
	index   map[string]int // string(key) -> position in entries, for O(1) lookup
	nextInt int64           // next free auto-assigned integer key
	asObject bool           // serialize as a JSON object rather than an array

	iRef int32 // reference count

	cursor int // foreach cursor position into entries; -1 when exhausted
}

func NewHashmap() *Hashmap {
	return &Hashmap{
		index:  make(map[string]int),
		cursor: -1,
	}
}

func intKeyString(k int64) string { return "#" + itoa(k) }
func strKeyString(k string) string { return "$" + k }

func itoa(k int64) string {
	// small local helper to avoid importing strconv twice across files;
	// kept trivial on purpose.
	if k == 0 {
		return "0"
	}
	neg := k < 0
	if neg {
		k = -k
	}
	var buf [20]byte
	i := len(buf)
	for k > 0 {
		i--
		buf[i] = byte('0' + k%10)
		k /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Ref increments the reference count.
func (m *Hashmap) Ref() { m.iRef++ }

// Unref decrements the reference count, recursively releasing contained
// hashmap references once it reaches zero.
func (m *Hashmap) Unref() {
	m.iRef--
	if m.iRef > 0 {
		return
	}
	for _, e := range m.entries {
		if e.val.Kind() == KindHashmap && e.val.Hashmap() != nil {
			e.val.Hashmap().Unref()
		}
	}
}

// RefCount exposes iRef for the invariant "every reachable hashmap has
// iRef >= 1" (spec §8).
func (m *Hashmap) RefCount() int32 { return m.iRef }

// Clone performs the copy-on-last-reference duplication used when a
// hashmap's only reference is about to be destructively consumed (e.g. the
// result of indexing into a soon-to-be-popped container).
func (m *Hashmap) Clone() *Hashmap {
	c := NewHashmap()
	c.asObject = m.asObject
	c.nextInt = m.nextInt
	for _, e := range m.entries {
		v := e.val
		if v.Kind() == KindHashmap {
			v = FromHashmap(v.Hashmap().Clone())
		}
		if e.isInt {
			c.InsertInt(e.intKey, v)
		} else {
			c.InsertStr(e.strKey, v)
		}
	}
	return c
}

// SetObjectMode marks the map to serialize as a JSON object.
func (m *Hashmap) SetObjectMode(v bool) { m.asObject = v }
func (m *Hashmap) IsObjectMode() bool   { return m.asObject }

func (m *Hashmap) Len() int { return len(m.entries) }

// InsertInt sets the value at an integer key, appending if new, and keeps
// nextInt (the automatic next-free-index tracker) up to date.
func (m *Hashmap) InsertInt(key int64, val Value) {
	k := intKeyString(key)
	if pos, ok := m.index[k]; ok {
		m.entries[pos].val = val
	} else {
		m.index[k] = len(m.entries)
		m.entries = append(m.entries, entry{isInt: true, intKey: key, val: val})
	}
	if key >= m.nextInt {
		m.nextInt = key + 1
	}
}

// Append inserts val at the next automatic integer key (max existing + 1,
// or 0 when empty) and returns the key used.
func (m *Hashmap) Append(val Value) int64 {
	key := m.nextInt
	m.InsertInt(key, val)
	return key
}

func (m *Hashmap) InsertStr(key string, val Value) {
	k := strKeyString(key)
	if pos, ok := m.index[k]; ok {
		m.entries[pos].val = val
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, entry{isInt: false, strKey: key, val: val})
}

func (m *Hashmap) GetInt(key int64) (Value, bool) {
	pos, ok := m.index[intKeyString(key)]
	if !ok {
		return Value{}, false
	}
	return m.entries[pos].val, true
}

func (m *Hashmap) GetStr(key string) (Value, bool) {
	pos, ok := m.index[strKeyString(key)]
	if !ok {
		return Value{}, false
	}
	return m.entries[pos].val, true
}

// DeleteInt removes an integer-keyed entry, preserving the order of the
// remaining entries and leaving the foreach cursor consistent: a cursor
// pointing past the removed slot shifts back by one; a cursor on the
// removed slot itself stays in place so the *next* entry becomes current.
func (m *Hashmap) DeleteInt(key int64) bool { return m.delete(intKeyString(key)) }
func (m *Hashmap) DeleteStr(key string) bool { return m.delete(strKeyString(key)) }

func (m *Hashmap) delete(idxKey string) bool {
	pos, ok := m.index[idxKey]
	if !ok {
		return false
	}
	removed := m.entries[pos]
	m.entries = slices.Delete(m.entries, pos, pos+1)
	delete(m.index, idxKey)
	for k, p := range m.index {
		if p > pos {
			m.index[k] = p - 1
		}
	}
	if removed.isInt && removed.intKey+1 == m.nextInt {
		m.nextInt = 0
		for _, e := range m.entries {
			if e.isInt && e.intKey >= m.nextInt {
				m.nextInt = e.intKey + 1
			}
		}
	}
	if m.cursor > pos {
		m.cursor--
	} else if m.cursor == pos && m.cursor >= len(m.entries) {
		m.cursor = -1
	}
	return true
}

// Keys returns the ordered keys as Values (ints or strings, matching each
// entry's own kind).
func (m *Hashmap) Keys() []Value {
	out := make([]Value, len(m.entries))
	for i, e := range m.entries {
		if e.isInt {
			out[i] = Int(e.intKey)
		} else {
			out[i] = Str(e.strKey)
		}
	}
	return out
}

func (m *Hashmap) Values() []Value {
	out := make([]Value, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.val
	}
	return out
}

// IsArrayMode reports whether every key currently stored is an integer,
// i.e. whether this hashmap could serialize as a JSON array regardless of
// the asObject flag.
func (m *Hashmap) IsArrayMode() bool {
	for _, e := range m.entries {
		if !e.isInt {
			return false
		}
	}
	return true
}

// ---- foreach cursor ----

// ResetCursor positions the cursor at the first entry (or -1 if empty),
// called by FOREACH_INIT.
func (m *Hashmap) ResetCursor() {
	if len(m.entries) == 0 {
		m.cursor = -1
	} else {
		m.cursor = 0
	}
}

// CursorValid reports whether the cursor currently references a live entry.
func (m *Hashmap) CursorValid() bool {
	return m.cursor >= 0 && m.cursor < len(m.entries)
}

// CursorEntry returns the key/value pair at the cursor.
func (m *Hashmap) CursorEntry() (key Value, val Value) {
	e := m.entries[m.cursor]
	if e.isInt {
		key = Int(e.intKey)
	} else {
		key = Str(e.strKey)
	}
	return key, e.val
}

// CursorAdvance moves the cursor to the next entry.
func (m *Hashmap) CursorAdvance() {
	if m.cursor < 0 {
		return
	}
	m.cursor++
	if m.cursor >= len(m.entries) {
		m.cursor = -1
	}
}
