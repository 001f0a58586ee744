// Package serialize implements JX9's JSON wire format (spec §6): reals
// render with the same %.15g-equivalent precision as string coercion,
// output escaping is limited to the quote and backslash characters, and
// container nesting silently truncates to null past 32 levels rather than
// erroring, matching the comparison package's cycle/depth guard.
package serialize

import (
	"fmt"
	"strconv"
	"strings"

	"jx9/internal/value"
)

const maxEncodeDepth = 32

// Encode renders v as a JSON text. Hashmaps serialize as arrays when they
// are not in object mode and every key is an integer (IsArrayMode; the keys
// need not be contiguous and are not written), objects otherwise.
func Encode(v value.Value) string {
	var b strings.Builder
	encode(&b, v, 0)
	return b.String()
}

// JSONFn adapts Encode to the callback shape value.ToStringValue and
// value.Compare/LooseEqual expect.
func JSONFn(v value.Value) string { return Encode(v) }

func encode(b *strings.Builder, v value.Value, depth int) {
	if depth > maxEncodeDepth {
		b.WriteString("null")
		return
	}
	switch {
	case v.IsNull():
		b.WriteString("null")
	case v.Is(value.KindBool):
		if v.ToBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case v.Is(value.KindReal):
		b.WriteString(strconv.FormatFloat(v.RawReal(), 'g', 15, 64))
	case v.Is(value.KindInt):
		b.WriteString(strconv.FormatInt(v.RawInt(), 10))
	case v.Is(value.KindString):
		encodeString(b, v.RawString())
	case v.IsHashmap():
		encodeHashmap(b, v.Hashmap(), depth)
	case v.IsResource():
		b.WriteString("null")
	default:
		b.WriteString("null")
	}
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
}

func encodeHashmap(b *strings.Builder, m *value.Hashmap, depth int) {
	if m == nil {
		b.WriteString("null")
		return
	}
	if !m.IsObjectMode() && m.IsArrayMode() {
		b.WriteByte('[')
		vals := m.Values()
		for i, v := range vals {
			if i > 0 {
				b.WriteByte(',')
			}
			encode(b, v, depth+1)
		}
		b.WriteByte(']')
		return
	}
	b.WriteByte('{')
	keys := m.Keys()
	vals := m.Values()
	for i := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, keys[i].ToStringValue(JSONFn))
		b.WriteByte(':')
		encode(b, vals[i], depth+1)
	}
	b.WriteByte('}')
}

// Decode parses a JSON text into a Value tree: objects and arrays become
// Hashmap-backed values (object mode set accordingly), matching the
// json_decode() builtin's contract.
func Decode(s string) (value.Value, error) {
	p := &jsonParser{src: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return value.Null(), err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return value.Null(), fmt.Errorf("json_decode: trailing data at offset %d", p.pos)
	}
	return v, nil
}

type jsonParser struct {
	src string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (value.Value, error) {
	if p.pos >= len(p.src) {
		return value.Null(), fmt.Errorf("json_decode: unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Null(), err
		}
		return value.Str(s), nil
	case strings.HasPrefix(p.src[p.pos:], "true"):
		p.pos += 4
		return value.Bool(true), nil
	case strings.HasPrefix(p.src[p.pos:], "false"):
		p.pos += 5
		return value.Bool(false), nil
	case strings.HasPrefix(p.src[p.pos:], "null"):
		p.pos += 4
		return value.Null(), nil
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) parseObject() (value.Value, error) {
	m := value.NewHashmap()
	m.SetObjectMode(true)
	p.pos++ // {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return value.FromHashmap(m), nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return value.Null(), err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return value.Null(), fmt.Errorf("json_decode: expected ':' at offset %d", p.pos)
		}
		p.pos++
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return value.Null(), err
		}
		m.InsertStr(key, v)
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '}' {
		return value.Null(), fmt.Errorf("json_decode: expected '}' at offset %d", p.pos)
	}
	p.pos++
	return value.FromHashmap(m), nil
}

func (p *jsonParser) parseArray() (value.Value, error) {
	m := value.NewHashmap()
	p.pos++ // [
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return value.FromHashmap(m), nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return value.Null(), err
		}
		m.Append(v)
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return value.Null(), fmt.Errorf("json_decode: expected ']' at offset %d", p.pos)
	}
	p.pos++
	return value.FromHashmap(m), nil
}

func (p *jsonParser) parseString() (string, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return "", fmt.Errorf("json_decode: expected string at offset %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch p.src[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(p.src[p.pos])
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("json_decode: unterminated string")
	}
	p.pos++ // closing quote
	return b.String(), nil
}

func (p *jsonParser) parseNumber() (value.Value, error) {
	start := p.pos
	isReal := false
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isReal = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		isReal = true
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos == start {
		return value.Null(), fmt.Errorf("json_decode: invalid number at offset %d", start)
	}
	text := p.src[start:p.pos]
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Null(), err
		}
		return value.Real(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Null(), err
	}
	return value.Int(n), nil
}
