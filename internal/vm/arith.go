package vm

import (
	"math"

	"jx9/internal/serialize"
	"jx9/internal/value"
)

// addValues, subValues, mulValues and divValues apply JX9's arithmetic promotion (spec §4.3/§4.4): both
// operands coerce through ToInt/ToReal; the result is REAL if either side
// is already REAL or the division does not come out even, otherwise INT.
func addValues(a, b value.Value) value.Value {
	if isRealish(a) || isRealish(b) {
		return value.Real(a.ToReal() + b.ToReal())
	}
	return value.Int(a.ToInt() + b.ToInt())
}

func subValues(a, b value.Value) value.Value {
	if isRealish(a) || isRealish(b) {
		return value.Real(a.ToReal() - b.ToReal())
	}
	return value.Int(a.ToInt() - b.ToInt())
}

func mulValues(a, b value.Value) value.Value {
	if isRealish(a) || isRealish(b) {
		return value.Real(a.ToReal() * b.ToReal())
	}
	return value.Int(a.ToInt() * b.ToInt())
}

// divValues and modValues raise a recoverable Warning and yield 0 on
// division/modulo by zero, matching the original's jx9VmThrowError(...,
// "Division by zero") behavior rather than propagating an infinity/NaN.
func divValues(vm *VM, a, b value.Value) value.Value {
	bf := b.ToReal()
	if bf == 0 {
		vm.warnDivisionByZero()
		return value.Int(0)
	}
	if !isRealish(a) && !isRealish(b) {
		ai, bi := a.ToInt(), b.ToInt()
		if bi != 0 && ai%bi == 0 {
			return value.Int(ai / bi)
		}
	}
	return value.Real(a.ToReal() / bf)
}

func modValues(vm *VM, a, b value.Value) value.Value {
	if isRealish(a) || isRealish(b) {
		bf := b.ToReal()
		if bf == 0 {
			vm.warnDivisionByZero()
			return value.Int(0)
		}
		return value.Real(math.Mod(a.ToReal(), bf))
	}
	bi := b.ToInt()
	if bi == 0 {
		vm.warnDivisionByZero()
		return value.Int(0)
	}
	return value.Int(a.ToInt() % bi)
}

func isRealish(v value.Value) bool { return v.Is(value.KindReal) }

func concatValues(parts []value.Value) value.Value {
	var b []byte
	for _, p := range parts {
		b = append(b, p.ToStringValue(serialize.JSONFn)...)
	}
	return value.StrBytes(b)
}

func negValue(v value.Value) value.Value {
	if isRealish(v) {
		return value.Real(-v.ToReal())
	}
	return value.Int(-v.ToInt())
}

func bandValues(a, b value.Value) value.Value { return value.Int(a.ToInt() & b.ToInt()) }
func borValues(a, b value.Value) value.Value  { return value.Int(a.ToInt() | b.ToInt()) }
func bxorValues(a, b value.Value) value.Value { return value.Int(a.ToInt() ^ b.ToInt()) }
func bnotValue(v value.Value) value.Value     { return value.Int(^v.ToInt()) }
func shlValues(a, b value.Value) value.Value  { return value.Int(a.ToInt() << uint(b.ToInt())) }
func shrValues(a, b value.Value) value.Value  { return value.Int(a.ToInt() >> uint(b.ToInt())) }

