package vm

import (
	"jx9/internal/compiler"
	"jx9/internal/value"
)

// selectOverload implements spec §4.6 step 1's callee-resolution rule among
// functions sharing a name: compare the caller's argument kinds against each
// candidate's declared TypeHints, score by longest matching prefix, and pick
// the highest score with ties going to the first declared. A parameter with
// no TypeHint matches any argument kind without adding to the score, so a
// plain (un-hinted) function is always chosen when it's the only candidate.
func selectOverload(overloads []*compiler.Function, args []value.Value) *compiler.Function {
	if len(overloads) == 1 {
		return overloads[0]
	}
	best := overloads[0]
	bestScore := -1
	for _, cand := range overloads {
		score, ok := overloadScore(cand, args)
		if !ok {
			continue
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

// overloadScore returns the length of the matching type-hint prefix between
// cand's declared Params and the caller's args, or ok=false if a hinted
// parameter's kind doesn't match the corresponding argument.
func overloadScore(cand *compiler.Function, args []value.Value) (score int, ok bool) {
	for i, p := range cand.Params {
		if i >= len(args) {
			break
		}
		if p.TypeHint == "" {
			continue
		}
		if !hintMatches(p.TypeHint, args[i]) {
			return 0, false
		}
		score++
	}
	return score, true
}

func hintMatches(hint string, v value.Value) bool {
	switch hint {
	case "int":
		return v.Is(value.KindInt)
	case "real", "float", "double":
		return v.Is(value.KindReal)
	case "string":
		return v.Is(value.KindString)
	case "bool":
		return v.Is(value.KindBool)
	case "array":
		return v.IsHashmap()
	default:
		return true
	}
}

// castToHint applies spec §4.6 step 3's "apply the corresponding cast" rule:
// a hinted parameter coerces its bound argument to that type the same way an
// explicit (int)/(string)/... cast expression would, a no-op when hint is "".
func castToHint(v value.Value, hint string) value.Value {
	switch hint {
	case "int":
		return value.Int(v.ToInt())
	case "real", "float", "double":
		return value.Real(v.ToReal())
	case "string":
		return value.Str(v.ToStringValue(nil))
	case "bool":
		return value.Bool(v.ToBool())
	case "array":
		return value.FromHashmap(v.ToHashmap())
	default:
		return v
	}
}
