package lexer

import "strings"

// InterpPart is one piece of a double-quoted string: either a literal text
// run or an embedded variable reference (`$name` or `${name}`).
type InterpPart struct {
	Literal  string
	VarName  string // non-empty for a variable segment
	IsVar    bool
}

// ScanInterpolation is the lexer's pluggable sub-tokenization entry point:
// given the already-escape-resolved body of a double-quoted string, it
// splits out `$identifier` and `${identifier}` references from literal
// text, so the parser can build an InterpolationExpr without re-scanning
// the whole source buffer.
func ScanInterpolation(body string) []InterpPart {
	var parts []InterpPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, InterpPart{Literal: lit.String()})
			lit.Reset()
		}
	}
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '$' && i+1 < len(body) && (isAlpha(body[i+1]) || body[i+1] == '{') {
			flush()
			if body[i+1] == '{' {
				j := i + 2
				for j < len(body) && body[j] != '}' {
					j++
				}
				parts = append(parts, InterpPart{VarName: body[i+2 : j], IsVar: true})
				i = j + 1
				continue
			}
			j := i + 1
			for j < len(body) && isAlphaNumeric(body[j]) {
				j++
			}
			parts = append(parts, InterpPart{VarName: body[i+1 : j], IsVar: true})
			i = j
			continue
		}
		lit.WriteByte(c)
		i++
	}
	flush()
	return parts
}
