// Package parser builds the JX9 expression tree and statement list from a
// token stream, honoring operator precedence and associativity, and hands
// the result to internal/compiler for code generation.
package parser

// Expr is any expression node; each carries a leaf callback or operator
// record reachable only through the visitor, matching the original's
// function-pointer-per-node design collapsed into a closed tagged variant
// (see design notes).
type Expr interface {
	Accept(v ExprVisitor) interface{}
	Line() int
}

// Param is one formal argument: an optional type hint used for coercion on
// call, and an optional default-value expression evaluated on each call
// that omits it.
type Param struct {
	Name     string
	TypeHint string // "", "int", "real", "float", "string", "bool", "array"
	Default  Expr
}

type Literal struct {
	Value interface{} // nil, bool, int64, float64, or string
	Ln    int
}

func (l *Literal) Accept(v ExprVisitor) interface{} { return v.VisitLiteral(l) }
func (l *Literal) Line() int                        { return l.Ln }

type Variable struct {
	Name string
	Ln   int
}

func (e *Variable) Accept(v ExprVisitor) interface{} { return v.VisitVariable(e) }
func (e *Variable) Line() int                        { return e.Ln }

// ArrayLit is a JSON array literal: [1, 2, 3].
type ArrayLit struct {
	Elements []Expr
	Ln       int
}

func (e *ArrayLit) Accept(v ExprVisitor) interface{} { return v.VisitArrayLit(e) }
func (e *ArrayLit) Line() int                        { return e.Ln }

// ObjectLit is a JSON object literal: {k: v, ...} or the empty-object {}
// form used to create an autovivification root (spec S2).
type ObjectLit struct {
	Keys   []Expr
	Values []Expr
	Ln     int
}

func (e *ObjectLit) Accept(v ExprVisitor) interface{} { return v.VisitObjectLit(e) }
func (e *ObjectLit) Line() int                        { return e.Ln }

// Index is array/object subscript access: obj[expr].
type Index struct {
	Object Expr
	Key    Expr
	Ln     int
}

func (e *Index) Accept(v ExprVisitor) interface{} { return v.VisitIndex(e) }
func (e *Index) Line() int                        { return e.Ln }

// Member is dotted property access: obj.name (lowers to MEMBER, spec §4.2).
type Member struct {
	Object   Expr
	Property string
	Ln       int
}

func (e *Member) Accept(v ExprVisitor) interface{} { return v.VisitMember(e) }
func (e *Member) Line() int                        { return e.Ln }

type Unary struct {
	Op      string
	Operand Expr
	Ln      int
}

func (e *Unary) Accept(v ExprVisitor) interface{} { return v.VisitUnary(e) }
func (e *Unary) Line() int                        { return e.Ln }

type Binary struct {
	Left  Expr
	Op    string
	Right Expr
	Ln    int
}

func (e *Binary) Accept(v ExprVisitor) interface{} { return v.VisitBinary(e) }
func (e *Binary) Line() int                        { return e.Ln }

// Logical is the short-circuiting && / || / xor family.
type Logical struct {
	Left  Expr
	Op    string
	Right Expr
	Ln    int
}

func (e *Logical) Accept(v ExprVisitor) interface{} { return v.VisitLogical(e) }
func (e *Logical) Line() int                        { return e.Ln }

type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
	Ln   int
}

func (e *Ternary) Accept(v ExprVisitor) interface{} { return v.VisitTernary(e) }
func (e *Ternary) Line() int                        { return e.Ln }

// Assign covers both `=` and the compound operators (`+=`, `.=`, …); Target
// is always an lvalue node (Variable, Index, or Member).
type Assign struct {
	Target Expr
	Op     string // "=", "+=", "-=", "*=", "/=", "%=", ".=", "&=", "|=", "^=", "<<=", ">>="
	Value  Expr
	Ln     int
}

func (e *Assign) Accept(v ExprVisitor) interface{} { return v.VisitAssign(e) }
func (e *Assign) Line() int                        { return e.Ln }

type Call struct {
	Callee Expr
	Args   []Expr
	Ln     int
}

func (e *Call) Accept(v ExprVisitor) interface{} { return v.VisitCall(e) }
func (e *Call) Line() int                        { return e.Ln }

// Lambda is an anonymous function; the compiler assigns it a generated
// unique name (`[lambda_N]`) and registers it as an ordinary function.
type Lambda struct {
	Params []Param
	Body   []Stmt
	Ln     int
}

func (e *Lambda) Accept(v ExprVisitor) interface{} { return v.VisitLambda(e) }
func (e *Lambda) Line() int                        { return e.Ln }

// Interpolation is a double-quoted string broken into literal and
// `$variable` parts by lexer.ScanInterpolation.
type Interpolation struct {
	Parts []Expr // each is *Literal (string) or *Variable
	Ln    int
}

func (e *Interpolation) Accept(v ExprVisitor) interface{} { return v.VisitInterpolation(e) }
func (e *Interpolation) Line() int                        { return e.Ln }

type ExprVisitor interface {
	VisitLiteral(e *Literal) interface{}
	VisitVariable(e *Variable) interface{}
	VisitArrayLit(e *ArrayLit) interface{}
	VisitObjectLit(e *ObjectLit) interface{}
	VisitIndex(e *Index) interface{}
	VisitMember(e *Member) interface{}
	VisitUnary(e *Unary) interface{}
	VisitBinary(e *Binary) interface{}
	VisitLogical(e *Logical) interface{}
	VisitTernary(e *Ternary) interface{}
	VisitAssign(e *Assign) interface{}
	VisitCall(e *Call) interface{}
	VisitLambda(e *Lambda) interface{}
	VisitInterpolation(e *Interpolation) interface{}
}
