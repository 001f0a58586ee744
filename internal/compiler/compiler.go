package compiler

import (
	"fmt"

	"jx9/internal/bytecode"
	"jx9/internal/parser"
)

// Compiler walks one function body at a time; chunk always points at the
// container currently being written to, swapped out and restored around
// nested function/lambda/default-argument/static-initializer compilation.
type Compiler struct {
	chunk     *bytecode.Chunk
	functions map[string][]*Function
	lambdaSeq int

	breakables []breakable
	curStatic  map[string]*bytecode.Chunk
}

// breakable is one enclosing loop or switch, tracked so break/continue N
// can patch the right exit or continuation point once it is known.
type breakable struct {
	isSwitch      bool
	breakJumps    []int // JMP offsets to patch to the exit point
	continueJumps []int // JMP offsets to patch to the continuation point
}

func New() *Compiler {
	return &Compiler{
		chunk:     bytecode.NewChunk(),
		functions: make(map[string][]*Function),
	}
}

// Compile lowers a whole parsed program into a Program: a main chunk plus
// every function declaration or lambda reached along the way.
func Compile(stmts []parser.Stmt) (*Program, []error) {
	c := New()
	for _, s := range stmts {
		s.Accept(c)
	}
	c.chunk.WriteOp(bytecode.OpDone)
	c.chunk.WriteP1(0)
	return &Program{Main: c.chunk, Functions: c.functions}, nil
}

func (c *Compiler) emitLine(op bytecode.OpCode, line int) int {
	return c.chunk.WriteOpWithDebug(op, bytecode.DebugInfo{Line: line})
}

// ---- expression visitor ----

func (c *Compiler) compileExpr(e parser.Expr) {
	e.Accept(c)
}

func (c *Compiler) VisitLiteral(e *parser.Literal) interface{} {
	idx := c.internLiteral(e.Value)
	c.emitLine(bytecode.OpLoadC, e.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) internLiteral(v interface{}) int {
	if s, ok := v.(string); ok {
		return c.chunk.InternString(s)
	}
	return c.chunk.AddConstant(v)
}

func (c *Compiler) VisitVariable(e *parser.Variable) interface{} {
	idx := c.chunk.InternString(e.Name)
	c.emitLine(bytecode.OpLoadVar, e.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) VisitArrayLit(e *parser.ArrayLit) interface{} {
	for _, el := range e.Elements {
		c.compileExpr(el)
	}
	c.emitLine(bytecode.OpNewArray, e.Ln)
	c.chunk.WriteP2(uint32(len(e.Elements)))
	return nil
}

func (c *Compiler) VisitObjectLit(e *parser.ObjectLit) interface{} {
	for i := range e.Keys {
		c.compileExpr(e.Keys[i])
		c.compileExpr(e.Values[i])
	}
	c.emitLine(bytecode.OpNewObject, e.Ln)
	c.chunk.WriteP2(uint32(len(e.Keys)))
	return nil
}

func (c *Compiler) VisitIndex(e *parser.Index) interface{} {
	c.compileExpr(e.Object)
	c.compileExpr(e.Key)
	c.emitLine(bytecode.OpLoadIdx, e.Ln)
	c.chunk.WriteP2(0)
	return nil
}

func (c *Compiler) VisitMember(e *parser.Member) interface{} {
	c.compileExpr(e.Object)
	idx := c.chunk.InternString(e.Property)
	c.emitLine(bytecode.OpMember, e.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) VisitUnary(e *parser.Unary) interface{} {
	c.compileExpr(e.Operand)
	switch e.Op {
	case "-":
		c.emitLine(bytecode.OpNeg, e.Ln)
	case "!":
		c.emitLine(bytecode.OpLNot, e.Ln)
	case "~":
		c.emitLine(bytecode.OpBNot, e.Ln)
	}
	return nil
}

func (c *Compiler) VisitBinary(e *parser.Binary) interface{} {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	switch e.Op {
	case "+":
		c.emitLine(bytecode.OpAdd, e.Ln)
	case "-":
		c.emitLine(bytecode.OpSub, e.Ln)
	case "*":
		c.emitLine(bytecode.OpMul, e.Ln)
	case "/":
		c.emitLine(bytecode.OpDiv, e.Ln)
	case "%":
		c.emitLine(bytecode.OpMod, e.Ln)
	case ".":
		c.emitLine(bytecode.OpCat, e.Ln)
		c.chunk.WriteP1(2)
	case "&":
		c.emitLine(bytecode.OpBAnd, e.Ln)
	case "|":
		c.emitLine(bytecode.OpBOr, e.Ln)
	case "^":
		c.emitLine(bytecode.OpBXor, e.Ln)
	case "<<":
		c.emitLine(bytecode.OpShl, e.Ln)
	case ">>":
		c.emitLine(bytecode.OpShr, e.Ln)
	case "==":
		c.emitComparison(bytecode.OpEq, e.Ln)
	case "!=":
		c.emitComparison(bytecode.OpNeq, e.Ln)
	case "===":
		c.emitComparison(bytecode.OpTEq, e.Ln)
	case "!==":
		c.emitComparison(bytecode.OpTNe, e.Ln)
	case "<":
		c.emitComparison(bytecode.OpLt, e.Ln)
	case "<=":
		c.emitComparison(bytecode.OpLe, e.Ln)
	case ">":
		c.emitComparison(bytecode.OpGt, e.Ln)
	case ">=":
		c.emitComparison(bytecode.OpGe, e.Ln)
	}
	return nil
}

// emitComparison writes a comparison opcode in "push the bool" mode: P2=0
// means no jump, both operands consumed and the bool result pushed.
func (c *Compiler) emitComparison(op bytecode.OpCode, line int) {
	c.emitLine(op, line)
	c.chunk.WriteP2(0)
}

func (c *Compiler) VisitLogical(e *parser.Logical) interface{} {
	if e.Op == "xor" || e.Op == "XOR" {
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emitLine(bytecode.OpLXor, e.Ln)
		return nil
	}
	c.compileExpr(e.Left)
	switch e.Op {
	case "&&":
		jz := c.emitLine(bytecode.OpJz, e.Ln)
		c.chunk.WriteP1(1) // keep TOS (it's already false) if short-circuiting
		c.chunk.WriteP2(0)
		c.chunk.WriteOp(bytecode.OpPop)
		c.chunk.WriteP1(1)
		c.compileExpr(e.Right)
		end := c.chunk.Len()
		c.chunk.PatchP2After(jz, uint32(end))
	case "||":
		jnz := c.emitLine(bytecode.OpJnz, e.Ln)
		c.chunk.WriteP1(1)
		c.chunk.WriteP2(0)
		c.chunk.WriteOp(bytecode.OpPop)
		c.chunk.WriteP1(1)
		c.compileExpr(e.Right)
		end := c.chunk.Len()
		c.chunk.PatchP2After(jnz, uint32(end))
	}
	return nil
}

func (c *Compiler) VisitTernary(e *parser.Ternary) interface{} {
	c.compileExpr(e.Cond)
	jz := c.emitLine(bytecode.OpJz, e.Ln)
	c.chunk.WriteP1(0)
	c.chunk.WriteP2(0)
	c.compileExpr(e.Then)
	jmp := c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(0)
	elseStart := c.chunk.Len()
	c.chunk.PatchP2After(jz, uint32(elseStart))
	c.compileExpr(e.Else)
	end := c.chunk.Len()
	c.chunk.PatchP2(jmp, uint32(end))
	return nil
}

// VisitAssign compiles both plain `=` and the compound operators. Compound
// forms on Index/Member targets compile the container (and key) expression
// a second time to read the current value, combine it with the rvalue, and
// write the result back through OpStoreIdx/OpMemberSet.
func (c *Compiler) VisitAssign(e *parser.Assign) interface{} {
	switch target := e.Target.(type) {
	case *parser.Variable:
		c.compileVariableAssign(target, e)
	case *parser.Index:
		c.compileIndexAssign(target, e)
	case *parser.Member:
		c.compileMemberAssign(target, e)
	}
	return nil
}

func (c *Compiler) compileVariableAssign(target *parser.Variable, e *parser.Assign) {
	nameIdx := c.chunk.InternString(target.Name)
	if e.Op == "=" {
		c.compileExpr(e.Value)
		c.emitLine(bytecode.OpStoreVar, e.Ln)
		c.chunk.WriteP2(uint32(nameIdx))
		return
	}
	switch e.Op {
	case "&=", "|=", "^=", "<<=", ">>=":
		// No *Store opcode exists for the bitwise forms: load, combine, store.
		c.compileExpr(target)
		c.compileExpr(e.Value)
		c.emitBinaryOpFor(e.Op, e.Ln)
		c.emitLine(bytecode.OpStoreVar, e.Ln)
		c.chunk.WriteP2(uint32(nameIdx))
		return
	}
	c.compileExpr(e.Value)
	c.emitLine(compoundStoreOp(e.Op), e.Ln)
	c.chunk.WriteP2(uint32(nameIdx))
}

func compoundStoreOp(op string) bytecode.OpCode {
	switch op {
	case "+=":
		return bytecode.OpAddStore
	case "-=":
		return bytecode.OpSubStore
	case "*=":
		return bytecode.OpMulStore
	case "/=":
		return bytecode.OpDivStore
	case "%=":
		return bytecode.OpModStore
	case ".=":
		return bytecode.OpCatStore
	}
	return bytecode.OpAddStore
}

// compileAutovivObject compiles a container sub-expression for a
// write-context index/member target, ensuring `obj`'s own value is a
// hashmap of the given mode (creating one in place if it's currently NULL)
// and leaving that hashmap on the stack. `obj` may itself be a chained
// Index/Member expression (`$a.users[0]` as the object of `.name = ...`),
// in which case every intermediate level is autovivified in turn: each
// recursive call ensures its own sub-expression's container exists before
// indexing/membering one level deeper, so a fully undeclared `$a` survives
// `$a.users[0].name = "Ada"` instead of silently dropping the write.
func (c *Compiler) compileAutovivObject(obj parser.Expr, asObject bool, line int) {
	mode := int32(0)
	if asObject {
		mode = 1
	}
	switch o := obj.(type) {
	case *parser.Variable:
		c.compileExpr(obj)
		nameIdx := c.chunk.InternString(o.Name)
		c.emitLine(bytecode.OpEnsureContainer, line)
		c.chunk.WriteP1(mode)
		c.chunk.WriteP2(uint32(nameIdx))
	case *parser.Index:
		// o.Object is indexed by o, so it must itself be array-accessible.
		c.compileAutovivObject(o.Object, false, line)
		c.compileExpr(o.Key)
		c.emitLine(bytecode.OpEnsureIdxContainer, line)
		c.chunk.WriteP1(mode)
	case *parser.Member:
		// o.Object is member-accessed by o, so it must be object-accessible.
		c.compileAutovivObject(o.Object, true, line)
		propIdx := c.chunk.InternString(o.Property)
		c.emitLine(bytecode.OpEnsureMemberContainer, line)
		c.chunk.WriteP1(mode)
		c.chunk.WriteP2(uint32(propIdx))
	default:
		c.compileExpr(obj)
	}
}

func (c *Compiler) compileIndexAssign(target *parser.Index, e *parser.Assign) {
	c.compileAutovivObject(target.Object, false, e.Ln)
	c.compileExpr(target.Key)
	if e.Op != "=" {
		// Duplicate container+key isn't available without a DUP opcode in
		// this ISA, so compound index assignment reloads through a fresh
		// read; acceptable since indexing is idempotent for hashmaps.
		c.compileExpr(target.Object)
		c.compileExpr(target.Key)
		c.emitLine(bytecode.OpLoadIdx, e.Ln)
		c.chunk.WriteP2(0)
		c.compileExpr(e.Value)
		c.emitBinaryOpFor(e.Op, e.Ln)
	} else {
		c.compileExpr(e.Value)
	}
	c.emitLine(bytecode.OpStoreIdx, e.Ln)
}

func (c *Compiler) compileMemberAssign(target *parser.Member, e *parser.Assign) {
	c.compileAutovivObject(target.Object, true, e.Ln)
	idx := c.chunk.InternString(target.Property)
	if e.Op != "=" {
		c.compileExpr(target.Object)
		c.emitLine(bytecode.OpMember, e.Ln)
		c.chunk.WriteP2(uint32(idx))
		c.compileExpr(e.Value)
		c.emitBinaryOpFor(e.Op, e.Ln)
	} else {
		c.compileExpr(e.Value)
	}
	c.emitLine(bytecode.OpMemberSet, e.Ln)
	c.chunk.WriteP2(uint32(idx))
}

func (c *Compiler) emitBinaryOpFor(compoundOp string, line int) {
	switch compoundOp {
	case "+=":
		c.emitLine(bytecode.OpAdd, line)
	case "-=":
		c.emitLine(bytecode.OpSub, line)
	case "*=":
		c.emitLine(bytecode.OpMul, line)
	case "/=":
		c.emitLine(bytecode.OpDiv, line)
	case "%=":
		c.emitLine(bytecode.OpMod, line)
	case ".=":
		c.emitLine(bytecode.OpCat, line)
		c.chunk.WriteP1(2)
	case "&=":
		c.emitLine(bytecode.OpBAnd, line)
	case "|=":
		c.emitLine(bytecode.OpBOr, line)
	case "^=":
		c.emitLine(bytecode.OpBXor, line)
	case "<<=":
		c.emitLine(bytecode.OpShl, line)
	case ">>=":
		c.emitLine(bytecode.OpShr, line)
	}
}

func (c *Compiler) VisitCall(e *parser.Call) interface{} {
	for _, a := range e.Args {
		c.compileExpr(a)
	}
	c.compileExpr(e.Callee)
	c.emitLine(bytecode.OpCall, e.Ln)
	c.chunk.WriteP1(int32(len(e.Args)))
	return nil
}

func (c *Compiler) VisitLambda(e *parser.Lambda) interface{} {
	c.lambdaSeq++
	name := fmt.Sprintf("[lambda_%d]", c.lambdaSeq)
	c.compileFunctionBody(name, e.Params, e.Body)
	idx := c.chunk.InternString(name)
	c.emitLine(bytecode.OpMkFunc, e.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) VisitInterpolation(e *parser.Interpolation) interface{} {
	for _, part := range e.Parts {
		c.compileExpr(part)
	}
	c.emitLine(bytecode.OpCat, e.Ln)
	c.chunk.WriteP1(int32(len(e.Parts)))
	return nil
}
