package compiler

import (
	"jx9/internal/bytecode"
	"jx9/internal/parser"
)

func (c *Compiler) VisitExprStmt(s *parser.ExprStmt) interface{} {
	s.Expr.Accept(c)
	c.chunk.WriteOp(bytecode.OpPop)
	c.chunk.WriteP1(1)
	return nil
}

func (c *Compiler) VisitBlock(s *parser.Block) interface{} {
	for _, st := range s.Stmts {
		st.Accept(c)
	}
	return nil
}

func (c *Compiler) VisitIf(s *parser.If) interface{} {
	var endJumps []int
	s.Cond.Accept(c)
	jz := c.emitLine(bytecode.OpJz, s.Ln)
	c.chunk.WriteP1(0)
	c.chunk.WriteP2(0)
	for _, st := range s.Then {
		st.Accept(c)
	}
	endJumps = append(endJumps, c.chunk.WriteOp(bytecode.OpJmp))
	c.chunk.WriteP2(0)
	next := c.chunk.Len()
	c.chunk.PatchP2After(jz, uint32(next))

	for _, ei := range s.ElseIfs {
		ei.Cond.Accept(c)
		ejz := c.emitLine(bytecode.OpJz, s.Ln)
		c.chunk.WriteP1(0)
		c.chunk.WriteP2(0)
		for _, st := range ei.Body {
			st.Accept(c)
		}
		endJumps = append(endJumps, c.chunk.WriteOp(bytecode.OpJmp))
		c.chunk.WriteP2(0)
		next = c.chunk.Len()
		c.chunk.PatchP2After(ejz, uint32(next))
	}

	for _, st := range s.Else {
		st.Accept(c)
	}
	end := c.chunk.Len()
	for _, j := range endJumps {
		c.chunk.PatchP2(j, uint32(end))
	}
	return nil
}

func (c *Compiler) VisitWhile(s *parser.While) interface{} {
	start := c.chunk.Len()
	s.Cond.Accept(c)
	jz := c.emitLine(bytecode.OpJz, s.Ln)
	c.chunk.WriteP1(0)
	c.chunk.WriteP2(0)

	c.pushBreakable(false)
	for _, st := range s.Body {
		st.Accept(c)
	}
	bk := c.popBreakable()
	for _, j := range bk.continueJumps {
		c.chunk.PatchP2(j, uint32(start))
	}

	c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(uint32(start))
	end := c.chunk.Len()
	c.chunk.PatchP2After(jz, uint32(end))
	for _, j := range bk.breakJumps {
		c.chunk.PatchP2(j, uint32(end))
	}
	return nil
}

func (c *Compiler) VisitFor(s *parser.For) interface{} {
	for _, st := range s.Init {
		st.Accept(c)
	}
	start := c.chunk.Len()
	var jz int
	hasCond := s.Cond != nil
	if hasCond {
		s.Cond.Accept(c)
		jz = c.emitLine(bytecode.OpJz, s.Ln)
		c.chunk.WriteP1(0)
		c.chunk.WriteP2(0)
	}

	c.pushBreakable(false)
	for _, st := range s.Body {
		st.Accept(c)
	}
	bk := c.popBreakable()

	postStart := c.chunk.Len()
	for _, j := range bk.continueJumps {
		c.chunk.PatchP2(j, uint32(postStart))
	}
	for _, st := range s.Post {
		st.Accept(c)
	}
	c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(uint32(start))
	end := c.chunk.Len()
	if hasCond {
		c.chunk.PatchP2After(jz, uint32(end))
	}
	for _, j := range bk.breakJumps {
		c.chunk.PatchP2(j, uint32(end))
	}
	return nil
}

func (c *Compiler) VisitForeach(s *parser.Foreach) interface{} {
	s.Collection.Accept(c)
	initOff := c.emitLine(bytecode.OpForeachInit, s.Ln)
	hasKey := int32(0)
	if s.KeyName != "" {
		hasKey = 1
	}
	c.chunk.WriteP1(hasKey)
	c.chunk.SetP3(initOff, &bytecode.ForeachNames{KeyName: s.KeyName, ValueName: s.ValName})

	start := c.chunk.Len()
	stepOff := c.emitLine(bytecode.OpForeachStep, s.Ln)
	c.chunk.WriteP2(0)

	c.pushBreakable(false)
	for _, st := range s.Body {
		st.Accept(c)
	}
	bk := c.popBreakable()
	contTarget := c.chunk.Len()
	for _, j := range bk.continueJumps {
		c.chunk.PatchP2(j, uint32(contTarget))
	}

	c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(uint32(start))
	end := c.chunk.Len()
	c.chunk.PatchP2(stepOff, uint32(end))
	for _, j := range bk.breakJumps {
		c.chunk.PatchP2(j, uint32(end))
	}
	return nil
}

// VisitSwitch compiles each case guard as an independent mini-chunk (the
// SwitchTable's CaseChunk), evaluated by the VM against the subject with
// loose equality; case bodies fall through by default, matching spec S4.
func (c *Compiler) VisitSwitch(s *parser.Switch) interface{} {
	s.Subject.Accept(c)
	swOff := c.chunk.WriteOp(bytecode.OpSwitch)

	table := &bytecode.SwitchTable{HasDefault: s.HasDef}
	c.pushBreakable(true)

	// Case bodies are compiled back-to-back in the enclosing chunk; each
	// case's Target is the offset where its body begins.
	var bodyStarts []int
	// First compile the guard chunks (self-contained expression evaluators).
	for _, cc := range s.Cases {
		caseChunk := bytecode.NewChunk()
		saved := c.chunk
		c.chunk = caseChunk
		cc.Guard.Accept(c)
		c.chunk = saved
		table.Cases = append(table.Cases, bytecode.SwitchCase{CaseChunk: caseChunk})
	}

	// Reserve the table now; Targets are patched once bodies are emitted
	// immediately following the OpSwitch instruction.
	c.chunk.SetP3(swOff, table)
	for i, cc := range s.Cases {
		bodyStarts = append(bodyStarts, c.chunk.Len())
		for _, st := range cc.Body {
			st.Accept(c)
		}
		table.Cases[i].Target = bodyStarts[i]
	}
	if s.HasDef {
		table.DefaultTo = c.chunk.Len()
		for _, st := range s.Default {
			st.Accept(c)
		}
	}
	table.ExitTarget = c.chunk.Len()

	bk := c.popBreakable()
	for _, j := range bk.breakJumps {
		c.chunk.PatchP2(j, uint32(table.ExitTarget))
	}
	for _, j := range bk.continueJumps {
		// continue addressed to the switch itself behaves as break: it
		// jumps to the switch's exit.
		c.chunk.PatchP2(j, uint32(table.ExitTarget))
	}
	return nil
}

func (c *Compiler) pushBreakable(isSwitch bool) {
	c.breakables = append(c.breakables, breakable{isSwitch: isSwitch})
}

func (c *Compiler) popBreakable() breakable {
	bk := c.breakables[len(c.breakables)-1]
	c.breakables = c.breakables[:len(c.breakables)-1]
	return bk
}

func (c *Compiler) VisitBreak(s *parser.Break) interface{} {
	n := s.N
	if n < 1 {
		n = 1
	}
	idx := len(c.breakables) - n
	if idx < 0 {
		idx = 0
	}
	j := c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(0)
	if idx < len(c.breakables) {
		c.breakables[idx].breakJumps = append(c.breakables[idx].breakJumps, j)
	}
	return nil
}

func (c *Compiler) VisitContinue(s *parser.Continue) interface{} {
	n := s.N
	if n < 1 {
		n = 1
	}
	idx := len(c.breakables) - n
	if idx < 0 {
		idx = 0
	}
	j := c.chunk.WriteOp(bytecode.OpJmp)
	c.chunk.WriteP2(0)
	if idx < len(c.breakables) {
		c.breakables[idx].continueJumps = append(c.breakables[idx].continueJumps, j)
	}
	return nil
}

func (c *Compiler) VisitReturn(s *parser.Return) interface{} {
	hasVal := int32(0)
	if s.Value != nil {
		s.Value.Accept(c)
		hasVal = 1
	}
	c.emitLine(bytecode.OpDone, s.Ln)
	c.chunk.WriteP1(hasVal)
	return nil
}

func (c *Compiler) VisitDieExit(s *parser.DieExit) interface{} {
	status := int32(0)
	if s.Value != nil {
		s.Value.Accept(c)
		status = 1
	}
	c.emitLine(bytecode.OpHalt, s.Ln)
	c.chunk.WriteP1(status)
	return nil
}

func (c *Compiler) VisitUplink(s *parser.Uplink) interface{} {
	for _, name := range s.Names {
		c.chunk.InternString(name)
	}
	off := c.emitLine(bytecode.OpUplink, s.Ln)
	c.chunk.WriteP1(int32(len(s.Names)))
	idxs := make([]int, len(s.Names))
	for i, name := range s.Names {
		idxs[i] = c.chunk.InternString(name)
	}
	c.chunk.SetP3(off, idxs)
	return nil
}

func (c *Compiler) VisitStaticDecl(s *parser.StaticDecl) interface{} {
	if c.curStatic == nil {
		c.curStatic = make(map[string]*bytecode.Chunk)
	}
	init := bytecode.NewChunk()
	if s.Init != nil {
		saved := c.chunk
		c.chunk = init
		s.Init.Accept(c)
		c.chunk = saved
	}
	c.curStatic[s.Name] = init
	idx := c.chunk.InternString(s.Name)
	c.emitLine(bytecode.OpStatic, s.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) VisitConstDecl(s *parser.ConstDecl) interface{} {
	s.Init.Accept(c)
	idx := c.chunk.InternString(s.Name)
	c.emitLine(bytecode.OpDeclareConst, s.Ln)
	c.chunk.WriteP2(uint32(idx))
	return nil
}

func (c *Compiler) VisitFuncDecl(s *parser.FuncDecl) interface{} {
	c.compileFunctionBody(s.Name, s.Params, s.Body)
	return nil
}

// compileFunctionBody swaps in a fresh chunk for the function body, compiles
// each default-argument expression into its own small chunk, and appends the
// result to c.functions[name] — a second declaration under a name already in
// use becomes another overload rather than replacing the first.
func (c *Compiler) compileFunctionBody(name string, params []parser.Param, body []parser.Stmt) {
	savedChunk := c.chunk
	savedStatic := c.curStatic
	savedBreakables := c.breakables

	c.chunk = bytecode.NewChunk()
	c.curStatic = make(map[string]*bytecode.Chunk)
	c.breakables = nil

	protoParams := make([]ParamProto, len(params))
	for i, p := range params {
		pp := ParamProto{Name: p.Name, TypeHint: p.TypeHint}
		if p.Default != nil {
			defChunk := bytecode.NewChunk()
			saved := c.chunk
			c.chunk = defChunk
			p.Default.Accept(c)
			c.chunk = saved
			pp.Default = defChunk
		}
		protoParams[i] = pp
	}

	for _, st := range body {
		st.Accept(c)
	}
	c.chunk.WriteOp(bytecode.OpDone)
	c.chunk.WriteP1(0)

	c.functions[name] = append(c.functions[name], &Function{
		Name:       name,
		Params:     protoParams,
		Chunk:      c.chunk,
		StaticInit: c.curStatic,
	})

	c.chunk = savedChunk
	c.curStatic = savedStatic
	c.breakables = savedBreakables
}
