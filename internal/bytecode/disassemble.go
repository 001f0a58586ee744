package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of chunk's instruction stream
// to w, one instruction per line, annotated with the same P1/P2/P3 shapes
// runChunk itself decodes — used only by the jx9 demo host's `dump`
// subcommand, never by the interpreter.
func Disassemble(w io.Writer, chunk *Chunk) {
	code := chunk.Code
	ip := 0
	for ip < len(code) {
		opOff := ip
		op := OpCode(code[ip])
		ip++

		switch op {
		case OpJz, OpJnz, OpEnsureContainer, OpEnsureMemberContainer:
			p1 := chunk.ReadP1(ip)
			p2 := chunk.ReadP2(ip + 4)
			ip += 8
			fmt.Fprintf(w, "%6d  %-16s P1=%d P2=%d\n", opOff, op, p1, p2)

		case OpDone, OpHalt, OpPop, OpCat, OpForeachInit, OpCall, OpUplink, OpEnsureIdxContainer, OpConsume:
			p1 := chunk.ReadP1(ip)
			ip += 4
			fmt.Fprintf(w, "%6d  %-16s P1=%d\n", opOff, op, p1)

		case OpJmp, OpLoadC, OpLoadVar, OpStoreVar, OpAddStore, OpSubStore,
			OpMulStore, OpDivStore, OpModStore, OpCatStore, OpNewArray,
			OpNewObject, OpLoadIdx, OpMember, OpMemberSet, OpForeachStep,
			OpMkFunc, OpStatic, OpDeclareConst,
			OpEq, OpNeq, OpTEq, OpTNe, OpLt, OpLe, OpGt, OpGe:
			p2 := chunk.ReadP2(ip)
			ip += 4
			extra := ""
			if name, ok := literalName(chunk, op, p2); ok {
				extra = " ; " + name
			}
			fmt.Fprintf(w, "%6d  %-16s P2=%d%s\n", opOff, op, p2, extra)

		default:
			fmt.Fprintf(w, "%6d  %-16s\n", opOff, op)
		}

		if payload := chunk.P3At(opOff); payload != nil {
			fmt.Fprintf(w, "        ; P3=%v\n", payload)
		}
	}
}

// literalName resolves the constant-pool name a LOADC/LOAD/STORE/MEMBER/
// etc. instruction's P2 indexes, for readability in the listing.
func literalName(chunk *Chunk, op OpCode, idx uint32) (string, bool) {
	switch op {
	case OpLoadVar, OpStoreVar, OpAddStore, OpSubStore, OpMulStore, OpDivStore,
		OpModStore, OpCatStore, OpMember, OpMemberSet, OpMkFunc, OpStatic,
		OpDeclareConst, OpLoadC:
		if int(idx) < len(chunk.Constants) {
			return fmt.Sprintf("%v", chunk.Constants[idx]), true
		}
	}
	return "", false
}
