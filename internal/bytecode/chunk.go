package bytecode

import "encoding/binary"

// DebugInfo stores the source location an instruction was compiled from.
type DebugInfo struct {
	Line     int
	Column   int
	File     string
	Function string
}

// SwitchCase is one arm of a SWITCH table: CaseChunk is a small independent
// bytecode container evaluating the case guard expression; Target is the
// instruction offset to jump to on a loose-equal match.
type SwitchCase struct {
	CaseChunk *Chunk
	Target    int
}

// SwitchTable is the P3 payload of an OpSwitch instruction.
type SwitchTable struct {
	Cases        []SwitchCase
	DefaultTo    int
	HasDefault   bool
	ExitTarget   int
}

// ForeachNames is the P3 payload of an OpForeachInit instruction.
type ForeachNames struct {
	KeyName   string // empty when the loop only binds a value
	ValueName string
}

// Chunk is an append-only instruction container: one per compilation unit
// (top-level program, function body, default-argument expression, static
// initializer, or switch-case guard). The instruction stream is owned by
// its enclosing function.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Debug     []DebugInfo

	// p3 maps the offset of an instruction's opcode byte to its P3 payload
	// (a *SwitchTable, a *ForeachNames, or the []int of name literal indices
	// an UPLINK carries, depending on the op).
	p3 map[int]interface{}

	// strLits deduplicates short (<=64 byte) string literals by content so
	// repeated literals share one Constants slot, mirroring the literal
	// pool's dedup rule.
	strLits map[string]int
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []interface{}{},
		Debug:     []DebugInfo{},
		p3:        make(map[int]interface{}),
		strLits:   make(map[string]int),
	}
}

// WriteOp appends a bare opcode (no immediate operands) and returns its
// offset, used by the compiler as a later jump-patch target.
func (c *Chunk) WriteOp(op OpCode) int {
	off := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, DebugInfo{})
	return off
}

func (c *Chunk) WriteOpWithDebug(op OpCode, debug DebugInfo) int {
	off := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, debug)
	return off
}

// WriteP1 appends a signed 32-bit immediate (little-endian).
func (c *Chunk) WriteP1(v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	c.Code = append(c.Code, buf[:]...)
	c.Debug = append(c.Debug, DebugInfo{}, DebugInfo{}, DebugInfo{}, DebugInfo{})
}

// WriteP2 appends an unsigned 32-bit immediate (little-endian).
func (c *Chunk) WriteP2(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	c.Code = append(c.Code, buf[:]...)
	c.Debug = append(c.Debug, DebugInfo{}, DebugInfo{}, DebugInfo{}, DebugInfo{})
}

// SetP3 attaches an opaque payload to the instruction whose opcode byte
// starts at off.
func (c *Chunk) SetP3(off int, payload interface{}) {
	c.p3[off] = payload
}

// P3At retrieves the payload set by SetP3, or nil.
func (c *Chunk) P3At(off int) interface{} {
	return c.p3[off]
}

// PatchP2 overwrites the P2 operand located immediately after the opcode
// byte at opOffset — used to back-patch forward jumps once their target is
// known.
func (c *Chunk) PatchP2(opOffset int, v uint32) {
	binary.LittleEndian.PutUint32(c.Code[opOffset+1:opOffset+5], v)
}

// PatchP2After patches the P2 that follows a P1 (i.e. at opOffset+5), used
// for JZ/JNZ which carry both.
func (c *Chunk) PatchP2After(opOffset int, v uint32) {
	binary.LittleEndian.PutUint32(c.Code[opOffset+5:opOffset+9], v)
}

func (c *Chunk) ReadP1(off int) int32 {
	return int32(binary.LittleEndian.Uint32(c.Code[off : off+4]))
}

func (c *Chunk) ReadP2(off int) uint32 {
	return binary.LittleEndian.Uint32(c.Code[off : off+4])
}

// AddConstant appends val to the literal pool and returns its index.
func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// InternString returns the literal-pool index of s, reusing an existing
// slot when s is 64 bytes or fewer and was already interned (the spec's
// literal-pool dedup rule for short string literals).
func (c *Chunk) InternString(s string) int {
	if len(s) <= 64 {
		if idx, ok := c.strLits[s]; ok {
			return idx
		}
		idx := c.AddConstant(s)
		c.strLits[s] = idx
		return idx
	}
	return c.AddConstant(s)
}

func (c *Chunk) GetDebugInfo(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}

// Len is the current length of the instruction stream in bytes; the
// compiler uses it as a jump target and the VM derives its operand stack's
// initial capacity from it (the stack still grows as needed).
func (c *Chunk) Len() int {
	return len(c.Code)
}
