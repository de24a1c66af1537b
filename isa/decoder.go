package isa

import "fmt"

// RegisterOperand names a register slot in a vector-form instruction.
// Either Alias is set (a symbolic name like "r_PC") or Index is used
// directly; Resolve always yields a numeric 0..31 index.
type RegisterOperand struct {
	Alias string
	Index uint8
}

// Reg builds a plain numeric register operand.
func Reg(idx uint8) RegisterOperand { return RegisterOperand{Index: idx} }

// RegAlias builds a symbolic register operand (r_PC, r_ZERO, r_IMM).
func RegAlias(name string) RegisterOperand { return RegisterOperand{Alias: name} }

// Resolve normalizes the operand to a 0..31 register index, resolving
// any symbolic alias.
func (r RegisterOperand) Resolve() uint8 {
	if r.Alias != "" {
		if idx, ok := ResolveRegisterAlias(r.Alias); ok {
			return idx
		}
	}
	return r.Index
}

// Vector is the symbolic 5-tuple instruction representation produced
// by an external assembler: (opcode, d, a, b, i). Conditional and hlt
// forms leave the unused slots zero-valued; the decoder knows which
// slots are meaningful for which opcode (§4.2).
type Vector struct {
	Op      Op
	D, A, B RegisterOperand
	I       int32
}

// Instruction is the canonical decoded form (§3's "decoded map"):
// {icode, d, a, b, i, pc, npc}. All register fields are already
// normalized to 0..31 indices.
type Instruction struct {
	Icode Op
	D     uint8
	A     uint8
	B     uint8
	I     int32
	PC    uint32
	NPC   uint32
}

// String renders the instruction in symbolic assembler form.
func (inst *Instruction) String() string {
	if inst == nil {
		return "nop"
	}
	switch inst.Icode {
	case Hlt:
		return "hlt"
	case IfLt, IfLe, IfEq, IfNe:
		return fmt.Sprintf("%s %d %d %d", inst.Icode, inst.A, inst.B, inst.I)
	default:
		return fmt.Sprintf("%s %d %d %d %d", inst.Icode, inst.D, inst.A, inst.B, inst.I)
	}
}

// Decoder turns an undecoded blob (nil, a 32-bit word, or a Vector)
// into the canonical Instruction form. It holds no state: decoding is
// a pure function of (blob, pc).
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode implements §4.2. raw must be nil, a uint32 word, or a Vector;
// any other type is a caller error. pc is the address the blob was
// fetched from, carried into the decoded Instruction's PC/NPC metadata.
func (d *Decoder) Decode(raw any, pc uint32) (*Instruction, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case uint32:
		return d.decodeWord(v, pc), nil
	case Vector:
		return d.decodeVector(v, pc), nil
	default:
		return nil, fmt.Errorf("isa: decode: unsupported blob type %T", raw)
	}
}

func (d *Decoder) decodeWord(w uint32, pc uint32) *Instruction {
	return &Instruction{
		Icode: WordOpcode(w),
		D:     WordD(w),
		A:     WordA(w),
		B:     WordB(w),
		I:     WordImm(w),
		PC:    pc,
		NPC:   pc + 4,
	}
}

func (d *Decoder) decodeVector(v Vector, pc uint32) *Instruction {
	inst := &Instruction{Icode: v.Op, PC: pc, NPC: pc + 4}

	switch {
	case v.Op == Hlt:
		// Only icode is meaningful.
	case v.Op.Conditional():
		// {icode, a, b, i, d=0} — conditionals take no destination.
		inst.A = v.A.Resolve()
		inst.B = v.B.Resolve()
		inst.I = v.I
	default:
		inst.D = v.D.Resolve()
		inst.A = v.A.Resolve()
		inst.B = v.B.Resolve()
		inst.I = v.I
	}
	return inst
}

// EncodeWord packs a decoded Instruction back into its 32-bit word form.
func EncodeWord(inst *Instruction) uint32 {
	if inst == nil {
		return NoOpWord
	}
	return Pack(inst.Icode, inst.D, inst.A, inst.B, inst.I)
}

// EncodeVector renders a decoded Instruction back into symbolic vector
// form, undoing decodeVector/decodeWord for round-trip testing (§8).
func EncodeVector(inst *Instruction) Vector {
	if inst == nil {
		return Vector{}
	}
	return Vector{
		Op: inst.Icode,
		D:  Reg(inst.D),
		A:  Reg(inst.A),
		B:  Reg(inst.B),
		I:  inst.I,
	}
}
