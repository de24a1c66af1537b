// Package emu implements the BatBridge data model shared by every
// simulator variant: the register file, word-addressed memory, the
// operand resolver, the opcode semantic functions, and the
// single-cycle driver that composes them (§3-4 of the instruction set
// model).
package emu

// RegisterFile holds the 32 general-purpose registers. It is a plain
// flat store — the architectural specialness of r29 (IMM), r30 (ZERO)
// and r31 (PC) lives entirely in ReadReg and in the writeback stage's
// side channels, never in the register file itself.
type RegisterFile struct {
	Regs [32]int32
}

// NewRegisterFile returns a zeroed register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

// Get reads the raw stored value of a register, with no special
// casing of r29/r30/r31. Most callers want ReadReg instead.
func (rf *RegisterFile) Get(idx uint8) int32 {
	return rf.Regs[idx&0x1F]
}

// Set stores a raw value into a register, with no special casing.
// Most callers want the writeback stage's side-channel dispatch
// instead of calling Set directly.
func (rf *RegisterFile) Set(idx uint8, v int32) {
	rf.Regs[idx&0x1F] = v
}
