package emu

import "github.com/arrdem/batbridge/isa"

// ReadReg resolves an operand register to its value (§4.3). npc and
// imm are the currently-executing instruction's own next-pc and
// sign-extended immediate field — r31 and r29 name instruction-local
// values, not ordinary storage, which is why the resolver must be
// handed the executing instruction's context rather than just an
// index. r31 reads as npc rather than the instruction's own fetch
// address: fetch has already advanced registers[31] to pc+4 by the
// time execute runs (§4.5), so that is the value a live read of
// register 31 actually observes.
func ReadReg(rf *RegisterFile, idx uint8, npc uint32, imm int32) int32 {
	switch idx {
	case isa.RegPC:
		return int32(npc)
	case isa.RegZero:
		return 0
	case isa.RegIMM:
		return imm
	default:
		return rf.Get(idx)
	}
}

// ReadOperands resolves an instruction's a/b source operands in one
// call, the shape every opcode semantic function needs.
func ReadOperands(rf *RegisterFile, inst *isa.Instruction) (x, y int32) {
	return ReadReg(rf, inst.A, inst.NPC, inst.I), ReadReg(rf, inst.B, inst.NPC, inst.I)
}
