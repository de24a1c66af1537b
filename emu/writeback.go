package emu

import "github.com/arrdem/batbridge/isa"

// WritebackResult reports the observable effect of applying a
// writeback command, for drivers that need to react to a halt or a
// branch (the pipelined variants flush on Branched, §4.9).
type WritebackResult struct {
	Halted       bool
	Branched     bool
	BranchTarget uint32
}

// ApplyWriteback performs the pattern-dispatch of §4.9: halt, the
// r30/r29 output side channels, the r31 branch effect, ordinary
// register writes, and memory stores. It is the only place in the
// entire simulator that writes memory or a register other than r31;
// r31 is also advanced by fetch and, in the pipelined variants, moved
// by hazard replay and branch prediction.
func ApplyWriteback(rf *RegisterFile, mem *Memory, sink OutputSink, cmd WritebackCommand) WritebackResult {
	switch cmd.Dst {
	case isa.DstHalt:
		return WritebackResult{Halted: true}

	case isa.DstMemory:
		mem.Write(cmd.Addr, cmd.Val)
		return WritebackResult{}

	case isa.DstRegisters:
		switch uint8(cmd.Addr) {
		case isa.RegZero:
			if cmd.Val != 0 {
				sink.WriteChar(byte(cmd.Val))
			}
			return WritebackResult{}

		case isa.RegIMM:
			if cmd.Val != 0 {
				sink.WriteHex(cmd.Val)
			}
			return WritebackResult{}

		case isa.RegPC:
			target := Normalize(uint32(cmd.Val))
			rf.Set(isa.RegPC, int32(target))
			return WritebackResult{Branched: true, BranchTarget: target}

		default:
			rf.Set(uint8(cmd.Addr), cmd.Val)
			return WritebackResult{}
		}

	default:
		return WritebackResult{}
	}
}
