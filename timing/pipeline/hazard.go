package pipeline

import (
	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
)

// HazardUnit implements the pipelined decode stage's hazard check
// (§4.7). BatBridge has no forwarding network, unlike a typical
// five-stage design: a hazard is resolved purely by stalling (replaying
// fetch, or holding back a queued push/pop micro-op) until the
// producing instruction has retired.
type HazardUnit struct{}

// NewHazardUnit returns a ready-to-use HazardUnit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Detect reports whether decoding inst while execLatch holds cmd is a
// hazard: execute's result targets the register file at an address
// inst reads as an operand, excluding r_IMM and r_ZERO which never
// stall (§4.7).
func (h *HazardUnit) Detect(inst *isa.Instruction, execValid bool, cmd emu.WritebackCommand) bool {
	if !execValid || inst == nil || cmd.Dst != isa.DstRegisters {
		return false
	}
	addr := uint8(cmd.Addr)
	if addr == isa.RegIMM || addr == isa.RegZero {
		return false
	}
	return addr == inst.A || addr == inst.B
}
