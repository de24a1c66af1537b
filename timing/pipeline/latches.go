package pipeline

import (
	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
)

// FetchLatch holds fetch.result between the fetch and decode stages
// (§3): the raw blob fetch read plus the pc it was read from and the
// architectural next-pc.
type FetchLatch struct {
	Valid bool
	Blob  any
	PC    uint32
	NPC   uint32
}

// DecodeLatch holds decode.result between the decode and execute
// stages: the already-decoded instruction, macro-expansion already
// applied.
type DecodeLatch struct {
	Valid bool
	Inst  *isa.Instruction
}

// ExecuteLatch holds execute.result between the execute and
// writeback stages. At most one writeback command is ever in flight
// per cycle (§3).
type ExecuteLatch struct {
	Valid bool
	Cmd   emu.WritebackCommand
	PC    uint32
	NPC   uint32
}
