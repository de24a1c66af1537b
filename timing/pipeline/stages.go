package pipeline

import (
	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
)

// FetchStage reads the instruction blob at the program counter and
// advances it (§4.5). The predicted variant's speculation is entirely
// contained in the BranchPolicy handed to Fetch — this stage itself
// never branches on which variant it belongs to.
type FetchStage struct {
	regs *emu.RegisterFile
	mem  *emu.Memory
}

// NewFetchStage constructs a fetch stage over regs and mem.
func NewFetchStage(regs *emu.RegisterFile, mem *emu.Memory) *FetchStage {
	return &FetchStage{regs: regs, mem: mem}
}

// Fetch reads memory[registers[31]], advances registers[31] to pc+4,
// then gives policy a chance to further redirect it (the predicted
// variant's jump-map consultation; the plain pipeline's policy is a
// no-op here).
func (s *FetchStage) Fetch(policy BranchPolicy) FetchLatch {
	pc := uint32(s.regs.Get(isa.RegPC))
	blob := s.mem.ReadWord(pc)
	npc := pc + 4
	s.regs.Set(isa.RegPC, int32(npc))
	policy.ConsultFetch(s.regs, pc, npc)
	return FetchLatch{Valid: true, Blob: blob, PC: pc, NPC: npc}
}

// DecodeStage runs the shared decoder and macro-expansion queue, then
// applies the pipelined variant's hazard check (§4.6, §4.7).
type DecodeStage struct {
	regs   *emu.RegisterFile
	dec    *isa.Decoder
	queue  *emu.MacroQueue
	hazard *HazardUnit
}

// NewDecodeStage constructs a decode stage sharing dec and queue with
// the rest of the pipeline.
func NewDecodeStage(regs *emu.RegisterFile, dec *isa.Decoder, queue *emu.MacroQueue) *DecodeStage {
	return &DecodeStage{regs: regs, dec: dec, queue: queue, hazard: NewHazardUnit()}
}

// Decode consumes in (fetch's latched result) unless the macro queue
// still holds a pending micro-op from an earlier push/pop, in which
// case that is decoded instead — draining continues across fetch
// bubbles exactly as in the single-cycle driver, since fetch does not
// advance the pc while the expansion's stall is outstanding. hazard
// reports whether the caller must stall and refetch from in.PC instead
// of using the returned latch (§4.7); micro-ops that decode queued are
// dropped, so the macro is expanded again when it is refetched. A
// micro-op taken from the queue has no fetched blob to replay: on a
// hazard it goes back on the queue and the stall is reported as a
// stallDelta of 1 with hazard false.
func (s *DecodeStage) Decode(in FetchLatch, exec ExecuteLatch) (out DecodeLatch, stallDelta uint32, hazard bool) {
	if s.queue.Len() == 0 && !in.Valid {
		return DecodeLatch{}, 0, false
	}

	fromQueue := s.queue.Len() > 0
	pc := in.PC
	var blob any
	if s.queue.Len() == 0 {
		blob = in.Blob
	} else {
		pc = uint32(s.regs.Get(isa.RegPC))
	}

	inst, stallDelta, err := emu.DecodeBlob(s.dec, s.queue, blob, pc)
	if err != nil || inst == nil {
		return DecodeLatch{}, stallDelta, false
	}

	if s.hazard.Detect(inst, exec.Valid, exec.Cmd) {
		if fromQueue {
			// push/pop expand to two micro-ops, so the queue is empty
			// again and this puts the micro-op back at its head.
			s.queue.Push(isa.EncodeVector(inst))
			return DecodeLatch{}, 1, false
		}
		s.queue.Clear()
		return DecodeLatch{}, stallDelta, true
	}

	return DecodeLatch{Valid: true, Inst: inst}, stallDelta, false
}

// ExecuteStage runs the shared per-opcode semantic functions (§4.4,
// §4.8). There is no separate memory stage: ld resolves its read
// combinationally here, and st's write happens in writeback.
type ExecuteStage struct {
	regs *emu.RegisterFile
	mem  *emu.Memory
}

// NewExecuteStage constructs an execute stage over regs and mem.
func NewExecuteStage(regs *emu.RegisterFile, mem *emu.Memory) *ExecuteStage {
	return &ExecuteStage{regs: regs, mem: mem}
}

// Execute dispatches in.Inst to its opcode semantic function and
// latches the resulting writeback command.
func (s *ExecuteStage) Execute(in DecodeLatch) (ExecuteLatch, error) {
	if !in.Valid {
		return ExecuteLatch{}, nil
	}
	cmd, err := emu.Execute(&emu.ExecContext{Regs: s.regs, Mem: s.mem}, in.Inst)
	if err != nil {
		return ExecuteLatch{}, err
	}
	return ExecuteLatch{Valid: true, Cmd: cmd, PC: in.Inst.PC, NPC: in.Inst.NPC}, nil
}

// WritebackStage applies the single writeback command in flight, the
// only place in the pipeline that writes memory or a register other
// than the program counter (§5); fetch, hazard replay and the branch
// policy also move the program counter.
type WritebackStage struct {
	regs *emu.RegisterFile
	mem  *emu.Memory
	sink emu.OutputSink
}

// NewWritebackStage constructs a writeback stage over regs, mem and
// the r29/r30 output sink.
func NewWritebackStage(regs *emu.RegisterFile, mem *emu.Memory, sink emu.OutputSink) *WritebackStage {
	return &WritebackStage{regs: regs, mem: mem, sink: sink}
}

// Writeback applies in.Cmd, or does nothing for an empty (bubble)
// latch.
func (s *WritebackStage) Writeback(in ExecuteLatch) emu.WritebackResult {
	if !in.Valid {
		return emu.WritebackResult{}
	}
	return emu.ApplyWriteback(s.regs, s.mem, s.sink, in.Cmd)
}
