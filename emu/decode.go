package emu

import "github.com/arrdem/batbridge/isa"

// MacroQueue is the FIFO of pending micro-ops produced by expanding a
// push/pop macro-op (§4.4, §9). It is consumed one micro-op per decode
// call, ahead of whatever blob fetch handed decode that cycle.
type MacroQueue struct {
	pending []isa.Vector
}

// Len reports how many micro-ops are still queued.
func (q *MacroQueue) Len() int {
	return len(q.pending)
}

// Push enqueues micro-ops at the tail of the queue.
func (q *MacroQueue) Push(ops ...isa.Vector) {
	q.pending = append(q.pending, ops...)
}

// Pop dequeues the next pending micro-op, if any.
func (q *MacroQueue) Pop() (isa.Vector, bool) {
	if len(q.pending) == 0 {
		return isa.Vector{}, false
	}
	v := q.pending[0]
	q.pending = q.pending[1:]
	return v, true
}

// Clear drops all pending micro-ops (pipeline flush, §9).
func (q *MacroQueue) Clear() {
	q.pending = nil
}

// DecodeBlob implements the decode stage's macro-aware contract
// (§4.6): if the macro queue holds a pending micro-op, decode that
// instead of blob; otherwise decode blob, and if it names a macro
// (push/pop), expand it, enqueue every micro-op after the first, and
// return the first as this cycle's decoded instruction. stallDelta is
// the amount the caller must add to its fetch-stall counter
// (expansion_count - 1, per §4.4 and §9).
func DecodeBlob(dec *isa.Decoder, queue *MacroQueue, blob any, pc uint32) (inst *isa.Instruction, stallDelta uint32, err error) {
	if v, ok := queue.Pop(); ok {
		inst, err = dec.Decode(v, pc)
		return inst, 0, err
	}

	inst, err = dec.Decode(blob, pc)
	if err != nil || inst == nil {
		return inst, 0, err
	}

	switch inst.Icode {
	case isa.Push:
		return expandMacro(dec, queue, ExpandPush(inst.D), pc)
	case isa.Pop:
		return expandMacro(dec, queue, ExpandPop(inst.D), pc)
	default:
		return inst, 0, nil
	}
}

func expandMacro(dec *isa.Decoder, queue *MacroQueue, ops []isa.Vector, pc uint32) (*isa.Instruction, uint32, error) {
	first := ops[0]
	queue.Push(ops[1:]...)
	inst, err := dec.Decode(first, pc)
	return inst, uint32(len(ops) - 1), err
}
