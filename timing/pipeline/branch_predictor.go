package pipeline

import (
	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
)

// defaultHistoryLen is §4.11's global history width absent an override
// from a loaded run config (config.RunConfig.PredictorHistoryBits).
const defaultHistoryLen = 10

// BranchPolicy is the single point of variation between the plain
// pipelined variant and the predicted one (see the "stage functions
// rebound in the predicted variant" redesign flag): the predicted
// pipeline is the ordinary pipeline plus this collaborator, consulted
// by fetch and resolved by writeback, not a separately mutated stage.
type BranchPolicy interface {
	// ConsultFetch runs after fetch has read its blob and advanced pc
	// to pc+4 (npc); it may further redirect registers[31] (§4.5).
	ConsultFetch(regs *emu.RegisterFile, pc, npc uint32)
	// Resolve runs when writeback observes a branch writeback
	// ({:registers, 31, v}); it reports whether the pipeline must
	// flush (§4.9, §4.11).
	Resolve(pc, npc uint32, v uint32) (flush bool)
}

// UnpredictedBranches is the plain pipelined variant's policy: fetch
// never speculates, and every branch writeback flushes regardless of
// direction (§4.9) — BatBridge's conditional opcodes always rewrite
// r31, taken or not, so the non-predicting pipeline cannot tell in
// advance which instructions downstream of the branch are stale.
type UnpredictedBranches struct{}

// ConsultFetch is a no-op: the plain pipeline never speculates.
func (UnpredictedBranches) ConsultFetch(*emu.RegisterFile, uint32, uint32) {}

// Resolve always flushes.
func (UnpredictedBranches) Resolve(pc, npc uint32, v uint32) bool { return true }

// GSharePredictor implements §4.11: a global history XORed with 9
// bits of the branch's pc indexes a table of 2-bit saturating
// counters, and a separate jump-map remembers the most recently
// observed target for each branch address.
type GSharePredictor struct {
	historyLen int
	counters   []uint8
	history    []bool
	jumpMap    map[uint32]uint32

	// redirect records, per pc, the address ConsultFetch actually sent
	// the next fetch to for the in-flight occurrence of that branch —
	// either the jump-map target (predicted taken) or npc (predicted
	// not-taken). Resolve consults this instead of re-deriving a
	// prediction from the branch's resolved direction, so a stale
	// jump-map entry that caused fetch to speculate down the wrong path
	// is always caught regardless of which way the branch resolves.
	redirect map[uint32]uint32

	correct, resolved uint64
}

// NewGSharePredictor returns a predictor with the spec's default
// 10-bit history, every counter at its default value of 2, and an
// all-false history.
func NewGSharePredictor() *GSharePredictor {
	return NewGSharePredictorWithHistory(defaultHistoryLen)
}

// NewGSharePredictorWithHistory builds a predictor whose global
// history register is historyBits wide, for a run config that
// overrides config.RunConfig.PredictorHistoryBits. The table has
// 1<<historyBits entries, and never fewer than the 1<<9 the pc mask
// alone can index: history_as_bitvec's newest bit sits at
// position historyBits-1 (§4.11's "oldest bit at LSB"), so XORing it
// against the 9-bit pc mask can set bits the mask alone never would.
func NewGSharePredictorWithHistory(historyBits int) *GSharePredictor {
	tableSize := 1 << uint(historyBits)
	if tableSize < 1<<9 {
		tableSize = 1 << 9
	}
	p := &GSharePredictor{
		historyLen: historyBits,
		counters:   make([]uint8, tableSize),
		history:    make([]bool, historyBits),
		jumpMap:    make(map[uint32]uint32),
		redirect:   make(map[uint32]uint32),
	}
	for i := range p.counters {
		p.counters[i] = 2
	}
	return p
}

func (p *GSharePredictor) historyBits() uint32 {
	var bits uint32
	for j, taken := range p.history {
		if taken {
			bits |= 1 << uint(p.historyLen-1-j)
		}
	}
	return bits
}

func (p *GSharePredictor) index(pc uint32) uint32 {
	idx := (pc & 0x1FF) ^ p.historyBits()
	return idx % uint32(len(p.counters))
}

// Counter exposes the saturating counter for pc's current index, for
// tests checking training monotonicity (§8).
func (p *GSharePredictor) Counter(pc uint32) uint8 {
	return p.counters[p.index(pc)]
}

// Predict reports whether pc is predicted taken and, if a target has
// ever been recorded for it, what that target is.
func (p *GSharePredictor) Predict(pc uint32) (taken bool, target uint32, known bool) {
	target, known = p.jumpMap[pc]
	return p.counters[p.index(pc)] >= 2, target, known
}

// Train applies the predictor's direct update rule (§4.11): taken
// saturates the counter up and records target in the jump-map;
// not-taken saturates it down and leaves the jump-map untouched.
func (p *GSharePredictor) Train(pc uint32, taken bool, target uint32) {
	idx := p.index(pc)
	if taken {
		if p.counters[idx] < 3 {
			p.counters[idx]++
		}
		p.jumpMap[pc] = target
	} else if p.counters[idx] > 0 {
		p.counters[idx]--
	}
	p.shiftHistory(taken)
}

func (p *GSharePredictor) shiftHistory(taken bool) {
	copy(p.history[1:], p.history[:len(p.history)-1])
	p.history[0] = taken
}

// ConsultFetch redirects registers[31] to the jump-map target when the
// counter predicts taken and a target has been recorded for pc (§4.5),
// and records whatever address this occurrence of pc was actually sent
// to — redirect or plain npc — so Resolve can tell a stale jump-map
// entry from a correct one.
func (p *GSharePredictor) ConsultFetch(regs *emu.RegisterFile, pc, npc uint32) {
	taken, target, known := p.Predict(pc)
	redirectedTo := npc
	if taken && known {
		redirectedTo = target
		regs.Set(isa.RegPC, int32(target))
	}
	p.redirect[pc] = redirectedTo
}

// Resolve implements the writeback hooks of §4.11. Whether to flush is
// decided by comparing v against the address fetch actually redirected
// to for this occurrence of pc (recorded by ConsultFetch) — not by
// re-deriving a prediction from pc's direction alone. A stale jump-map
// entry (left over from an earlier, different-direction resolution of
// the same branch) can cause ConsultFetch to redirect to an address
// that no longer matches what this resolution needs, even when v
// lands back on npc; comparing against the recorded redirect catches
// that case, where comparing v against npc directly would not.
//
// v == npc is the correct-prediction case for training: train taken,
// since the recorded convergence behavior is that repeated resolutions
// landing on npc saturate the counter upward (§8's "taken" worked
// example runs this path 1000 times to saturation). v != npc trains
// toward not-taken and retrains the jump-map to the observed target.
//
// The spec's prose for the mispredict branch literally reads "retrain
// jump-map[pc] := v and counter-up (taken)", but that contradicts both
// the general not-taken training rule a few lines above it and the
// worked convergence example in §8 (a branch taken 1000 times in a row
// then flipped once must decrement the saturated counter by exactly
// one). The worked example is the more specific and concrete of the
// two, so a mispredict here trains toward not-taken; the jump-map is
// still updated to the observed target, which is the one detail from
// that sentence that does not conflict with the counter direction.
func (p *GSharePredictor) Resolve(pc, npc uint32, v uint32) (flush bool) {
	p.resolved++

	redirectedTo, known := p.redirect[pc]
	if !known {
		redirectedTo = npc
	}
	delete(p.redirect, pc)
	flush = redirectedTo != v
	if !flush {
		p.correct++
	}

	if v == npc {
		p.Train(pc, true, v)
		return flush
	}
	idx := p.index(pc)
	if p.counters[idx] > 0 {
		p.counters[idx]--
	}
	p.jumpMap[pc] = v
	p.shiftHistory(false)
	return flush
}

// Accuracy reports how many of the branches this predictor has
// resolved kept the pipeline from flushing, and how many it resolved
// in total. Used only by the supplemented cycle-accounting report
// (§6); never part of the architectural contract.
func (p *GSharePredictor) Accuracy() (correct, resolved uint64) {
	return p.correct, p.resolved
}
