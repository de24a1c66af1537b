// Package pipeline provides the 4-stage pipelined and predicted
// timing models for cycle-accurate BatBridge simulation (§4.5-§4.11).
package pipeline

import (
	"os"

	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
)

// PipelineOption configures a new Pipeline.
type PipelineOption func(*Pipeline)

// WithOutputSink overrides the sink r30/r29 writes are delivered to.
// Defaults to stdout.
func WithOutputSink(sink emu.OutputSink) PipelineOption {
	return func(p *Pipeline) { p.sink = sink }
}

// WithEntryPoint sets the initial program counter. Defaults to 0.
func WithEntryPoint(pc uint32) PipelineOption {
	return func(p *Pipeline) { p.regs.Set(isa.RegPC, int32(pc)) }
}

// WithBranchPolicy selects the predicted variant's GShare collaborator
// in place of the plain pipeline's always-flush UnpredictedBranches.
func WithBranchPolicy(policy BranchPolicy) PipelineOption {
	return func(p *Pipeline) { p.policy = policy }
}

// Stats reports cumulative pipeline statistics. These are ambient —
// not part of the architectural contract any cross-variant test
// compares, only the cycle-accounting report (§6).
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Flushes      uint64
}

// CPI returns cycles retired per instruction retired.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Pipeline is the shared 4-stage driver for both the plain pipelined
// and predicted variants (§4.10): fetch, decode, execute, writeback.
// There is no separate memory stage — ld resolves its read
// combinationally inside execute, and st writes during writeback —
// so pipeline depth is 4, not 5.
type Pipeline struct {
	regs   *emu.RegisterFile
	mem    *emu.Memory
	sink   emu.OutputSink
	policy BranchPolicy

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	writebackStage *WritebackStage

	fetchLatch FetchLatch
	decLatch   DecodeLatch
	execLatch  ExecuteLatch

	fetchStall uint32
	halted     bool

	cycleCount       uint64
	instructionCount uint64
	stallCount       uint64
	flushCount       uint64
}

// NewPipeline constructs a pipeline over regs and mem, which the
// caller owns and may have already loaded a program image into.
func NewPipeline(regs *emu.RegisterFile, mem *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regs:   regs,
		mem:    mem,
		sink:   emu.NewWriterSink(os.Stdout),
		policy: UnpredictedBranches{},
	}
	for _, opt := range opts {
		opt(p)
	}

	dec := isa.NewDecoder()
	queue := &emu.MacroQueue{}
	p.fetchStage = NewFetchStage(p.regs, p.mem)
	p.decodeStage = NewDecodeStage(p.regs, dec, queue)
	p.executeStage = NewExecuteStage(p.regs, p.mem)
	p.writebackStage = NewWritebackStage(p.regs, p.mem, p.sink)
	return p
}

// Halted reports whether hlt has retired.
func (p *Pipeline) Halted() bool { return p.halted }

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 { return uint32(p.regs.Get(isa.RegPC)) }

// Registers exposes the pipeline's register file.
func (p *Pipeline) Registers() *emu.RegisterFile { return p.regs }

// Memory exposes the pipeline's memory.
func (p *Pipeline) Memory() *emu.Memory { return p.mem }

// Policy exposes the pipeline's branch policy, so a caller can recover
// predictor-specific statistics (e.g. GSharePredictor.Accuracy) for the
// predicted variant without the pipeline itself depending on them.
func (p *Pipeline) Policy() BranchPolicy { return p.policy }

// Stats returns the cumulative cycle-accounting statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Cycles:       p.cycleCount,
		Instructions: p.instructionCount,
		Stalls:       p.stallCount,
		Flushes:      p.flushCount,
	}
}

// GetFetchLatch exposes fetch.result, for tests inspecting pipeline state.
func (p *Pipeline) GetFetchLatch() FetchLatch { return p.fetchLatch }

// GetDecodeLatch exposes decode.result.
func (p *Pipeline) GetDecodeLatch() DecodeLatch { return p.decLatch }

// GetExecuteLatch exposes execute.result.
func (p *Pipeline) GetExecuteLatch() ExecuteLatch { return p.execLatch }

// Tick advances the pipeline by one clock edge. Stages run in reverse
// order — writeback, execute, decode, fetch, then stall-dec — so each
// latch's consumer runs before its producer overwrites it within the
// same call: the state snapshot after Tick holds the values the next
// Tick will consume (§4.10's "latch-between-clocks" discipline).
func (p *Pipeline) Tick() error {
	if p.halted {
		return nil
	}
	p.cycleCount++

	if p.execLatch.Valid {
		p.instructionCount++
	}

	pcBeforeWriteback := p.regs.Get(isa.RegPC)
	wbRes := p.writebackStage.Writeback(p.execLatch)
	if wbRes.Halted {
		p.halted = true
		return nil
	}

	flush := false
	if wbRes.Branched {
		flush = p.policy.Resolve(p.execLatch.PC, p.execLatch.NPC, wbRes.BranchTarget)
		if !flush {
			// Fetch already followed this branch to its target: keep
			// the pc it has advanced to instead of refetching.
			p.regs.Set(isa.RegPC, pcBeforeWriteback)
		}
	}

	execIn, decIn := p.decLatch, p.fetchLatch
	if flush {
		execIn, decIn = DecodeLatch{}, FetchLatch{}
		p.decodeStage.queue.Clear()
		p.flushCount++
	}

	nextExecLatch, err := p.executeStage.Execute(execIn)
	if err != nil {
		return err
	}

	nextDecLatch, stallDelta, hazard := p.decodeStage.Decode(decIn, nextExecLatch)
	if hazard {
		p.regs.Set(isa.RegPC, int32(decIn.PC))
		p.fetchStall++
		p.stallCount++
		nextDecLatch = DecodeLatch{}
	} else {
		p.fetchStall += stallDelta
	}

	var nextFetchLatch FetchLatch
	if p.fetchStall == 0 {
		nextFetchLatch = p.fetchStage.Fetch(p.policy)
	}
	if p.fetchStall > 0 {
		p.fetchStall--
	}

	p.execLatch = nextExecLatch
	p.decLatch = nextDecLatch
	p.fetchLatch = nextFetchLatch

	return nil
}

// Run ticks until halt or error, returning the number of cycles
// elapsed and any fatal error.
func (p *Pipeline) Run() (uint64, error) {
	return p.RunBound(0)
}

// RunBound ticks until halt, error, or bound Tick calls have elapsed
// (0 means unbounded).
func (p *Pipeline) RunBound(bound uint64) (uint64, error) {
	var n uint64
	for !p.halted {
		if bound > 0 && n >= bound {
			return n, nil
		}
		if err := p.Tick(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
