package emu

import (
	"os"

	"github.com/arrdem/batbridge/isa"
)

// StepResult reports the observable outcome of one Step call: whether
// the machine halted, and any fatal error that stopped it (§7).
type StepResult struct {
	Halted bool
	Err    error
}

// EmulatorOption configures a new Emulator.
type EmulatorOption func(*Emulator)

// WithOutputSink overrides the sink r30/r29 writes are delivered to.
// Defaults to stdout.
func WithOutputSink(sink OutputSink) EmulatorOption {
	return func(e *Emulator) { e.sink = sink }
}

// WithEntryPoint sets the initial program counter. Defaults to 0.
func WithEntryPoint(pc uint32) EmulatorOption {
	return func(e *Emulator) { e.regs.Set(isa.RegPC, int32(pc)) }
}

// Emulator is the single-cycle driver of §4.10: every Step call runs
// fetch, decode, execute and writeback for one instruction in program
// order, and the whole instruction retires before Step returns. It
// carries no pipeline latches — those belong to the timing/pipeline
// variants — but still routes push/pop through the shared MacroQueue,
// since a macro-op retires its micro-ops one Step at a time and the
// program counter must not advance until the last one lands.
type Emulator struct {
	regs    *RegisterFile
	mem     *Memory
	decoder *isa.Decoder
	queue   MacroQueue
	sink    OutputSink

	halted      bool
	cycles      uint64
	stallCycles uint64
}

// NewEmulator constructs a single-cycle emulator over regs and mem,
// which the caller owns and may have already loaded a program image
// into.
func NewEmulator(regs *RegisterFile, mem *Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regs:    regs,
		mem:     mem,
		decoder: isa.NewDecoder(),
		sink:    NewWriterSink(os.Stdout),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registers exposes the emulator's register file.
func (e *Emulator) Registers() *RegisterFile { return e.regs }

// Memory exposes the emulator's memory.
func (e *Emulator) Memory() *Memory { return e.mem }

// Halted reports whether hlt has retired.
func (e *Emulator) Halted() bool { return e.halted }

// Cycles reports the number of Step calls that retired a micro-op,
// including macro-expansion steps.
func (e *Emulator) Cycles() uint64 { return e.cycles }

// StallCycles reports the cumulative fetch-stall delta accrued from
// macro-op expansion (§4.4, §9) — a statistic only; the single-cycle
// driver never needs to act on it, unlike the pipelined variants.
func (e *Emulator) StallCycles() uint64 { return e.stallCycles }

// PC returns the current program counter.
func (e *Emulator) PC() uint32 { return uint32(e.regs.Get(isa.RegPC)) }

// Step retires exactly one micro-op: fetch (unless a macro-op is mid
// expansion), decode, execute, writeback. The program counter only
// advances past the fetched word once its macro queue has fully
// drained, and never when writeback itself redirected it (a taken or
// not-taken branch writes r31 directly, §4.9).
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	pc := e.PC()

	var blob any
	if e.queue.Len() == 0 {
		blob = e.mem.ReadWord(pc)
	}

	inst, stallDelta, err := DecodeBlob(e.decoder, &e.queue, blob, pc)
	e.stallCycles += uint64(stallDelta)
	if err != nil {
		return StepResult{Err: err}
	}

	e.cycles++

	if inst == nil {
		e.regs.Set(isa.RegPC, int32(pc+4))
		return StepResult{}
	}

	wb, err := Execute(&ExecContext{Regs: e.regs, Mem: e.mem}, inst)
	if err != nil {
		return StepResult{Err: err}
	}

	res := ApplyWriteback(e.regs, e.mem, e.sink, wb)
	if res.Halted {
		e.halted = true
		return StepResult{Halted: true}
	}

	if !res.Branched && e.queue.Len() == 0 {
		e.regs.Set(isa.RegPC, int32(pc+4))
	}

	return StepResult{}
}

// Run steps until halt or error, returning the number of retired
// micro-ops and any fatal error.
func (e *Emulator) Run() (uint64, error) {
	return e.RunBound(0)
}

// RunBound steps until halt, error, or bound Step calls have elapsed
// (0 means unbounded) — the guard the fib/factorial programs in the
// test corpus rely on to catch a runaway decode (§8).
func (e *Emulator) RunBound(bound uint64) (uint64, error) {
	var n uint64
	for !e.halted {
		if bound > 0 && n >= bound {
			return n, nil
		}
		res := e.Step()
		n++
		if res.Err != nil {
			return n, res.Err
		}
	}
	return n, nil
}
