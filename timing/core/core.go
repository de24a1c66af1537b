// Package core selects among BatBridge's three architecturally
// equivalent execution models — single-cycle, pipelined, and
// predicted — behind one run interface, so a caller (the CLI, a
// cross-variant equivalence test) only names a Variant and never
// touches emu or timing/pipeline construction directly.
package core

import (
	"fmt"

	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/timing/config"
	"github.com/arrdem/batbridge/timing/pipeline"
)

// Variant names one of the three execution models of §2/§4.10.
type Variant int

const (
	SingleCycle Variant = iota
	Pipelined
	Predicted
)

// String renders the variant's CLI name.
func (v Variant) String() string {
	switch v {
	case SingleCycle:
		return "single"
	case Pipelined:
		return "pipelined"
	case Predicted:
		return "predicted"
	default:
		return "unknown"
	}
}

// ParseVariant parses the CLI's --variant flag value.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "single":
		return SingleCycle, nil
	case "pipelined":
		return Pipelined, nil
	case "predicted":
		return Predicted, nil
	default:
		return 0, fmt.Errorf("unknown variant %q: want single, pipelined, or predicted", name)
	}
}

// Stats is the variant-independent cycle-accounting report
// supplemented onto the run loop: cycles, instructions retired, and
// stall/flush counts. A single-cycle run never flushes, so Flushes
// reads zero there; its Stalls is the fetch-stall delta accrued by
// push/pop expansion (emu.Emulator.StallCycles).
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Flushes      uint64
}

// CPI is cycles per retired instruction, 0 if nothing has retired.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core wraps whichever driver Variant selects.
type Core struct {
	variant  Variant
	emulator *emu.Emulator
	pipeline *pipeline.Pipeline
}

// New constructs a Core over regs and mem, which the caller owns and
// may already have loaded a program image into (§6), using the
// default run configuration (§4.11's 10-bit predictor history).
func New(variant Variant, regs *emu.RegisterFile, mem *emu.Memory, sink emu.OutputSink, entry uint32) *Core {
	return NewWithConfig(variant, regs, mem, sink, entry, config.Default())
}

// NewWithConfig is New, but with cfg.PredictorHistoryBits overriding
// the predicted variant's GShare history width. cfg.CacheLevels plays
// no part here: the cache hierarchy's fidelity is not part of the
// architectural contract (§4.12), so no variant routes its memory
// accesses through a cache; timing/cache stands alone as a latency
// collaborator rather than being inserted into the execute path.
func NewWithConfig(variant Variant, regs *emu.RegisterFile, mem *emu.Memory, sink emu.OutputSink, entry uint32, cfg *config.RunConfig) *Core {
	c := &Core{variant: variant}
	switch variant {
	case Pipelined:
		c.pipeline = pipeline.NewPipeline(regs, mem,
			pipeline.WithOutputSink(sink),
			pipeline.WithEntryPoint(entry),
		)
	case Predicted:
		c.pipeline = pipeline.NewPipeline(regs, mem,
			pipeline.WithOutputSink(sink),
			pipeline.WithEntryPoint(entry),
			pipeline.WithBranchPolicy(pipeline.NewGSharePredictorWithHistory(cfg.PredictorHistoryBits)),
		)
	default:
		c.emulator = emu.NewEmulator(regs, mem,
			emu.WithOutputSink(sink),
			emu.WithEntryPoint(entry),
		)
	}
	return c
}

// Variant reports which execution model this Core wraps.
func (c *Core) Variant() Variant { return c.variant }

// Halted reports whether hlt has retired.
func (c *Core) Halted() bool {
	if c.pipeline != nil {
		return c.pipeline.Halted()
	}
	return c.emulator.Halted()
}

// RunBound runs until halt, error, or bound cycles/steps have
// elapsed (0 means unbounded), returning how many elapsed.
func (c *Core) RunBound(bound uint64) (uint64, error) {
	if c.pipeline != nil {
		return c.pipeline.RunBound(bound)
	}
	return c.emulator.RunBound(bound)
}

// Registers exposes the underlying register file.
func (c *Core) Registers() *emu.RegisterFile {
	if c.pipeline != nil {
		return c.pipeline.Registers()
	}
	return c.emulator.Registers()
}

// Memory exposes the underlying memory.
func (c *Core) Memory() *emu.Memory {
	if c.pipeline != nil {
		return c.pipeline.Memory()
	}
	return c.emulator.Memory()
}

// PredictorAccuracy reports the predicted variant's branch predictor
// accuracy (correct resolutions over resolved total). ok is false for
// the single-cycle and plain-pipelined variants, which have no
// predictor to report on.
func (c *Core) PredictorAccuracy() (correct, resolved uint64, ok bool) {
	if c.pipeline == nil {
		return 0, 0, false
	}
	predictor, ok := c.pipeline.Policy().(*pipeline.GSharePredictor)
	if !ok {
		return 0, 0, false
	}
	correct, resolved = predictor.Accuracy()
	return correct, resolved, true
}

// Stats reports the cycle-accounting numbers named above.
func (c *Core) Stats() Stats {
	if c.pipeline != nil {
		ps := c.pipeline.Stats()
		return Stats{Cycles: ps.Cycles, Instructions: ps.Instructions, Stalls: ps.Stalls, Flushes: ps.Flushes}
	}
	return Stats{Cycles: c.emulator.Cycles(), Instructions: c.emulator.Cycles(), Stalls: c.emulator.StallCycles()}
}
