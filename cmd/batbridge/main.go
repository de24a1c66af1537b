// Command batbridge runs a BatBridge program to completion, or to a
// cycle bound, under one of the three architecturally equivalent
// execution models of §4.10 — single-cycle, pipelined, or predicted —
// and reports the cycle-accounting breakdown supplemented onto the
// run loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/loader"
	"github.com/arrdem/batbridge/timing/config"
	"github.com/arrdem/batbridge/timing/core"
)

var (
	variantName = flag.String("variant", "single", "execution model: single, pipelined, or predicted")
	bound       = flag.Uint64("bound", 1000000, "cycle/step bound to give up at (0 means unbounded)")
	configPath  = flag.String("config", "", "path to a run configuration JSON file (cache levels, predictor history width)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: batbridge [options] <program-file>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	programPath := flag.Arg(0)

	variant, err := core.ParseVariant(*variantName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batbridge: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batbridge: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "batbridge: invalid run config: %v\n", err)
		os.Exit(1)
	}

	img, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batbridge: %v\n", err)
		os.Exit(1)
	}

	regs := emu.NewRegisterFile()
	mem := emu.NewMemory()
	mem.LoadImage(img.Words)

	c := core.NewWithConfig(variant, regs, mem, emu.NewWriterSink(os.Stdout), img.Entry, cfg)
	_, runErr := c.RunBound(*bound)

	printReport(programPath, variant, c)

	switch {
	case runErr != nil:
		fmt.Fprintf(os.Stderr, "batbridge: %v\n", runErr)
		os.Exit(2)
	case !c.Halted():
		fmt.Fprintf(os.Stderr, "batbridge: cycle bound exhausted before halt\n")
		os.Exit(3)
	default:
		os.Exit(0)
	}
}

func printReport(programPath string, variant core.Variant, c *core.Core) {
	stats := c.Stats()
	fmt.Fprintf(os.Stderr, "\nProgram: %s\n", programPath)
	fmt.Fprintf(os.Stderr, "Variant: %s\n", variant)
	fmt.Fprintf(os.Stderr, "Halted: %v\n", c.Halted())
	fmt.Fprintf(os.Stderr, "Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(os.Stderr, "Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(os.Stderr, "CPI: %.2f\n", stats.CPI())
	fmt.Fprintf(os.Stderr, "Stalls: %d\n", stats.Stalls)
	fmt.Fprintf(os.Stderr, "Flushes: %d\n", stats.Flushes)
	if correct, resolved, ok := c.PredictorAccuracy(); ok && resolved > 0 {
		fmt.Fprintf(os.Stderr, "Predictor accuracy: %.1f%% (%d/%d)\n",
			100.0*float64(correct)/float64(resolved), correct, resolved)
	}
}
