package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
	"github.com/arrdem/batbridge/timing/config"
	"github.com/arrdem/batbridge/timing/core"
)

func assembleWords(vectors ...isa.Vector) map[uint32]int32 {
	dec := isa.NewDecoder()
	img := make(map[uint32]int32, len(vectors))
	for i, v := range vectors {
		addr := uint32(i * 4)
		inst, err := dec.Decode(v, addr)
		Expect(err).NotTo(HaveOccurred())
		img[addr] = int32(isa.EncodeWord(inst))
	}
	return img
}

func factorialImage() map[uint32]int32 {
	return assembleWords(
		isa.Vector{Op: isa.Add, D: isa.Reg(0), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 1},
		isa.Vector{Op: isa.Add, D: isa.Reg(1), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 10},
		isa.Vector{Op: isa.Mul, D: isa.Reg(0), A: isa.Reg(0), B: isa.Reg(1), I: 0},
		isa.Vector{Op: isa.Sub, D: isa.Reg(1), A: isa.Reg(1), B: isa.Reg(isa.RegIMM), I: 1},
		isa.Vector{Op: isa.IfNe, A: isa.Reg(1), B: isa.Reg(isa.RegZero), I: 0},
		isa.Vector{Op: isa.Add, D: isa.Reg(31), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 8},
		isa.Vector{Op: isa.Hlt},
	)
}

var _ = Describe("ParseVariant", func() {
	It("parses the three known names", func() {
		for name, want := range map[string]core.Variant{
			"single":    core.SingleCycle,
			"pipelined": core.Pipelined,
			"predicted": core.Predicted,
		} {
			got, err := core.ParseVariant(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		}
	})

	It("rejects an unknown name", func() {
		_, err := core.ParseVariant("bogus")
		Expect(err).To(HaveOccurred())
	})
})

var _ = DescribeTable("Core agrees on Factorial(10) across every variant",
	func(variant core.Variant) {
		regs := emu.NewRegisterFile()
		mem := emu.NewMemory()
		mem.LoadImage(factorialImage())

		c := core.New(variant, regs, mem, emu.NewBufferSink(), 0)
		_, err := c.RunBound(2000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeTrue())
		Expect(c.Registers().Get(0)).To(Equal(int32(3628800)))
		Expect(c.Variant()).To(Equal(variant))
	},
	Entry("single-cycle", core.SingleCycle),
	Entry("pipelined", core.Pipelined),
	Entry("predicted", core.Predicted),
)

var _ = Describe("NewWithConfig", func() {
	It("honors a narrowed predictor history width for the predicted variant", func() {
		regs := emu.NewRegisterFile()
		mem := emu.NewMemory()
		mem.LoadImage(factorialImage())

		cfg := config.Default()
		cfg.PredictorHistoryBits = 4
		Expect(cfg.Validate()).To(Succeed())

		c := core.NewWithConfig(core.Predicted, regs, mem, emu.NewBufferSink(), 0, cfg)
		_, err := c.RunBound(2000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeTrue())
		Expect(c.Registers().Get(0)).To(Equal(int32(3628800)))
	})
})
