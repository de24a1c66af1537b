package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arrdem/batbridge/emu"
	"github.com/arrdem/batbridge/isa"
	"github.com/arrdem/batbridge/timing/pipeline"
)

func newPlainPipeline(image map[uint32]int32) (*pipeline.Pipeline, *emu.RegisterFile, *emu.Memory) {
	rf := emu.NewRegisterFile()
	mem := emu.NewMemory()
	mem.LoadImage(image)
	return pipeline.NewPipeline(rf, mem, pipeline.WithOutputSink(emu.NewBufferSink())), rf, mem
}

func newPredictedPipeline(image map[uint32]int32) (*pipeline.Pipeline, *emu.RegisterFile, *emu.Memory) {
	rf := emu.NewRegisterFile()
	mem := emu.NewMemory()
	mem.LoadImage(image)
	opts := []pipeline.PipelineOption{
		pipeline.WithOutputSink(emu.NewBufferSink()),
		pipeline.WithBranchPolicy(pipeline.NewGSharePredictor()),
	}
	return pipeline.NewPipeline(rf, mem, opts...), rf, mem
}

func fibonacciProgram() map[uint32]int32 {
	return assembleWords(
		isa.Vector{Op: isa.Add, D: isa.Reg(0), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 14},
		isa.Vector{Op: isa.Add, D: isa.Reg(1), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 1},
		isa.Vector{Op: isa.Add, D: isa.Reg(2), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 0},
		isa.Vector{Op: isa.IfEq, A: isa.Reg(0), B: isa.Reg(isa.RegZero), I: 0},
		isa.Vector{Op: isa.Add, D: isa.Reg(31), A: isa.Reg(31), B: isa.Reg(isa.RegIMM), I: 20},
		isa.Vector{Op: isa.Sub, D: isa.Reg(0), A: isa.Reg(0), B: isa.Reg(isa.RegIMM), I: 1},
		isa.Vector{Op: isa.Add, D: isa.Reg(3), A: isa.Reg(1), B: isa.Reg(2), I: 0},
		isa.Vector{Op: isa.Add, D: isa.Reg(2), A: isa.Reg(1), B: isa.Reg(isa.RegZero), I: 0},
		isa.Vector{Op: isa.Add, D: isa.Reg(1), A: isa.Reg(3), B: isa.Reg(isa.RegZero), I: 0},
		isa.Vector{Op: isa.Sub, D: isa.Reg(31), A: isa.Reg(31), B: isa.Reg(isa.RegIMM), I: 28},
		isa.Vector{Op: isa.Hlt},
	)
}

func factorialProgram() map[uint32]int32 {
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

var _ = Describe("Pipeline", func() {
	It("constructs over a caller-owned register file and memory", func() {
		rf := emu.NewRegisterFile()
		mem := emu.NewMemory()
		p := pipeline.NewPipeline(rf, mem)
		Expect(p).NotTo(BeNil())
		Expect(p.Registers()).To(BeIdenticalTo(rf))
		Expect(p.Memory()).To(BeIdenticalTo(mem))
		Expect(p.Halted()).To(BeFalse())
	})

	Describe("Fibonacci(14)", func() {
		It("leaves r1 = 610, matching the single-cycle driver", func() {
			p, rf, _ := newPlainPipeline(fibonacciProgram())
			n, err := p.RunBound(2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Halted()).To(BeTrue())
			Expect(n).To(BeNumerically("<=", 2000))
			Expect(rf.Get(1)).To(Equal(int32(610)))
		})

		It("produces the identical result under the predicted variant", func() {
			p, rf, _ := newPredictedPipeline(fibonacciProgram())
			_, err := p.RunBound(2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Halted()).To(BeTrue())
			Expect(rf.Get(1)).To(Equal(int32(610)))
		})
	})

	Describe("Factorial(10)", func() {
		It("leaves r0 = 3628800, matching the single-cycle driver", func() {
			p, rf, _ := newPlainPipeline(factorialProgram())
			n, err := p.RunBound(2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Halted()).To(BeTrue())
			Expect(n).To(BeNumerically("<=", 2000))
			Expect(rf.Get(0)).To(Equal(int32(3628800)))
		})
	})

	Describe("equivalence with the single-cycle driver", func() {
		It("agrees on the final register and memory image for push/pop", func() {
			img := assembleWords(
				isa.Vector{Op: isa.Add, D: isa.Reg(0), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 1000},
				isa.Vector{Op: isa.Add, D: isa.Reg(28), A: isa.Reg(0), B: isa.Reg(0), I: 0},
				isa.Vector{Op: isa.Push, D: isa.Reg(0), A: isa.Reg(28), B: isa.Reg(0), I: 0},
				isa.Vector{Op: isa.Pop, D: isa.Reg(1), A: isa.Reg(28), B: isa.Reg(0), I: 0},
				isa.Vector{Op: isa.Hlt},
			)

			eRf, eMem := emu.NewRegisterFile(), emu.NewMemory()
			eMem.LoadImage(img)
			e := emu.NewEmulator(eRf, eMem, emu.WithOutputSink(emu.NewBufferSink()))
			_, err := e.Run()
			Expect(err).NotTo(HaveOccurred())

			p, pRf, pMem := newPlainPipeline(img)
			_, err = p.RunBound(200)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Halted()).To(BeTrue())

			Expect(pRf.Get(0)).To(Equal(eRf.Get(0)))
			Expect(pRf.Get(1)).To(Equal(eRf.Get(1)))
			Expect(pRf.Get(28)).To(Equal(eRf.Get(28)))
			Expect(pMem.Read(1996)).To(Equal(eMem.Read(1996)))
		})
	})

	Describe("hazard stalling", func() {
		It("stalls a dependent instruction until its producer retires", func() {
			img := assembleWords(
				isa.Vector{Op: isa.Add, D: isa.Reg(1), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 5},
				isa.Vector{Op: isa.Add, D: isa.Reg(2), A: isa.Reg(1), B: isa.Reg(isa.RegZero), I: 0},
				isa.Vector{Op: isa.Hlt},
			)
			p, rf, _ := newPlainPipeline(img)
			_, err := p.RunBound(50)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Halted()).To(BeTrue())
			Expect(rf.Get(2)).To(Equal(int32(5)))
			Expect(p.Stats().Stalls).To(BeNumerically(">=", 1))
		})
	})

	Describe("branch flush", func() {
		It("flushes on every branch writeback in the plain (unpredicted) variant", func() {
			p, _, _ := newPlainPipeline(factorialProgram())
			_, err := p.RunBound(2000)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Stats().Flushes).To(BeNumerically(">=", 1))
		})
	})

	Describe("idempotence of stall", func() {
		It("advances the pc exactly once across a hazard stall and its replay", func() {
			img := assembleWords(
				isa.Vector{Op: isa.Add, D: isa.Reg(1), A: isa.Reg(isa.RegZero), B: isa.Reg(isa.RegIMM), I: 5},
				isa.Vector{Op: isa.Add, D: isa.Reg(2), A: isa.Reg(1), B: isa.Reg(isa.RegZero), I: 0},
				isa.Vector{Op: isa.Hlt},
			)
			p, _, _ := newPlainPipeline(img)

			seen := map[uint32]int{}
			for i := 0; i < 50 && !p.Halted(); i++ {
				seen[p.PC()]++
				Expect(p.Tick()).NotTo(HaveOccurred())
			}
			for pc, count := range seen {
				Expect(count).To(BeNumerically("<=", 2), "pc %d observed %d times", pc, count)
			}
		})
	})
})
