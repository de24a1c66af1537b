package isa_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arrdem/batbridge/isa"
)

var _ = Describe("Bytecode codec", func() {
	It("packs and unpacks the canonical no-op", func() {
		Expect(isa.Pack(isa.Add, 30, 30, 30, 0)).To(Equal(isa.NoOpWord))
		Expect(isa.WordOpcode(isa.NoOpWord)).To(Equal(isa.Add))
		Expect(isa.WordD(isa.NoOpWord)).To(Equal(uint8(30)))
		Expect(isa.WordA(isa.NoOpWord)).To(Equal(uint8(30)))
		Expect(isa.WordB(isa.NoOpWord)).To(Equal(uint8(30)))
		Expect(isa.WordImm(isa.NoOpWord)).To(Equal(int32(0)))
	})

	It("sign-extends negative 11-bit immediates", func() {
		w := isa.Pack(isa.Add, 1, 2, 3, -1)
		Expect(isa.WordImm(w)).To(Equal(int32(-1)))

		w = isa.Pack(isa.Sub, 0, 0, 0, -1024)
		Expect(isa.WordImm(w)).To(Equal(int32(-1024)))
	})

	It("round-trips every field for arbitrary legal tuples", func() {
		cases := []struct {
			op      isa.Op
			d, a, b uint8
			imm     int32
		}{
			{isa.Add, 0, 30, 29, 14},
			{isa.Ld, 1, 2, 3, -5},
			{isa.Hlt, 0, 0, 0, 0},
			{isa.Sar, 31, 17, 9, 1000},
		}
		for _, c := range cases {
			w := isa.Pack(c.op, c.d, c.a, c.b, c.imm)
			Expect(isa.WordOpcode(w)).To(Equal(c.op))
			Expect(isa.WordD(w)).To(Equal(c.d))
			Expect(isa.WordA(w)).To(Equal(c.a))
			Expect(isa.WordB(w)).To(Equal(c.b))
			Expect(isa.WordImm(w)).To(Equal(c.imm))
		}
	})
})
