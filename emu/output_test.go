package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arrdem/batbridge/emu"
)

var _ = Describe("OutputSink", func() {
	Describe("WriterSink", func() {
		It("writes raw bytes for WriteChar and hex text for WriteHex", func() {
			var buf bytes.Buffer
			s := emu.NewWriterSink(&buf)
			s.WriteChar('Q')
			s.WriteHex(-1)
			Expect(buf.String()).To(Equal("Qffffffff"))
		})
	})

	Describe("BufferSink", func() {
		It("records every write in order", func() {
			s := emu.NewBufferSink()
			s.WriteChar('h')
			s.WriteChar('i')
			s.WriteHex(16)
			Expect(s.String()).To(Equal("hi"))
			Expect(s.Hexes).To(Equal([]string{"10"}))
		})
	})
})
