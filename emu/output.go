package emu

import (
	"fmt"
	"io"
)

// OutputSink is the character/hex output side channel driven by
// writes to r30 (ZERO) and r29 (IMM) respectively (§9). It is an
// external collaborator: the core only ever calls WriteChar/WriteHex
// from the writeback stage, never inspects what consumes them.
type OutputSink interface {
	WriteChar(b byte)
	WriteHex(v int32)
}

// WriterSink adapts an io.Writer (stdout by default) into an
// OutputSink, matching the donor's io.Writer-based stdout/stderr
// binding.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w as an OutputSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteChar emits b as a single ASCII character.
func (s *WriterSink) WriteChar(b byte) {
	_, _ = s.w.Write([]byte{b})
}

// WriteHex emits v hex-formatted, with no char coercion (§9 resolves
// this explicitly: some source variants cast to char first, this spec
// does not).
func (s *WriterSink) WriteHex(v int32) {
	fmt.Fprintf(s.w, "%x", uint32(v))
}

// BufferSink is an in-memory OutputSink for tests: it records emitted
// characters and hex strings verbatim and in order.
type BufferSink struct {
	Chars []byte
	Hexes []string
}

// NewBufferSink returns an empty BufferSink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

// WriteChar appends b to Chars.
func (s *BufferSink) WriteChar(b byte) {
	s.Chars = append(s.Chars, b)
}

// WriteHex appends the hex rendering of v to Hexes.
func (s *BufferSink) WriteHex(v int32) {
	s.Hexes = append(s.Hexes, fmt.Sprintf("%x", uint32(v)))
}

// String returns everything written to Chars as a string, for
// assertions against expected program output.
func (s *BufferSink) String() string {
	return string(s.Chars)
}
