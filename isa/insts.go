// Package isa defines the BatBridge instruction set: the bytecode
// encoding, the three interchangeable instruction representations
// (packed word, symbolic vector, decoded struct), and the opcode table.
//
// Everything here is pure data and pure functions — no processor state,
// no memory, no I/O. The emu and timing/pipeline packages build the
// simulators on top of this model.
package isa
