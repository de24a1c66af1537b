package cache

import (
	"github.com/arrdem/batbridge/emu"
)

// MemoryBacking adapts *emu.Memory as the MultiLevel hierarchy's root
// BackingStore: the "return 0 at the root" case of §4.12 when no
// level holds addr.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking wraps memory as a BackingStore.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches the word at addr from the backing memory.
func (m *MemoryBacking) Read(addr uint32) int32 {
	return m.memory.Read(addr)
}

// Write stores v at addr in the backing memory.
func (m *MemoryBacking) Write(addr uint32, v int32) {
	m.memory.Write(addr, v)
}
