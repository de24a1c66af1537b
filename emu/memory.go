package emu

// Memory is a sparse word-addressed store over the full 32-bit address
// space. Instructions and data share it (Von Neumann); an address
// never written reads as 0, so jumping into unset memory decodes as
// opcode 0 (hlt) and halts cleanly (§7).
type Memory struct {
	words map[uint32]int32
}

// NewMemory returns an empty memory image.
func NewMemory() *Memory {
	return &Memory{words: make(map[uint32]int32)}
}

// Normalize rounds an address down to the nearest multiple of 4. Every
// load/store/branch address is normalized before use (§3).
func Normalize(addr uint32) uint32 {
	return addr &^ 0x3
}

// Read returns the word at addr, normalized, defaulting to 0.
func (m *Memory) Read(addr uint32) int32 {
	return m.words[Normalize(addr)]
}

// Write stores v at addr, normalized.
func (m *Memory) Write(addr uint32, v int32) {
	m.words[Normalize(addr)] = v
}

// ReadWord returns the raw instruction word at addr for fetch. It is
// identical to Read; the distinct name documents the call site's
// intent (fetching an instruction vs. accessing data).
func (m *Memory) ReadWord(addr uint32) uint32 {
	return uint32(m.Read(addr))
}

// LoadImage installs a program image: a map from 4-aligned addresses
// to words. Used by the loader package and directly by tests.
func (m *Memory) LoadImage(image map[uint32]int32) {
	for addr, v := range image {
		m.Write(addr, v)
	}
}

// Snapshot returns a copy of every address currently holding a
// non-default value, for equivalence comparisons between simulator
// variants (§8).
func (m *Memory) Snapshot() map[uint32]int32 {
	out := make(map[uint32]int32, len(m.words))
	for addr, v := range m.words {
		out[addr] = v
	}
	return out
}
