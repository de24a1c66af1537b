// Package cache implements the optional multi-level memory cache of
// §4.12: an ordered list of levels, each with a capacity, a latency,
// a store, and per-key access counters. A level hit bumps that key's
// counter; a miss recurses to the next level (or the backing store at
// the root), then installs the fetched value at this level, evicting
// the entry with the minimum counter if the level is full. This is
// only ever a latency-visible collaborator: fidelity of what it holds
// never changes a program's architectural result.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// wordSize is the cache's unit of storage: BatBridge memory is already
// word-addressed (§3), so a cache line holds exactly one word and
// there is no intra-line offset to track.
const wordSize = 4

// LevelConfig holds the two externally visible properties of a cache
// level named by §4.12: its capacity (in words) and its latency (in
// cycles).
type LevelConfig struct {
	Capacity int
	Latency  uint64
}

// Level is one fully-associative LFU cache of words. It keeps the
// donor's directory/set/way bookkeeping (a single set sized to
// Capacity ways) but supplies its own victim finder so that eviction
// implements §4.12's "minimum metadata counter" rule rather than the
// donor's LRU recency.
type Level struct {
	config    LevelConfig
	directory *akitacache.DirectoryImpl
	data      []int32
	finder    *lfuVictimFinder

	hits, misses uint64
}

// NewLevel builds an empty cache level.
func NewLevel(config LevelConfig) *Level {
	finder := newLFUVictimFinder(config.Capacity)
	return &Level{
		config:    config,
		directory: akitacache.NewDirectory(1, config.Capacity, wordSize, finder),
		data:      make([]int32, config.Capacity),
		finder:    finder,
	}
}

func (l *Level) wayIndex(block *akitacache.Block) int { return block.WayID }

// Get looks up addr. On hit it bumps addr's counter and returns the
// stored word; on miss it reports !ok and leaves installation to the
// caller.
func (l *Level) Get(addr uint32) (v int32, ok bool) {
	block := l.directory.Lookup(0, uint64(addr))
	if block == nil || !block.IsValid {
		l.misses++
		return 0, false
	}
	l.hits++
	l.finder.touch(block)
	return l.data[l.wayIndex(block)], true
}

// Install stores v at addr, evicting the minimum-counter entry if the
// level is already full.
func (l *Level) Install(addr uint32, v int32) {
	victim := l.directory.FindVictim(uint64(addr))
	if victim == nil {
		return
	}
	victim.Tag = uint64(addr)
	victim.IsValid = true
	l.data[l.wayIndex(victim)] = v
	l.finder.reset(victim)
}

// Write stores v at addr unconditionally: if addr is already resident
// the value is overwritten in place, otherwise it is installed fresh.
func (l *Level) Write(addr uint32, v int32) {
	if block := l.directory.Lookup(0, uint64(addr)); block != nil && block.IsValid {
		l.data[l.wayIndex(block)] = v
		l.finder.touch(block)
		return
	}
	l.Install(addr, v)
}

// Stats reports this level's hit/miss counts.
func (l *Level) Stats() (hits, misses uint64) { return l.hits, l.misses }

// Reset clears every entry and every counter.
func (l *Level) Reset() {
	l.directory.Reset()
	l.finder.resetAll()
	l.hits, l.misses = 0, 0
}

// BackingStore is the memory sitting behind the last cache level —
// ordinarily an *emu.Memory, adapted by MemoryBacking.
type BackingStore interface {
	Read(addr uint32) int32
	Write(addr uint32, v int32)
}

// MultiLevel is the ordered cache hierarchy of §4.12, fronting a
// BackingStore.
type MultiLevel struct {
	levels  []*Level
	backing BackingStore
}

// NewMultiLevel builds a hierarchy from outermost (closest to the
// core) to innermost level config, in front of backing.
func NewMultiLevel(backing BackingStore, configs ...LevelConfig) *MultiLevel {
	levels := make([]*Level, len(configs))
	for i, c := range configs {
		levels[i] = NewLevel(c)
	}
	return &MultiLevel{levels: levels, backing: backing}
}

// Levels returns the hierarchy's levels, outermost first.
func (m *MultiLevel) Levels() []*Level { return m.levels }

// Get implements §4.12's get(addr): a hit at level i increments that
// key's counter and returns; a miss recurses to level i+1 (or the
// backing store at the root, which is not counted in the reported
// latency — backing access cost is the caller's concern), then
// installs (addr, v) at level i. The returned latency is the sum of
// every level's configured latency on the path to where the value was
// found or installed.
func (m *MultiLevel) Get(addr uint32) (v int32, latency uint64) {
	return m.get(addr, 0)
}

func (m *MultiLevel) get(addr uint32, i int) (int32, uint64) {
	if i >= len(m.levels) {
		if m.backing != nil {
			return m.backing.Read(addr), 0
		}
		return 0, 0
	}
	level := m.levels[i]
	if v, ok := level.Get(addr); ok {
		return v, level.config.Latency
	}
	v, rest := m.get(addr, i+1)
	level.Install(addr, v)
	return v, level.config.Latency + rest
}

// Write implements §4.12's write(addr, v): writes through every level
// and the backing store.
func (m *MultiLevel) Write(addr uint32, v int32) {
	for _, level := range m.levels {
		level.Write(addr, v)
	}
	if m.backing != nil {
		m.backing.Write(addr, v)
	}
}
