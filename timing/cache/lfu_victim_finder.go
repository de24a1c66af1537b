package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// lfuVictimFinder replaces the donor's akitacache.NewLRUVictimFinder()
// at the same constructor position. It tracks one access counter per
// way and selects the way with the minimum counter as the victim,
// implementing §4.12's "evict the key with the minimum metadata
// counter" rule. An empty (never-installed) way always wins over any
// counted one, so a level fills before it ever evicts.
type lfuVictimFinder struct {
	counters []uint64
}

func newLFUVictimFinder(capacity int) *lfuVictimFinder {
	return &lfuVictimFinder{counters: make([]uint64, capacity)}
}

func (f *lfuVictimFinder) touch(block *akitacache.Block) {
	f.counters[block.WayID]++
}

func (f *lfuVictimFinder) reset(block *akitacache.Block) {
	f.counters[block.WayID] = 0
}

func (f *lfuVictimFinder) resetAll() {
	for i := range f.counters {
		f.counters[i] = 0
	}
}

// FindVictim picks the minimum-counter way in set, ties broken by way
// order.
func (f *lfuVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	var victim *akitacache.Block
	var min uint64
	first := true
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
		c := f.counters[block.WayID]
		if first || c < min {
			victim, min, first = block, c, false
		}
	}
	return victim
}
