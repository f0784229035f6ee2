package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/addressing"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// An Accessor serves a memory reference and tells how long it took.
type Accessor interface {
	Access(addr uint32) uint32
}

// MainMemory is the backing store below the last cache level. Every access
// takes the same time.
type MainMemory struct {
	Latency uint32
}

// Access returns the memory latency.
func (m *MainMemory) Access(uint32) uint32 {
	return m.Latency
}

// A Level is one cache of the hierarchy. It finds blocks in its tag array,
// forwards misses to the level below, and replaces blocks in LRU order.
//
// A Level is not safe for concurrent use.
type Level struct {
	hooking.HookableBase

	name    string
	numSets int
	numWays int
	hitTime uint32

	decoder      addressing.Decoder
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	lower        Accessor

	// inner lists the levels whose copies are invalidated when this level
	// evicts a block. It is only set on an inclusive L2.
	inner []*Level

	clock uint64
	stats Statistics
}

func newLevel(
	name string,
	cfg LevelConfig,
	blockSize uint32,
	lower Accessor,
) *Level {
	l := &Level{
		name:         name,
		numSets:      int(cfg.Sets),
		numWays:      int(cfg.Assoc),
		hitTime:      cfg.HitTime,
		decoder:      addressing.NewDecoder(cfg.Sets, blockSize),
		victimFinder: tagging.NewLRUVictimFinder(),
		lower:        lower,
	}

	if l.numSets > 0 {
		l.tags = tagging.NewTagArray(l.numSets, l.numWays)
	}

	return l
}

// Name returns the name of the level.
func (l *Level) Name() string {
	return l.name
}

// Instantiated tells if the level has storage. A level without storage
// passes every access through.
func (l *Level) Instantiated() bool {
	return l.numSets > 0
}

// NumSets returns the number of sets.
func (l *Level) NumSets() int {
	return l.numSets
}

// NumWays returns the associativity.
func (l *Level) NumWays() int {
	return l.numWays
}

// HitTime returns the latency of a hit.
func (l *Level) HitTime() uint32 {
	return l.hitTime
}

// Stats returns a copy of the counters of the level.
func (l *Level) Stats() Statistics {
	return l.stats
}

// AvgAccessTime returns the average latency of the accesses the level
// served, hit time included.
func (l *Level) AvgAccessTime() float64 {
	if l.stats.References == 0 {
		return 0
	}

	return float64(l.hitTime) +
		float64(l.stats.Penalties)/float64(l.stats.References)
}

// Contains tells if the block holding addr is valid in the level.
func (l *Level) Contains(addr uint32) bool {
	if !l.Instantiated() {
		return false
	}

	tag, setID := l.decoder.Decode(addr)
	_, found := l.tags.Lookup(setID, tag)

	return found
}

// ValidBlockAddrs returns the address of every valid block, set by set.
func (l *Level) ValidBlockAddrs() []uint32 {
	var addrs []uint32

	for setID := 0; setID < l.numSets; setID++ {
		for _, b := range l.tags.GetSet(setID).Blocks {
			if b.IsValid {
				addrs = append(addrs, l.decoder.BlockAddr(b.Tag, b.SetID))
			}
		}
	}

	return addrs
}

// Access serves a reference to addr and returns its latency. A hit costs
// the hit time; a miss costs the hit time plus the latency of the level
// below.
func (l *Level) Access(addr uint32) uint32 {
	if !l.Instantiated() {
		return l.lower.Access(addr)
	}

	l.stats.References++
	l.clock++

	tag, setID := l.decoder.Decode(addr)

	block, hit := l.tags.Lookup(setID, tag)
	if hit {
		l.tags.Visit(block, l.clock)
		l.traceHit(addr, block)

		return l.hitTime
	}

	l.stats.Misses++
	penalty := l.lower.Access(addr)
	l.stats.Penalties += uint64(penalty)

	victim := l.victimFinder.FindVictim(l.tags.GetSet(setID))
	if victim.IsValid {
		l.evict(victim)
	}

	block = l.tags.Install(victim, tag, l.clock)
	l.traceMiss(addr, block, penalty)

	return l.hitTime + penalty
}

func (l *Level) evict(victim tagging.Block) {
	victimAddr := l.decoder.BlockAddr(victim.Tag, victim.SetID)
	l.traceEvict(victimAddr, victim)

	for _, inner := range l.inner {
		inner.invalidate(victimAddr)
	}
}

// invalidate drops the block holding addr, if the level has it.
func (l *Level) invalidate(addr uint32) {
	if !l.Instantiated() {
		return
	}

	tag, setID := l.decoder.Decode(addr)

	for _, b := range l.tags.GetSet(setID).Blocks {
		if b.IsValid && b.Tag == tag {
			l.tags.Invalidate(b)
			l.traceBackInvalidate(addr, b)
		}
	}
}
