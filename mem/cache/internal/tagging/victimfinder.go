package tagging

// A VictimFinder decides which block of a set receives a new block.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder picks the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the first invalid block of the set. If all the blocks
// are valid, it returns the one with the oldest visit time, and the lowest
// way among equally old blocks.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	victim := set.Blocks[0]

	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}

		if block.LastVisit < victim.LastVisit {
			victim = block
		}
	}

	return victim
}
