// Package tagging keeps track of which blocks are resident in a cache.
package tagging

// TagArray is the set-associative store of a cache. It only records which
// blocks are present, never their data.
type TagArray interface {
	NumSets() int
	NumWays() int
	Lookup(setID int, tag uint32) (Block, bool)
	Visit(block Block, now uint64)
	Install(victim Block, tag uint32, now uint64) Block
	Invalidate(block Block)
	GetSet(setID int) *Set
	Reset()
}

// NewTagArray creates a tag array with all the blocks invalid.
func NewTagArray(numSets, numWays int) TagArray {
	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
	}

	t.Reset()

	return t
}

// A Block is the bookkeeping information of one cache line.
type Block struct {
	Tag       uint32
	SetID     int
	WayID     int
	IsValid   bool
	LastVisit uint64
}

// A Set is the group of blocks an address can be stored at.
type Set struct {
	Blocks []Block
}

// NumValid returns the number of valid blocks in the set.
func (s *Set) NumValid() int {
	n := 0

	for _, b := range s.Blocks {
		if b.IsValid {
			n++
		}
	}

	return n
}

type tagArrayImpl struct {
	numSets int
	numWays int
	sets    []Set
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

// GetSet returns the set with the given index.
func (t *tagArrayImpl) GetSet(setID int) *Set {
	return &t.sets[setID]
}

// Lookup returns the first valid block in the set that carries the tag.
func (t *tagArrayImpl) Lookup(setID int, tag uint32) (Block, bool) {
	for _, block := range t.sets[setID].Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Visit marks the block as referenced at time now.
func (t *tagArrayImpl) Visit(block Block, now uint64) {
	t.sets[block.SetID].Blocks[block.WayID].LastVisit = now
}

// Install replaces the victim's slot with a valid block carrying tag and
// returns the new block.
func (t *tagArrayImpl) Install(victim Block, tag uint32, now uint64) Block {
	b := &t.sets[victim.SetID].Blocks[victim.WayID]
	b.Tag = tag
	b.IsValid = true
	b.LastVisit = now

	return *b
}

// Invalidate drops the block. The tag and the visit time are left as they
// are, as they are never consulted for an invalid block.
func (t *tagArrayImpl) Invalidate(block Block) {
	t.sets[block.SetID].Blocks[block.WayID].IsValid = false
}

// Reset marks all the blocks invalid.
func (t *tagArrayImpl) Reset() {
	t.sets = make([]Set, t.numSets)
	for i := 0; i < t.numSets; i++ {
		t.sets[i].Blocks = make([]Block, t.numWays)
		for j := 0; j < t.numWays; j++ {
			t.sets[i].Blocks[j] = Block{SetID: i, WayID: j}
		}
	}
}
