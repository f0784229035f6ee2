// Package addressing splits 32-bit addresses into tag, set index and block
// offset fields.
package addressing

// AddressWidth is the number of bits of a simulated address.
const AddressWidth = 32

// A Decoder maps addresses to cache coordinates for one cache geometry.
//
// NumSets and BlockSize must be powers of two. The decoder does not check
// this; a geometry that is not a power of two produces meaningless fields.
type Decoder struct {
	OffsetBits uint
	IndexBits  uint
	TagBits    uint
}

// NewDecoder precomputes the field widths of a cache with the given number
// of sets and block size in bytes.
func NewDecoder(numSets, blockSize uint32) Decoder {
	offsetBits := Log2(blockSize)
	indexBits := Log2(numSets)

	return Decoder{
		OffsetBits: offsetBits,
		IndexBits:  indexBits,
		TagBits:    AddressWidth - indexBits - offsetBits,
	}
}

// Log2 returns the position of the highest set bit of x, which is log2(x)
// when x is a power of two. Log2(0) is 0.
func Log2(x uint32) uint {
	n := uint(0)
	for x >>= 1; x != 0; x >>= 1 {
		n++
	}

	return n
}

// Tag returns the tag field of addr.
func (d Decoder) Tag(addr uint32) uint32 {
	return uint32(uint64(addr) >> (d.OffsetBits + d.IndexBits))
}

// SetIndex returns the IndexBits bits of addr right above the block offset.
func (d Decoder) SetIndex(addr uint32) int {
	mask := uint32(1)<<d.IndexBits - 1
	return int((addr >> d.OffsetBits) & mask)
}

// Offset returns the byte offset of addr within its block.
func (d Decoder) Offset(addr uint32) uint32 {
	return addr & (uint32(1)<<d.OffsetBits - 1)
}

// Decode returns the tag and the set index of addr.
func (d Decoder) Decode(addr uint32) (tag uint32, setIndex int) {
	return d.Tag(addr), d.SetIndex(addr)
}

// BlockAddr rebuilds the address of the first byte of the block identified
// by tag and setIndex.
func (d Decoder) BlockAddr(tag uint32, setIndex int) uint32 {
	high := uint64(tag) << (d.OffsetBits + d.IndexBits)
	return uint32(high) | uint32(setIndex)<<d.OffsetBits
}
