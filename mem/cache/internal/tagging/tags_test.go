package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tags", func() {
	var (
		tags TagArray
	)

	BeforeEach(func() {
		tags = NewTagArray(16, 4)
	})

	It("should start with every block invalid", func() {
		Expect(tags.NumSets()).To(Equal(16))
		Expect(tags.NumWays()).To(Equal(4))

		for i := 0; i < 16; i++ {
			set := tags.GetSet(i)
			Expect(set.Blocks).To(HaveLen(4))
			Expect(set.NumValid()).To(Equal(0))

			for j, b := range set.Blocks {
				Expect(b.SetID).To(Equal(i))
				Expect(b.WayID).To(Equal(j))
			}
		}
	})

	It("should lookup an installed block", func() {
		victim := tags.GetSet(3).Blocks[2]
		tags.Install(victim, 0x100, 7)

		block, ok := tags.Lookup(3, 0x100)

		Expect(ok).To(BeTrue())
		Expect(block.WayID).To(Equal(2))
		Expect(block.LastVisit).To(Equal(uint64(7)))
	})

	It("should not find a block in another set", func() {
		tags.Install(tags.GetSet(3).Blocks[0], 0x100, 1)

		_, ok := tags.Lookup(4, 0x100)

		Expect(ok).To(BeFalse())
	})

	It("should not find an invalid block", func() {
		block := tags.Install(tags.GetSet(3).Blocks[0], 0x100, 1)
		tags.Invalidate(block)

		block, ok := tags.Lookup(3, 0x100)

		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
	})

	It("should update the visit time", func() {
		block := tags.Install(tags.GetSet(0).Blocks[1], 0x20, 1)

		tags.Visit(block, 9)

		Expect(tags.GetSet(0).Blocks[1].LastVisit).To(Equal(uint64(9)))
	})

	It("should reset", func() {
		tags.Install(tags.GetSet(0).Blocks[1], 0x20, 1)

		tags.Reset()

		Expect(tags.GetSet(0).NumValid()).To(Equal(0))
	})
})
