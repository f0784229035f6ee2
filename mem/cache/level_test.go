package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/sim/hooking"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Level", func() {
	var (
		mockCtrl *gomock.Controller
		lower    *MockAccessor
		level    *Level
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		lower = NewMockAccessor(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("when instantiated", func() {
		BeforeEach(func() {
			level = newLevel("L1D", LevelConfig{Sets: 4, Assoc: 2, HitTime: 2},
				32, lower)
		})

		It("should forward a miss and add the hit time", func() {
			lower.EXPECT().Access(uint32(0x1000)).Return(uint32(50))

			latency := level.Access(0x1000)

			Expect(latency).To(Equal(uint32(52)))
			Expect(level.Stats()).To(Equal(Statistics{
				References: 1,
				Misses:     1,
				Penalties:  50,
			}))
		})

		It("should hit without touching the lower level", func() {
			lower.EXPECT().Access(uint32(0x1000)).Return(uint32(50))

			level.Access(0x1000)
			latency := level.Access(0x1004)

			Expect(latency).To(Equal(uint32(2)))
			Expect(level.Stats().References).To(Equal(uint64(2)))
			Expect(level.Stats().Misses).To(Equal(uint64(1)))
			Expect(level.Stats().Hits()).To(Equal(uint64(1)))
			Expect(level.Contains(0x101f)).To(BeTrue())
		})

		It("should fill an empty way before evicting", func() {
			// 0x1000 and 0x1080 map to set 0.
			lower.EXPECT().Access(gomock.Any()).Return(uint32(10)).Times(2)

			level.Access(0x1000)
			level.Access(0x1080)

			Expect(level.Contains(0x1000)).To(BeTrue())
			Expect(level.Contains(0x1080)).To(BeTrue())
			Expect(level.tags.GetSet(0).NumValid()).To(Equal(2))
		})

		It("should evict the least recently used block", func() {
			lower.EXPECT().Access(gomock.Any()).Return(uint32(10)).Times(3)

			level.Access(0x1000)
			level.Access(0x1080)
			level.Access(0x1000)
			level.Access(0x1100)

			Expect(level.Contains(0x1000)).To(BeTrue())
			Expect(level.Contains(0x1080)).To(BeFalse())
			Expect(level.Contains(0x1100)).To(BeTrue())
		})

		It("should invoke hooks on hits, misses and evictions", func() {
			hook := NewMockHook(mockCtrl)
			level.AcceptHook(hook)
			lower.EXPECT().Access(gomock.Any()).Return(uint32(10)).Times(3)

			positions := []string{}
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					positions = append(positions, ctx.Pos.Name)
				}).AnyTimes()

			level.Access(0x1000)
			level.Access(0x1000)
			level.Access(0x1080)
			level.Access(0x1100)

			Expect(positions).To(Equal([]string{
				HookPosMiss.Name,
				HookPosHit.Name,
				HookPosMiss.Name,
				HookPosEvict.Name,
				HookPosMiss.Name,
			}))
		})

		It("should list the valid block addresses", func() {
			lower.EXPECT().Access(gomock.Any()).Return(uint32(10)).Times(2)

			level.Access(0x1004)
			level.Access(0x2030)

			Expect(level.ValidBlockAddrs()).To(ConsistOf(
				uint32(0x1000), uint32(0x2020)))
		})

		It("should report the average access time", func() {
			lower.EXPECT().Access(gomock.Any()).Return(uint32(10))

			level.Access(0x1000)
			level.Access(0x1000)

			Expect(level.AvgAccessTime()).To(BeNumerically("~", 7.0))
		})
	})

	Context("when not instantiated", func() {
		BeforeEach(func() {
			level = newLevel("L1I", LevelConfig{}, 32, lower)
		})

		It("should pass the access through", func() {
			lower.EXPECT().Access(uint32(0x1000)).Return(uint32(100))

			Expect(level.Instantiated()).To(BeFalse())
			Expect(level.Access(0x1000)).To(Equal(uint32(100)))
			Expect(level.Stats()).To(BeZero())
			Expect(level.Contains(0x1000)).To(BeFalse())
			Expect(level.ValidBlockAddrs()).To(BeEmpty())
		})
	})

	Context("with a single fully associative set", func() {
		const k = 4

		var addrs []uint32

		BeforeEach(func() {
			level = newLevel("L2", LevelConfig{Sets: 1, Assoc: k, HitTime: 1},
				32, lower)
			lower.EXPECT().Access(gomock.Any()).Return(uint32(100)).AnyTimes()

			addrs = nil
			for i := 0; i <= k; i++ {
				addrs = append(addrs, uint32(i)*0x1000)
			}
		})

		It("should evict the first address after k+1 installs", func() {
			for _, a := range addrs {
				level.Access(a)
			}

			Expect(level.Contains(addrs[0])).To(BeFalse())
			for _, a := range addrs[1:] {
				Expect(level.Contains(a)).To(BeTrue())
			}
		})

		It("should evict whichever block was touched longest ago", func() {
			for _, a := range addrs[:k] {
				level.Access(a)
			}

			level.Access(addrs[0])
			level.Access(addrs[2])
			level.Access(addrs[k])

			Expect(level.Contains(addrs[1])).To(BeFalse())
			Expect(level.Contains(addrs[0])).To(BeTrue())
			Expect(level.Contains(addrs[2])).To(BeTrue())
			Expect(level.Contains(addrs[3])).To(BeTrue())
			Expect(level.Contains(addrs[k])).To(BeTrue())
		})
	})
})
