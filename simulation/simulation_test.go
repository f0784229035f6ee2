package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
	"go.uber.org/mock/gomock"
)

// tinyConfig has single-block L1s of 16 bytes, no L2 and a memory latency
// of 100.
func tinyConfig() cache.Config {
	return cache.Config{
		ICacheSets: 1, ICacheAssoc: 1, ICacheHitTime: 1,
		DCacheSets: 1, DCacheAssoc: 1, DCacheHitTime: 1,
		BlockSize: 16,
		MemSpeed:  100,
	}
}

func readerOf(lines ...string) *trace.Reader {
	return trace.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

var _ = ginkgo.Describe("Simulation", func() {
	var (
		mockCtrl *gomock.Controller
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should reject an invalid configuration", func() {
		cfg := tinyConfig()
		cfg.BlockSize = 12

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should panic when recording events without a recorder", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithEventRecording().Build()
		}).To(Panic())
	})

	ginkgo.It("should build the default hierarchy", func() {
		s, err := MakeBuilder().Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.Hierarchy().ICache().NumSets()).To(Equal(128))
		Expect(s.Hierarchy().L2Cache().NumWays()).To(Equal(8))
	})

	ginkgo.It("should accumulate the latency of every reference", func() {
		s, err := MakeBuilder().WithConfig(tinyConfig()).Build()
		Expect(err).NotTo(HaveOccurred())

		err = s.Run(context.Background(), readerOf(
			"I 0x0",
			"I 0x4",
			"L 0x10",
			"S 0x20",
		))
		Expect(err).NotTo(HaveOccurred())

		r := s.Report()
		Expect(r.InstructionReferences).To(Equal(uint64(2)))
		Expect(r.DataReferences).To(Equal(uint64(2)))
		Expect(r.TotalLatency).To(Equal(uint64(101 + 1 + 101 + 101)))
		Expect(r.AvgLatency).To(BeNumerically("~", 76.0, 1e-9))

		Expect(r.Levels).To(HaveLen(3))

		icache := r.Levels[0]
		Expect(icache.Name).To(Equal(cache.ICacheName))
		Expect(icache.References).To(Equal(uint64(2)))
		Expect(icache.Misses).To(Equal(uint64(1)))
		Expect(icache.Evictions).To(BeZero())
		Expect(icache.Size).To(Equal(uint64(16)))

		dcache := r.Levels[1]
		Expect(dcache.Misses).To(Equal(uint64(2)))
		Expect(dcache.Penalties).To(Equal(uint64(200)))
		Expect(dcache.AvgMissPenalty).To(BeNumerically("~", 100.0, 1e-9))
		Expect(dcache.Evictions).To(Equal(uint64(1)))

		Expect(r.Levels[2].Enabled).To(BeFalse())
	})

	ginkgo.It("should count back-invalidations of an inclusive L2", func() {
		cfg := tinyConfig()
		cfg.L2CacheSets = 1
		cfg.L2CacheAssoc = 1
		cfg.L2CacheHitTime = 10
		cfg.Inclusive = true

		s, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(context.Background(), readerOf("I 0x0", "L 0x10"))).
			To(Succeed())

		r := s.Report()
		Expect(r.Levels[2].Evictions).To(Equal(uint64(1)))
		Expect(r.Levels[0].BackInvalidations).To(Equal(uint64(1)))
		Expect(s.Hierarchy().ICache().Contains(0x0)).To(BeFalse())
	})

	ginkgo.It("should stop when the context is canceled", func() {
		s, err := MakeBuilder().WithConfig(tinyConfig()).Build()
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = s.Run(ctx, readerOf("I 0x0"))

		Expect(err).To(MatchError(context.Canceled))
		Expect(s.Report().References()).To(BeZero())
	})

	ginkgo.It("should return trace errors", func() {
		s, err := MakeBuilder().WithConfig(tinyConfig()).Build()
		Expect(err).NotTo(HaveOccurred())

		err = s.Run(context.Background(), readerOf("I 0x0", "X 0x10"))

		var parseErr *trace.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Line).To(Equal(2))
		Expect(s.Report().References()).To(Equal(uint64(1)))
	})

	ginkgo.It("should pass events to the hooks", func() {
		counter := hooking.NewPosCounter()

		s, err := MakeBuilder().
			WithConfig(tinyConfig()).
			WithHooks(counter).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(context.Background(), readerOf("L 0x0", "L 0x0"))).
			To(Succeed())

		Expect(counter.Count(cache.DCacheName, cache.HookPosMiss)).
			To(Equal(uint64(1)))
		Expect(counter.Count(cache.DCacheName, cache.HookPosHit)).
			To(Equal(uint64(1)))
	})

	ginkgo.It("should publish the status periodically and at the end", func() {
		m := monitoring.NewMonitor()

		s, err := MakeBuilder().
			WithConfig(tinyConfig()).
			WithMonitor(m).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Status().References).To(BeZero())
		Expect(s.Status().Levels).To(HaveLen(3))

		lines := make([]string, publishInterval+3)
		for i := range lines {
			lines[i] = fmt.Sprintf("L 0x%x", i*16)
		}

		Expect(s.Run(context.Background(), readerOf(lines...))).To(Succeed())

		status := s.Status()
		Expect(status.Done).To(BeTrue())
		Expect(status.References).To(Equal(uint64(publishInterval + 3)))
		Expect(status.Levels[1].Misses).To(Equal(uint64(publishInterval + 3)))

		cfg, ok := s.Config().(*cache.Config)
		Expect(ok).To(BeTrue())
		Expect(cfg.BlockSize).To(Equal(uint32(16)))
	})

	ginkgo.It("should record the run and the statistics", func() {
		recorder := NewMockDataRecorder(mockCtrl)
		recorder.EXPECT().CreateTable(datarecording.ExecTableName, gomock.Any())
		recorder.EXPECT().CreateTable(StatsTableName, gomock.Any())
		recorder.EXPECT().CreateTable(trace.EventTableName, gomock.Any())

		var stats []StatsEntry
		var events int
		var execProps []string

		recorder.EXPECT().
			InsertData(gomock.Any(), gomock.Any()).
			Do(func(table string, entry any) {
				switch table {
				case StatsTableName:
					stats = append(stats, entry.(StatsEntry))
				case trace.EventTableName:
					events++
				case datarecording.ExecTableName:
					execProps = append(execProps,
						entry.(datarecording.ExecInfo).Property)
				}
			}).
			AnyTimes()
		recorder.EXPECT().Flush()
		recorder.EXPECT().Close()

		s, err := MakeBuilder().
			WithConfig(tinyConfig()).
			WithDataRecorder(recorder).
			WithEventRecording().
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(context.Background(), readerOf("L 0x0", "L 0x10"))).
			To(Succeed())
		s.Terminate()

		Expect(stats).To(HaveLen(3))
		Expect(stats[1].Level).To(Equal(cache.DCacheName))
		Expect(stats[1].Misses).To(Equal(uint64(2)))
		Expect(stats[1].Evictions).To(Equal(uint64(1)))
		Expect(stats[2].Enabled).To(BeFalse())

		// Two misses and one eviction.
		Expect(events).To(Equal(3))

		Expect(execProps).To(ContainElements(
			"Start Time", "Simulation ID", "References", "Cache Events",
			"End Time"))
	})
})

var _ = ginkgo.Describe("Report", func() {
	var r Report

	ginkgo.BeforeEach(func() {
		s, err := MakeBuilder().WithConfig(tinyConfig()).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run(context.Background(), readerOf("I 0x0", "L 0x0"))).
			To(Succeed())

		r = s.Report()
	})

	ginkgo.It("should write text", func() {
		buf := new(bytes.Buffer)

		Expect(r.WriteText(buf)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("L1I"))
		Expect(out).To(MatchRegexp(`L2\s+disabled`))
		Expect(out).To(ContainSubstring("Total latency: 202"))
		Expect(out).To(ContainSubstring("100.00%"))
	})

	ginkgo.It("should write JSON", func() {
		buf := new(bytes.Buffer)

		Expect(r.WriteJSON(buf)).To(Succeed())

		var decoded Report
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded.TotalLatency).To(Equal(uint64(202)))
		Expect(decoded.Levels).To(HaveLen(3))
		Expect(decoded.Levels[0].Size).To(Equal(uint64(16)))
	})

	ginkgo.It("should format sizes", func() {
		Expect(formatSize(16)).To(Equal("16B"))
		Expect(formatSize(32 * 1024)).To(Equal("32KB"))
		Expect(formatSize(4 << 20)).To(Equal("4MB"))
		Expect(formatSize(1536)).To(Equal("1536B"))
	})
})
