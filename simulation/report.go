package simulation

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/mem/cache"
)

// StatsTableName is the table that holds the final statistics of each level.
const StatsTableName = "cache_stats"

// StatsEntry is a row of the statistics table.
type StatsEntry struct {
	Level             string
	Enabled           bool
	References        uint64
	Misses            uint64
	Penalties         uint64
	MissRate          float64
	AvgAccessTime     float64
	Evictions         uint64
	BackInvalidations uint64
}

// LevelReport summarizes one cache level.
type LevelReport struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Size    uint64 `json:"size_bytes"`
	Sets    int    `json:"sets"`
	Ways    int    `json:"ways"`
	HitTime uint32 `json:"hit_time"`

	References     uint64  `json:"references"`
	Misses         uint64  `json:"misses"`
	Penalties      uint64  `json:"penalties"`
	MissRate       float64 `json:"miss_rate"`
	AvgMissPenalty float64 `json:"avg_miss_penalty"`
	AvgAccessTime  float64 `json:"avg_access_time"`

	Evictions         uint64 `json:"evictions"`
	BackInvalidations uint64 `json:"back_invalidations"`
}

// Report summarizes a run.
type Report struct {
	ID                    string        `json:"id"`
	InstructionReferences uint64        `json:"instruction_references"`
	DataReferences        uint64        `json:"data_references"`
	TotalLatency          uint64        `json:"total_latency"`
	AvgLatency            float64       `json:"avg_latency"`
	Levels                []LevelReport `json:"levels"`
}

// References returns the number of references of both kinds.
func (r Report) References() uint64 {
	return r.InstructionReferences + r.DataReferences
}

// Report summarizes the references served so far.
func (s *Simulation) Report() Report {
	cfg := s.hierarchy.Config()
	r := Report{
		ID:                    s.id,
		InstructionReferences: s.instRefs,
		DataReferences:        s.dataRefs,
		TotalLatency:          s.totalLatency,
	}

	if n := r.References(); n > 0 {
		r.AvgLatency = float64(s.totalLatency) / float64(n)
	}

	levelConfigs := []cache.LevelConfig{cfg.ICache(), cfg.DCache(), cfg.L2Cache()}

	for i, l := range s.hierarchy.Levels() {
		stats := l.Stats()
		r.Levels = append(r.Levels, LevelReport{
			Name:              l.Name(),
			Enabled:           l.Instantiated(),
			Size:              levelConfigs[i].Size(cfg.BlockSize),
			Sets:              l.NumSets(),
			Ways:              l.NumWays(),
			HitTime:           l.HitTime(),
			References:        stats.References,
			Misses:            stats.Misses,
			Penalties:         stats.Penalties,
			MissRate:          stats.MissRate(),
			AvgMissPenalty:    stats.AvgMissPenalty(),
			AvgAccessTime:     l.AvgAccessTime(),
			Evictions:         s.counter.Count(l.Name(), cache.HookPosEvict),
			BackInvalidations: s.counter.Count(l.Name(), cache.HookPosBackInvalidate),
		})
	}

	return r
}

// WriteText writes the report as aligned columns.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Level\tSize\tRefs\tMisses\tMiss rate\tPenalties\t"+
		"Avg miss penalty\tAvg access time\tEvictions\tBack-invalidations\t\n")

	for _, l := range r.Levels {
		if !l.Enabled {
			fmt.Fprintf(tw, "%s\tdisabled\t\t\t\t\t\t\t\t\t\n", l.Name)
			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f%%\t%d\t%.2f\t%.2f\t%d\t%d\t\n",
			l.Name, formatSize(l.Size), l.References, l.Misses,
			l.MissRate*100, l.Penalties, l.AvgMissPenalty, l.AvgAccessTime,
			l.Evictions, l.BackInvalidations)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w,
		"\nInstruction refs: %d\nData refs: %d\n"+
			"Total latency: %d\nAvg latency: %.2f\n",
		r.InstructionReferences, r.DataReferences,
		r.TotalLatency, r.AvgLatency)

	return err
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

func formatSize(bytes uint64) string {
	switch {
	case bytes >= 1<<20 && bytes%(1<<20) == 0:
		return fmt.Sprintf("%dMB", bytes>>20)
	case bytes >= 1<<10 && bytes%(1<<10) == 0:
		return fmt.Sprintf("%dKB", bytes>>10)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
