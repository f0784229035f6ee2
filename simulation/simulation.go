// Package simulation drives a cache hierarchy with a reference trace.
package simulation

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// publishInterval is the number of references between two status updates.
const publishInterval = 4096

// A Simulation feeds references to a cache hierarchy and keeps the totals
// observed by the reference stream.
type Simulation struct {
	id        string
	hierarchy *cache.Hierarchy

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	eventTracer  *trace.DBTracer
	monitor      *monitoring.Monitor
	counter      *hooking.PosCounter

	instRefs     uint64
	dataRefs     uint64
	totalLatency uint64

	statusLock sync.RWMutex
	status     monitoring.Status
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Hierarchy returns the simulated hierarchy.
func (s *Simulation) Hierarchy() *cache.Hierarchy {
	return s.hierarchy
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Config returns the configuration of the hierarchy.
func (s *Simulation) Config() any {
	cfg := s.hierarchy.Config()
	return &cfg
}

// Status returns the last published status.
func (s *Simulation) Status() monitoring.Status {
	s.statusLock.RLock()
	defer s.statusLock.RUnlock()

	status := s.status
	status.Levels = append([]monitoring.LevelStatus(nil), s.status.Levels...)

	return status
}

// Access serves a single reference and returns its latency.
func (s *Simulation) Access(ref trace.Reference) uint32 {
	var latency uint32

	switch ref.Kind {
	case trace.KindInstruction:
		latency = s.hierarchy.AccessInstruction(ref.Addr)
		s.instRefs++
	default:
		latency = s.hierarchy.AccessData(ref.Addr)
		s.dataRefs++
	}

	s.totalLatency += uint64(latency)

	return latency
}

// Run serves all the references of the reader in order. It stops between two
// references if ctx is canceled. The run information and the statistics are
// recorded when the reader is exhausted.
func (s *Simulation) Run(ctx context.Context, r *trace.Reader) error {
	if s.execRecorder != nil {
		s.execRecorder.Start()
	}

	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("References", 0)
		defer s.monitor.CompleteProgressBar(bar)
	}

	var sinceLastPublish uint64

	for {
		if err := ctx.Err(); err != nil {
			s.publish(false)
			return err
		}

		ref, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			s.publish(false)
			return err
		}

		s.Access(ref)

		sinceLastPublish++
		if sinceLastPublish == publishInterval {
			s.publish(false)

			if bar != nil {
				bar.IncrementFinished(sinceLastPublish)
			}

			sinceLastPublish = 0
		}
	}

	s.publish(true)

	if bar != nil {
		bar.IncrementFinished(sinceLastPublish)
		bar.Complete()
	}

	s.record()

	return nil
}

func (s *Simulation) publish(done bool) {
	levels := s.hierarchy.Levels()
	status := monitoring.Status{
		ID:         s.id,
		References: s.instRefs + s.dataRefs,
		Done:       done,
		Levels:     make([]monitoring.LevelStatus, 0, len(levels)),
	}

	for _, l := range levels {
		stats := l.Stats()
		status.Levels = append(status.Levels, monitoring.LevelStatus{
			Name:         l.Name(),
			Instantiated: l.Instantiated(),
			References:   stats.References,
			Misses:       stats.Misses,
			Penalties:    stats.Penalties,
			MissRate:     stats.MissRate(),
		})
	}

	s.statusLock.Lock()
	s.status = status
	s.statusLock.Unlock()
}

func (s *Simulation) record() {
	if s.dataRecorder == nil {
		return
	}

	report := s.Report()

	for _, l := range report.Levels {
		s.dataRecorder.InsertData(StatsTableName, StatsEntry{
			Level:             l.Name,
			Enabled:           l.Enabled,
			References:        l.References,
			Misses:            l.Misses,
			Penalties:         l.Penalties,
			MissRate:          l.MissRate,
			AvgAccessTime:     l.AvgAccessTime,
			Evictions:         l.Evictions,
			BackInvalidations: l.BackInvalidations,
		})
	}

	s.execRecorder.Add("Simulation ID", s.id)
	s.execRecorder.Add("References", strconv.FormatUint(report.References(), 10))
	s.execRecorder.Add("Total Latency", strconv.FormatUint(report.TotalLatency, 10))

	if s.eventTracer != nil {
		s.execRecorder.Add("Cache Events",
			strconv.FormatUint(s.eventTracer.NumEvents(), 10))
	}

	s.execRecorder.End()
}

// Terminate closes the data recorder.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
