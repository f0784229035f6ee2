package simulation

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Builder can be used to build a simulation.
type Builder struct {
	config       cache.Config
	dataRecorder datarecording.DataRecorder
	recordEvents bool
	monitor      *monitoring.Monitor
	hooks        []hooking.Hook
}

// MakeBuilder creates a new builder with the default hierarchy.
func MakeBuilder() Builder {
	return Builder{
		config: cache.MakeBuilder().Config(),
	}
}

// WithConfig sets the hierarchy to simulate.
func (b Builder) WithConfig(cfg cache.Config) Builder {
	b.config = cfg
	return b
}

// WithDataRecorder makes the simulation record the run information and the
// final statistics.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.dataRecorder = r
	return b
}

// WithEventRecording makes the simulation record every cache event. It
// requires a data recorder.
func (b Builder) WithEventRecording() Builder {
	b.recordEvents = true
	return b
}

// WithMonitor registers the simulation to the monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithHooks adds hooks to all the cache levels.
func (b Builder) WithHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hooks...)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.recordEvents && b.dataRecorder == nil {
		panic("event recording requires a data recorder")
	}
}

// Build builds the simulation. It returns an error if the configuration is
// invalid.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	h, err := cache.NewHierarchy(b.config)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:           xid.New().String(),
		hierarchy:    h,
		dataRecorder: b.dataRecorder,
		monitor:      b.monitor,
		counter:      hooking.NewPosCounter(),
	}

	h.AcceptHook(s.counter)

	for _, hook := range b.hooks {
		h.AcceptHook(hook)
	}

	if s.dataRecorder != nil {
		s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
		s.dataRecorder.CreateTable(StatsTableName, StatsEntry{})
	}

	if b.recordEvents {
		s.eventTracer = trace.NewDBTracer(s.dataRecorder)
		h.AcceptHook(s.eventTracer)
	}

	s.publish(false)

	if s.monitor != nil {
		s.monitor.RegisterSimulation(s)
	}

	return s, nil
}
