// Package cache models a memory hierarchy made of split L1 instruction and
// data caches and a unified L2 cache in front of main memory. It computes
// the latency of every reference and keeps hit and miss statistics per
// level.
package cache

import (
	"fmt"
	"math"

	"github.com/sarchlab/cachesim/sim/hooking"
)

// Names of the cache levels.
const (
	ICacheName  = "L1I"
	DCacheName  = "L1D"
	L2CacheName = "L2"
)

// maxBlocksPerLevel bounds the tag storage of a single level.
const maxBlocksPerLevel = math.MaxInt32

// A Hierarchy owns the three cache levels and main memory. It must be
// initialized exactly once, by Init or by NewHierarchy, before any access.
//
// A Hierarchy is not safe for concurrent use.
type Hierarchy struct {
	initialized bool
	config      Config

	memory *MainMemory
	icache *Level
	dcache *Level
	l2     *Level
}

// NewHierarchy creates an initialized hierarchy.
func NewHierarchy(cfg Config) (*Hierarchy, error) {
	h := new(Hierarchy)

	if err := h.Init(cfg); err != nil {
		return nil, err
	}

	return h, nil
}

// Init allocates the storage of all the instantiated levels with every block
// invalid and every counter zero. It panics if the hierarchy is already
// initialized. It returns an error if a level's storage cannot be allocated.
func (h *Hierarchy) Init(cfg Config) error {
	if h.initialized {
		panic("cache hierarchy is already initialized")
	}

	for _, l := range []struct {
		name string
		cfg  LevelConfig
	}{
		{ICacheName, cfg.ICache()},
		{DCacheName, cfg.DCache()},
		{L2CacheName, cfg.L2Cache()},
	} {
		if err := l.cfg.mustBeAllocatable(l.name); err != nil {
			return fmt.Errorf("cannot initialize cache hierarchy: %w", err)
		}
	}

	h.config = cfg
	h.memory = &MainMemory{Latency: cfg.MemSpeed}
	h.l2 = newLevel(L2CacheName, cfg.L2Cache(), cfg.BlockSize, h.memory)
	h.icache = newLevel(ICacheName, cfg.ICache(), cfg.BlockSize, h.l2)
	h.dcache = newLevel(DCacheName, cfg.DCache(), cfg.BlockSize, h.l2)

	if cfg.Inclusive {
		h.l2.inner = []*Level{h.icache, h.dcache}
	}

	h.initialized = true

	return nil
}

func (l LevelConfig) mustBeAllocatable(name string) error {
	if l.Sets == 0 {
		return nil
	}

	if l.Assoc == 0 {
		return fmt.Errorf("%s has %d sets but no ways", name, l.Sets)
	}

	if uint64(l.Sets)*uint64(l.Assoc) > maxBlocksPerLevel {
		return fmt.Errorf("%s needs %d blocks, more than the limit of %d",
			name, uint64(l.Sets)*uint64(l.Assoc), maxBlocksPerLevel)
	}

	return nil
}

// AccessInstruction serves an instruction fetch and returns its latency.
func (h *Hierarchy) AccessInstruction(addr uint32) uint32 {
	h.mustBeInitialized()
	return h.icache.Access(addr)
}

// AccessData serves a data access and returns its latency.
func (h *Hierarchy) AccessData(addr uint32) uint32 {
	h.mustBeInitialized()
	return h.dcache.Access(addr)
}

func (h *Hierarchy) mustBeInitialized() {
	if !h.initialized {
		panic("cache hierarchy is accessed before it is initialized")
	}
}

// Config returns the configuration the hierarchy is initialized with.
func (h *Hierarchy) Config() Config {
	return h.config
}

// ICache returns the L1 instruction cache.
func (h *Hierarchy) ICache() *Level {
	return h.icache
}

// DCache returns the L1 data cache.
func (h *Hierarchy) DCache() *Level {
	return h.dcache
}

// L2Cache returns the unified L2 cache.
func (h *Hierarchy) L2Cache() *Level {
	return h.l2
}

// Levels returns the I$, D$ and L2$, in this order.
func (h *Hierarchy) Levels() []*Level {
	return []*Level{h.icache, h.dcache, h.l2}
}

// AcceptHook registers the hook on every level.
func (h *Hierarchy) AcceptHook(hook hooking.Hook) {
	h.mustBeInitialized()

	for _, l := range h.Levels() {
		l.AcceptHook(hook)
	}
}
