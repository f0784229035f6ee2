package cache

import (
	"errors"
	"fmt"
)

// Config describes the geometry of a cache hierarchy.
//
// Set counts and BlockSize must be powers of two. The hierarchy does not
// check this when it is initialized; Validate does, and front ends should
// call it before building a hierarchy. A level with zero sets is not
// instantiated and forwards every access to the level below it.
type Config struct {
	ICacheSets    uint32 `json:"icache_sets"`
	ICacheAssoc   uint32 `json:"icache_assoc"`
	ICacheHitTime uint32 `json:"icache_hit_time"`

	DCacheSets    uint32 `json:"dcache_sets"`
	DCacheAssoc   uint32 `json:"dcache_assoc"`
	DCacheHitTime uint32 `json:"dcache_hit_time"`

	L2CacheSets    uint32 `json:"l2cache_sets"`
	L2CacheAssoc   uint32 `json:"l2cache_assoc"`
	L2CacheHitTime uint32 `json:"l2cache_hit_time"`

	// Inclusive makes the L2 back-invalidate L1 copies of the blocks it
	// evicts.
	Inclusive bool `json:"inclusive"`

	BlockSize uint32 `json:"block_size"`
	MemSpeed  uint32 `json:"mem_speed"`
}

// LevelConfig is the geometry of a single cache level.
type LevelConfig struct {
	Sets    uint32
	Assoc   uint32
	HitTime uint32
}

// ICache returns the instruction cache geometry.
func (c Config) ICache() LevelConfig {
	return LevelConfig{c.ICacheSets, c.ICacheAssoc, c.ICacheHitTime}
}

// DCache returns the data cache geometry.
func (c Config) DCache() LevelConfig {
	return LevelConfig{c.DCacheSets, c.DCacheAssoc, c.DCacheHitTime}
}

// L2Cache returns the unified L2 cache geometry.
func (c Config) L2Cache() LevelConfig {
	return LevelConfig{c.L2CacheSets, c.L2CacheAssoc, c.L2CacheHitTime}
}

// Size returns the number of bytes the level can hold.
func (l LevelConfig) Size(blockSize uint32) uint64 {
	return uint64(l.Sets) * uint64(l.Assoc) * uint64(blockSize)
}

// Validate reports geometry parameters the hierarchy cannot model.
func (c Config) Validate() error {
	var errs []error

	if !isPowerOfTwo(c.BlockSize) {
		errs = append(errs,
			fmt.Errorf("block size %d is not a power of two", c.BlockSize))
	}

	levels := []struct {
		name string
		cfg  LevelConfig
	}{
		{ICacheName, c.ICache()},
		{DCacheName, c.DCache()},
		{L2CacheName, c.L2Cache()},
	}

	for _, l := range levels {
		if err := l.cfg.validate(l.name); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (l LevelConfig) validate(name string) error {
	if l.Sets == 0 {
		return nil
	}

	if !isPowerOfTwo(l.Sets) {
		return fmt.Errorf("%s: set count %d is not a power of two",
			name, l.Sets)
	}

	if l.Assoc == 0 {
		return fmt.Errorf("%s: associativity must be at least 1", name)
	}

	return nil
}

func isPowerOfTwo(x uint32) bool {
	return x != 0 && x&(x-1) == 0
}
