package cache

// Builder can build cache hierarchies.
type Builder struct {
	config Config
}

// MakeBuilder creates a new builder. The default hierarchy has 32 KB 4-way
// L1 caches, a 256 KB 8-way non-inclusive L2, 64-byte blocks and a
// 100-cycle memory.
func MakeBuilder() Builder {
	return Builder{
		config: Config{
			ICacheSets:     128,
			ICacheAssoc:    4,
			ICacheHitTime:  1,
			DCacheSets:     128,
			DCacheAssoc:    4,
			DCacheHitTime:  1,
			L2CacheSets:    512,
			L2CacheAssoc:   8,
			L2CacheHitTime: 10,
			BlockSize:      64,
			MemSpeed:       100,
		},
	}
}

// WithConfig replaces the whole configuration of the builder.
func (b Builder) WithConfig(cfg Config) Builder {
	b.config = cfg
	return b
}

// WithICache sets the geometry of the instruction cache. Zero sets disables
// it.
func (b Builder) WithICache(sets, assoc, hitTime uint32) Builder {
	b.config.ICacheSets = sets
	b.config.ICacheAssoc = assoc
	b.config.ICacheHitTime = hitTime

	return b
}

// WithDCache sets the geometry of the data cache. Zero sets disables it.
func (b Builder) WithDCache(sets, assoc, hitTime uint32) Builder {
	b.config.DCacheSets = sets
	b.config.DCacheAssoc = assoc
	b.config.DCacheHitTime = hitTime

	return b
}

// WithL2Cache sets the geometry of the L2 cache. Zero sets disables it.
func (b Builder) WithL2Cache(sets, assoc, hitTime uint32) Builder {
	b.config.L2CacheSets = sets
	b.config.L2CacheAssoc = assoc
	b.config.L2CacheHitTime = hitTime

	return b
}

// WithInclusive sets if the L2 is inclusive of the L1 caches.
func (b Builder) WithInclusive(inclusive bool) Builder {
	b.config.Inclusive = inclusive
	return b
}

// WithBlockSize sets the block size in bytes of all the levels.
func (b Builder) WithBlockSize(blockSize uint32) Builder {
	b.config.BlockSize = blockSize
	return b
}

// WithMemSpeed sets the latency of main memory.
func (b Builder) WithMemSpeed(memSpeed uint32) Builder {
	b.config.MemSpeed = memSpeed
	return b
}

// Config returns the configuration built so far.
func (b Builder) Config() Config {
	return b.config
}

// Build builds an initialized hierarchy.
func (b Builder) Build() (*Hierarchy, error) {
	return NewHierarchy(b.config)
}
