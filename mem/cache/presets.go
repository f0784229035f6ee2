package cache

import "sort"

// Presets are named hierarchy configurations for common experiments.
var Presets = map[string]Config{
	// No caches at all; every reference goes to memory.
	"none": {
		BlockSize: 64,
		MemSpeed:  100,
	},
	// Small direct-mapped L1s in front of memory.
	"direct-mapped": {
		ICacheSets: 256, ICacheAssoc: 1, ICacheHitTime: 1,
		DCacheSets: 256, DCacheAssoc: 1, DCacheHitTime: 1,
		BlockSize: 32,
		MemSpeed:  100,
	},
	// 8 KB 2-way L1s and a 64 KB 8-way L2.
	"small": {
		ICacheSets: 128, ICacheAssoc: 2, ICacheHitTime: 1,
		DCacheSets: 128, DCacheAssoc: 2, DCacheHitTime: 1,
		L2CacheSets: 256, L2CacheAssoc: 8, L2CacheHitTime: 10,
		BlockSize: 32,
		MemSpeed:  100,
	},
	// 32 KB 8-way L1s and a 1 MB 16-way inclusive L2.
	"desktop": {
		ICacheSets: 64, ICacheAssoc: 8, ICacheHitTime: 1,
		DCacheSets: 64, DCacheAssoc: 8, DCacheHitTime: 4,
		L2CacheSets: 1024, L2CacheAssoc: 16, L2CacheHitTime: 12,
		Inclusive: true,
		BlockSize: 64,
		MemSpeed:  200,
	},
	// 128 KB 8-way L1s and a 4 MB 16-way L2, close to recent Apple cores.
	"m-series": {
		ICacheSets: 256, ICacheAssoc: 8, ICacheHitTime: 1,
		DCacheSets: 256, DCacheAssoc: 8, DCacheHitTime: 3,
		L2CacheSets: 4096, L2CacheAssoc: 16, L2CacheHitTime: 12,
		BlockSize: 64,
		MemSpeed:  150,
	},
}

// PresetNames returns the preset names in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
