package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/spf13/cobra"
)

// EnvPrefix starts the names of the environment variables that hold flag
// defaults, for example CACHESIM_L2CACHE_SETS.
const EnvPrefix = "CACHESIM_"

type geometryFlag struct {
	name  string
	usage string
	field func(*cache.Config) *uint32
}

var geometryFlags = []geometryFlag{
	{"icache-sets", "Number of I$ sets, 0 disables the I$.",
		func(c *cache.Config) *uint32 { return &c.ICacheSets }},
	{"icache-assoc", "I$ associativity.",
		func(c *cache.Config) *uint32 { return &c.ICacheAssoc }},
	{"icache-hit", "I$ hit time in cycles.",
		func(c *cache.Config) *uint32 { return &c.ICacheHitTime }},
	{"dcache-sets", "Number of D$ sets, 0 disables the D$.",
		func(c *cache.Config) *uint32 { return &c.DCacheSets }},
	{"dcache-assoc", "D$ associativity.",
		func(c *cache.Config) *uint32 { return &c.DCacheAssoc }},
	{"dcache-hit", "D$ hit time in cycles.",
		func(c *cache.Config) *uint32 { return &c.DCacheHitTime }},
	{"l2cache-sets", "Number of L2$ sets, 0 disables the L2$.",
		func(c *cache.Config) *uint32 { return &c.L2CacheSets }},
	{"l2cache-assoc", "L2$ associativity.",
		func(c *cache.Config) *uint32 { return &c.L2CacheAssoc }},
	{"l2cache-hit", "L2$ hit time in cycles.",
		func(c *cache.Config) *uint32 { return &c.L2CacheHitTime }},
	{"blocksize", "Block size in bytes, shared by all levels.",
		func(c *cache.Config) *uint32 { return &c.BlockSize }},
	{"memspeed", "Main memory latency in cycles.",
		func(c *cache.Config) *uint32 { return &c.MemSpeed }},
}

func envName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func addConfigFlags(cmd *cobra.Command) {
	defaults := cache.MakeBuilder().Config()

	for _, f := range geometryFlags {
		cmd.Flags().Uint32(f.name, *f.field(&defaults),
			f.usage+" Env: "+envName(f.name)+".")
	}

	cmd.Flags().Bool("inclusive", defaults.Inclusive,
		"Back-invalidate L1 copies of blocks evicted from the L2$. "+
			"Env: "+envName("inclusive")+".")
	cmd.Flags().String("preset", "",
		"Start from a named configuration, see the presets command. "+
			"Env: "+envName("preset")+".")
}

// resolveConfig builds the configuration from, in increasing priority, the
// built-in defaults or the preset, the environment and the flags set on the
// command line.
func resolveConfig(
	cmd *cobra.Command,
	getenv func(string) string,
) (cache.Config, error) {
	flags := cmd.Flags()
	cfg := cache.MakeBuilder().Config()

	preset, _ := flags.GetString("preset")
	if !flags.Changed("preset") && getenv(envName("preset")) != "" {
		preset = getenv(envName("preset"))
	}

	if preset != "" {
		p, ok := cache.Presets[preset]
		if !ok {
			return cfg, fmt.Errorf("unknown preset %q, expecting one of %s",
				preset, strings.Join(cache.PresetNames(), ", "))
		}

		cfg = p
	}

	for _, f := range geometryFlags {
		field := f.field(&cfg)

		if flags.Changed(f.name) {
			*field, _ = flags.GetUint32(f.name)
			continue
		}

		if s := getenv(envName(f.name)); s != "" {
			v, err := strconv.ParseUint(s, 0, 32)
			if err != nil {
				return cfg, fmt.Errorf("%s: %w", envName(f.name), err)
			}

			*field = uint32(v)
		}
	}

	switch {
	case flags.Changed("inclusive"):
		cfg.Inclusive, _ = flags.GetBool("inclusive")
	case getenv(envName("inclusive")) != "":
		v, err := strconv.ParseBool(getenv(envName("inclusive")))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envName("inclusive"), err)
		}

		cfg.Inclusive = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// stringSetting returns the flag value, or the environment value when the
// flag is not given.
func stringSetting(
	cmd *cobra.Command,
	getenv func(string) string,
	name string,
) string {
	v, _ := cmd.Flags().GetString(name)
	if !cmd.Flags().Changed(name) && getenv(envName(name)) != "" {
		v = getenv(envName(name))
	}

	return v
}
