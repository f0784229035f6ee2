package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the named configurations usable with --preset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintln(tw, "NAME\tL1I\tL1D\tL2\tBLOCK\tMEMORY\tINCLUSIVE")

			for _, name := range cache.PresetNames() {
				cfg := cache.Presets[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dB\t%d\t%t\n",
					name,
					describeLevel(cfg.ICache(), cfg.BlockSize),
					describeLevel(cfg.DCache(), cfg.BlockSize),
					describeLevel(cfg.L2Cache(), cfg.BlockSize),
					cfg.BlockSize, cfg.MemSpeed, cfg.Inclusive)
			}

			return tw.Flush()
		},
	}
}

func describeLevel(l cache.LevelConfig, blockSize uint32) string {
	if l.Sets == 0 {
		return "-"
	}

	return fmt.Sprintf("%dx%d (%dKB, %dcy)",
		l.Sets, l.Assoc, l.Size(blockSize)/1024, l.HitTime)
}
