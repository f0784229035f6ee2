package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats database",
		Short: "Print the statistics recorded by run --db.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			return printStats(cmd, reader)
		},
	}
}

func printStats(cmd *cobra.Command, reader datarecording.DataReader) error {
	ctx := cmd.Context()

	reader.MapTable(datarecording.ExecTableName, datarecording.ExecInfo{})
	reader.MapTable(simulation.StatsTableName, simulation.StatsEntry{})

	info, _, err := reader.Query(ctx, datarecording.ExecTableName,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	for _, e := range info {
		entry := e.(*datarecording.ExecInfo)
		fmt.Fprintf(out, "%s: %s\n", entry.Property, entry.Value)
	}

	stats, _, err := reader.Query(ctx, simulation.StatsTableName,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nLEVEL\tREFS\tMISSES\tMISS RATE\tPENALTIES\tAVG ACCESS TIME")

	for _, e := range stats {
		entry := e.(*simulation.StatsEntry)
		if !entry.Enabled {
			fmt.Fprintf(tw, "%s\tdisabled\t\t\t\t\n", entry.Level)
			continue
		}

		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%d\t%.2f\n",
			entry.Level, entry.References, entry.Misses,
			entry.MissRate*100, entry.Penalties, entry.AvgAccessTime)
	}

	return tw.Flush()
}
