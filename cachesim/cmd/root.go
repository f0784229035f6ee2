// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim simulates an L1/L2 cache hierarchy driven by a trace.",
		Long: `cachesim replays a trace of instruction fetches and data ` +
			`accesses through split L1 caches and a unified L2 cache, and ` +
			`reports the references, misses and latency of every level. ` +
			`Flag defaults can be set with CACHESIM_* environment variables, ` +
			`also read from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return loadEnvFile(envFile)
		},
	}

	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to load CACHESIM_* defaults from, if it exists.")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// loadEnvFile sets the variables of the file that are not set already. A
// missing file is not an error.
func loadEnvFile(name string) error {
	if name == "" {
		return nil
	}

	err := godotenv.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}

	return nil
}

// Execute runs the command line and exits. The exit handlers flush the
// databases that are still open.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
