package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [trace]",
		Short: "Run a trace through the cache hierarchy.",
		Long: "`run trace.txt` reads one reference per line, an access kind " +
			"(I for instruction fetches, L, S, D or M for data) and a hex " +
			"address. Traces ending in .gz or .zst are decompressed. " +
			"Without a trace, or with -, the standard input is read.",
		Args: cobra.MaximumNArgs(1),
		RunE: runSimulation,
	}

	addConfigFlags(runCmd)

	runCmd.Flags().Bool("json", false, "Print the report as JSON.")
	runCmd.Flags().BoolP("verbose", "v", false,
		"Log every hit, miss, eviction and back-invalidation to stderr.")
	runCmd.Flags().String("db", "",
		"Record the run and the statistics into this SQLite file. "+
			"Env: "+envName("db")+".")
	runCmd.Flags().Bool("record-events", false,
		"Also record every cache event into the database.")
	runCmd.Flags().Bool("monitor", false,
		"Serve the progress of the run over HTTP.")
	runCmd.Flags().Int("monitor-port", 0,
		"Port of the monitoring server, random if not given.")
	runCmd.Flags().Bool("open-browser", false,
		"Open the monitoring page in a browser.")

	return runCmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}

	path := trace.StdinPath
	if len(args) == 1 {
		path = args[0]
	}

	in, err := openTrace(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	b, monitor, err := builderFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	s, err := b.Build()
	if err != nil {
		return err
	}
	defer s.Terminate()

	if monitor != nil {
		startMonitor(cmd, monitor)
		defer stopMonitor(monitor)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runErr := s.Run(ctx, trace.NewReader(in))
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"Interrupted, reporting the references served so far.\n")
	}

	report := s.Report()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		err = report.WriteJSON(cmd.OutOrStdout())
	} else {
		err = report.WriteText(cmd.OutOrStdout())
	}

	if err != nil {
		return err
	}

	return runErr
}

func openTrace(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == trace.StdinPath {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	return trace.Open(path)
}

func builderFromFlags(
	cmd *cobra.Command,
	cfg cache.Config,
) (simulation.Builder, *monitoring.Monitor, error) {
	b := simulation.MakeBuilder().WithConfig(cfg)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger := log.New(cmd.ErrOrStderr(), "", 0)
		b = b.WithHooks(cache.NewAccessLogger(logger))
	}

	recordEvents, _ := cmd.Flags().GetBool("record-events")

	dbName := stringSetting(cmd, os.Getenv, "db")
	if dbName != "" {
		dbName = strings.TrimSuffix(dbName, ".sqlite3")
		if _, err := os.Stat(dbName + ".sqlite3"); err == nil {
			return b, nil, fmt.Errorf("database %s.sqlite3 already exists", dbName)
		}

		recorder := datarecording.New(dbName)
		b = b.WithDataRecorder(recorder)

		if recordEvents {
			b = b.WithEventRecording()
		}
	} else if recordEvents {
		return b, nil, errors.New("--record-events requires --db")
	}

	monitorOn, _ := cmd.Flags().GetBool("monitor")
	if !monitorOn {
		return b, nil, nil
	}

	monitor := monitoring.NewMonitor()
	if port, _ := cmd.Flags().GetInt("monitor-port"); port != 0 {
		monitor.WithPortNumber(port)
	}

	return b.WithMonitor(monitor), monitor, nil
}

func startMonitor(cmd *cobra.Command, monitor *monitoring.Monitor) {
	monitor.StartServer()

	if open, _ := cmd.Flags().GetBool("open-browser"); open {
		if err := monitor.OpenBrowser(); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}
}

func stopMonitor(monitor *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := monitor.StopServer(ctx); err != nil {
		log.Printf("stopping monitoring server: %v", err)
	}
}
