package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/driftwatch/internal/config"
	"github.com/ppiankov/driftwatch/internal/logging"
	"github.com/ppiankov/driftwatch/internal/monitor"
	"github.com/ppiankov/driftwatch/internal/report"
	"github.com/ppiankov/driftwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	watchIterations int
	watchInterval   time.Duration
	watchFormat     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sample the feed repeatedly and report what changed",
	RunE:  watchAction,
}

func init() {
	watchCmd.Flags().IntVar(&watchIterations, "iterations", 0, "number of snapshots to take (overrides config)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "wait between snapshots (overrides config)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(watchCmd)
}

func watchAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Init(configDir); err != nil {
		fmt.Printf("warning: file logging disabled: %v\n", err)
	}
	defer func() { _ = logging.Close() }()

	iterations := cfg.Watch.Iterations
	if watchIterations > 0 {
		iterations = watchIterations
	}
	interval := cfg.Watch.Interval.Duration
	if watchInterval > 0 {
		interval = watchInterval
	}

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	runID := uuid.NewString()
	if err := db.CreateRun(ctx, runID, src.Name(), time.Now()); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	runner, err := monitor.NewRunner(src, db, nil, logging.Logger)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d iterations from %q every %s\n", runID, iterations, src.Name(), interval)

	snapshots, err := runner.Run(ctx, runID, iterations, interval)
	if err != nil {
		// Fail-fast: no report over a partial run. Captured snapshots are
		// already persisted; 'driftwatch report --run' can aggregate them
		// if that is what the caller wants.
		var fe *monitor.FetchError
		if errors.As(err, &fe) && len(snapshots) > 0 {
			fmt.Printf("Aborted after %d snapshots; rebuild a partial report with: driftwatch report --run %s\n", len(snapshots), runID)
		}
		return fmt.Errorf("watch: %w", err)
	}

	rep := report.Build(snapshots, taggedFunc(cfg))
	if err := db.SaveReport(ctx, runID, rep, time.Now()); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if watchFormat == "json" {
		return writeReportJSON(os.Stdout, rep)
	}
	printReportSummary(os.Stdout, rep)
	fmt.Printf("Report saved for run %s.\n", runID)
	return nil
}
