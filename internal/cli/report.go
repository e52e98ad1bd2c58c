package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/driftwatch/internal/config"
	"github.com/ppiankov/driftwatch/internal/report"
	"github.com/ppiankov/driftwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	reportRunID  string
	reportStored bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Rebuild and print the report for a stored run",
	Long:  "report recomputes comparisons from the run's stored snapshots, so it also works for runs that aborted before a report was saved. Use --stored to print the persisted report instead.",
	RunE:  reportAction,
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "run id (see 'driftwatch runs')")
	reportCmd.Flags().BoolVar(&reportStored, "stored", false, "print the persisted report instead of recomputing")
	_ = reportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(reportCmd)
}

func reportAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()

	if reportStored {
		rep, err := db.GetReport(ctx, reportRunID)
		if err != nil {
			return err
		}
		return writeReportJSON(os.Stdout, rep)
	}

	snapshots, err := db.GetSnapshots(ctx, reportRunID)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots for run %s", reportRunID)
	}

	rep := report.Build(snapshots, taggedFunc(cfg))
	return writeReportJSON(os.Stdout, rep)
}
