package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/driftwatch/internal/config"
	"github.com/ppiankov/driftwatch/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and storage health",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else if cfg.Source.JSON.URL != "" {
		printCheck(true, "config.yaml (json source %s)", cfg.Source.JSON.URL)
	} else {
		printCheck(true, "config.yaml (%d rss feeds)", len(cfg.Source.RSS.Feeds))
	}

	// Source construction
	if cfg != nil {
		if _, err := buildSource(cfg); err != nil {
			printCheck(false, "source: %v", err)
			ok = false
		} else {
			printCheck(true, "source")
		}
	}

	// Database
	if cfg != nil {
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			printCheck(false, "database: %v", err)
			ok = false
		} else {
			runs, err := db.ListRuns(cmd.Context())
			if err != nil {
				printCheck(false, "database %s: %v", cfg.Storage.Path, err)
				ok = false
			} else {
				printCheck(true, "database %s (%d runs)", cfg.Storage.Path, len(runs))
			}
			_ = db.Close()
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
