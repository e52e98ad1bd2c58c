package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/driftwatch/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s.\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# driftwatch configuration

source:
  # Exactly one source: a JSON endpoint returning an array of objects with
  # an "id" field, or a list of RSS/Atom feeds.
  json:
    url: ""
    # url: "https://api.example.com/videos"
  rss:
    feeds: []
    # - "https://example.com/feed.xml"

watch:
  iterations: 5
  interval: 1m

storage:
  path: .driftwatch/driftwatch.db

# Items whose field holds (or contains) one of these values count as tagged
# in per-iteration stats.
tagged:
  field: ""
  values: []
  # field: categories
  # values: ["featured"]
`
