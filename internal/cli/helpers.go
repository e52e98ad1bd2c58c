package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/driftwatch/internal/config"
	"github.com/ppiankov/driftwatch/internal/report"
	"github.com/ppiankov/driftwatch/internal/source"
)

// buildSource constructs the configured feed source. Config validation
// guarantees exactly one is set.
func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.Source.JSON.URL != "" {
		js, err := source.NewJSON(cfg.Source.JSON.URL)
		if err != nil {
			return nil, fmt.Errorf("create json source: %w", err)
		}
		return js, nil
	}
	rs, err := source.NewRSS(cfg.Source.RSS.Feeds)
	if err != nil {
		return nil, fmt.Errorf("create rss source: %w", err)
	}
	return rs, nil
}

func taggedFunc(cfg *config.Config) report.TaggedFunc {
	return report.TaggedByField(cfg.Tagged.Field, cfg.Tagged.Values)
}

func writeReportJSON(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func printReportSummary(w io.Writer, rep report.Report) {
	fmt.Fprintf(w, "Iterations: %d", rep.Summary.TotalIterations)
	if rep.Summary.TotalIterations > 0 {
		fmt.Fprintf(w, " (%s to %s)", rep.Summary.StartTime.Local().Format("15:04:05"), rep.Summary.EndTime.Local().Format("15:04:05"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Items per iteration: min %d, max %d, avg %.1f\n",
		rep.Statistics.MinItems, rep.Statistics.MaxItems, rep.Statistics.AverageItemsPerIteration)
	fmt.Fprintf(w, "Changes: %d new, %d removed, %d modified\n",
		rep.Statistics.TotalNewItems, rep.Statistics.TotalRemovedItems, rep.Statistics.TotalModifiedItems)
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}
