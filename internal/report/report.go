// Package report aggregates a run's snapshots and pairwise comparisons into
// the final report artifact. Field names and nesting are a wire contract:
// downstream consumers read the JSON by these exact names.
package report

import (
	"time"

	"github.com/ppiankov/driftwatch/internal/diff"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

// TaggedFunc classifies an item as tagged for per-iteration counts. Which
// items count as tagged is configuration, not aggregator logic.
type TaggedFunc func(monitor.Item) bool

// Report is the aggregated artifact summarizing one run.
type Report struct {
	Summary     Summary      `json:"summary"`
	Iterations  []Iteration  `json:"iterations"`
	Comparisons []Comparison `json:"comparisons"`
	Statistics  Statistics   `json:"statistics"`
}

// Summary covers the whole run. Durations are in seconds. AverageInterval
// is totalDuration divided by the iteration count, not by the number of
// inter-fetch gaps.
type Summary struct {
	TotalIterations int       `json:"totalIterations"`
	TotalDuration   float64   `json:"totalDuration"`
	AverageInterval float64   `json:"averageInterval"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
}

// Iteration is the per-snapshot projection.
type Iteration struct {
	Iteration   int       `json:"iteration"`
	Timestamp   time.Time `json:"timestamp"`
	ItemCount   int       `json:"itemCount"`
	TaggedCount int       `json:"taggedCount"`
}

// Comparison is the full difference between two adjacent snapshots, keyed
// by the later snapshot's iteration.
type Comparison struct {
	Iteration         int       `json:"iteration"`
	Timestamp         time.Time `json:"timestamp"`
	PreviousTimestamp time.Time `json:"previousTimestamp"`
	Changes           Changes   `json:"changes"`
}

// Changes holds one comparison's item-level differences.
type Changes struct {
	TotalItems    Totals              `json:"totalItems"`
	NewItems      []ItemSummary       `json:"newItems"`
	RemovedItems  []ItemSummary       `json:"removedItems"`
	ModifiedItems []diff.ModifiedItem `json:"modifiedItems"`
}

// Totals tracks the item count on both sides of a comparison.
type Totals struct {
	Previous   int `json:"previous"`
	Current    int `json:"current"`
	Difference int `json:"difference"`
}

// ItemSummary identifies an item that appeared or disappeared.
type ItemSummary struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Statistics aggregates across all comparisons and iterations.
type Statistics struct {
	TotalNewItems            int     `json:"totalNewItems"`
	TotalRemovedItems        int     `json:"totalRemovedItems"`
	TotalModifiedItems       int     `json:"totalModifiedItems"`
	AverageItemsPerIteration float64 `json:"averageItemsPerIteration"`
	MinItems                 int     `json:"minItems"`
	MaxItems                 int     `json:"maxItems"`
}

// Compare diffs two adjacent snapshots into a Comparison. It reads both
// snapshots and constructs everything fresh, so it can be re-run over
// stored snapshots at any time with the same result.
func Compare(previous, current monitor.Snapshot) Comparison {
	cs := diff.Collections(previous.Items, current.Items)

	newItems := make([]ItemSummary, 0, len(cs.NewItems))
	for _, it := range cs.NewItems {
		newItems = append(newItems, ItemSummary{ID: it.ID, Title: it.Title()})
	}
	removedItems := make([]ItemSummary, 0, len(cs.RemovedItems))
	for _, it := range cs.RemovedItems {
		removedItems = append(removedItems, ItemSummary{ID: it.ID, Title: it.Title()})
	}
	modifiedItems := cs.ModifiedItems
	if modifiedItems == nil {
		modifiedItems = []diff.ModifiedItem{}
	}

	return Comparison{
		Iteration:         current.Iteration,
		Timestamp:         current.Timestamp,
		PreviousTimestamp: previous.Timestamp,
		Changes: Changes{
			TotalItems: Totals{
				Previous:   len(previous.Items),
				Current:    len(current.Items),
				Difference: len(current.Items) - len(previous.Items),
			},
			NewItems:      newItems,
			RemovedItems:  removedItems,
			ModifiedItems: modifiedItems,
		},
	}
}

// Build aggregates an ordered snapshot list into a Report. It is pure: no
// clock reads, no I/O. tagged may be nil, which counts no items as tagged.
// Empty and single-snapshot runs produce empty comparisons and zero-valued
// statistics; a snapshot with no items contributes zero counts.
func Build(snapshots []monitor.Snapshot, tagged TaggedFunc) Report {
	iterations := make([]Iteration, 0, len(snapshots))
	for _, snap := range snapshots {
		taggedCount := 0
		if tagged != nil {
			for _, it := range snap.Items {
				if tagged(it) {
					taggedCount++
				}
			}
		}
		iterations = append(iterations, Iteration{
			Iteration:   snap.Iteration,
			Timestamp:   snap.Timestamp,
			ItemCount:   len(snap.Items),
			TaggedCount: taggedCount,
		})
	}

	comparisons := make([]Comparison, 0)
	for i := 1; i < len(snapshots); i++ {
		comparisons = append(comparisons, Compare(snapshots[i-1], snapshots[i]))
	}

	var summary Summary
	summary.TotalIterations = len(snapshots)
	if len(snapshots) > 0 {
		summary.StartTime = snapshots[0].Timestamp
		summary.EndTime = snapshots[len(snapshots)-1].Timestamp
		summary.TotalDuration = summary.EndTime.Sub(summary.StartTime).Seconds()
		summary.AverageInterval = summary.TotalDuration / float64(summary.TotalIterations)
	}

	var stats Statistics
	for _, cmp := range comparisons {
		stats.TotalNewItems += len(cmp.Changes.NewItems)
		stats.TotalRemovedItems += len(cmp.Changes.RemovedItems)
		stats.TotalModifiedItems += len(cmp.Changes.ModifiedItems)
	}
	if len(iterations) > 0 {
		totalItems := 0
		stats.MinItems = iterations[0].ItemCount
		stats.MaxItems = iterations[0].ItemCount
		for _, it := range iterations {
			totalItems += it.ItemCount
			if it.ItemCount < stats.MinItems {
				stats.MinItems = it.ItemCount
			}
			if it.ItemCount > stats.MaxItems {
				stats.MaxItems = it.ItemCount
			}
		}
		stats.AverageItemsPerIteration = float64(totalItems) / float64(len(iterations))
	}

	return Report{
		Summary:     summary,
		Iterations:  iterations,
		Comparisons: comparisons,
		Statistics:  stats,
	}
}
