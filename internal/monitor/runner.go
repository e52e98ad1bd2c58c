// Package monitor runs the snapshot acquisition loop: N sequential fetches
// from a feed source, paced by an interval, each capture appended to an
// ordered snapshot list and handed to the persistence sink.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// FeedSource is the capability the runner samples. Retry and backoff on
// transient failures belong to the source, never to the runner.
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// SnapshotSink receives each snapshot right after capture. Sink failures are
// logged and do not abort the run.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, runID string, snap Snapshot) error
}

// Clock abstracts wall-clock reads and interval waits so tests can drive
// the loop without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

// FetchError reports a failed fetch and the iteration it aborted.
type FetchError struct {
	Iteration int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("iteration %d: fetch: %v", e.Iteration, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Runner acquires snapshots sequentially from a single feed source.
type Runner struct {
	source FeedSource
	sink   SnapshotSink
	clock  Clock
	log    *log.Logger
}

// NewRunner creates a runner. source is required; sink may be nil to skip
// persistence; clock and logger may be nil for the real clock and default
// logger.
func NewRunner(source FeedSource, sink SnapshotSink, clock Clock, logger *log.Logger) (*Runner, error) {
	if source == nil {
		return nil, errors.New("monitor: source is required")
	}
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{source: source, sink: sink, clock: clock, log: logger}, nil
}

// Run performs iterations sequential fetches, waiting interval between
// consecutive fetches but not after the last. Each capture becomes a
// Snapshot stamped from the clock and is saved to the sink immediately.
//
// The run is fail-fast: the first fetch failure aborts with a *FetchError
// and no further iterations are attempted. The snapshots captured before
// the failure are still returned so the caller can decide what to do with
// them. Cancellation is cooperative, checked during the interval wait and
// propagated into Fetch via ctx.
func (r *Runner) Run(ctx context.Context, runID string, iterations int, interval time.Duration) ([]Snapshot, error) {
	if iterations < 1 {
		return nil, errors.New("monitor: iterations must be at least 1")
	}
	if interval < 0 {
		return nil, errors.New("monitor: interval must not be negative")
	}

	snapshots := make([]Snapshot, 0, iterations)
	for i := 1; i <= iterations; i++ {
		r.log.Info("fetching", "source", r.source.Name(), "iteration", i, "of", iterations)

		items, err := r.source.Fetch(ctx)
		if err != nil {
			return snapshots, &FetchError{Iteration: i, Err: err}
		}

		snap := Snapshot{Iteration: i, Timestamp: r.clock.Now(), Items: items}
		snapshots = append(snapshots, snap)
		r.log.Info("captured snapshot", "iteration", i, "items", len(items))

		if r.sink != nil {
			if err := r.sink.SaveSnapshot(ctx, runID, snap); err != nil {
				r.log.Warn("persist snapshot", "iteration", i, "err", err)
			}
		}

		if i < iterations {
			select {
			case <-ctx.Done():
				return snapshots, ctx.Err()
			case <-r.clock.After(interval):
			}
		}
	}
	return snapshots, nil
}
