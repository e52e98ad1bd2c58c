package source

import (
	"context"

	"github.com/ppiankov/driftwatch/internal/monitor"
)

// Source fetches the current state of an information feed as identity-
// bearing items. Implementations own their retry, backoff and auth
// behavior; callers treat a fetch as a black box that either returns the
// feed's items or fails.
type Source interface {
	// Name returns the source identifier (e.g. "json").
	Name() string

	// Fetch returns the feed's current items. Items without a usable id
	// are dropped; duplicate ids keep the first occurrence.
	Fetch(ctx context.Context) ([]monitor.Item, error)
}

// dedupe keeps the first item per id, preserving order. Snapshot items must
// carry unique ids.
func dedupe(items []monitor.Item) []monitor.Item {
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
