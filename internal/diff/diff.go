// Package diff compares documents and item collections between two
// snapshots of a feed.
package diff

import (
	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

// Kind classifies one field difference.
type Kind string

const (
	KindAdded    Kind = "added"
	KindModified Kind = "modified"
)

// FieldDiff is one path-addressed difference between two documents. Paths
// are dot-delimited from the item root ("meta.likes"). OldValue is set for
// modified fields only.
type FieldDiff struct {
	Path     string          `json:"path"`
	Kind     Kind            `json:"type"`
	OldValue *document.Value `json:"oldValue,omitempty"`
	NewValue document.Value  `json:"newValue"`
}

// Fields compares two documents and returns the differences visible from
// current's side. It walks current's keys only, in sorted order:
//
//   - a key absent from previous is reported as added, with the whole
//     subtree as the new value;
//   - when both sides hold mappings the walk recurses;
//   - otherwise unequal values are reported as modified, sequences
//     compared as single units rather than per element.
//
// The walk is directional: a key deleted from a nested mapping in current
// produces no record. Entity-level removal is the collection differ's job;
// nested deletions surface only through whole-item equality.
//
// A non-mapping current yields no diffs. Inputs are never mutated.
func Fields(previous, current document.Value) []FieldDiff {
	if !current.IsMapping() {
		return nil
	}
	var diffs []FieldDiff
	walkFields(previous, current, "", &diffs)
	return diffs
}

func walkFields(previous, current document.Value, prefix string, out *[]FieldDiff) {
	for _, key := range current.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		currVal, _ := current.Get(key)

		prevVal, ok := previous.Get(key)
		if !ok {
			*out = append(*out, FieldDiff{Path: path, Kind: KindAdded, NewValue: currVal})
			continue
		}
		if prevVal.IsMapping() && currVal.IsMapping() {
			walkFields(prevVal, currVal, path, out)
			continue
		}
		if !prevVal.Equal(currVal) {
			old := prevVal
			*out = append(*out, FieldDiff{Path: path, Kind: KindModified, OldValue: &old, NewValue: currVal})
		}
	}
}

// ModifiedItem pairs an item id with its field-level changes. Changes can be
// empty while the item still counts as modified: whole-item equality sees
// nested deletions that the directional field walk does not.
type ModifiedItem struct {
	ID      string      `json:"id"`
	Changes []FieldDiff `json:"changes"`
}

// ChangeSet partitions the ids of two adjacent snapshots into new, removed
// and modified items.
type ChangeSet struct {
	NewItems      []monitor.Item
	RemovedItems  []monitor.Item
	ModifiedItems []ModifiedItem
}

// Collections compares two item collections by identity. New and modified
// items follow current's order, removed items follow previous's order. An id
// present on both sides is modified when the items are not deep-equal.
func Collections(previous, current []monitor.Item) ChangeSet {
	prevByID := make(map[string]monitor.Item, len(previous))
	for _, it := range previous {
		prevByID[it.ID] = it
	}
	currIDs := make(map[string]struct{}, len(current))

	var cs ChangeSet
	for _, it := range current {
		currIDs[it.ID] = struct{}{}
		prevItem, ok := prevByID[it.ID]
		if !ok {
			cs.NewItems = append(cs.NewItems, it)
			continue
		}
		if prevItem.Doc.Equal(it.Doc) {
			continue
		}
		changes := Fields(prevItem.Doc, it.Doc)
		if changes == nil {
			changes = []FieldDiff{}
		}
		cs.ModifiedItems = append(cs.ModifiedItems, ModifiedItem{ID: it.ID, Changes: changes})
	}
	for _, it := range previous {
		if _, ok := currIDs[it.ID]; !ok {
			cs.RemovedItems = append(cs.RemovedItems, it)
		}
	}
	return cs
}
