package diff

import (
	"testing"

	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

func doc(t *testing.T, fields map[string]document.Value) document.Value {
	t.Helper()
	return document.Mapping(fields)
}

func item(t *testing.T, fields map[string]document.Value) monitor.Item {
	t.Helper()
	it, ok := monitor.NewItem(document.Mapping(fields))
	if !ok {
		t.Fatal("test item needs a string id field")
	}
	return it
}

func TestFields_IdenticalDocuments(t *testing.T) {
	x := doc(t, map[string]document.Value{
		"a":    document.Number(1),
		"meta": document.Mapping(map[string]document.Value{"b": document.String("s")}),
		"tags": document.Sequence(document.String("x")),
	})

	if diffs := Fields(x, x); len(diffs) != 0 {
		t.Errorf("Fields(X, X) = %v, want none", diffs)
	}
}

func TestFields_AddedAndModified(t *testing.T) {
	prev := doc(t, map[string]document.Value{
		"likes": document.Number(2),
	})
	curr := doc(t, map[string]document.Value{
		"likes": document.Number(5),
		"views": document.Number(10),
	})

	diffs := Fields(prev, curr)
	if len(diffs) != 2 {
		t.Fatalf("diffs = %v, want 2 entries", diffs)
	}

	// Sorted key order: likes before views.
	if diffs[0].Path != "likes" || diffs[0].Kind != KindModified {
		t.Errorf("diffs[0] = %+v, want modified likes", diffs[0])
	}
	if diffs[0].OldValue == nil || !diffs[0].OldValue.Equal(document.Number(2)) {
		t.Errorf("likes oldValue = %v, want 2", diffs[0].OldValue)
	}
	if !diffs[0].NewValue.Equal(document.Number(5)) {
		t.Errorf("likes newValue = %v, want 5", diffs[0].NewValue)
	}

	if diffs[1].Path != "views" || diffs[1].Kind != KindAdded {
		t.Errorf("diffs[1] = %+v, want added views", diffs[1])
	}
	if diffs[1].OldValue != nil {
		t.Errorf("added diff carries oldValue %v", diffs[1].OldValue)
	}
}

func TestFields_NestedPaths(t *testing.T) {
	prev := doc(t, map[string]document.Value{
		"meta": document.Mapping(map[string]document.Value{
			"likes": document.Number(1),
		}),
	})
	curr := doc(t, map[string]document.Value{
		"meta": document.Mapping(map[string]document.Value{
			"likes": document.Number(2),
			"tag":   document.String("new"),
		}),
	})

	diffs := Fields(prev, curr)
	if len(diffs) != 2 {
		t.Fatalf("diffs = %v, want 2 entries", diffs)
	}
	if diffs[0].Path != "meta.likes" || diffs[0].Kind != KindModified {
		t.Errorf("diffs[0] = %+v, want modified meta.likes", diffs[0])
	}
	if diffs[1].Path != "meta.tag" || diffs[1].Kind != KindAdded {
		t.Errorf("diffs[1] = %+v, want added meta.tag", diffs[1])
	}
}

func TestFields_SequenceComparedAsUnit(t *testing.T) {
	prev := doc(t, map[string]document.Value{
		"tags": document.Sequence(document.String("a"), document.String("b")),
	})
	curr := doc(t, map[string]document.Value{
		"tags": document.Sequence(document.String("a"), document.String("c")),
	})

	diffs := Fields(prev, curr)
	if len(diffs) != 1 {
		t.Fatalf("diffs = %v, want exactly 1 entry for the whole sequence", diffs)
	}
	if diffs[0].Path != "tags" || diffs[0].Kind != KindModified {
		t.Errorf("diff = %+v, want modified tags", diffs[0])
	}
}

func TestFields_MappingReplacedByScalar(t *testing.T) {
	prev := doc(t, map[string]document.Value{
		"meta": document.Mapping(map[string]document.Value{"a": document.Number(1)}),
	})
	curr := doc(t, map[string]document.Value{
		"meta": document.String("gone flat"),
	})

	diffs := Fields(prev, curr)
	if len(diffs) != 1 || diffs[0].Path != "meta" || diffs[0].Kind != KindModified {
		t.Fatalf("diffs = %v, want one modified meta", diffs)
	}
}

// A key removed from a nested mapping is invisible: the walk only follows
// current's keys. This is the documented directional contract.
func TestFields_NestedDeletionInvisible(t *testing.T) {
	a := doc(t, map[string]document.Value{
		"meta": document.Mapping(map[string]document.Value{
			"a": document.Number(1),
			"b": document.Number(2),
		}),
	})
	b := doc(t, map[string]document.Value{
		"meta": document.Mapping(map[string]document.Value{
			"a": document.Number(1),
		}),
	})

	if a.Equal(b) {
		t.Fatal("documents should differ")
	}
	if diffs := Fields(a, b); len(diffs) != 0 {
		t.Errorf("Fields(A, B) = %v, want none despite the removed nested key", diffs)
	}
}

func TestFields_NonMappingCurrent(t *testing.T) {
	prev := doc(t, map[string]document.Value{"a": document.Number(1)})

	if diffs := Fields(prev, document.Number(7)); diffs != nil {
		t.Errorf("Fields with scalar current = %v, want nil", diffs)
	}
	if diffs := Fields(prev, document.Sequence(document.Number(1))); diffs != nil {
		t.Errorf("Fields with sequence current = %v, want nil", diffs)
	}
}

func TestFields_NonMappingPrevious(t *testing.T) {
	curr := doc(t, map[string]document.Value{"a": document.Number(1)})

	diffs := Fields(document.Null(), curr)
	if len(diffs) != 1 || diffs[0].Kind != KindAdded || diffs[0].Path != "a" {
		t.Fatalf("diffs = %v, want everything added", diffs)
	}
}

func TestCollections_EndToEnd(t *testing.T) {
	s1 := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("a"), "likes": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("b"), "likes": document.Number(2)}),
	}
	s2 := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("b"), "likes": document.Number(5)}),
		item(t, map[string]document.Value{"id": document.String("c"), "likes": document.Number(1)}),
	}

	cs := Collections(s1, s2)

	if len(cs.NewItems) != 1 || cs.NewItems[0].ID != "c" {
		t.Errorf("newItems = %v, want [c]", cs.NewItems)
	}
	if len(cs.RemovedItems) != 1 || cs.RemovedItems[0].ID != "a" {
		t.Errorf("removedItems = %v, want [a]", cs.RemovedItems)
	}
	if len(cs.ModifiedItems) != 1 || cs.ModifiedItems[0].ID != "b" {
		t.Fatalf("modifiedItems = %v, want [b]", cs.ModifiedItems)
	}

	changes := cs.ModifiedItems[0].Changes
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want 1 entry", changes)
	}
	if changes[0].Path != "likes" || changes[0].Kind != KindModified {
		t.Errorf("change = %+v, want modified likes", changes[0])
	}
	if changes[0].OldValue == nil || !changes[0].OldValue.Equal(document.Number(2)) {
		t.Errorf("oldValue = %v, want 2", changes[0].OldValue)
	}
	if !changes[0].NewValue.Equal(document.Number(5)) {
		t.Errorf("newValue = %v, want 5", changes[0].NewValue)
	}
}

// New and removed sets are disjoint by construction: each id lands in
// exactly one bucket.
func TestCollections_NewRemovedDisjoint(t *testing.T) {
	prev := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("a")}),
		item(t, map[string]document.Value{"id": document.String("b")}),
	}
	curr := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("b")}),
		item(t, map[string]document.Value{"id": document.String("c")}),
		item(t, map[string]document.Value{"id": document.String("d")}),
	}

	cs := Collections(prev, curr)

	newIDs := make(map[string]bool)
	for _, it := range cs.NewItems {
		newIDs[it.ID] = true
	}
	for _, it := range cs.RemovedItems {
		if newIDs[it.ID] {
			t.Errorf("id %s in both newItems and removedItems", it.ID)
		}
	}
	if len(cs.NewItems)-len(cs.RemovedItems) != len(curr)-len(prev) {
		t.Errorf("new-removed = %d, want count difference %d",
			len(cs.NewItems)-len(cs.RemovedItems), len(curr)-len(prev))
	}
}

// Whole-item inequality with an empty field diff list: the nested deletion
// flags the item as modified, but the directional walk records nothing.
func TestCollections_ModifiedWithEmptyChanges(t *testing.T) {
	prev := []monitor.Item{
		item(t, map[string]document.Value{
			"id": document.String("a"),
			"meta": document.Mapping(map[string]document.Value{
				"x": document.Number(1),
				"y": document.Number(2),
			}),
		}),
	}
	curr := []monitor.Item{
		item(t, map[string]document.Value{
			"id": document.String("a"),
			"meta": document.Mapping(map[string]document.Value{
				"x": document.Number(1),
			}),
		}),
	}

	cs := Collections(prev, curr)

	if len(cs.NewItems) != 0 || len(cs.RemovedItems) != 0 {
		t.Fatalf("unexpected new/removed items: %v / %v", cs.NewItems, cs.RemovedItems)
	}
	if len(cs.ModifiedItems) != 1 {
		t.Fatalf("modifiedItems = %v, want the item with the nested deletion", cs.ModifiedItems)
	}
	mod := cs.ModifiedItems[0]
	if mod.ID != "a" {
		t.Errorf("modified id = %s, want a", mod.ID)
	}
	if mod.Changes == nil {
		t.Error("changes should be an empty list, not nil")
	}
	if len(mod.Changes) != 0 {
		t.Errorf("changes = %v, want empty", mod.Changes)
	}
}

func TestCollections_Ordering(t *testing.T) {
	prev := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("r2"), "v": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("m1"), "v": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("r1"), "v": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("m2"), "v": document.Number(1)}),
	}
	curr := []monitor.Item{
		item(t, map[string]document.Value{"id": document.String("n2"), "v": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("m2"), "v": document.Number(2)}),
		item(t, map[string]document.Value{"id": document.String("n1"), "v": document.Number(1)}),
		item(t, map[string]document.Value{"id": document.String("m1"), "v": document.Number(2)}),
	}

	cs := Collections(prev, curr)

	// New and modified follow current's order, removed follows previous's.
	if len(cs.NewItems) != 2 || cs.NewItems[0].ID != "n2" || cs.NewItems[1].ID != "n1" {
		t.Errorf("newItems order = %v, want [n2 n1]", cs.NewItems)
	}
	if len(cs.ModifiedItems) != 2 || cs.ModifiedItems[0].ID != "m2" || cs.ModifiedItems[1].ID != "m1" {
		t.Errorf("modifiedItems order = %v, want [m2 m1]", cs.ModifiedItems)
	}
	if len(cs.RemovedItems) != 2 || cs.RemovedItems[0].ID != "r2" || cs.RemovedItems[1].ID != "r1" {
		t.Errorf("removedItems order = %v, want [r2 r1]", cs.RemovedItems)
	}
}

func TestCollections_Empty(t *testing.T) {
	cs := Collections(nil, nil)
	if len(cs.NewItems) != 0 || len(cs.RemovedItems) != 0 || len(cs.ModifiedItems) != 0 {
		t.Errorf("Collections(nil, nil) = %+v, want empty", cs)
	}
}
