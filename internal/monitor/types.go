package monitor

import (
	"time"

	"github.com/ppiankov/driftwatch/internal/document"
)

// IDField is the well-known top-level field carrying an item's identity.
const IDField = "id"

// Item is one identity-bearing entity within a snapshot. ID duplicates the
// document's id field for direct access; Doc holds the full mapping,
// id included.
type Item struct {
	ID  string
	Doc document.Value
}

// NewItem builds an Item from a mapping document, reading the identity from
// the well-known id field. The second return is false when doc is not a
// mapping or carries no string id.
func NewItem(doc document.Value) (Item, bool) {
	idVal, ok := doc.Get(IDField)
	if !ok || idVal.Kind() != document.KindString || idVal.StringValue() == "" {
		return Item{}, false
	}
	return Item{ID: idVal.StringValue(), Doc: doc}, true
}

// Title returns the item's title field when it is a string, else "".
func (it Item) Title() string {
	v, ok := it.Doc.Get("title")
	if !ok || v.Kind() != document.KindString {
		return ""
	}
	return v.StringValue()
}

// Snapshot is one timestamped, immutable capture of the feed's item
// collection. Iteration starts at 1 and increases strictly within a run.
type Snapshot struct {
	Iteration int
	Timestamp time.Time
	Items     []Item
}
