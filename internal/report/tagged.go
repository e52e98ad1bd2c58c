package report

import (
	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

// TaggedByField builds the tagged predicate from configuration: an item is
// tagged when the named field holds one of the accepted values, or, for a
// sequence field, contains one of them. An empty field or value list yields
// nil, meaning nothing counts as tagged.
func TaggedByField(field string, values []string) TaggedFunc {
	if field == "" || len(values) == 0 {
		return nil
	}
	accepted := make(map[string]struct{}, len(values))
	for _, v := range values {
		accepted[v] = struct{}{}
	}
	return func(it monitor.Item) bool {
		v, ok := it.Doc.Get(field)
		if !ok {
			return false
		}
		switch v.Kind() {
		case document.KindString:
			_, ok := accepted[v.StringValue()]
			return ok
		case document.KindSequence:
			for i := 0; i < v.Len(); i++ {
				elem := v.Index(i)
				if elem.Kind() != document.KindString {
					continue
				}
				if _, ok := accepted[elem.StringValue()]; ok {
					return true
				}
			}
		}
		return false
	}
}
