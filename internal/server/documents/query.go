package documents

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/iudanet/finsync/pkg/api"
)

// typeOrder ranks value kinds the way the document store sorts mixed types
func typeOrder(v api.Value) int {
	switch {
	case v.BooleanValue != nil:
		return 1
	case v.IntegerValue != nil, v.DoubleValue != nil:
		return 2
	case v.TimestampValue != nil:
		return 3
	case v.StringValue != nil:
		return 4
	case v.ReferenceValue != nil:
		return 5
	case v.ArrayValue != nil:
		return 6
	case v.MapValue != nil:
		return 7
	default:
		return 0
	}
}

// CompareValues orders two values: first by kind, then by content.
// Integers and doubles compare numerically with each other.
func CompareValues(a, b api.Value) int {
	if c := cmp.Compare(typeOrder(a), typeOrder(b)); c != 0 {
		return c
	}

	switch {
	case a.BooleanValue != nil:
		return compareBool(*a.BooleanValue, *b.BooleanValue)
	case a.IntegerValue != nil || a.DoubleValue != nil:
		if a.IntegerValue != nil && b.IntegerValue != nil {
			return cmp.Compare(*a.IntegerValue, *b.IntegerValue)
		}
		return compareFloat(number(a), number(b))
	case a.TimestampValue != nil:
		return compareTimestamps(*a.TimestampValue, *b.TimestampValue)
	case a.StringValue != nil:
		return strings.Compare(*a.StringValue, *b.StringValue)
	case a.ReferenceValue != nil:
		return comparePaths(*a.ReferenceValue, *b.ReferenceValue)
	case a.ArrayValue != nil:
		return slices.CompareFunc(a.ArrayValue.Values, b.ArrayValue.Values, CompareValues)
	case a.MapValue != nil:
		return compareMaps(a.MapValue.Fields, b.MapValue.Fields)
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func number(v api.Value) float64 {
	if v.IntegerValue != nil {
		return float64(*v.IntegerValue)
	}
	return *v.DoubleValue
}

// compareFloat ставит NaN перед всеми числами
func compareFloat(a, b float64) int {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	case math.IsNaN(b):
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

func compareTimestamps(a, b string) int {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

// comparePaths compares names segment by segment so that "a/b" < "a/b/c" < "a/c"
func comparePaths(a, b string) int {
	return slices.Compare(strings.Split(a, "/"), strings.Split(b, "/"))
}

func compareMaps(a, b map[string]api.Value) int {
	ka := sortedKeys(a)
	kb := sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := CompareValues(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ka), len(kb))
}

func sortedKeys(m map[string]api.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// fieldValue resolves a dotted field path; __name__ yields the document name
func fieldValue(doc *api.Document, path string) (api.Value, bool) {
	if path == api.FieldName {
		return api.ReferenceVal(doc.Name), true
	}

	fields := doc.Fields
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := fields[part]
		if !ok {
			return api.Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if v.MapValue == nil {
			return api.Value{}, false
		}
		fields = v.MapValue.Fields
	}
	return api.Value{}, false
}

// matches evaluates a single field filter. Range operators only match
// values of the same kind as the operand.
func matches(doc *api.Document, f *api.FieldFilter) (bool, error) {
	v, ok := fieldValue(doc, f.Field.FieldPath)
	if !ok {
		return false, nil
	}

	sameKind := typeOrder(v) == typeOrder(f.Value)
	c := CompareValues(v, f.Value)

	switch f.Op {
	case api.OpEqual:
		return c == 0, nil
	case api.OpGreaterThan:
		return sameKind && c > 0, nil
	case api.OpGreaterThanOrEqual:
		return sameKind && c >= 0, nil
	case api.OpLessThan:
		return sameKind && c < 0, nil
	case api.OpLessThanOrEqual:
		return sameKind && c <= 0, nil
	default:
		return false, fmt.Errorf("%w: unsupported operator %q", ErrInvalidArgument, f.Op)
	}
}

// effectiveOrder appends the implicit __name__ ordering, which takes the
// direction of the last explicit order
func effectiveOrder(orders []api.Order) []api.Order {
	out := slices.Clone(orders)
	dir := api.DirectionAscending
	for _, o := range orders {
		if o.Field.FieldPath == api.FieldName {
			return out
		}
		dir = o.Direction
	}
	if dir == "" {
		dir = api.DirectionAscending
	}
	return append(out, api.Order{Field: api.FieldReference{FieldPath: api.FieldName}, Direction: dir})
}

func compareByOrder(a, b *api.Document, orders []api.Order) int {
	for _, o := range orders {
		va, _ := fieldValue(a, o.Field.FieldPath)
		vb, _ := fieldValue(b, o.Field.FieldPath)
		c := CompareValues(va, vb)
		if o.Direction == api.DirectionDescending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareToCursor compares the document position with the cursor values,
// which cover a prefix of the orders
func compareToCursor(doc *api.Document, cursor *api.Cursor, orders []api.Order) int {
	for i, cv := range cursor.Values {
		if i >= len(orders) {
			break
		}
		v, _ := fieldValue(doc, orders[i].Field.FieldPath)
		c := CompareValues(v, cv)
		if orders[i].Direction == api.DirectionDescending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Evaluate applies where, orderBy, startAt and limit to the documents of
// one collection. Documents missing an ordered field are excluded.
func Evaluate(docs []api.Document, q *api.StructuredQuery) ([]api.Document, error) {
	if q.Limit != nil && *q.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidArgument)
	}
	for _, o := range q.OrderBy {
		switch o.Direction {
		case "", api.DirectionAscending, api.DirectionDescending:
		default:
			return nil, fmt.Errorf("%w: unsupported direction %q", ErrInvalidArgument, o.Direction)
		}
	}

	orders := effectiveOrder(q.OrderBy)

	out := make([]api.Document, 0, len(docs))
	for i := range docs {
		doc := &docs[i]

		if q.Where != nil && q.Where.FieldFilter != nil {
			ok, err := matches(doc, q.Where.FieldFilter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		if !hasFields(doc, orders) {
			continue
		}
		out = append(out, *doc)
	}

	slices.SortStableFunc(out, func(a, b api.Document) int {
		return compareByOrder(&a, &b, orders)
	})

	if q.StartAt != nil && len(q.StartAt.Values) > 0 {
		start := len(out)
		for i := range out {
			c := compareToCursor(&out[i], q.StartAt, orders)
			if c > 0 || (c == 0 && q.StartAt.Before) {
				start = i
				break
			}
		}
		out = out[start:]
	}

	if q.Limit != nil && *q.Limit < len(out) {
		out = out[:*q.Limit]
	}

	return out, nil
}

func hasFields(doc *api.Document, orders []api.Order) bool {
	for _, o := range orders {
		if _, ok := fieldValue(doc, o.Field.FieldPath); !ok {
			return false
		}
	}
	return true
}
