// Package codec converts between plain Go values and the typed document
// value representation used on the wire.
package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/iudanet/finsync/pkg/api"
)

// Encode converts v into a typed value.
//
// Strings that look like ISO-8601 timestamps become timestampValue; see
// LooksLikeTimestamp. Unknown types fall back to their fmt representation.
func Encode(v any) api.Value {
	switch x := v.(type) {
	case nil:
		return api.NullVal()
	case api.Value:
		return x
	case bool:
		return api.BoolVal(x)
	case string:
		if LooksLikeTimestamp(x) {
			return api.TimestampVal(x)
		}
		return api.StringVal(x)
	case json.Number:
		return encodeNumber(x)
	case int:
		return api.IntegerVal(int64(x))
	case int8:
		return api.IntegerVal(int64(x))
	case int16:
		return api.IntegerVal(int64(x))
	case int32:
		return api.IntegerVal(int64(x))
	case int64:
		return api.IntegerVal(x)
	case uint:
		return api.IntegerVal(int64(x))
	case uint8:
		return api.IntegerVal(int64(x))
	case uint16:
		return api.IntegerVal(int64(x))
	case uint32:
		return api.IntegerVal(int64(x))
	case uint64:
		return api.IntegerVal(int64(x))
	case float32:
		return api.DoubleVal(float64(x))
	case float64:
		return api.DoubleVal(x)
	case time.Time:
		return api.TimestampVal(api.FormatTimestamp(x))
	case *time.Time:
		if x == nil {
			return api.NullVal()
		}
		return api.TimestampVal(api.FormatTimestamp(*x))
	case map[string]any:
		return api.MapVal(EncodeFields(x))
	case []any:
		values := make([]api.Value, 0, len(x))
		for _, item := range x {
			values = append(values, Encode(item))
		}
		return api.ArrayVal(values)
	case []string:
		values := make([]api.Value, 0, len(x))
		for _, item := range x {
			values = append(values, Encode(item))
		}
		return api.ArrayVal(values)
	}

	// Типизированные срезы и map через reflect
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return api.NullVal()
		}
		return Encode(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		values := make([]api.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			values = append(values, Encode(rv.Index(i).Interface()))
		}
		return api.ArrayVal(values)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			fields := make(map[string]api.Value, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				fields[iter.Key().String()] = Encode(iter.Value().Interface())
			}
			return api.MapVal(fields)
		}
	}

	return api.StringVal(fmt.Sprint(v))
}

// EncodeFields encodes every entry of m.
func EncodeFields(m map[string]any) map[string]api.Value {
	fields := make(map[string]api.Value, len(m))
	for k, v := range m {
		fields[k] = Encode(v)
	}
	return fields
}

func encodeNumber(n json.Number) api.Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return api.IntegerVal(i)
		}
	}
	f, err := n.Float64()
	if err != nil {
		return api.StringVal(s)
	}
	return api.DoubleVal(f)
}

// LooksLikeTimestamp reports whether s should travel as a timestampValue:
// it ends with "Z", or it is at least 19 bytes long and ends with a
// numeric offset of the form "+hh:mm" / "-hh:mm".
func LooksLikeTimestamp(s string) bool {
	if strings.HasSuffix(s, "Z") {
		return true
	}
	n := len(s)
	if n >= 19 && (s[n-6] == '+' || s[n-6] == '-') && s[n-3] == ':' {
		return true
	}
	return false
}

// Decode converts a typed value back to plain Go data.
// Integers decode to int64, timestamps stay strings, maps become
// map[string]any and arrays []any.
func Decode(v api.Value) any {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		return *v.IntegerValue
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.TimestampValue != nil:
		return *v.TimestampValue
	case v.ReferenceValue != nil:
		return *v.ReferenceValue
	case v.MapValue != nil:
		return DecodeFields(v.MapValue.Fields)
	case v.ArrayValue != nil:
		items := make([]any, 0, len(v.ArrayValue.Values))
		for _, item := range v.ArrayValue.Values {
			items = append(items, Decode(item))
		}
		return items
	default:
		return nil
	}
}

// DecodeFields decodes every field of a map value.
func DecodeFields(fields map[string]api.Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = Decode(v)
	}
	return out
}

// DecodeDocument decodes a document's fields and adds "id", the last
// segment of the document name. A field named "id" is overwritten.
func DecodeDocument(doc api.Document) map[string]any {
	out := DecodeFields(doc.Fields)
	out["id"] = doc.ID()
	return out
}
