package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value представляет типизированное значение поля документа.
// Ровно одно из полей должно быть задано; пустой Value кодируется как nullValue.
type Value struct {
	StringValue    *string     `json:"-"`
	IntegerValue   *int64      `json:"-"`
	DoubleValue    *float64    `json:"-"`
	BooleanValue   *bool       `json:"-"`
	TimestampValue *string     `json:"-"`
	ReferenceValue *string     `json:"-"`
	MapValue       *MapValue   `json:"-"`
	ArrayValue     *ArrayValue `json:"-"`
}

// MapValue is a nested map of named values.
type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// ArrayValue is an ordered list of values.
type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

// StringVal returns a stringValue.
func StringVal(s string) Value { return Value{StringValue: &s} }

// IntegerVal returns an integerValue.
func IntegerVal(i int64) Value { return Value{IntegerValue: &i} }

// DoubleVal returns a doubleValue.
func DoubleVal(f float64) Value { return Value{DoubleValue: &f} }

// BoolVal returns a booleanValue.
func BoolVal(b bool) Value { return Value{BooleanValue: &b} }

// TimestampVal returns a timestampValue holding an RFC 3339 string.
func TimestampVal(s string) Value { return Value{TimestampValue: &s} }

// ReferenceVal returns a referenceValue holding a full document name.
func ReferenceVal(name string) Value { return Value{ReferenceValue: &name} }

// NullVal returns a nullValue.
func NullVal() Value { return Value{} }

// MapVal returns a mapValue.
func MapVal(f map[string]Value) Value {
	if f == nil {
		f = map[string]Value{}
	}
	return Value{MapValue: &MapValue{Fields: f}}
}

// ArrayVal returns an arrayValue.
func ArrayVal(v []Value) Value { return Value{ArrayValue: &ArrayValue{Values: v}} }

// IsNull reports whether no variant is set.
func (v Value) IsNull() bool {
	return v.StringValue == nil && v.IntegerValue == nil && v.DoubleValue == nil &&
		v.BooleanValue == nil && v.TimestampValue == nil && v.ReferenceValue == nil && v.MapValue == nil && v.ArrayValue == nil
}

// MarshalJSON кодирует значение в форму {"<kind>Value": ...}.
// integerValue передается строкой, как это делает REST API.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.StringValue != nil:
		return marshalKind("stringValue", *v.StringValue)
	case v.IntegerValue != nil:
		return marshalKind("integerValue", strconv.FormatInt(*v.IntegerValue, 10))
	case v.DoubleValue != nil:
		return marshalKind("doubleValue", *v.DoubleValue)
	case v.BooleanValue != nil:
		return marshalKind("booleanValue", *v.BooleanValue)
	case v.TimestampValue != nil:
		return marshalKind("timestampValue", *v.TimestampValue)
	case v.ReferenceValue != nil:
		return marshalKind("referenceValue", *v.ReferenceValue)
	case v.MapValue != nil:
		return marshalKind("mapValue", v.MapValue)
	case v.ArrayValue != nil:
		return marshalKind("arrayValue", v.ArrayValue)
	default:
		return []byte(`{"nullValue":null}`), nil
	}
}

func marshalKind(kind string, val any) ([]byte, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	var buf bytes.Buffer
	buf.WriteString(`{"`)
	buf.WriteString(kind)
	buf.WriteString(`":`)
	buf.Write(data)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON принимает integerValue как строкой, так и числом.
// Неизвестные варианты (bytesValue, geoPointValue) декодируются как null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	*v = Value{}

	if r, ok := raw["stringValue"]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("stringValue: %w", err)
		}
		v.StringValue = &s
		return nil
	}
	if r, ok := raw["integerValue"]; ok {
		i, err := decodeInteger(r)
		if err != nil {
			return fmt.Errorf("integerValue: %w", err)
		}
		v.IntegerValue = &i
		return nil
	}
	if r, ok := raw["doubleValue"]; ok {
		var f float64
		if err := json.Unmarshal(r, &f); err != nil {
			return fmt.Errorf("doubleValue: %w", err)
		}
		v.DoubleValue = &f
		return nil
	}
	if r, ok := raw["booleanValue"]; ok {
		var b bool
		if err := json.Unmarshal(r, &b); err != nil {
			return fmt.Errorf("booleanValue: %w", err)
		}
		v.BooleanValue = &b
		return nil
	}
	if r, ok := raw["timestampValue"]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("timestampValue: %w", err)
		}
		v.TimestampValue = &s
		return nil
	}
	if r, ok := raw["referenceValue"]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("referenceValue: %w", err)
		}
		v.ReferenceValue = &s
		return nil
	}
	if r, ok := raw["mapValue"]; ok {
		var m MapValue
		if err := json.Unmarshal(r, &m); err != nil {
			return fmt.Errorf("mapValue: %w", err)
		}
		if m.Fields == nil {
			m.Fields = map[string]Value{}
		}
		v.MapValue = &m
		return nil
	}
	if r, ok := raw["arrayValue"]; ok {
		var a ArrayValue
		if err := json.Unmarshal(r, &a); err != nil {
			return fmt.Errorf("arrayValue: %w", err)
		}
		v.ArrayValue = &a
		return nil
	}

	return nil
}

func decodeInteger(r json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	var n json.Number
	if err := json.Unmarshal(r, &n); err != nil {
		return 0, err
	}
	return n.Int64()
}
