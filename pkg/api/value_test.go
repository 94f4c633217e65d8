package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "null", value: NullVal(), want: `{"nullValue":null}`},
		{name: "integer as string", value: IntegerVal(42), want: `{"integerValue":"42"}`},
		{name: "timestamp", value: TimestampVal("2026-01-02T03:04:05Z"), want: `{"timestampValue":"2026-01-02T03:04:05Z"}`},
		{name: "empty map", value: MapVal(nil), want: `{"mapValue":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestValue_UnmarshalJSON_IntegerForms(t *testing.T) {
	var fromString, fromNumber Value
	require.NoError(t, json.Unmarshal([]byte(`{"integerValue":"-17"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"integerValue":-17}`), &fromNumber))

	require.NotNil(t, fromString.IntegerValue)
	require.NotNil(t, fromNumber.IntegerValue)
	assert.Equal(t, int64(-17), *fromString.IntegerValue)
	assert.Equal(t, int64(-17), *fromNumber.IntegerValue)
}

func TestValue_UnmarshalJSON_Unknown(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"geoPointValue":{"latitude":1,"longitude":2}}`), &v))
	assert.True(t, v.IsNull())

	require.NoError(t, json.Unmarshal([]byte(`{"referenceValue":"projects/p/databases/(default)/documents/x/y"}`), &v))
	require.NotNil(t, v.ReferenceValue)
	assert.Equal(t, "y", LastSegment(*v.ReferenceValue))

	err := json.Unmarshal([]byte(`{"integerValue":"abc"}`), &v)
	assert.Error(t, err)
}

func TestDocument_ID(t *testing.T) {
	doc := Document{Name: UserDocumentPath("demo", "u1", CollectionEvents, "evt-1")}
	assert.Equal(t, "projects/demo/databases/(default)/documents/users/u1/events/evt-1", doc.Name)
	assert.Equal(t, "evt-1", doc.ID())
	assert.Equal(t, "plain", LastSegment("plain"))
}

func TestRunQueryRequest_Encoding(t *testing.T) {
	q := NewCollectionQuery(CollectionTransactions, 1000)
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"structuredQuery":{"from":[{"collectionId":"transactions"}],"limit":1000}}`, string(data))
}
