package api

// Операторы fieldFilter
const (
	OpEqual              = "EQUAL"
	OpGreaterThan        = "GREATER_THAN"
	OpGreaterThanOrEqual = "GREATER_THAN_OR_EQUAL"
	OpLessThan           = "LESS_THAN"
	OpLessThanOrEqual    = "LESS_THAN_OR_EQUAL"
)

// Направления сортировки
const (
	DirectionAscending  = "ASCENDING"
	DirectionDescending = "DESCENDING"
)

// RunQueryRequest is the body of a :runQuery call.
type RunQueryRequest struct {
	StructuredQuery StructuredQuery `json:"structuredQuery"`
}

// StructuredQuery selects documents from one collection under the parent path.
type StructuredQuery struct {
	Where   *Filter              `json:"where,omitempty"`
	StartAt *Cursor              `json:"startAt,omitempty"`
	Limit   *int                 `json:"limit,omitempty"`
	From    []CollectionSelector `json:"from"`
	OrderBy []Order              `json:"orderBy,omitempty"`
}

// CollectionSelector names the collection to read.
type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

// FieldReference addresses a field by dotted path.
type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

// Filter holds a single field filter. Composite filters are not used.
type Filter struct {
	FieldFilter *FieldFilter `json:"fieldFilter,omitempty"`
}

// FieldFilter compares one field with a value.
type FieldFilter struct {
	Value Value          `json:"value"`
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
}

// Order sorts by one field.
type Order struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction,omitempty"`
}

// Cursor positions a query relative to the orderBy values.
// Before=false means results start right after the cursor position.
type Cursor struct {
	Values []Value `json:"values"`
	Before bool    `json:"before"`
}

// RunQueryResponseRow is one element of the streamed :runQuery answer.
// Rows without a document carry only progress information.
type RunQueryResponseRow struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}

// NewCollectionQuery returns a query over collection with an optional limit (0 = none).
func NewCollectionQuery(collection string, limit int) RunQueryRequest {
	q := RunQueryRequest{
		StructuredQuery: StructuredQuery{
			From: []CollectionSelector{{CollectionID: collection}},
		},
	}
	if limit > 0 {
		q.StructuredQuery.Limit = &limit
	}
	return q
}
