package query

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/index"
	"github.com/ssargent/fixedrec/pkg/instrument"
)

// Queryable fields
const (
	FieldID         = "id"
	FieldSecurityID = "securityId"
	FieldCusip      = "cusip"
	FieldEnabled    = "enabled"
)

// Operators
const (
	OpEqual        = "="
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpPrefix       = "^="
)

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string      // Field name to query (e.g., "securityId", "cusip")
	Operator string      // Comparison operator: "=", ">", "<", ">=", "<=", "^="
	Value    interface{} // Value to compare against
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if q.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	validOps := map[string]bool{
		OpEqual: true, OpGreater: true, OpLess: true, OpGreaterEqual: true, OpLessEqual: true, OpPrefix: true,
	}
	if !validOps[q.Operator] {
		return fmt.Errorf("invalid operator: %s", q.Operator)
	}

	switch q.Field {
	case FieldID, FieldEnabled:
		if q.Operator != OpEqual {
			return fmt.Errorf("field %s only supports %s", q.Field, OpEqual)
		}
	case FieldSecurityID:
		if q.Operator == OpPrefix {
			return fmt.Errorf("operator %s only applies to %s", OpPrefix, FieldCusip)
		}
	case FieldCusip:
	default:
		return fmt.Errorf("field %s is not indexed", q.Field)
	}
	return nil
}

// ParseFieldQuery builds a query from text, converting raw to the field's type
func ParseFieldQuery(field, operator, raw string) (FieldQuery, error) {
	q := FieldQuery{Field: field, Operator: operator}
	if err := q.Validate(); err != nil {
		return q, err
	}

	switch field {
	case FieldID, FieldSecurityID:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return q, fmt.Errorf("invalid %s value %q: %w", field, raw, err)
		}
		q.Value = int32(v)
	case FieldEnabled:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid %s value %q: %w", field, raw, err)
		}
		q.Value = v
	default:
		q.Value = raw
	}
	return q, nil
}

// toInt32 accepts the integer forms produced by callers and JSON decoding
func toInt32(v interface{}) (int32, error) {
	var n int64
	switch x := v.(type) {
	case int32:
		return x, nil
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("value %v is not an integer", x)
		}
		n = int64(x)
	case string:
		parsed, err := strconv.ParseInt(x, 10, 32)
		if err != nil {
			return 0, err
		}
		n = parsed
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("value %d out of int32 range", n)
	}
	return int32(n), nil
}

// QueryResult represents a single query result
type QueryResult struct {
	Offset int             // Byte offset of the record in the slab
	View   instrument.View // Read-only view of the record
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Err() error
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error)
}

// Source is the record storage a query engine reads from
type Source interface {
	Indexes() *index.Manager
	Slab() buffer.Reader
	OffsetOf(id int32) (int, bool)
}
