package query

import (
	"context"
	"fmt"
	"math"

	"github.com/ssargent/fixedrec/pkg/codec"
	"github.com/ssargent/fixedrec/pkg/instrument"
)

// SimpleQueryEngine answers field queries from the secondary indexes
type SimpleQueryEngine struct {
	source Source
}

// NewSimpleQueryEngine creates a new query engine
func NewSimpleQueryEngine(source Source) *SimpleQueryEngine {
	return &SimpleQueryEngine{source: source}
}

// ExecuteQuery executes a single field query
func (qe *SimpleQueryEngine) ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		offsets []int
		err     error
	)
	switch query.Field {
	case FieldID:
		offsets, err = qe.executeIDQuery(query)
	case FieldSecurityID:
		offsets, err = qe.executeSecurityQuery(query)
	case FieldCusip:
		offsets, err = qe.executeCusipQuery(query)
	case FieldEnabled:
		offsets, err = qe.executeEnabledQuery(query)
	}
	if err != nil {
		return nil, err
	}

	return &viewIterator{
		ctx:     ctx,
		source:  qe.source,
		offsets: offsets,
		view:    instrument.NewView(),
	}, nil
}

func (qe *SimpleQueryEngine) executeIDQuery(query FieldQuery) ([]int, error) {
	id, err := toInt32(query.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", query.Field, err)
	}
	if off, ok := qe.source.OffsetOf(id); ok {
		return []int{off}, nil
	}
	return nil, nil
}

func (qe *SimpleQueryEngine) executeSecurityQuery(query FieldQuery) ([]int, error) {
	v, err := toInt32(query.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", query.Field, err)
	}

	lo, hi := int32(math.MinInt32), int32(math.MaxInt32)
	switch query.Operator {
	case OpEqual:
		lo, hi = v, v
	case OpGreater:
		if v == math.MaxInt32 {
			return nil, nil
		}
		lo = v + 1
	case OpGreaterEqual:
		lo = v
	case OpLess:
		if v == math.MinInt32 {
			return nil, nil
		}
		hi = v - 1
	case OpLessEqual:
		hi = v
	}
	return qe.source.Indexes().Security().Range(lo, hi), nil
}

func (qe *SimpleQueryEngine) executeCusipQuery(query FieldQuery) ([]int, error) {
	s, ok := query.Value.(string)
	if !ok {
		return nil, fmt.Errorf("invalid %s value: expected string, got %T", query.Field, query.Value)
	}
	s = codec.TrimASCII(s)
	idx := qe.source.Indexes().Cusip()

	switch query.Operator {
	case OpEqual:
		return idx.Exact(s), nil
	case OpPrefix:
		return idx.Prefix(s), nil
	}

	upperBounded := query.Operator == OpLess || query.Operator == OpLessEqual
	var out []int
	idx.Walk(func(cusip string, offsets []int) bool {
		if upperBounded && cusip > s {
			return false // keys are walked in order
		}
		if matchOrdered(query.Operator, cusip, s) {
			out = append(out, offsets...)
		}
		return true
	})
	return out, nil
}

func matchOrdered(op, a, b string) bool {
	switch op {
	case OpGreater:
		return a > b
	case OpGreaterEqual:
		return a >= b
	case OpLess:
		return a < b
	case OpLessEqual:
		return a <= b
	}
	return false
}

func (qe *SimpleQueryEngine) executeEnabledQuery(query FieldQuery) ([]int, error) {
	v, ok := query.Value.(bool)
	if !ok {
		return nil, fmt.Errorf("invalid %s value: expected bool, got %T", query.Field, query.Value)
	}
	return qe.source.Indexes().Enabled().Offsets(v), nil
}

// viewIterator binds one reused view to each matching offset in turn.
// Offsets whose slot no longer holds a valid record are skipped.
type viewIterator struct {
	ctx     context.Context
	source  Source
	offsets []int
	index   int
	view    instrument.View
	current QueryResult
	err     error
}

func (it *viewIterator) Next() bool {
	for it.err == nil && it.index < len(it.offsets) {
		if err := it.ctx.Err(); err != nil {
			it.err = err
			return false
		}
		off := it.offsets[it.index]
		it.index++

		if err := it.view.Bind(it.source.Slab(), off); err != nil {
			continue
		}
		if !it.view.ValidateHeader() {
			continue
		}
		it.current = QueryResult{Offset: off, View: it.view}
		return true
	}
	return false
}

func (it *viewIterator) Result() QueryResult {
	return it.current
}

func (it *viewIterator) Err() error {
	return it.err
}

func (it *viewIterator) Close() error {
	it.offsets = nil
	return nil
}

// Collect drains it into detached snapshots and closes it
func Collect(it QueryIterator) ([]instrument.Snapshot, error) {
	defer it.Close()

	var out []instrument.Snapshot
	for it.Next() {
		out = append(out, it.Result().View.Snapshot())
	}
	return out, it.Err()
}
