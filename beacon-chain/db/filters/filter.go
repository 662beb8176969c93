// Package filters specifies utilities for building a set of data attribute
// filters to be used when filtering data through database queries in practice.
// For example, one can specify a filter query for archived blocks by start slot
// + end slot + step, build a filter as follows, and respond to it accordingly:
//
//	f := filters.NewFilter().SetStartSlot(3).SetEndSlot(5).SetSlotStep(2)
//	for k, v := range f.Filters() {
//	    switch k {
//	    case filters.StartSlot:
//	       // Verify data matches filter criteria...
//	    case filters.EndSlot:
//	       // Verify data matches filter criteria...
//	    }
//	}
package filters

import "github.com/prysmaticlabs/beacon-ingest/consensus-types/primitives"

// FilterType defines an enum which is used as the keys in a map that tracks
// set attribute filters for data as part of the `FilterQuery` struct type.
type FilterType uint8

const (
	// ParentRoot defines a filter for parent roots of blocks.
	ParentRoot FilterType = iota
	// StartSlot is used for range filters of objects by their slot (inclusive).
	StartSlot
	// EndSlot is used for range filters of objects by their slot (exclusive).
	EndSlot
	// SlotStep is used for range filters of objects by their slot in step increments.
	SlotStep
)

// QueryFilter defines a generic interface for type-asserting
// specific filters to use in querying DB objects.
type QueryFilter struct {
	queries map[FilterType]interface{}
}

// NewFilter instantiates a new QueryFilter type used to build filters for
// certain Ethereum data types by attribute.
func NewFilter() *QueryFilter {
	return &QueryFilter{
		queries: make(map[FilterType]interface{}),
	}
}

// Filters returns and underlying map of FilterType to interface{}, giving us
// a copy of the currently set filters which can then be iterated over and type
// asserted for use anywhere.
func (q *QueryFilter) Filters() map[FilterType]interface{} {
	return q.queries
}

// SetParentRoot allows for filtering by the parent root data attribute of an object.
func (q *QueryFilter) SetParentRoot(val [32]byte) *QueryFilter {
	q.queries[ParentRoot] = val
	return q
}

// SetStartSlot enables filtering by all the items that begin at a slot (inclusive).
func (q *QueryFilter) SetStartSlot(val primitives.Slot) *QueryFilter {
	q.queries[StartSlot] = val
	return q
}

// SetEndSlot enables filtering by all the items that end at a slot (exclusive).
func (q *QueryFilter) SetEndSlot(val primitives.Slot) *QueryFilter {
	q.queries[EndSlot] = val
	return q
}

// SetSlotStep enables filtering by slot for every step interval. For example, a slot range query
// for blocks from 0 to 9 with a step of 2 would return objects at slot 0, 2, 4, 6, 8.
func (q *QueryFilter) SetSlotStep(val uint64) *QueryFilter {
	q.queries[SlotStep] = val
	return q
}
