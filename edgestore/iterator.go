package edgestore

import "github.com/mycok/uResolve/clustergraph/graph"

// Static and compile-time check to ensure sliceIterator implements
// Iterator interface.
var _ Iterator = (*sliceIterator)(nil)

// sliceIterator iterates a pre-fetched page of weight rows.
type sliceIterator struct {
	rows         []graph.WeightedEdge
	currentIndex int
}

// NewSliceIterator returns an Iterator over an already sorted page of rows.
func NewSliceIterator(rows []graph.WeightedEdge) Iterator {
	return &sliceIterator{rows: rows}
}

// Next advances the iterator.
func (i *sliceIterator) Next() bool {
	if i.currentIndex >= len(i.rows) {
		return false
	}

	i.currentIndex++

	return true
}

// Error returns the last error recorded by the iterator.
func (i *sliceIterator) Error() error { return nil }

// Close releases any resources linked to the iterator.
func (i *sliceIterator) Close() error { return nil }

// WeightedEdge returns the currently fetched weight row.
func (i *sliceIterator) WeightedEdge() graph.WeightedEdge {
	return i.rows[i.currentIndex-1]
}
