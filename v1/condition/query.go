package condition

import "go.mongodb.org/mongo-driver/v2/bson"

// Query is everything compiled from one Wrapper.
type Query struct {
	Filter     bson.D
	Update     bson.D
	Sort       bson.D
	Projection bson.D

	// TextColumns are the columns that still need a text index. The runner
	// ensures them and calls ClearTextIndexes once per query cycle.
	TextColumns []string
}

// Compile compiles w. A nil wrapper compiles to an empty query.
func Compile(w *Wrapper) (*Query, error) {
	if w == nil {
		w = New()
	}
	f, err := CompileFilter(w.nodes)
	if err != nil {
		return nil, err
	}
	projection, err := CompileProjection(w.projections)
	if err != nil {
		return nil, err
	}
	return &Query{
		Filter:      f.Doc,
		Update:      CompileUpdate(w.nodes),
		Sort:        CompileSort(w.orders),
		Projection:  projection,
		TextColumns: f.TextColumns,
	}, nil
}

// PendingTextIndexes returns the columns still awaiting a text index.
func (q *Query) PendingTextIndexes() []string {
	return q.TextColumns
}

// ClearTextIndexes marks the text indexes as ensured.
func (q *Query) ClearTextIndexes() {
	q.TextColumns = nil
}
