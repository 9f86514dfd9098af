// Package observability defines the hook components use to report the
// operations they perform. The metrics package ships a Prometheus-backed
// implementation.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "mapper".
	Component string

	// Operation is the verb, e.g. "save", "page", "remove_by_id".
	Operation string

	// Resource is the primary target, a collection name for the mapper.
	Resource string

	// SubResource carries secondary context such as the database.
	SubResource string

	Duration time.Duration
	Error    error

	// Size is the number of documents read or written.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives completed operations. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// Multi fans an operation out to several observers. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	return ObserverFunc(func(ctx OperationContext) {
		for _, o := range observers {
			if o != nil {
				o.ObserveOperation(ctx)
			}
		}
	})
}
