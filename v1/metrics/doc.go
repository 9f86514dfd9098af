// Package metrics exposes Prometheus metrics for store operations.
//
// *Metrics owns an isolated registry and an HTTP server serving /metrics.
// It implements observability.Observer: every operation reported to it
// increments operations_total{component,operation,collection,status},
// observes operation_duration_seconds and adds the document count to
// documents_total.
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "orders"})
//	users := mapper.New[User](core, mapper.WithObserver(m))
package metrics
