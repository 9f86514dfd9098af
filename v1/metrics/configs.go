package metrics

// DefaultMetricsAddress is used when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// Config defines how the Prometheus metrics server is exposed.
type Config struct {
	// Address is where the /metrics HTTP server listens.
	// Default: ":9090"
	Address string `yaml:"address" env:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" env:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name registered by this package.
	// Example: "orders" turns operations_total into orders_operations_total.
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE"`

	// ServiceName becomes a constant service="..." label on every metric.
	ServiceName string `yaml:"service_name" env:"METRICS_SERVICE_NAME"`
}
