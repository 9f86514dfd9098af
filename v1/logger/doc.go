// Package logger provides the structured zap logger used across the module.
//
// LoggerClient is the concrete type, Logger the interface other packages
// accept. Every method takes a message, an optional error and any number of
// field maps:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Debug, ServiceName: "orders"})
//	log.Debug("compiled filter", nil, map[string]interface{}{"collection": "users"})
//
// The *WithContext variants add trace_id and span_id from the active
// OpenTelemetry span when Config.EnableTracing is set.
//
// With fx:
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config { return logger.Config{Level: logger.Info} }),
//	)
package logger
