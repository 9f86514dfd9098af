package mapper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/mongoplus/v1/conversion"
	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/logger"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
	"github.com/Aleph-Alpha/mongoplus/v1/observability"
	"github.com/Aleph-Alpha/mongoplus/v1/tracer"
)

// Resolver routes bindings to collection handles.
// *datasource.Resolver implements it.
type Resolver interface {
	Target(ctx context.Context, b datasource.Binding, databaseOverride string) (datasource.Target, error)
	Handle(ctx context.Context, t datasource.Target) (mongodb.Collection, error)
}

// Core holds what every mapper shares: configuration, the codec, the
// resolver and the ambient hooks. It is safe for concurrent use.
type Core struct {
	cfg      Config
	codec    *mapping.Codec
	resolver Resolver

	meta     mapping.MetaObjectHandler
	observer observability.Observer
	tracer   *tracer.Tracer
	logger   logger.Logger
}

// Option configures a Core.
type Option func(*Core)

// WithCodec replaces the codec built from the configured naming strategy.
func WithCodec(c *mapping.Codec) Option {
	return func(core *Core) { core.codec = c }
}

// WithMetaObjectHandler installs the auto-fill handler.
func WithMetaObjectHandler(h mapping.MetaObjectHandler) Option {
	return func(core *Core) { core.meta = h }
}

// WithObserver reports every operation to o.
func WithObserver(o observability.Observer) Option {
	return func(core *Core) { core.observer = o }
}

// WithTracer wraps every operation in a span.
func WithTracer(t *tracer.Tracer) Option {
	return func(core *Core) { core.tracer = t }
}

// WithLogger sets the logger. Operations are logged at debug level.
func WithLogger(l logger.Logger) Option {
	return func(core *Core) {
		if l != nil {
			core.logger = l
		}
	}
}

// NewCore builds the shared mapper state.
func NewCore(cfg Config, resolver Resolver, opts ...Option) *Core {
	c := &Core{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codec == nil {
		in := mapping.NewIntrospector(mapping.NamingStrategyFor(cfg.Naming))
		c.codec = mapping.NewCodec(in, conversion.Default())
	}
	return c
}

// Codec returns the codec used to write and read documents.
func (c *Core) Codec() *mapping.Codec {
	return c.codec
}

// Config returns the configuration the core was built with.
func (c *Core) Config() Config {
	return c.cfg
}

// opFunc runs against a resolved collection and returns the number of
// documents it read or wrote.
type opFunc func(ctx context.Context, coll mongodb.Collection) (int64, error)

// do resolves the collection for b and runs fn inside a span, reporting the
// outcome to the observer and the logger.
func (c *Core) do(ctx context.Context, op string, b datasource.Binding, database string, fn opFunc) error {
	start := time.Now()

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.StartSpan(ctx, "mongoplus."+op)
		defer span.End()
	}

	var n int64
	target, err := c.resolver.Target(ctx, b, database)
	if err == nil {
		var coll mongodb.Collection
		if coll, err = c.resolver.Handle(ctx, target); err == nil {
			n, err = fn(ctx, coll)
		}
	}
	if target.Collection == "" {
		target.Collection = b.Collection
	}
	duration := time.Since(start)

	fields := map[string]interface{}{
		"operation":   op,
		"datasource":  target.DataSource,
		"database":    target.Database,
		"collection":  target.Collection,
		"documents":   n,
		"duration_ms": duration.Milliseconds(),
	}

	if span != nil {
		c.tracer.SetAttributes(span, fields)
		if err != nil {
			c.tracer.RecordErrorOnSpan(span, err)
		}
	}

	if c.observer != nil {
		c.observer.ObserveOperation(observability.OperationContext{
			Component:   "mapper",
			Operation:   op,
			Resource:    target.Collection,
			SubResource: target.Database,
			Duration:    duration,
			Error:       err,
			Size:        n,
			Metadata:    map[string]interface{}{"datasource": target.DataSource},
		})
	}

	if err != nil {
		c.logger.DebugWithContext(ctx, "mapper operation failed", err, fields)
	} else {
		c.logger.DebugWithContext(ctx, "mapper operation", nil, fields)
	}
	return err
}
