package mapper

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/logger"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/observability"
	"github.com/Aleph-Alpha/mongoplus/v1/tracer"
)

// FXModule provides *Core and *MapMapper together with the datasource
// resolver they route through. The application supplies a mapper Config.
// Observer (metrics.FXModule), *tracer.Tracer, logger.Logger and a
// mapping.MetaObjectHandler are picked up when present.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    mapper.FXModule,
//	    fx.Provide(func() (mapper.Config, error) { return mapper.LoadConfig("config.yaml") }),
//	    fx.Invoke(func(core *mapper.Core) error {
//	        users, err := mapper.New[User](core)
//	        ...
//	    }),
//	)
var FXModule = fx.Module("mapper",
	datasource.FXModule,
	fx.Provide(
		ProvideDataSources,
		NewCoreWithDI,
		NewMapMapper,
	),
)

// ProvideDataSources derives the resolver configuration from the mapper
// configuration.
func ProvideDataSources(cfg Config) datasource.Config {
	return cfg.DataSources()
}

// CoreParams groups the dependencies needed to create a Core.
type CoreParams struct {
	fx.In

	Config   Config
	Resolver *datasource.Resolver
	Observer observability.Observer    `optional:"true"`
	Tracer   *tracer.Tracer            `optional:"true"`
	Logger   logger.Logger             `optional:"true"`
	Meta     mapping.MetaObjectHandler `optional:"true"`
}

// NewCoreWithDI creates a Core from injected dependencies.
func NewCoreWithDI(params CoreParams) *Core {
	return NewCore(params.Config, params.Resolver,
		WithObserver(params.Observer),
		WithTracer(params.Tracer),
		WithLogger(params.Logger),
		WithMetaObjectHandler(params.Meta),
	)
}
