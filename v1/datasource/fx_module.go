package datasource

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/mongoplus/v1/logger"
)

// FXModule provides a *Resolver over the configured datasources and closes
// every opened client on stop.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    datasource.FXModule,
//	    fx.Provide(func() datasource.Config { return loadDatasources() }),
//	)
var FXModule = fx.Module("datasource",
	fx.Provide(
		NewResolverWithDI,
	),
	fx.Invoke(RegisterResolverLifecycle),
)

// ResolverParams groups the dependencies needed to create a resolver.
type ResolverParams struct {
	fx.In

	Config  Config
	Factory ClientFactory `optional:"true"`
	Logger  logger.Logger `optional:"true"`
}

// NewResolverWithDI creates a resolver from injected dependencies.
func NewResolverWithDI(params ResolverParams) *Resolver {
	return NewResolver(params.Config, params.Factory, params.Logger)
}

// RegisterResolverLifecycle closes the resolver's clients on stop.
func RegisterResolverLifecycle(lc fx.Lifecycle, r *Resolver) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			r.logger.Info("Closing datasources", nil, nil)
			return r.Close(ctx)
		},
	})
}
