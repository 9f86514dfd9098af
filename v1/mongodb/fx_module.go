package mongodb

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/mongoplus/v1/logger"
)

// FXModule provides a single *Client for applications that talk to one
// deployment. Applications with several datasources use datasource.FXModule
// instead, which opens clients on demand.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    mongodb.FXModule,
//	    fx.Provide(func() mongodb.Config {
//	        return mongodb.Config{URI: "mongodb://localhost:27017", Databases: []string{"shop"}}
//	    }),
//	)
var FXModule = fx.Module("mongodb",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterMongoLifecycle),
)

// MongoParams groups the dependencies needed to create a client.
type MongoParams struct {
	fx.In

	Config Config
	Logger logger.Logger `optional:"true"`
}

// NewClientWithDI injects the optional logger and connects.
func NewClientWithDI(params MongoParams) (*Client, error) {
	if params.Logger != nil {
		params.Config.Logger = params.Logger
	}
	return Connect(context.Background(), params.Config)
}

// MongoLifecycleParams groups the dependencies needed for lifecycle management.
type MongoLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterMongoLifecycle starts the health monitor on start and disconnects
// on stop.
func RegisterMongoLifecycle(params MongoLifecycleParams) {
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go params.Client.MonitorConnection(ctx)
			params.Client.logger.Info("MongoDB client started", nil, nil)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			params.Client.logger.Info("Shutting down MongoDB client", nil, nil)
			return params.Client.Close(stopCtx)
		},
	})
}
