package mongodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps a *mongo.Client with health monitoring and graceful shutdown.
// It is safe for concurrent use.
type Client struct {
	client *mongo.Client
	cfg    Config
	logger Logger

	healthy atomic.Bool

	mu             sync.RWMutex
	closed         bool
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once
}

// Connect opens a client for cfg and verifies it with a ping against the
// primary. Failures wrap ErrConnection.
//
// Example:
//
//	client, err := mongodb.Connect(ctx, mongodb.Config{
//		URI:       "mongodb://localhost:27017",
//		Databases: []string{"shop"},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.LogCommands {
		opts.SetMonitor(NewCommandLogger(log))
	}

	mc, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	c := &Client{
		client:         mc,
		cfg:            cfg,
		logger:         log,
		shutdownSignal: make(chan struct{}),
	}

	if err := c.Ping(ctx); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, err
	}
	c.healthy.Store(true)

	log.Info("MongoDB client connected", nil, map[string]interface{}{
		"databases": cfg.Databases,
		"app_name":  cfg.AppName,
	})
	return c, nil
}

// Ping checks that the primary is reachable within DefaultPingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	mc, err := c.driver()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: ping failed: %v", ErrConnection, err)
	}
	return nil
}

// Collection returns a handle on database.name. Opening a handle does not
// touch the network.
func (c *Client) Collection(database, name string) (Collection, error) {
	mc, err := c.driver()
	if err != nil {
		return nil, err
	}
	return NewCollection(mc.Database(database).Collection(name)), nil
}

// Databases returns the configured database names.
func (c *Client) Databases() []string {
	return c.cfg.Databases
}

// Healthy reports the result of the last health check.
func (c *Client) Healthy() bool {
	return c.healthy.Load()
}

// Driver exposes the underlying driver client.
func (c *Client) Driver() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Client) driver() (*mongo.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.client == nil {
		return nil, ErrClosed
	}
	return c.client, nil
}

// MonitorConnection pings the server every HealthCheckInterval until ctx is
// done or the client is closed, logging transitions between healthy and
// unhealthy. It never reconnects; the driver does that on its own.
func (c *Client) MonitorConnection(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdownSignal:
			c.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil, nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.healthCheck(ctx)
		}
	}
}

func (c *Client) healthCheck(ctx context.Context) {
	err := c.Ping(ctx)
	was := c.healthy.Swap(err == nil)
	switch {
	case err != nil && was:
		c.logger.Error("MongoDB health check failed", err, nil)
	case err == nil && !was:
		c.logger.Info("MongoDB connection recovered", nil, nil)
	}
}

// Close stops the monitor and disconnects. Calling Close more than once is
// safe.
func (c *Client) Close(ctx context.Context) error {
	c.closeShutdownOnce.Do(func() {
		close(c.shutdownSignal)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.healthy.Store(false)

	if c.client == nil {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB client: %w", err)
	}
	c.logger.Info("MongoDB client disconnected", nil, nil)
	return nil
}
