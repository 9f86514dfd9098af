package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Aleph-Alpha/mongoplus/v1/logger"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

// Client is what the resolver needs from an open deployment.
// *mongodb.Client implements it.
type Client interface {
	Collection(database, name string) (mongodb.Collection, error)
	Close(ctx context.Context) error
}

// ClientFactory opens the client for one configured source.
type ClientFactory func(ctx context.Context, src Source) (Client, error)

// ConnectFactory opens sources with mongodb.Connect.
func ConnectFactory(log logger.Logger) ClientFactory {
	return func(ctx context.Context, src Source) (Client, error) {
		cfg := src.Config
		if cfg.Logger == nil && log != nil {
			cfg.Logger = log
		}
		c, err := mongodb.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Binding is the routing an entity type declares. Empty fields defer to the
// ambient context and then to configuration.
type Binding struct {
	DataSource string
	Database   string
	Collection string
}

// BindingOf returns the binding declared by model.
func BindingOf(model *mapping.TypeModel) Binding {
	return Binding{DataSource: model.DataSource, Database: model.Database, Collection: model.Collection}
}

// Target is a fully resolved collection address.
type Target struct {
	DataSource string
	Database   string
	Collection string
}

func (t Target) String() string {
	return t.DataSource + "/" + t.Database + "." + t.Collection
}

// Resolver turns bindings into collection handles. Clients and handles are
// opened at most once per key and kept until Close.
type Resolver struct {
	cfg     Config
	factory ClientFactory
	logger  logger.Logger

	clients sync.Map // datasource name -> Client
	handles sync.Map // Target -> mongodb.Collection
	group   singleflight.Group

	mu     sync.Mutex
	closed bool
}

// NewResolver creates a resolver. A nil factory means ConnectFactory.
func NewResolver(cfg Config, factory ClientFactory, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	if factory == nil {
		factory = ConnectFactory(log)
	}
	return &Resolver{cfg: cfg, factory: factory, logger: log}
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Target resolves b without opening anything.
//
// Database precedence: databaseOverride, then the binding, then the
// ambient context, then the first database configured for the datasource.
// Datasource precedence: the binding, then the ambient context, then the
// configured default.
func (r *Resolver) Target(ctx context.Context, b Binding, databaseOverride string) (Target, error) {
	if b.Collection == "" {
		return Target{}, fmt.Errorf("%w: no collection name", mapping.ErrMapping)
	}
	ambient, _ := FromContext(ctx)

	ds := b.DataSource
	if ds == "" {
		ds = ambient.DataSource
	}
	if ds == "" {
		ds = r.cfg.DefaultSource()
	}
	src, ok := r.cfg.Source(ds)
	if !ok {
		return Target{}, fmt.Errorf("%w: unknown datasource %q", mongodb.ErrConnection, ds)
	}

	db := firstOf(databaseOverride)
	if db == "" {
		db = firstOf(b.Database)
	}
	if db == "" {
		db = ambient.Database
	}
	if db == "" && len(src.Databases) > 0 {
		db = src.Databases[0]
	}
	if db == "" {
		return Target{}, fmt.Errorf("%w: datasource %q has no database configured", mongodb.ErrConnection, ds)
	}

	return Target{DataSource: ds, Database: db, Collection: b.Collection}, nil
}

// Resolve returns the collection handle for an entity type.
func (r *Resolver) Resolve(ctx context.Context, model *mapping.TypeModel, databaseOverride string) (mongodb.Collection, error) {
	return r.ResolveBinding(ctx, BindingOf(model), databaseOverride)
}

// ResolveBinding returns the collection handle for b.
func (r *Resolver) ResolveBinding(ctx context.Context, b Binding, databaseOverride string) (mongodb.Collection, error) {
	t, err := r.Target(ctx, b, databaseOverride)
	if err != nil {
		return nil, err
	}
	return r.Handle(ctx, t)
}

// Handle returns the cached handle for t, opening it on first use.
func (r *Resolver) Handle(ctx context.Context, t Target) (mongodb.Collection, error) {
	if h, ok := r.handles.Load(t); ok {
		return h.(mongodb.Collection), nil
	}

	v, err, _ := r.group.Do("handle|"+t.String(), func() (interface{}, error) {
		if h, ok := r.handles.Load(t); ok {
			return h, nil
		}
		c, err := r.client(ctx, t.DataSource)
		if err != nil {
			return nil, err
		}
		h, err := c.Collection(t.Database, t.Collection)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", mongodb.ErrConnection, t, err)
		}
		actual, _ := r.handles.LoadOrStore(t, h)
		r.logger.Debug("Opened collection handle", nil, map[string]interface{}{
			"datasource": t.DataSource,
			"database":   t.Database,
			"collection": t.Collection,
		})
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(mongodb.Collection), nil
}

func (r *Resolver) client(ctx context.Context, name string) (Client, error) {
	if c, ok := r.clients.Load(name); ok {
		return c.(Client), nil
	}

	v, err, _ := r.group.Do("client|"+name, func() (interface{}, error) {
		if c, ok := r.clients.Load(name); ok {
			return c, nil
		}
		r.mu.Lock()
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return nil, mongodb.ErrClosed
		}

		src, ok := r.cfg.Source(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown datasource %q", mongodb.ErrConnection, name)
		}
		c, err := r.factory(ctx, src)
		if err != nil {
			if !errors.Is(err, mongodb.ErrConnection) {
				err = fmt.Errorf("%w: datasource %q: %v", mongodb.ErrConnection, name, err)
			}
			return nil, err
		}
		r.clients.Store(name, c)
		r.logger.Info("Opened datasource", nil, map[string]interface{}{"datasource": name})
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Client), nil
}

// Close closes every opened client and drops all cached handles.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	var errs []error
	r.clients.Range(func(key, value any) bool {
		if err := value.(Client).Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close datasource %v: %w", key, err))
		}
		r.clients.Delete(key)
		return true
	})
	r.handles.Range(func(key, _ any) bool {
		r.handles.Delete(key)
		return true
	})
	return errors.Join(errs...)
}
