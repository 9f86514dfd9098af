package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

type fakeClient struct {
	ctrl   *gomock.Controller
	opened atomic.Int32
	closed atomic.Bool
}

func (f *fakeClient) Collection(database, name string) (mongodb.Collection, error) {
	f.opened.Add(1)
	c := mongodb.NewMockCollection(f.ctrl)
	c.EXPECT().Name().Return(name).AnyTimes()
	c.EXPECT().Database().Return(database).AnyTimes()
	return c, nil
}

func (f *fakeClient) Close(context.Context) error {
	f.closed.Store(true)
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	ctrl    *gomock.Controller
	calls   atomic.Int32
	clients map[string]*fakeClient
	fail    error
}

func (f *fakeFactory) open(_ context.Context, src Source) (Client, error) {
	f.calls.Add(1)
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clients == nil {
		f.clients = map[string]*fakeClient{}
	}
	c := &fakeClient{ctrl: f.ctrl}
	f.clients[src.Name] = c
	return c, nil
}

func testConfig() Config {
	return Config{Sources: []Source{
		{Name: "master", Config: mongodb.Config{Databases: []string{"shop", "audit"}}},
		{Name: "reporting", Config: mongodb.Config{Databases: []string{"warehouse"}}},
		{Name: "empty"},
	}}
}

func TestTargetPrecedence(t *testing.T) {
	r := NewResolver(testConfig(), (&fakeFactory{}).open, nil)
	bg := context.Background()
	ambient := WithDatabase(WithDataSource(bg, "reporting"), "scratch,other")

	tests := []struct {
		name     string
		ctx      context.Context
		binding  Binding
		override string
		want     Target
	}{
		{"configured defaults", bg, Binding{Collection: "users"}, "", Target{"master", "shop", "users"}},
		{"override wins", ambient, Binding{Database: "bound", Collection: "users"}, "forced", Target{"reporting", "forced", "users"}},
		{"binding beats ambient", ambient, Binding{DataSource: "master", Database: "audit", Collection: "users"}, "", Target{"master", "audit", "users"}},
		{"ambient database", ambient, Binding{Collection: "users"}, "", Target{"reporting", "scratch", "users"}},
		{"first configured database of ambient source", WithDataSource(bg, "reporting"), Binding{Collection: "users"}, "", Target{"reporting", "warehouse", "users"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Target(tt.ctx, tt.binding, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetErrors(t *testing.T) {
	r := NewResolver(testConfig(), (&fakeFactory{}).open, nil)
	ctx := context.Background()

	_, err := r.Target(ctx, Binding{DataSource: "nope", Collection: "users"}, "")
	assert.ErrorIs(t, err, mongodb.ErrConnection)

	_, err = r.Target(ctx, Binding{DataSource: "empty", Collection: "users"}, "")
	assert.ErrorIs(t, err, mongodb.ErrConnection)

	_, err = r.Target(ctx, Binding{}, "")
	assert.ErrorIs(t, err, mapping.ErrMapping)
}

func TestHandlesAreCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := &fakeFactory{ctrl: ctrl}
	r := NewResolver(testConfig(), factory.open, nil)
	ctx := context.Background()

	var g errgroup.Group
	handles := make([]mongodb.Collection, 32)
	for i := range handles {
		i := i
		g.Go(func() error {
			h, err := r.ResolveBinding(ctx, Binding{Collection: "users"}, "")
			handles[i] = h
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, int32(1), factory.calls.Load())
	assert.Equal(t, int32(1), factory.clients["master"].opened.Load())

	other, err := r.ResolveBinding(ctx, Binding{Database: "audit", Collection: "users"}, "")
	require.NoError(t, err)
	assert.NotSame(t, handles[0], other)
	assert.Equal(t, "audit", other.Database())
	assert.Equal(t, int32(1), factory.calls.Load())
	assert.Equal(t, int32(2), factory.clients["master"].opened.Load())
}

func TestResolveModel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := NewResolver(testConfig(), (&fakeFactory{ctrl: ctrl}).open, nil)

	model := &mapping.TypeModel{Collection: "orders", DataSource: "reporting"}
	h, err := r.Resolve(context.Background(), model, "")
	require.NoError(t, err)
	assert.Equal(t, "orders", h.Name())
	assert.Equal(t, "warehouse", h.Database())
}

func TestFactoryFailure(t *testing.T) {
	factory := &fakeFactory{fail: errors.New("dial refused")}
	r := NewResolver(testConfig(), factory.open, nil)

	_, err := r.ResolveBinding(context.Background(), Binding{Collection: "users"}, "")
	assert.ErrorIs(t, err, mongodb.ErrConnection)
}

func TestClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := &fakeFactory{ctrl: ctrl}
	r := NewResolver(testConfig(), factory.open, nil)
	ctx := context.Background()

	_, err := r.ResolveBinding(ctx, Binding{Collection: "users"}, "")
	require.NoError(t, err)
	require.NoError(t, r.Close(ctx))
	assert.True(t, factory.clients["master"].closed.Load())

	_, err = r.ResolveBinding(ctx, Binding{Collection: "users"}, "")
	assert.ErrorIs(t, err, mongodb.ErrClosed)
}

func TestAmbientContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithDataSource(context.Background(), " reporting ")
	ctx = WithDatabase(ctx, "a, b")
	a, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, Ambient{DataSource: "reporting", Database: "a"}, a)
}

func TestConfigFromYAML(t *testing.T) {
	raw := `
sources:
  - name: primary
    uri: mongodb://primary:27017
    databases: [shop]
    logCommands: true
  - name: master
    uri: mongodb://other:27017
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "mongodb://primary:27017", cfg.Sources[0].URI)
	assert.Equal(t, []string{"shop"}, cfg.Sources[0].Databases)
	assert.True(t, cfg.Sources[0].LogCommands)
	assert.Equal(t, "master", cfg.DefaultSource())

	cfg.Sources = cfg.Sources[:1]
	assert.Equal(t, "primary", cfg.DefaultSource())

	cfg.Default = "explicit"
	assert.Equal(t, "explicit", cfg.DefaultSource())
}
