package mapper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/mongoplus/v1/condition"
	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/mongodb"
)

type customer struct {
	ID      string `mongo:",id"`
	Name    string
	Age     int
	About   string
	Created time.Time `mongo:",fill=insert"`
}

type invoice struct {
	Number int64 `mongo:",id,idtype=auto"`
	Amount float64
}

// TestMapperAgainstMongo runs the mapper end to end against a real server.
func TestMapperAgainstMongo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	uri, containerInstance := startMongo(ctx, t)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	var core *Core
	var maps *MapMapper

	app := fx.New(
		FXModule,
		fx.Provide(func() Config {
			cfg := Config{Naming: "snake"}
			cfg.Sources = []datasource.Source{
				{Name: "master", Config: mongodb.Config{URI: uri, Databases: []string{"crm", "archive"}}},
			}
			return cfg
		}),
		fx.Populate(&core, &maps),
	)
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	customers, err := New[customer](core)
	require.NoError(t, err)

	t.Run("Save and read back", func(t *testing.T) {
		for i, name := range []string{"ada", "alan", "grace", "edsger"} {
			c := &customer{Name: name, Age: 30 + i*10, About: name + " writes go code"}
			require.NoError(t, customers.Save(ctx, c))
			assert.Len(t, c.ID, 24)
		}

		n, err := customers.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		c, found, err := customers.One(ctx, condition.New().Eq("name", "grace"))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 50, c.Age)

		again, found, err := customers.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "grace", again.Name)

		_, _, err = customers.One(ctx, condition.New().Gte("age", 40))
		assert.True(t, IsMultipleResults(err))
	})

	t.Run("Page with or", func(t *testing.T) {
		w := condition.New().
			Or(func(o *condition.Wrapper) {
				o.Eq("name", "ada")
				o.Gt("age", 45)
			}).
			OrderByAsc("age")

		page, err := customers.Page(ctx, w, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalSize)
		assert.Equal(t, int64(2), page.TotalPages)
		require.Len(t, page.Content, 2)
		assert.Equal(t, "ada", page.Content[0].Name)
		assert.Equal(t, "grace", page.Content[1].Name)
	})

	t.Run("Text search", func(t *testing.T) {
		list, err := customers.List(ctx, condition.New().Text("about", "grace"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "grace", list[0].Name)
	})

	t.Run("Update and remove", func(t *testing.T) {
		ok, err := customers.Update(ctx, condition.New().Eq("name", "alan").Set("age", 42))
		require.NoError(t, err)
		assert.True(t, ok)

		c, found, err := customers.LimitOne(ctx, condition.New().Eq("name", "alan"))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 42, c.Age)

		removed, err := customers.RemoveByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err := customers.Exists(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Counter identifiers", func(t *testing.T) {
		invoices, err := New[invoice](core)
		require.NoError(t, err)

		for want := int64(1); want <= 3; want++ {
			inv := &invoice{Amount: float64(want) * 10}
			require.NoError(t, invoices.Save(ctx, inv))
			assert.Equal(t, want, inv.Number)
		}
	})

	t.Run("Ambient database", func(t *testing.T) {
		archived := datasource.WithDatabase(ctx, "archive")
		require.NoError(t, customers.Save(archived, &customer{Name: "old"}))

		n, err := customers.CountAll(archived)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = customers.Count(ctx, condition.New().Eq("name", "old"))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Map documents", func(t *testing.T) {
		doc := map[string]any{"sku": "A-1", "qty": 3}
		require.NoError(t, maps.Save(ctx, "stock", doc))

		got, found, err := maps.GetByID(ctx, "stock", doc["_id"])
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "A-1", got["sku"])

		ok, err := maps.Update(ctx, "stock", condition.New().Eq("sku", "A-1").Set("qty", 5))
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := maps.Count(ctx, "stock", condition.New().Gte("qty", 5))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func startMongo(ctx context.Context, t *testing.T) (string, testcontainers.Container) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("27017/tcp").WithStartupTimeout(60*time.Second),
			wait.ForLog("Waiting for connections").WithStartupTimeout(60*time.Second),
		),
	}
	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := containerInstance.Host(ctx)
	require.NoError(t, err)
	port, err := containerInstance.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), containerInstance
}
