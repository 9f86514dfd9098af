package mongodb

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/fx"
)

// TestMongoCollectionOperations runs the adapter against a real server.
func TestMongoCollectionOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	uri, containerInstance := initializeMongo(ctx, t)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	var client *Client

	app := fx.New(
		FXModule,
		fx.Provide(
			func() Config {
				return Config{URI: uri, Databases: []string{"it"}, LogCommands: true}
			},
		),
		fx.Populate(&client),
	)

	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	assert.True(t, client.Healthy())

	coll, err := client.Collection("it", "people")
	require.NoError(t, err)
	assert.Equal(t, "people", coll.Name())
	assert.Equal(t, "it", coll.Database())

	t.Run("Insert and Find", func(t *testing.T) {
		id, err := coll.InsertOne(ctx, bson.D{{Key: "name", Value: "ada"}, {Key: "age", Value: 36}})
		require.NoError(t, err)
		assert.IsType(t, bson.ObjectID{}, id)

		n, err := coll.InsertMany(ctx, []bson.D{
			{{Key: "name", Value: "alan"}, {Key: "age", Value: 41}},
			{{Key: "name", Value: "grace"}, {Key: "age", Value: 85}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		cur, err := coll.Find(ctx, bson.D{{Key: "age", Value: bson.D{{Key: "$gt", Value: 40}}}}, FindOptions{
			Sort:  bson.D{{Key: "age", Value: -1}},
			Limit: 1,
		})
		require.NoError(t, err)
		var docs []bson.M
		require.NoError(t, cur.All(ctx, &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "grace", docs[0]["name"])

		total, err := coll.CountDocuments(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("Update and Delete", func(t *testing.T) {
		res, err := coll.UpdateOne(ctx, bson.D{{Key: "name", Value: "ada"}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "age", Value: 37}}}}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Matched)

		deleted, err := coll.DeleteOne(ctx, bson.D{{Key: "name", Value: "alan"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})

	t.Run("Counter", func(t *testing.T) {
		counters, err := client.Collection("it", "counters")
		require.NoError(t, err)

		filter := bson.D{{Key: "_id", Value: "people"}}
		inc := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}}

		doc, err := counters.FindOneAndUpdate(ctx, filter, inc, true)
		require.NoError(t, err)
		assert.EqualValues(t, 1, lookup(doc, "seq"))

		_, err = counters.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: "missing"}}, inc, false)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("Bulk", func(t *testing.T) {
		res, err := coll.BulkWrite(ctx, []mongo.WriteModel{
			mongo.NewInsertOneModel().SetDocument(bson.D{{Key: "name", Value: "linus"}}),
			mongo.NewUpdateOneModel().
				SetFilter(bson.D{{Key: "name", Value: "grace"}}).
				SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "age", Value: 86}}}}),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Inserted)
		assert.Equal(t, int64(1), res.Matched)
	})

	t.Run("Text index", func(t *testing.T) {
		require.NoError(t, coll.CreateTextIndex(ctx, "name"))
		require.NoError(t, coll.CreateTextIndex(ctx, "name"))
	})

	t.Run("Duplicate key", func(t *testing.T) {
		id := bson.NewObjectID()
		_, err := coll.InsertOne(ctx, bson.D{{Key: "_id", Value: id}})
		require.NoError(t, err)
		_, err = coll.InsertOne(ctx, bson.D{{Key: "_id", Value: id}})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func lookup(doc bson.D, key string) any {
	for _, e := range doc {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// initializeMongo starts a mongo:7 container and returns its URI.
func initializeMongo(ctx context.Context, t *testing.T) (string, testcontainers.Container) {
	t.Helper()

	hostPort, err := getFreePort()
	require.NoError(t, err)

	containerInstance, err := createMongoContainer(ctx, hostPort)
	require.NoError(t, err)

	port, err := containerInstance.MappedPort(ctx, "27017")
	require.NoError(t, err)

	host, err := containerInstance.Host(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port.Port()), 2*time.Second)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 30*time.Second, 500*time.Millisecond, "MongoDB port not ready")

	return fmt.Sprintf("mongodb://%s", net.JoinHostPort(host, port.Port())), containerInstance
}

func createMongoContainer(ctx context.Context, hostPort string) (testcontainers.Container, error) {
	portBindings := nat.PortMap{
		"27017/tcp": []nat.PortBinding{{HostPort: hostPort}},
	}

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("27017/tcp").WithStartupTimeout(60*time.Second),
			wait.ForLog("Waiting for connections").WithStartupTimeout(60*time.Second),
		),
	}

	var containerInstance testcontainers.Container
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		containerInstance, lastErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if lastErr == nil {
			return containerInstance, nil
		}

		if strings.Contains(lastErr.Error(), "docker.sock") {
			time.Sleep(time.Duration(attempt+1) * time.Second)
			continue
		}

		break
	}

	return nil, fmt.Errorf("failed to start MongoDB container after 3 attempts: %w", lastErr)
}

func getFreePort() (string, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}
