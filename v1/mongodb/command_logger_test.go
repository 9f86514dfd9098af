package mongodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/event"
)

type logEntry struct {
	level  string
	msg    string
	err    error
	fields map[string]interface{}
}

// recordingLogger keeps every entry for inspection.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) add(level, msg string, err error, fields ...map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := logEntry{level: level, msg: msg, err: err}
	if len(fields) > 0 {
		e.fields = fields[0]
	}
	r.entries = append(r.entries, e)
}

func (r *recordingLogger) Debug(msg string, err error, fields ...map[string]interface{}) {
	r.add("debug", msg, err, fields...)
}

func (r *recordingLogger) Info(msg string, err error, fields ...map[string]interface{}) {
	r.add("info", msg, err, fields...)
}

func (r *recordingLogger) Warn(msg string, err error, fields ...map[string]interface{}) {
	r.add("warn", msg, err, fields...)
}

func (r *recordingLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	r.add("error", msg, err, fields...)
}

func (r *recordingLogger) all() []logEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]logEntry(nil), r.entries...)
}

func TestCommandLogger(t *testing.T) {
	log := &recordingLogger{}
	mon := NewCommandLogger(log)

	raw, err := bson.Marshal(bson.D{{Key: "find", Value: "users"}})
	require.NoError(t, err)

	ctx := context.Background()
	mon.Started(ctx, &event.CommandStartedEvent{
		Command:      bson.Raw(raw),
		DatabaseName: "shop",
		CommandName:  "find",
		RequestID:    7,
	})
	mon.Succeeded(ctx, &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName:  "find",
			DatabaseName: "shop",
			RequestID:    7,
			Duration:     3 * time.Millisecond,
		},
	})
	mon.Failed(ctx, &event.CommandFailedEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName:  "insert",
			DatabaseName: "shop",
			RequestID:    8,
		},
	})

	entries := log.all()
	require.Len(t, entries, 3)

	assert.Equal(t, "debug", entries[0].level)
	assert.Equal(t, "find", entries[0].fields["command"])
	assert.Equal(t, "shop", entries[0].fields["database"])
	assert.Contains(t, entries[0].fields["body"], "users")

	assert.Equal(t, "debug", entries[1].level)
	assert.Equal(t, int64(3), entries[1].fields["duration_ms"])

	assert.Equal(t, "warn", entries[2].level)
	assert.Equal(t, "insert", entries[2].fields["command"])
	assert.Error(t, entries[2].err)
}

func TestCommandLoggerNilLogger(t *testing.T) {
	mon := NewCommandLogger(nil)
	assert.NotPanics(t, func() {
		mon.Failed(context.Background(), &event.CommandFailedEvent{})
	})
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, DefaultURI, cfg.URI)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultServerSelectionTimeout, cfg.ServerSelectionTimeout)
	assert.Equal(t, DefaultHealthCheckInterval, cfg.HealthCheckInterval)

	cfg = Config{URI: "mongodb://db:27017", HealthCheckInterval: time.Second}.WithDefaults()
	assert.Equal(t, "mongodb://db:27017", cfg.URI)
	assert.Equal(t, time.Second, cfg.HealthCheckInterval)
}

func TestClosedClient(t *testing.T) {
	c := &Client{logger: nopLogger{}, shutdownSignal: make(chan struct{}), closed: true}

	_, err := c.Collection("shop", "users")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrClosed)
	assert.NoError(t, c.Close(context.Background()))
	assert.False(t, c.Healthy())
}
