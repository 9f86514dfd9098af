package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/event"
)

// NewCommandLogger returns a command monitor that writes every driver
// command to log. Started commands are logged at debug level with the full
// command document, failures at warn level.
func NewCommandLogger(log Logger) *event.CommandMonitor {
	if log == nil {
		log = nopLogger{}
	}
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			log.Debug("mongodb command started", nil, map[string]interface{}{
				"command":    e.CommandName,
				"database":   e.DatabaseName,
				"request_id": e.RequestID,
				"body":       e.Command.String(),
			})
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			log.Debug("mongodb command succeeded", nil, map[string]interface{}{
				"command":     e.CommandName,
				"database":    e.DatabaseName,
				"request_id":  e.RequestID,
				"duration_ms": e.Duration.Milliseconds(),
			})
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			log.Warn("mongodb command failed", fmt.Errorf("%v", e.Failure), map[string]interface{}{
				"command":     e.CommandName,
				"database":    e.DatabaseName,
				"request_id":  e.RequestID,
				"duration_ms": e.Duration.Milliseconds(),
			})
		},
	}
}
