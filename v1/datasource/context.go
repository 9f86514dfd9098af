package datasource

import (
	"context"
	"strings"
)

type ctxKey struct{}

// Ambient is the datasource and database a unit of work asked for. Empty
// fields mean "not set".
type Ambient struct {
	DataSource string
	Database   string
}

// WithDataSource returns a context that routes calls to the named
// datasource.
func WithDataSource(ctx context.Context, name string) context.Context {
	a, _ := FromContext(ctx)
	a.DataSource = strings.TrimSpace(name)
	return context.WithValue(ctx, ctxKey{}, a)
}

// WithDatabase returns a context that routes calls to the named database.
// A comma separated list selects its first entry.
func WithDatabase(ctx context.Context, name string) context.Context {
	a, _ := FromContext(ctx)
	a.Database = firstOf(name)
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the ambient selection carried by ctx.
func FromContext(ctx context.Context) (Ambient, bool) {
	if ctx == nil {
		return Ambient{}, false
	}
	a, ok := ctx.Value(ctxKey{}).(Ambient)
	return a, ok
}

func firstOf(list string) string {
	if i := strings.IndexByte(list, ','); i >= 0 {
		list = list[:i]
	}
	return strings.TrimSpace(list)
}
