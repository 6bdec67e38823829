// Package traceid attaches a correlation id to a context, mirroring
// the teacher's common/session.NewID()/ContextWithID() pattern used to
// tag every inbound connection's log lines. Here ddp tags every send
// and receive call so a read of the log can follow one datagram's
// path through lookup, forward, and delivery.
package traceid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// ID is a short correlation id, printed in brackets ahead of log lines
// for calls made within its context.
type ID string

// New mints a fresh trace ID.
func New() ID {
	return ID(uuid.NewString())
}

// WithContext returns a context carrying id, retrievable with FromContext.
func WithContext(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the ID attached by WithContext, if any.
func FromContext(ctx context.Context) (ID, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(contextKey{}).(ID)
	return id, ok
}
