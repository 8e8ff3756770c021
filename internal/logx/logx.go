package logx

import (
	"context"
	"net"
	"strconv"

	"github.com/google/uuid"

	"pkt.systems/pslog"
)

type contextKey int

const (
	targetKey contextKey = iota
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithTarget annotates the logger with the server address unless the context
// already carries it.
func WithTarget(ctx context.Context, host string, port int) pslog.Logger {
	log := pslog.Ctx(ctx)
	if host == "" {
		return log
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if current, ok := ctx.Value(targetKey).(string); ok && current == addr {
		return log
	}
	return log.With("host", host, "port", port)
}

// ContextWithTarget attaches a target-annotated logger and the target marker.
func ContextWithTarget(ctx context.Context, host string, port int) context.Context {
	if ctx == nil || host == "" {
		return ctx
	}
	log := WithTarget(ctx, host, port)
	ctx = pslog.ContextWithLogger(ctx, log)
	return context.WithValue(ctx, targetKey, net.JoinHostPort(host, strconv.Itoa(port)))
}

// WithRequest annotates the logger with a correlation id.
func WithRequest(log pslog.Logger, id uuid.UUID) pslog.Logger {
	if id != uuid.Nil {
		log = log.With("request_id", id.String())
	}
	return log
}

// WithShell annotates the logger with the composite shell prompt.
func WithShell(log pslog.Logger, prompt string) pslog.Logger {
	if prompt != "" {
		log = log.With("shell", prompt)
	}
	return log
}

// WithSession annotates the logger with a server session id when available.
func WithSession(log pslog.Logger, sessionID string) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}
