package logging

import (
	"context"
	"fmt"
	"regexp"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// correlation is a context value copied onto every log entry.
type correlation int

const (
	phaseKey correlation = iota
	sessionKey
	requestKey
)

// field is the log key each correlation value is written under.
var field = [...]string{
	phaseKey:   "sprint.phase",
	sessionKey: "session.id",
	requestKey: "request.id",
}

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func (c correlation) with(ctx context.Context, id string) context.Context {
	if len(id) > maxIDLen || !idPattern.MatchString(id) {
		panic(fmt.Sprintf("logging: invalid %s %q: want 1-%d of [A-Za-z0-9_-]", field[c], id, maxIDLen))
	}
	return context.WithValue(ctx, c, id)
}

func (c correlation) from(ctx context.Context) string {
	id, _ := ctx.Value(c).(string)
	return id
}

// WithPhase tags ctx with the sprint phase. It panics on an empty name or
// one outside [A-Za-z0-9_-]; phase names are constants, so that is a bug.
func WithPhase(ctx context.Context, phase string) context.Context {
	return phaseKey.with(ctx, phase)
}

// WithSessionID tags ctx with the chat session id. Same rules as WithPhase.
func WithSessionID(ctx context.Context, id string) context.Context {
	return sessionKey.with(ctx, id)
}

// WithRequestID tags ctx with the id of one user-triggered operation.
// Same rules as WithPhase.
func WithRequestID(ctx context.Context, id string) context.Context {
	return requestKey.with(ctx, id)
}

func PhaseFromContext(ctx context.Context) string     { return phaseKey.from(ctx) }
func SessionIDFromContext(ctx context.Context) string { return sessionKey.from(ctx) }
func RequestIDFromContext(ctx context.Context) string { return requestKey.from(ctx) }

// ContextFields returns the trace ids of the span in ctx followed by the
// sprint correlation values, omitting whatever is unset.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	for _, c := range []correlation{phaseKey, sessionKey, requestKey} {
		if id := c.from(ctx); id != "" {
			fields = append(fields, zap.String(field[c], id))
		}
	}
	return fields
}
