// Package logging provides structured logging for designsprint.
//
// Logger wraps Zap with context-aware methods. Correlation fields
// (trace_id, sprint.phase, session.id, request.id) are pulled from the
// context on every call:
//
//	ctx = logging.WithPhase(ctx, "sketch")
//	logger.Info(ctx, "ideas extracted", zap.Int("count", n))
//
// Output goes to stderr, a log file, and/or an OpenTelemetry log provider.
// The interactive TUI owns the terminal, so it logs to a file under the
// user state directory.
//
// Secrets are redacted at three layers: the config.Secret type, field-name
// filtering in the encoder, and value pattern matching in the encoder.
// Prompts and replies are never logged, only their sizes.
//
// Use TestLogger in tests:
//
//	tl := logging.NewTestLogger()
//	svc := sprint.New(client, sprint.WithLogger(tl.Logger))
//	tl.AssertLogged(t, zapcore.WarnLevel, "phase initialization failed")
package logging
