package logging

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are kept in memory, at every level
// down to TraceLevel, so tests can make assertions about them.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger returns a TestLogger with the default redaction settings.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// All returns every entry recorded so far.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// Reset drops the recorded entries.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// Fields returns the fields of the first entry whose message contains msg,
// flattened to their plain values.
func (t *TestLogger) Fields(msg string) (map[string]any, bool) {
	for _, e := range t.observed.All() {
		if strings.Contains(e.Message, msg) {
			return e.ContextMap(), true
		}
	}
	return nil, false
}

// StringField returns a string field of the first entry matching msg, or ""
// when there is no such entry or field.
func (t *TestLogger) StringField(msg, key string) string {
	fields, ok := t.Fields(msg)
	if !ok {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if t.count(level, msg) == 0 {
		tb.Errorf("no %s entry containing %q; recorded: %s", level, msg, t.summary())
	}
}

// AssertNotLogged fails tb if an entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if n := t.count(level, msg); n > 0 {
		tb.Errorf("%d unexpected %s entries containing %q", n, level, msg)
	}
}

// AssertField fails tb unless the first entry matching msg carries key with
// the given value.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	fields, ok := t.Fields(msg)
	if !ok {
		tb.Errorf("no entry containing %q", msg)
		return
	}
	got, ok := fields[key]
	if !ok {
		tb.Errorf("entry %q has no field %q; fields: %v", msg, key, fields)
		return
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		tb.Errorf("entry %q field %q = %v, want %v", msg, key, got, want)
	}
}

// AssertNoSecrets fails tb when a recorded message or string field matches a
// redaction pattern, or when a field named like a credential holds a value
// that was not redacted.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	patterns := make([]*regexp.Regexp, 0, len(t.config.Redaction.Patterns))
	for _, p := range t.config.Redaction.Patterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, e := range t.observed.All() {
		if leaks(e.Message) {
			tb.Errorf("credential in message %q", e.Message)
		}
		for _, f := range e.Context {
			if f.Type != zapcore.StringType {
				continue
			}
			if leaks(f.String) {
				tb.Errorf("credential in field %q", f.Key)
			}
			if f.String != "" && t.sensitiveKey(f.Key) && !strings.Contains(f.String, "[REDACTED") {
				tb.Errorf("field %q logged without redaction", f.Key)
			}
		}
	}
}

func (t *TestLogger) sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, name := range t.config.Redaction.Fields {
		if strings.Contains(key, name) {
			return true
		}
	}
	return false
}

func (t *TestLogger) count(level zapcore.Level, msg string) int {
	n := 0
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			n++
		}
	}
	return n
}

func (t *TestLogger) summary() string {
	entries := t.observed.All()
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Level.String() + ":" + e.Message
	}
	return strings.Join(msgs, ", ")
}
