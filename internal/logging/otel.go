package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newDualCore tees the enabled sinks: redacted stderr and file output, and
// the OTEL log bridge when a provider is given. The closer is the log file,
// or nil.
func newDualCore(cfg *Config, otelProvider log.LoggerProvider) (zapcore.Core, io.Closer, error) {
	var (
		cores []zapcore.Core
		file  *os.File
	)
	if cfg.Output.Stderr || cfg.Output.File != "" {
		enc, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redacting encoder: %w", err)
		}
		if cfg.Output.Stderr {
			cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), cfg.Level))
		}
		if cfg.Output.File != "" {
			file, err = os.OpenFile(cfg.Output.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open log file: %w", err)
			}
			cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(file), cfg.Level))
		}
	}
	if cfg.Output.OTEL && otelProvider != nil {
		cores = append(cores, otelzap.NewCore("designsprint", otelzap.WithLoggerProvider(otelProvider)))
	}
	if len(cores) == 0 {
		return nil, nil, errors.New("no usable log output: otel needs a logger provider")
	}

	core := newSampledCore(zapcore.NewTee(cores...), cfg.Sampling)
	if file == nil {
		return core, nil, nil
	}
	return core, file, nil
}
