package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/attachments"
	"github.com/fyrsmithlabs/designsprint/internal/config"
	"github.com/fyrsmithlabs/designsprint/internal/gateway"
	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/secrets"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
	"github.com/fyrsmithlabs/designsprint/internal/telemetry"
	"github.com/fyrsmithlabs/designsprint/internal/tui"
)

const (
	logFileName     = "sprint.log"
	shutdownTimeout = 5 * time.Second
)

// loadConfig reads .env from the working directory, then the layered config.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app holds the wired dependencies of one run.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	client gateway.Client
	orch   *sprint.Orchestrator
	loader *attachments.Loader
	// scrubber is nil when export.keep_secrets is set.
	scrubber *secrets.Scrubber
}

// newApp wires logging, telemetry, the AI gateway and the orchestrator.
// A gateway that cannot be built leaves the orchestrator running with the
// backend reported unavailable.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	initial, err := phase.Parse(cfg.Sprint.InitialPhase)
	if err != nil {
		return nil, fmt.Errorf("invalid sprint.initial_phase: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	// The terminal belongs to the UI, so logs default to a file.
	if cfg.Logging.File == "" {
		dir, err := config.StateDir()
		if err != nil {
			return nil, err
		}
		logCfg.Output.Stderr = false
		logCfg.Output.File = filepath.Join(dir, logFileName)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if reason := tel.DegradedReason(); reason != "" {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	client, clientErr := gateway.New(ctx, cfg.AI,
		gateway.WithLogger(logger),
		gateway.WithTelemetry(tel),
	)
	if clientErr != nil {
		client = nil
		logger.Warn(ctx, "AI backend unavailable",
			zap.String("provider", cfg.AI.Provider),
			zap.Bool("configuration_error", gateway.IsConfigurationError(clientErr)),
			zap.Error(clientErr))
	}

	orch := sprint.New(sprint.Config{
		DefaultPersona:  cfg.Sprint.DefaultPersona,
		DecideFramework: cfg.Sprint.DecideFramework,
		InitialPhase:    initial,
		MaxImages:       cfg.Images.MaxFiles,
	}, client, clientErr,
		sprint.WithLogger(logger),
		sprint.WithTelemetry(tel),
	)

	logger.Info(ctx, "designsprint starting",
		zap.String("version", version),
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.Stringer("initial_phase", initial),
		zap.Bool("telemetry", tel.IsEnabled()))

	a := &app{
		cfg:    cfg,
		logger: logger,
		tel:    tel,
		client: client,
		orch:   orch,
		loader: attachments.NewLoader(cfg.Images),
	}
	if !cfg.Export.KeepSecrets {
		a.scrubber = secrets.MustNew()
	}
	return a, nil
}

// Close releases the gateway, flushes telemetry and closes the log.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	errs = append(errs, a.logger.Close())
	return errors.Join(errs...)
}

func runInteractive(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	return tui.Run(ctx, a.orch, tui.Options{
		Loader:        a.loader,
		ExportDir:     opts.exportDir,
		Scrubber:      a.scrubber,
		MarkdownStyle: opts.markdownStyle,
		Logger:        a.logger.Named("tui"),
	})
}
