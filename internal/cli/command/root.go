package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/internal/config"
	"github.com/stevenberge/tikv/internal/infra/buildinfo"
	"github.com/stevenberge/tikv/internal/storage"
	"github.com/stevenberge/tikv/internal/storage/mvcc"
	"github.com/stevenberge/tikv/internal/telemetry/logger"
	"github.com/stevenberge/tikv/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "kvsum",
		Usage:   "Snapshot range checksums over an MVCC key/value store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoadCommand(),
			ChecksumCommand(),
			CombineCommand(),
			StatsCommand(),
			VersionCommand(),
		},
		// Keys and --part values carry commas.
		DisableSliceFlagSeparator: true,
		Before:                    setup,
		After:                     teardown,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"KVSUM_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Storage data directory",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Storage backend: badger, memory",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:  "log-backend",
			Usage: "Logger implementation: slog, zap",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "Dump Prometheus metrics after the command",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write the metrics dump to this file instead of stderr",
		},
	}
}

// flagOverrides maps explicitly set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"data-dir":     "storage.data_dir",
		"backend":      "storage.backend",
		"log-level":    "log.level",
		"log-format":   "log.format",
		"log-backend":  "log.backend",
		"metrics-file": "metrics.file",
	}

	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	if c.IsSet("metrics") {
		overrides["metrics.dump"] = c.Bool("metrics")
	}
	return overrides
}

// Runtime holds what commands share during one invocation.
type Runtime struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *metric.Registry

	engine  mvcc.Engine
	logFile *os.File
}

// Engine opens the configured storage engine on first use.
func (r *Runtime) Engine() (mvcc.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	engine, err := storage.Open(r.Config.StorageConfig(r.Logger))
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	rt := &Runtime{Config: cfg, Registry: metric.NewRegistry()}

	var logOut io.Writer = c.App.ErrWriter
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		logOut = f
	}

	rt.Logger, err = logger.New(cfg.LoggerConfig(logOut))
	if err != nil {
		return err
	}
	logger.SetDefault(rt.Logger)

	c.App.Metadata[runtimeKey] = rt
	return nil
}

func teardown(c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok {
		return nil
	}

	var errs []error
	if rt.Config.Metrics.Dump {
		errs = append(errs, dumpMetrics(c, rt))
	}
	if rt.engine != nil {
		errs = append(errs, rt.engine.Close())
	}
	if err := logger.Sync(rt.Logger); err != nil {
		rt.Logger.Debug("logger sync failed", "error", err)
	}
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
	}
	return errors.Join(errs...)
}

func dumpMetrics(c *cli.Context, rt *Runtime) error {
	if rt.engine != nil {
		collector := metric.NewCollector(rt.Config.Storage.Backend, storage.StatsSource{Engine: rt.engine})
		if err := rt.Registry.Register(collector); err != nil {
			return err
		}
	}

	w := c.App.ErrWriter
	if rt.Config.Metrics.File != "" {
		f, err := os.Create(rt.Config.Metrics.File)
		if err != nil {
			return fmt.Errorf("metrics file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return rt.Registry.WriteText(w)
}

// runtimeFrom returns the runtime built by setup.
func runtimeFrom(c *cli.Context) *Runtime {
	rt, _ := c.App.Metadata[runtimeKey].(*Runtime)
	return rt
}

// commandContext returns the context a command runs under, carrying its
// logger and command name.
func commandContext(c *cli.Context) context.Context {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if rt := runtimeFrom(c); rt != nil {
		ctx = logger.WithLogger(ctx, rt.Logger)
	}
	return logger.WithCommand(ctx, c.Command.Name)
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: table, json, yaml",
		Value:   "table",
	}
}
