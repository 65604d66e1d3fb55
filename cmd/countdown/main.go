package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/config"
	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/extensibility"
	"github.com/comalice/countdown/internal/logging"
	"github.com/comalice/countdown/realtime"
)

// CLI holds the global flags; each flag overrides the matching config file value.
type CLI struct {
	//revive:disable:struct-tag
	Config     string        `short:"c" default:"${config_path}" help:"config file (missing file means defaults)"`
	Interval   time.Duration `help:"tick interval, overrides timer.interval"`
	Duration   string        `help:"duration in seconds to set on launch, overrides timer.duration"`
	LogLevel   string        `name:"log-level" help:"log level: {trace, debug, info, warn, error}" group:"logging"`
	LogFormat  string        `name:"log-format" help:"log format: {json, terminal}" group:"logging"`
	LogFile    string        `name:"log-file" help:"log output file" group:"logging"`
	ForceColor bool          `name:"force-color" help:"log force color" group:"logging"`
	//revive:enable:struct-tag

	Run      runCommand      `cmd:"" help:"run the interactive timer (headless when stdout is not a terminal)"`
	Headless headlessCommand `cmd:"" help:"read commands from stdin, write steps as JSON lines"`
	Chart    chartCommand    `cmd:"" help:"print the timer chart"`
}

func main() {
	var cli CLI

	configPath, err := config.DefaultPath()
	if err != nil {
		configPath = ""
	}

	kctx := kong.Parse(&cli,
		kong.Name("countdown"),
		kong.Description("A single countdown timer."),
		kong.UsageOnError(),
		kong.Vars{"config_path": configPath},
	)

	kctx.FatalIfErrorf(kctx.Run(&cli))
}

// load reads the config file and applies flag overrides.
func (c *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}

	if c.Interval != 0 {
		cfg.Timer.Interval = c.Interval
	}
	if c.Duration != "" {
		cfg.Timer.Duration = c.Duration
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid flags")
	}

	return cfg, nil
}

// logger builds the process logger; without a log file it writes to fallback.
func (c *CLI) logger(cfg *config.Config, fallback io.Writer) (zerolog.Logger, io.Closer, error) {
	log, closer, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File, fallback, c.ForceColor)
	if err != nil {
		return log, closer, err
	}

	return log.With().Str("module", "main").Logger(), closer, nil
}

// newRuntime wires a controller into a runtime. At trace level every guard and action
// of the chart is logged.
func newRuntime(
	cfg *config.Config,
	log zerolog.Logger,
	publishers []core.Publisher,
	sources []core.EventSource,
) (*core.Controller, *realtime.Runtime, error) {
	opts := []core.Option{
		core.WithInterval(cfg.Timer.Interval),
		core.WithLogger(log),
	}
	if log.GetLevel() <= zerolog.TraceLevel {
		opts = append(opts, core.WithChart(extensibility.InstrumentChart(core.CountdownChart(), log)))
	}

	ctrl, err := core.NewController(opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create controller")
	}

	rt := realtime.NewRuntime(ctrl, realtime.Config{
		QueueSize:  cfg.Timer.QueueSize,
		Publishers: publishers,
		Sources:    sources,
		Logger:     log,
	})

	return ctrl, rt, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
