package main

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/countdown/internal/config"
	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/extensibility"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
	"github.com/comalice/countdown/internal/tui"
)

type runCommand struct{}

func (cmd *runCommand) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		log, closer, err := cli.logger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer closer.Close()

		log.Info().Msg("stdout is not a terminal; running headless")
		return headless(ctx, cfg, log, os.Stdin, os.Stdout)
	}

	// the terminal belongs to the UI; logs go to the log file or nowhere
	log, closer, err := cli.logger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	return interactive(ctx, cfg, log)
}

func interactive(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	steps := production.NewChannelPublisher(cfg.Timer.QueueSize)
	commands := extensibility.NewChannelEventSource(make(chan primitives.Event, cfg.Timer.QueueSize))

	ctrl, rt, err := newRuntime(cfg, log,
		[]core.Publisher{steps, production.NewLogPublisher(log)},
		[]core.EventSource{commands},
	)
	if err != nil {
		return err
	}

	model := tui.New(cfg.UI.Title, ctrl.Snapshot(), steps.C(), commands)

	if cfg.Timer.Duration != "" {
		commands.Send(primitives.SetEvent(cfg.Timer.Duration))
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := rt.Start(gctx); err != nil {
		return errors.Wrap(err, "start runtime")
	}

	opts := []tea.ProgramOption{tea.WithContext(gctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)

	g.Go(func() error {
		defer rt.Stop()

		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return errors.Wrap(err, "ui")
	})

	g.Go(func() error {
		<-rt.Done()
		p.Quit()
		return nil
	})

	err = g.Wait()
	log.Info().Err(err).Str("session", rt.Session()).Uint64("ticks", rt.Ticks()).Msg("stopped")

	return err
}
