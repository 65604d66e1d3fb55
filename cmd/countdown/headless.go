package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/config"
	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/extensibility"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
	"github.com/comalice/countdown/realtime"
)

type headlessCommand struct {
	Input string `help:"read commands from this file instead of stdin" type:"existingfile"`
}

func (cmd *headlessCommand) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}

	log, closer, err := cli.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	in := io.Reader(os.Stdin)
	if cmd.Input != "" {
		f, err := os.Open(cmd.Input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signalContext()
	defer stop()

	return headless(ctx, cfg, log, in, os.Stdout)
}

// headless applies commands from in one by one and writes every step to out. It returns
// on quit, on cancellation, or once in is exhausted and the countdown is no longer
// running. A countdown left paused at the end of input is torn down as is.
func headless(ctx context.Context, cfg *config.Config, log zerolog.Logger, in io.Reader, out io.Writer) error {
	watch := production.NewChannelPublisher(1)

	_, rt, err := newRuntime(cfg, log,
		[]core.Publisher{production.NewJSONLinePublisher(out), watch},
		nil,
	)
	if err != nil {
		return err
	}

	if err := rt.Start(ctx); err != nil {
		return errors.Wrap(err, "start runtime")
	}
	defer rt.Stop()

	if cfg.Timer.Duration != "" {
		if _, err := rt.Dispatch(ctx, primitives.SetEvent(cfg.Timer.Duration)); err != nil {
			return errors.Wrap(err, "preset duration")
		}
	}

	src := extensibility.NewLineEventSource(in, log)
	defer src.Close()

	for evt := range src.Events() {
		switch _, err := rt.Dispatch(ctx, evt); {
		case err == nil:
		case errors.Is(err, realtime.ErrNotRunning), errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	}

	if err := src.Err(); err != nil {
		return err
	}

	for rt.State() == primitives.Running {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watch.C():
			if !ok {
				return nil
			}
		}
	}

	log.Debug().
		Str("session", rt.Session()).
		Stringer("state", rt.State()).
		Uint64("ticks", rt.Ticks()).
		Msg("input exhausted")

	return rt.Stop()
}
