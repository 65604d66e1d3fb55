package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
	"github.com/comalice/countdown/internal/production"
)

type chartCommand struct {
	Format string `enum:"dot,json,yaml" default:"dot" help:"output format: {${enum}}"`
	State  string `default:"idle" help:"state to highlight in dot output"`
}

func (cmd *chartCommand) Run() error {
	return writeChart(os.Stdout, cmd.Format, primitives.StateID(cmd.State))
}

func writeChart(w io.Writer, format string, current primitives.StateID) error {
	v := &production.DefaultVisualizer{}
	chart := core.CountdownChart()

	var b []byte
	switch format {
	case "dot":
		b = []byte(v.ExportDOT(chart, current))
	case "json":
		j, err := v.ExportJSON(chart)
		if err != nil {
			return err
		}
		b = j
	case "yaml":
		y, err := v.ExportYAML(chart)
		if err != nil {
			return err
		}
		b = y
	default:
		return errors.Errorf("unknown chart format %q", format)
	}

	_, err := fmt.Fprint(w, string(b))
	return errors.Wrap(err, "write chart")
}
