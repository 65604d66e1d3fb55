package extensibility

import (
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// InstrumentChart returns a copy of chart whose guards and actions log every evaluation at
// trace level. The original chart is left untouched.
func InstrumentChart(chart *core.Chart, log zerolog.Logger) *core.Chart {
	log = log.With().Str("module", "chart").Str("chart", chart.ID).Logger()

	out := &core.Chart{
		ID:      chart.ID,
		Initial: chart.Initial,
		States:  make(map[primitives.StateID]*core.StateConfig, len(chart.States)),
	}

	for id, s := range chart.States {
		if s == nil {
			out.States[id] = nil
			continue
		}

		state := &core.StateConfig{
			ID:     s.ID,
			Always: instrumentTransitions(s.Always, log),
			Entry:  instrumentActions(s.Entry, log),
			Exit:   instrumentActions(s.Exit, log),
		}
		if s.On != nil {
			state.On = make(map[primitives.EventType][]core.Transition, len(s.On))
			for e, ts := range s.On {
				state.On[e] = instrumentTransitions(ts, log)
			}
		}
		out.States[id] = state
	}

	return out
}

func instrumentTransitions(ts []core.Transition, log zerolog.Logger) []core.Transition {
	if ts == nil {
		return nil
	}

	out := make([]core.Transition, len(ts))
	for i, t := range ts {
		out[i] = t
		out[i].Actions = instrumentActions(t.Actions, log)
		if t.Guard != nil {
			out[i].Guard = loggingGuard(t.Guard, log)
		}
	}
	return out
}

func instrumentActions(actions []core.Action, log zerolog.Logger) []core.Action {
	if actions == nil {
		return nil
	}

	out := make([]core.Action, len(actions))
	for i, a := range actions {
		out[i] = loggingAction(a, log)
	}
	return out
}

func loggingAction(action core.Action, log zerolog.Logger) core.Action {
	name := funcName(action)
	return func(c *core.Controller, evt primitives.Event) {
		start := time.Now()
		action(c, evt)
		log.Trace().
			Str("action", name).
			Stringer("event", evt.Type).
			Dur("elapsed", time.Since(start)).
			Msg("action run")
	}
}

func loggingGuard(guard core.Guard, log zerolog.Logger) core.Guard {
	name := funcName(guard)
	return func(c *core.Controller, evt primitives.Event) bool {
		ok := guard(c, evt)
		log.Trace().
			Str("guard", name).
			Stringer("event", evt.Type).
			Bool("enabled", ok).
			Msg("guard evaluated")
		return ok
	}
}

// funcName returns the unqualified name of a function value, e.g. "decrement".
func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "unknown"
	}

	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
