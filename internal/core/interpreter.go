package core

import (
	"sort"

	"github.com/comalice/countdown/internal/primitives"
)

// maxMicrosteps bounds eventless transition chains after a single event.
const maxMicrosteps = 16

// pickTransition returns the highest-priority enabled transition; equal priorities keep
// declaration order.
func (c *Controller) pickTransition(candidates []Transition, evt primitives.Event) (Transition, bool) {
	if len(candidates) == 0 {
		return Transition{}, false
	}

	ordered := candidates
	if len(candidates) > 1 {
		ordered = append([]Transition(nil), candidates...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Priority > ordered[j].Priority
		})
	}

	for _, t := range ordered {
		if t.Guard == nil || t.Guard(c, evt) {
			return t, true
		}
	}
	return Transition{}, false
}

// doTransition runs exit (source), transition actions, entry (target) and moves current.
// Internal transitions only run their actions.
func (c *Controller) doTransition(t Transition, evt primitives.Event) {
	source := c.chart.States[c.current]

	if t.Target == "" {
		runActions(c, t.Actions, evt)
		return
	}

	target := c.chart.States[t.Target]

	runActions(c, source.Exit, evt)
	runActions(c, t.Actions, evt)
	runActions(c, target.Entry, evt)

	c.log.Debug().
		Stringer("from", source.ID).
		Stringer("to", target.ID).
		Stringer("event", evt.Type).
		Msg("transition")

	c.current = target.ID
}

// processMicrosteps takes enabled eventless transitions until none apply.
func (c *Controller) processMicrosteps(evt primitives.Event) {
	for i := 0; i < maxMicrosteps; i++ {
		t, ok := c.pickTransition(c.chart.States[c.current].Always, evt)
		if !ok {
			return
		}
		c.doTransition(t, evt)
	}

	c.log.Error().Stringer("state", c.current).Msg("eventless transitions did not settle")
}

func runActions(c *Controller, actions []Action, evt primitives.Event) {
	for _, a := range actions {
		if a != nil {
			a(c, evt)
		}
	}
}
