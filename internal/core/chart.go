// Package core provides the runtime core tier of the countdown widget.
// Chart holds the declarative shape of the timer: states, guarded and prioritised
// transitions, entry/exit actions and eventless transitions evaluated after each event.
package core

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/comalice/countdown/internal/primitives"
)

// Guard decides whether a transition is enabled for the event.
type Guard func(c *Controller, evt primitives.Event) bool

// Action mutates controller state as part of a transition.
type Action func(c *Controller, evt primitives.Event)

// Transition describes one edge of the chart.
type Transition struct {
	Target   primitives.StateID // empty --> internal transition (no exit/entry)
	Guard    Guard              // nil --> always enabled
	Actions  []Action
	Priority int    // higher = evaluated first (default 0)
	Label    string // optional edge label for visualisation
}

// StateConfig describes one node of the chart.
type StateConfig struct {
	ID primitives.StateID
	On map[primitives.EventType][]Transition
	// Always transitions are evaluated after every processed event while in this state.
	Always []Transition
	Entry  []Action
	Exit   []Action
}

// Chart is the complete flat statechart.
type Chart struct {
	ID      string
	Initial primitives.StateID
	States  map[primitives.StateID]*StateConfig
}

// Validate validates the chart:
// - Non-empty ID and Initial
// - Initial exists in States
// - All transition targets exist
// - No orphaned states (all reachable from Initial)
func (ch *Chart) Validate() error {
	if ch.ID == "" {
		return errors.New("chart ID is required")
	}
	if ch.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(ch.States) == 0 {
		return errors.New("states map is required and cannot be empty")
	}
	if _, ok := ch.States[ch.Initial]; !ok {
		return errors.Errorf("initial state %q not found in states", ch.Initial)
	}

	for sid, state := range ch.States {
		if state == nil {
			return errors.Errorf("state %q is nil", sid)
		}
		if state.ID != sid {
			return errors.Errorf("state %q registered under %q", state.ID, sid)
		}
		for _, ts := range state.transitions() {
			if ts.Target == "" {
				continue
			}
			if _, ok := ch.States[ts.Target]; !ok {
				return errors.Errorf("invalid transition target %q (state %q)", ts.Target, sid)
			}
		}
		for event := range state.On {
			if event == "" {
				return errors.Errorf("empty event name in On map for state %s", sid)
			}
		}
	}

	visited := map[primitives.StateID]bool{}
	ch.markReachable(ch.Initial, visited)
	for sid := range ch.States {
		if !visited[sid] {
			return errors.Errorf("orphaned state %q (not reachable from initial %q)", sid, ch.Initial)
		}
	}

	return nil
}

func (ch *Chart) markReachable(id primitives.StateID, visited map[primitives.StateID]bool) {
	if visited[id] {
		return
	}
	visited[id] = true

	for _, t := range ch.States[id].transitions() {
		if t.Target != "" {
			ch.markReachable(t.Target, visited)
		}
	}
}

// Events returns the event types handled anywhere in the chart, sorted.
func (ch *Chart) Events() []primitives.EventType {
	seen := map[primitives.EventType]bool{}
	for _, s := range ch.States {
		for e := range s.On {
			seen[e] = true
		}
	}

	events := make([]primitives.EventType, 0, len(seen))
	for e := range seen {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// StateIDs returns the chart's state IDs, initial first, the rest sorted.
func (ch *Chart) StateIDs() []primitives.StateID {
	ids := make([]primitives.StateID, 0, len(ch.States))
	for id := range ch.States {
		if id != ch.Initial {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return append([]primitives.StateID{ch.Initial}, ids...)
}

func (s *StateConfig) transitions() []Transition {
	var all []Transition
	for _, ts := range s.On {
		all = append(all, ts...)
	}
	return append(all, s.Always...)
}

// CountdownChart builds the timer chart:
//
//	idle    --set(valid)--> idle      remaining and configured set
//	idle    --start-------> running   guarded by a configured duration
//	running --tick--------> running   internal, decrements
//	running --(expired)---> idle      eventless, after every decrement
//	running --pause-------> paused
//	paused  --start-------> running   remaining kept
//	running|paused --stop-> idle      remaining forced to 0
//	running|paused --set(valid)--> idle
//
// Entering running acquires the periodic handle and leaving it releases the handle, so
// every exit path (pause, stop, expiry, set) gives the handle back.
func CountdownChart() *Chart {
	set := Transition{Guard: validInput, Actions: []Action{applyDuration}}
	setToIdle := set
	setToIdle.Target = primitives.Idle
	stop := Transition{Target: primitives.Idle, Actions: []Action{reset}}

	return &Chart{
		ID:      "countdown",
		Initial: primitives.Idle,
		States: map[primitives.StateID]*StateConfig{
			primitives.Idle: {
				ID: primitives.Idle,
				On: map[primitives.EventType][]Transition{
					primitives.EventSet:   {set},
					primitives.EventStart: {{Target: primitives.Running, Guard: ready, Actions: []Action{begin}}},
					primitives.EventStop:  {{Actions: []Action{reset}}},
				},
			},
			primitives.Running: {
				ID:    primitives.Running,
				Entry: []Action{acquireHandle},
				Exit:  []Action{releaseHandle},
				On: map[primitives.EventType][]Transition{
					primitives.EventTick:  {{Actions: []Action{decrement}}},
					primitives.EventPause: {{Target: primitives.Paused, Actions: []Action{pause}}},
					primitives.EventStop:  {stop},
					primitives.EventSet:   {setToIdle},
				},
				Always: []Transition{
					{Target: primitives.Idle, Guard: expired, Actions: []Action{expire}, Label: string(primitives.EventExpire)},
				},
			},
			primitives.Paused: {
				ID: primitives.Paused,
				On: map[primitives.EventType][]Transition{
					primitives.EventStart: {{Target: primitives.Running, Actions: []Action{resume}}},
					primitives.EventStop:  {stop},
					primitives.EventSet:   {setToIdle},
				},
			},
		},
	}
}

//
// Guards
//

func validInput(_ *Controller, evt primitives.Event) bool {
	input, ok := evt.Input()
	if !ok {
		return false
	}
	_, ok = primitives.ParseDuration(input)
	return ok
}

func ready(c *Controller, _ primitives.Event) bool {
	return c.data.Ready()
}

func expired(c *Controller, _ primitives.Event) bool {
	return c.data.Active && c.data.Remaining <= 0
}

//
// Actions
//

func applyDuration(c *Controller, evt primitives.Event) {
	input, _ := evt.Input()
	secs, ok := primitives.ParseDuration(input)
	if !ok {
		return
	}

	c.releaseHandle()
	c.data.Configured = secs
	c.data.HasConfigured = true
	c.data.Remaining = secs
	c.data.Active = false
	c.data.Paused = false
}

func begin(c *Controller, _ primitives.Event) {
	c.data.Remaining = c.data.Configured
	c.data.Active = true
	c.data.Paused = false
}

func resume(c *Controller, _ primitives.Event) {
	c.data.Paused = false
}

func pause(c *Controller, _ primitives.Event) {
	c.data.Paused = true
}

func reset(c *Controller, _ primitives.Event) {
	c.releaseHandle()
	c.data.Active = false
	c.data.Paused = false
	c.data.Remaining = 0
}

func decrement(c *Controller, _ primitives.Event) {
	c.data.Remaining--
}

func expire(c *Controller, _ primitives.Event) {
	c.data.Active = false
	c.data.Paused = false
	if c.data.Remaining < 0 {
		c.data.Remaining = 0
	}
	c.expired = true
}

func acquireHandle(c *Controller, _ primitives.Event) {
	c.acquireHandle()
}

func releaseHandle(c *Controller, _ primitives.Event) {
	c.releaseHandle()
}
