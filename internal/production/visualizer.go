package production

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// DefaultVisualizer renders a chart as Graphviz DOT, JSON or YAML.
type DefaultVisualizer struct{}

// ChartDescription is the serialisable shape of a core.Chart. Guards and actions are
// functions, so only their presence is recorded.
type ChartDescription struct {
	ID      string             `json:"id" yaml:"id"`
	Initial string             `json:"initial" yaml:"initial"`
	States  []StateDescription `json:"states" yaml:"states"`
	Edges   []Edge             `json:"edges" yaml:"edges"`
}

type StateDescription struct {
	ID      string `json:"id" yaml:"id"`
	Entry   int    `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit    int    `json:"exit,omitempty" yaml:"exit,omitempty"`
	Initial bool   `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Edge represents a transition edge. Internal transitions have From == To and Internal set.
type Edge struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Event     string `json:"event,omitempty" yaml:"event,omitempty"`
	Label     string `json:"label" yaml:"label"`
	Guarded   bool   `json:"guarded,omitempty" yaml:"guarded,omitempty"`
	Internal  bool   `json:"internal,omitempty" yaml:"internal,omitempty"`
	Eventless bool   `json:"eventless,omitempty" yaml:"eventless,omitempty"`
	Priority  int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Actions   int    `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Describe flattens the chart in a stable order: states initial first, edges by source
// state then event.
func (v *DefaultVisualizer) Describe(chart *core.Chart) ChartDescription {
	desc := ChartDescription{ID: chart.ID, Initial: chart.Initial.String()}

	for _, id := range chart.StateIDs() {
		s := chart.States[id]
		desc.States = append(desc.States, StateDescription{
			ID:      id.String(),
			Entry:   len(s.Entry),
			Exit:    len(s.Exit),
			Initial: id == chart.Initial,
		})
		desc.Edges = append(desc.Edges, collectEdges(s)...)
	}

	return desc
}

// ExportDOT generates Graphviz DOT source for the chart with current highlighted.
func (v *DefaultVisualizer) ExportDOT(chart *core.Chart, current primitives.StateID) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `digraph %q {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
  __start [shape=point];
`, chart.ID)

	desc := v.Describe(chart)

	for _, s := range desc.States {
		style := ""
		if s.ID == current.String() {
			style = ` style="rounded,filled" fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", s.ID, s.ID, style)
	}

	fmt.Fprintf(&buf, "  __start -> %q;\n", desc.Initial)

	for _, e := range desc.Edges {
		attrs := fmt.Sprintf("label=%q", e.Label)
		if e.Eventless {
			attrs += " style=dashed"
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the chart description to indented JSON.
func (v *DefaultVisualizer) ExportJSON(chart *core.Chart) ([]byte, error) {
	var buf bytes.Buffer
	enc := jsonLine.NewEncoder(&buf)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v.Describe(chart)); err != nil {
		return nil, errors.Wrap(err, "encode chart")
	}
	return buf.Bytes(), nil
}

// ExportYAML serializes the chart description to YAML.
func (v *DefaultVisualizer) ExportYAML(chart *core.Chart) ([]byte, error) {
	b, err := yaml.Marshal(v.Describe(chart))
	return b, errors.Wrap(err, "marshal chart")
}

func collectEdges(s *core.StateConfig) []Edge {
	events := make([]primitives.EventType, 0, len(s.On))
	for e := range s.On {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })

	var edges []Edge
	for _, e := range events {
		for _, t := range s.On[e] {
			edges = append(edges, newEdge(s.ID, e, t))
		}
	}
	for _, t := range s.Always {
		edges = append(edges, newEdge(s.ID, "", t))
	}
	return edges
}

func newEdge(from primitives.StateID, event primitives.EventType, t core.Transition) Edge {
	e := Edge{
		From:      from.String(),
		To:        from.String(),
		Event:     event.String(),
		Guarded:   t.Guard != nil,
		Internal:  t.Target == "",
		Eventless: event == "",
		Priority:  t.Priority,
		Actions:   len(t.Actions),
	}
	if !e.Internal {
		e.To = t.Target.String()
	}

	switch {
	case t.Label != "":
		e.Label = t.Label
	case e.Eventless:
		e.Label = "always"
	default:
		e.Label = e.Event
	}
	if e.Guarded {
		e.Label += " [guard]"
	}

	return e
}
