// Tests for DefaultVisualizer chart exports.
package production

import (
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

func TestDefaultVisualizer_ExportDOT(t *testing.T) {
	v := &DefaultVisualizer{}
	dot := v.ExportDOT(core.CountdownChart(), primitives.Paused)

	for _, want := range []string{
		`digraph "countdown" {`,
		`__start -> "idle";`,
		`"paused" [label="paused" style="rounded,filled" fillcolor=lightgreen];`,
		`"idle" [label="idle"];`,
		`"idle" -> "running" [label="start [guard]"];`,
		`"running" -> "paused" [label="pause"];`,
		`"running" -> "running" [label="tick"];`,
		`"running" -> "idle" [label="expire [guard]" style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %s\n%s", want, dot)
		}
	}

	if strings.Count(dot, "fillcolor") != 1 {
		t.Error("exactly one state should be highlighted")
	}
}

func TestDefaultVisualizer_Describe(t *testing.T) {
	desc := (&DefaultVisualizer{}).Describe(core.CountdownChart())

	if desc.ID != "countdown" || desc.Initial != "idle" {
		t.Fatalf("unexpected header %+v", desc)
	}
	if len(desc.States) != 3 || !desc.States[0].Initial {
		t.Fatalf("unexpected states %+v", desc.States)
	}

	var running StateDescription
	for _, s := range desc.States {
		if s.ID == "running" {
			running = s
		}
	}
	if running.Entry != 1 || running.Exit != 1 {
		t.Errorf("running should have one entry and one exit action: %+v", running)
	}

	var internal, eventless int
	for _, e := range desc.Edges {
		if e.Internal {
			internal++
			if e.From != e.To {
				t.Errorf("internal edge %+v should loop", e)
			}
		}
		if e.Eventless {
			eventless++
		}
	}
	// idle: set, stop; running: tick
	if internal != 3 {
		t.Errorf("internal edges = %d, want 3", internal)
	}
	if eventless != 1 {
		t.Errorf("eventless edges = %d, want 1", eventless)
	}
}

func TestDefaultVisualizer_ExportJSON(t *testing.T) {
	v := &DefaultVisualizer{}
	data, err := v.ExportJSON(core.CountdownChart())
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var desc ChartDescription
	if err := jsoniter.Unmarshal(data, &desc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if desc.ID != "countdown" || len(desc.Edges) != len(v.Describe(core.CountdownChart()).Edges) {
		t.Errorf("round trip mismatch: %+v", desc)
	}
}

func TestDefaultVisualizer_ExportYAML(t *testing.T) {
	v := &DefaultVisualizer{}
	data, err := v.ExportYAML(core.CountdownChart())
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	if !strings.Contains(string(data), "initial: idle") {
		t.Errorf("YAML missing initial state:\n%s", data)
	}

	var desc ChartDescription
	if err := yaml.Unmarshal(data, &desc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(desc.States) != 3 {
		t.Errorf("states = %d, want 3", len(desc.States))
	}
}
