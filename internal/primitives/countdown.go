package primitives

import "fmt"

// StateID identifies a node of the countdown chart.
type StateID string

const (
	Idle    StateID = "idle"
	Running StateID = "running"
	Paused  StateID = "paused"
)

func (s StateID) String() string {
	return string(s)
}

// Countdown is the extended state of one timer: configured duration, remaining time and
// the active/paused flags. It is a value type; the controller hands out copies.
type Countdown struct {
	// Configured is the last accepted duration in seconds. Valid only when HasConfigured.
	Configured    int  `json:"configured" yaml:"configured"`
	HasConfigured bool `json:"hasConfigured" yaml:"hasConfigured"`
	Remaining     int  `json:"remaining" yaml:"remaining"`
	Active        bool `json:"active" yaml:"active"`
	Paused        bool `json:"paused" yaml:"paused"`
}

// State derives the chart node from the flags.
func (c Countdown) State() StateID {
	switch {
	case c.Active && c.Paused:
		return Paused
	case c.Active:
		return Running
	default:
		return Idle
	}
}

// Ready reports whether a start from idle would begin a countdown.
func (c Countdown) Ready() bool {
	return c.HasConfigured && c.Configured > 0
}

// Valid checks the flag and range invariants.
func (c Countdown) Valid() error {
	if c.Paused && !c.Active {
		return fmt.Errorf("paused without active")
	}
	if c.Remaining < 0 {
		return fmt.Errorf("negative remaining %d", c.Remaining)
	}
	if c.HasConfigured && c.Configured <= 0 {
		return fmt.Errorf("non-positive configured %d", c.Configured)
	}
	return nil
}

// Display renders the remaining time as MM:SS.
func (c Countdown) Display() string {
	return FormatTime(c.Remaining)
}

// TimeLeft renders the textual restatement of the remaining time.
func (c Countdown) TimeLeft() string {
	return TimeLeft(c.Remaining)
}
