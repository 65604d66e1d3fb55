package primitives

// Controls describes which widget controls are enabled for a given countdown.
// Hosts render from it instead of re-deriving the gating rules.
type Controls struct {
	DurationEditable bool
	SetEnabled       bool
	StartEnabled     bool
	// StartLabel is "Resume" while paused, "Start" otherwise.
	StartLabel   string
	PauseEnabled bool
	ResetEnabled bool
}

// Controls derives control gating from the countdown flags.
func (c Countdown) Controls() Controls {
	label := "Start"
	if c.Paused {
		label = "Resume"
	}

	return Controls{
		DurationEditable: !c.Active,
		SetEnabled:       !c.Active,
		StartEnabled:     !(c.Active && !c.Paused),
		StartLabel:       label,
		PauseEnabled:     c.Active && !c.Paused,
		ResetEnabled:     c.Active,
	}
}
