package primitives

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDurationSeconds bounds accepted input so arithmetic on the countdown never overflows.
const MaxDurationSeconds = math.MaxInt32

// FormatTime renders seconds as MM:SS. Negative values clamp to zero; minutes are not
// wrapped into hours, so 6000 seconds is "100:00".
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// TimeLeft renders "Time Left: N seconds" with N clamped at zero.
func TimeLeft(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("Time Left: %d seconds", seconds)
}

// decimalChars is every character a plain decimal number may contain.
const decimalChars = "0123456789.eE+-"

// ParseDuration interprets raw user input as a positive number of seconds.
// Fractions are truncated toward zero; anything that does not leave at least one whole
// second, or is not a finite decimal number, is rejected. Hex floats and underscored
// digits are not accepted.
func ParseDuration(input string) (int, bool) {
	s := strings.TrimSpace(input)
	if s == "" || strings.Trim(s, decimalChars) != "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 1 || v > MaxDurationSeconds {
		return 0, false
	}

	return int(v), true
}
