// Package timer implements the focus/break phase machine that drives study
// session recording.
package timer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoPreset is returned by Start before any preset was selected.
	ErrNoPreset = errors.New("no preset selected")
	// ErrUnknownPreset is returned for an out-of-range preset index.
	ErrUnknownPreset = errors.New("unknown preset")
)

// TickInterval is the cadence of Tick events and heartbeats.
const TickInterval = time.Second

// Phase is the engine's explicit state.
type Phase int

const (
	Idle Phase = iota
	Working
	OnBreak
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case OnBreak:
		return "on_break"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Active reports whether the phase counts down.
func (p Phase) Active() bool {
	return p == Working || p == OnBreak
}

// Preset pairs a work duration with a rest duration.
type Preset struct {
	Label string
	Work  time.Duration
	Rest  time.Duration
}

// DefaultPresets returns the built-in 25/5 and 50/10 presets.
func DefaultPresets() []Preset {
	return []Preset{
		{Label: "25/5", Work: 25 * time.Minute, Rest: 5 * time.Minute},
		{Label: "50/10", Work: 50 * time.Minute, Rest: 10 * time.Minute},
	}
}

// Validate rejects presets the countdown cannot run.
func (p Preset) Validate() error {
	if p.Work < TickInterval {
		return fmt.Errorf("preset %q: work must be at least %s", p.Label, TickInterval)
	}
	if p.Rest < TickInterval {
		return fmt.Errorf("preset %q: rest must be at least %s", p.Label, TickInterval)
	}
	return nil
}

// Summary describes the preset as "25m work, 5m break".
func (p Preset) Summary() string {
	return ShortDuration(p.Work) + " work, " + ShortDuration(p.Rest) + " break"
}

// ShortDuration drops zero trailing units, so 25m renders as "25m" and 1h
// as "1h".
func ShortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

// Signal is emitted when a phase runs out.
type Signal int

const (
	NoSignal Signal = iota
	WorkComplete
	BreakComplete
)

func (s Signal) String() string {
	switch s {
	case WorkComplete:
		return "work_complete"
	case BreakComplete:
		return "break_complete"
	default:
		return "none"
	}
}

// Message is the spoken/notified text for the signal.
func (s Signal) Message() string {
	switch s {
	case WorkComplete:
		return "Work session is complete. Time for a break."
	case BreakComplete:
		return "Break is over. Time to work."
	default:
		return ""
	}
}

// Title is a short heading for notifications.
func (s Signal) Title() string {
	switch s {
	case WorkComplete:
		return "Break time"
	case BreakComplete:
		return "Back to work"
	default:
		return ""
	}
}
