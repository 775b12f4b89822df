package timer

import (
	"fmt"
	"time"
)

// State is the in-memory timer state. Preset is -1 until one is selected.
type State struct {
	Phase     Phase
	Preset    int
	Remaining time.Duration
}

// InitialState is Idle with no preset.
func InitialState() State {
	return State{Phase: Idle, Preset: -1}
}

// EventKind enumerates the inputs of Transition.
type EventKind int

const (
	EventSelectPreset EventKind = iota
	EventStart
	EventStop
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventSelectPreset:
		return "select_preset"
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventTick:
		return "tick"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input. Preset is only read for EventSelectPreset.
type Event struct {
	Kind   EventKind
	Preset int
}

// SelectEvent selects preset i.
func SelectEvent(i int) Event {
	return Event{Kind: EventSelectPreset, Preset: i}
}

var (
	StartEvent = Event{Kind: EventStart}
	StopEvent  = Event{Kind: EventStop}
	TickEvent  = Event{Kind: EventTick}
)

// EffectKind enumerates what a transition asks the outside world to do.
type EffectKind int

const (
	// EffectFinalize folds the unfinished session into a recorded one,
	// ending now.
	EffectFinalize EffectKind = iota
	// EffectOpen starts a new unfinished session at now.
	EffectOpen
	// EffectHeartbeat refreshes the unfinished session's lastActive.
	EffectHeartbeat
	// EffectSignal emits Effect.Signal.
	EffectSignal
)

func (k EffectKind) String() string {
	switch k {
	case EffectFinalize:
		return "finalize"
	case EffectOpen:
		return "open"
	case EffectHeartbeat:
		return "heartbeat"
	case EffectSignal:
		return "signal"
	default:
		return fmt.Sprintf("effect(%d)", int(k))
	}
}

type Effect struct {
	Kind   EffectKind
	Signal Signal
}

var (
	finalize  = Effect{Kind: EffectFinalize}
	open      = Effect{Kind: EffectOpen}
	heartbeat = Effect{Kind: EffectHeartbeat}
)

func emit(s Signal) Effect {
	return Effect{Kind: EffectSignal, Signal: s}
}

// Transition computes the next state and the effects to apply, in order.
// It performs no I/O.
func Transition(s State, ev Event, presets []Preset) (State, []Effect, error) {
	switch ev.Kind {
	case EventSelectPreset:
		if ev.Preset < 0 || ev.Preset >= len(presets) {
			return s, nil, fmt.Errorf("%w: %d", ErrUnknownPreset, ev.Preset)
		}
		var effects []Effect
		if s.Phase == Working {
			// Flush before switching so the running interval is not
			// counted twice.
			effects = append(effects, finalize)
		}
		effects = append(effects, open)
		return State{Phase: Working, Preset: ev.Preset, Remaining: presets[ev.Preset].Work}, effects, nil

	case EventStart:
		if s.Phase.Active() {
			return s, nil, nil
		}
		if s.Preset < 0 || s.Preset >= len(presets) {
			return s, nil, ErrNoPreset
		}
		return State{Phase: Working, Preset: s.Preset, Remaining: presets[s.Preset].Work}, []Effect{open}, nil

	case EventStop:
		next := State{Phase: Idle, Preset: s.Preset, Remaining: s.Remaining}
		if s.Phase == Working {
			return next, []Effect{finalize}, nil
		}
		return next, nil, nil

	case EventTick:
		if !s.Phase.Active() || s.Preset < 0 || s.Preset >= len(presets) {
			return s, nil, nil
		}
		next := s
		next.Remaining -= TickInterval
		if next.Remaining > 0 {
			if s.Phase == Working {
				return next, []Effect{heartbeat}, nil
			}
			return next, nil, nil
		}

		p := presets[s.Preset]
		if s.Phase == Working {
			return State{Phase: OnBreak, Preset: s.Preset, Remaining: p.Rest},
				[]Effect{finalize, emit(WorkComplete)}, nil
		}
		return State{Phase: Working, Preset: s.Preset, Remaining: p.Work},
			[]Effect{emit(BreakComplete), open}, nil
	}

	return s, nil, fmt.Errorf("unknown event %v", ev.Kind)
}
