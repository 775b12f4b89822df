package timer

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"lockin/internal/metrics"
	"lockin/internal/storage"
)

// SessionStore is the persistence the engine drives. *storage.Storage
// satisfies it.
type SessionStore interface {
	SetUnfinishedSession(start time.Time) (storage.UnfinishedSession, error)
	UpdateLastActive() error
	FinalizeUnfinished(end *time.Time) (*storage.Session, error)
}

// Engine applies Transition against a SessionStore. It is not safe for
// concurrent use; wrap it in a Runner for that.
type Engine struct {
	store   SessionStore
	presets []Preset
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	state     State
	handlers  []func(Signal)
	recovered *storage.Session
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine validates presets (nil means DefaultPresets) and finalizes any
// unfinished session left behind by a previous run, ending it at its last
// heartbeat.
func NewEngine(store SessionStore, presets []Preset, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("timer: session store is required")
	}
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		store:   store,
		presets: append([]Preset(nil), presets...),
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
		state:   InitialState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recover()
	return e, nil
}

func (e *Engine) recover() {
	sess, err := e.store.FinalizeUnfinished(nil)
	if err != nil {
		e.fail(EffectFinalize, err)
		return
	}
	if sess == nil {
		return
	}
	e.recovered = sess
	e.metrics.ObserveSession("recovery", sess.DurationSec)
	e.logger.Info("recovered unfinished session",
		zap.Time("start", sess.Start),
		zap.Time("end", sess.End),
		zap.Int64("duration_sec", sess.DurationSec))
}

// Recovered returns the session finalized at startup, if any.
func (e *Engine) Recovered() *storage.Session {
	return e.recovered
}

// OnSignal registers fn to receive phase-complete signals. Handlers run
// synchronously inside the call that caused the signal.
func (e *Engine) OnSignal(fn func(Signal)) {
	e.handlers = append(e.handlers, fn)
}

// Presets returns a copy of the configured presets.
func (e *Engine) Presets() []Preset {
	return append([]Preset(nil), e.presets...)
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// SelectPreset switches to preset i and starts working immediately.
func (e *Engine) SelectPreset(i int) error {
	_, err := e.apply(SelectEvent(i))
	return err
}

// Start resumes the selected preset from the beginning of a work phase.
// It is a no-op while a phase is running.
func (e *Engine) Start() error {
	_, err := e.apply(StartEvent)
	return err
}

// Stop ends the current phase, recording the work done so far.
func (e *Engine) Stop() {
	_, _ = e.apply(StopEvent)
}

// Tick advances the countdown by one interval and returns the signal it
// produced, if any.
func (e *Engine) Tick() Signal {
	sig, _ := e.apply(TickEvent)
	return sig
}

// Teardown records a last heartbeat when work is in flight, so a process
// exit loses as little time as possible. The unfinished session is left in
// place and recovered on the next start.
func (e *Engine) Teardown() {
	if e.state.Phase != Working {
		return
	}
	if err := e.store.UpdateLastActive(); err != nil {
		e.fail(EffectHeartbeat, err)
	}
}

func (e *Engine) apply(ev Event) (Signal, error) {
	prev := e.state
	next, effects, err := Transition(prev, ev, e.presets)
	if err != nil {
		return NoSignal, err
	}
	// Effects may fail; the in-memory transition happens regardless.
	e.state = next

	sig := NoSignal
	for _, eff := range effects {
		switch eff.Kind {
		case EffectFinalize:
			now := e.clock.Now()
			sess, err := e.store.FinalizeUnfinished(&now)
			if err != nil {
				e.fail(eff.Kind, err)
				continue
			}
			if sess != nil {
				e.metrics.ObserveSession("timer", sess.DurationSec)
				e.logger.Debug("session recorded",
					zap.String("id", sess.ID), zap.Int64("duration_sec", sess.DurationSec))
			}
		case EffectOpen:
			if _, err := e.store.SetUnfinishedSession(e.clock.Now()); err != nil {
				e.fail(eff.Kind, err)
			}
		case EffectHeartbeat:
			if err := e.store.UpdateLastActive(); err != nil {
				e.fail(eff.Kind, err)
			}
		case EffectSignal:
			sig = eff.Signal
			for _, fn := range e.handlers {
				fn(sig)
			}
		}
	}

	if prev.Phase != next.Phase {
		e.metrics.ObserveTransition(prev.Phase.String(), next.Phase.String())
		e.logger.Debug("phase changed",
			zap.Stringer("event", ev.Kind),
			zap.Stringer("from", prev.Phase),
			zap.Stringer("to", next.Phase))
	}
	return sig, nil
}

func (e *Engine) fail(kind EffectKind, err error) {
	e.metrics.ObserveEffectFailure(kind.String())
	e.logger.Warn("timer persistence failed", zap.Stringer("effect", kind), zap.Error(err))
}

// Snapshot is a read-only view for display.
type Snapshot struct {
	Phase       Phase
	Preset      int
	PresetLabel string
	Remaining   time.Duration
	// PhaseLength is the full length of the current (or paused) phase.
	PhaseLength time.Duration
}

// Snapshot describes the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{Phase: e.state.Phase, Preset: e.state.Preset, Remaining: e.state.Remaining}
	if s.Preset >= 0 && s.Preset < len(e.presets) {
		p := e.presets[s.Preset]
		s.PresetLabel = p.Label
		s.PhaseLength = p.Work
		if s.Phase == OnBreak {
			s.PhaseLength = p.Rest
		}
	}
	return s
}

// Status is the one-line label shown next to the countdown.
func (s Snapshot) Status() string {
	switch {
	case s.Phase == Working:
		return "Work phase"
	case s.Phase == OnBreak:
		return "Break phase"
	case s.Preset >= 0:
		return "Paused"
	default:
		return "Select a preset to start"
	}
}

// Clock renders Remaining as MM:SS.
func (s Snapshot) Clock() string {
	total := int(s.Remaining / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Progress is the elapsed fraction of the phase in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.PhaseLength <= 0 {
		return 0
	}
	p := 1 - float64(s.Remaining)/float64(s.PhaseLength)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
