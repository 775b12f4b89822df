package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Observed is a logger whose entries can be asserted on in tests.
type Observed struct {
	Logger *zap.Logger
	logs   *observer.ObservedLogs
}

// NewObserved captures every entry at debug level and above.
func NewObserved() *Observed {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Observed{Logger: zap.New(core), logs: logs}
}

// All returns the captured entries.
func (o *Observed) All() []observer.LoggedEntry {
	return o.logs.All()
}

// Count returns how many entries contain msg at level.
func (o *Observed) Count(level zapcore.Level, msg string) int {
	n := 0
	for _, e := range o.logs.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			n++
		}
	}
	return n
}

// AssertLogged fails tb unless an entry at level contains msg.
func (o *Observed) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if o.Count(level, msg) == 0 {
		tb.Errorf("expected %v log containing %q, got %+v", level, msg, o.logs.All())
	}
}

// AssertNotLogged fails tb if any entry at level contains msg.
func (o *Observed) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if n := o.Count(level, msg); n > 0 {
		tb.Errorf("unexpected %v log containing %q (%d times)", level, msg, n)
	}
}
