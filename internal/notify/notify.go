// Package notify delivers phase-change alerts: native desktop notifications
// (osascript on macOS, notify-send on Linux) and the terminal bell.
package notify

import (
	"context"
	"errors"
	"io"

	"lockin/internal/timer"
)

// Notification is one alert.
type Notification struct {
	Title string
	Body  string
	Sound bool
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	// Supported reports whether Notify can reach the user at all.
	Supported() bool
}

// Options selects which notifiers New combines.
type Options struct {
	Enabled bool // desktop notifications
	Sound   bool
	Bell    bool
	// BellWriter receives the BEL byte; usually the terminal.
	BellWriter io.Writer
}

// New builds a notifier from opts. With nothing enabled or supported it
// returns a no-op notifier.
func New(opts Options) Notifier {
	var ns []Notifier
	if opts.Enabled {
		if d := newPlatformNotifier(); d != nil && d.Supported() {
			ns = append(ns, d)
		}
	}
	if opts.Bell && opts.BellWriter != nil {
		ns = append(ns, NewBell(opts.BellWriter))
	}
	switch len(ns) {
	case 0:
		return Noop{}
	case 1:
		return soundPolicy{ns[0], opts.Sound}
	default:
		return soundPolicy{Multi(ns), opts.Sound}
	}
}

// ForSignal builds the alert for a finished phase.
func ForSignal(sig timer.Signal) (Notification, bool) {
	if sig == timer.NoSignal {
		return Notification{}, false
	}
	return Notification{Title: sig.Title(), Body: sig.Message(), Sound: true}, true
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
func (Noop) Supported() bool                            { return false }

// Multi fans a notification out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Supported() bool {
	for _, nt := range m {
		if nt.Supported() {
			return true
		}
	}
	return false
}

// Bell rings the terminal bell.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Notify(context.Context, Notification) error {
	_, err := io.WriteString(b.w, "\a")
	return err
}

func (b *Bell) Supported() bool { return b.w != nil }

// soundPolicy strips Sound when the user turned sounds off.
type soundPolicy struct {
	Notifier
	sound bool
}

func (s soundPolicy) Notify(ctx context.Context, n Notification) error {
	if !s.sound {
		n.Sound = false
	}
	return s.Notifier.Notify(ctx, n)
}
