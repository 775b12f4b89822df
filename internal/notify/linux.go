//go:build linux

package notify

import (
	"context"
	"fmt"
	"os/exec"
)

// linuxNotifier shells out to notify-send.
type linuxNotifier struct{}

func newPlatformNotifier() Notifier {
	return &linuxNotifier{}
}

func (n *linuxNotifier) Supported() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (n *linuxNotifier) Notify(ctx context.Context, note Notification) error {
	cmd := exec.CommandContext(ctx, "notify-send", notifySendArgs(note)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send failed: %w", err)
	}
	return nil
}

func notifySendArgs(note Notification) []string {
	args := []string{"--app-name=lockin"}
	// Sound is up to the notification daemon; a raised urgency is the
	// closest portable hint.
	if note.Sound {
		args = append(args, "--urgency=normal")
	} else {
		args = append(args, "--urgency=low")
	}
	return append(args, note.Title, note.Body)
}
