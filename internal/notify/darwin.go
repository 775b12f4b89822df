//go:build darwin

package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// darwinNotifier shells out to osascript.
type darwinNotifier struct{}

func newPlatformNotifier() Notifier {
	return &darwinNotifier{}
}

func (n *darwinNotifier) Supported() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (n *darwinNotifier) Notify(ctx context.Context, note Notification) error {
	cmd := exec.CommandContext(ctx, "osascript", "-e", appleScript(note))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("osascript failed: %w", err)
	}
	return nil
}

func appleScript(note Notification) string {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(note.Body), escapeAppleScript(note.Title))
	if note.Sound {
		script += ` sound name "default"`
	}
	return script
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
