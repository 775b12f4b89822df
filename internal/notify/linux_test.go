//go:build linux

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifySendArgs(t *testing.T) {
	args := notifySendArgs(Notification{Title: "Work complete", Body: "Take a break", Sound: true})
	assert.Equal(t, []string{"--app-name=lockin", "--urgency=normal", "Work complete", "Take a break"}, args)

	args = notifySendArgs(Notification{Title: "t", Body: "b"})
	assert.Contains(t, args, "--urgency=low")
}
