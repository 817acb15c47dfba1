//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setupDetachedAttributes configures Unix-specific attributes for a
// detached browser launch
func setupDetachedAttributes(cmd *exec.Cmd) {
	// New session: the browser must not share our process group, or
	// signals aimed at the manager would reach the browser tree too
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
