//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

const detachedProcess = 0x00000008

// setupDetachedAttributes configures Windows-specific attributes for a
// detached browser launch
func setupDetachedAttributes(cmd *exec.Cmd) {
	// DETACHED_PROCESS: no console inheritance, the browser outlives the
	// manager's console session
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: detachedProcess | syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
