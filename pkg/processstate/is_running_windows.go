//go:build windows

package processstate

import (
	"fmt"
	"syscall"
)

const (
	stillActive                   = 259
	processQueryLimitedInfomation = 0x1000
)

// IsProcessRunning reports whether a PID refers to a live process.
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, fmt.Errorf("invalid PID format")
	}

	// Open process handle with minimal rights needed for a status check
	handle, err := syscall.OpenProcess(
		processQueryLimitedInfomation,
		false,
		uint32(pid),
	)
	if err != nil {
		return false, err // Process doesn't exist or access denied
	}
	defer syscall.CloseHandle(handle)

	var exitCode uint32
	err = syscall.GetExitCodeProcess(handle, &exitCode)
	if err != nil {
		return false, err // Can't get exit code, assume dead
	}

	return exitCode == stillActive, nil
}
