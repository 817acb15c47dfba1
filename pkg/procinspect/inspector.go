// Package procinspect enumerates top-level browser processes in the OS
// process table and exposes per-process liveness and resource queries.
package procinspect

import (
	"strings"
	"time"
)

// Usage is a point-in-time snapshot of a process's resource consumption
type Usage struct {
	MemoryRSS     uint64
	MemoryPercent float32
	CPUPercent    float64
	Status        string
}

// Handle provides liveness, resource and termination operations on a live
// OS process. Implementations must tolerate the process vanishing between
// calls: callers treat any error as absence of evidence, not a failure.
type Handle interface {
	PID() int
	IsRunning() (bool, error)
	Usage() (*Usage, error)
	OpenFilePaths() ([]string, error)
	Terminate() error
	Kill() error
	WaitExit(timeout time.Duration) error
}

// MainProcess is a top-level browser process: launcher/helper/renderer
// subprocesses are already filtered out.
type MainProcess struct {
	PID        int
	Argv       []string
	CreateTime time.Time
	Handle     Handle
}

// Inspector enumerates main browser processes. The production
// implementation reads the OS process table; tests inject fakes.
type Inspector interface {
	// ListMainProcesses returns every top-level process whose name
	// contains nameFragment (case-insensitive). Processes that vanish or
	// deny access mid-scan are skipped, never reported as errors.
	ListMainProcesses(nameFragment string) ([]MainProcess, error)

	// OpenHandle opens a handle on an arbitrary PID
	OpenHandle(pid int) (Handle, error)
}

// Command-line marker Chrome puts on every subprocess (renderer, GPU,
// utility, ...). Top-level browser processes never carry it.
const subprocessTypeFlag = "--type="

// helperNameFragments identify helper executables by name on platforms
// where the subprocess flag is not visible (macOS app bundles spawn
// "Google Chrome Helper (Renderer)" and friends).
var helperNameFragments = []string{
	"helper",
	"renderer",
	"gpu",
	"plugin",
	"utility",
	"crashpad",
}

// IsMainBrowserArgv reports whether an argv belongs to a top-level browser
// process rather than a subprocess.
func IsMainBrowserArgv(argv []string) bool {
	for _, arg := range argv {
		if strings.HasPrefix(arg, subprocessTypeFlag) {
			return false
		}
	}
	return true
}

// IsHelperProcessName reports whether a process name signals a helper role
func IsHelperProcessName(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range helperNameFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
