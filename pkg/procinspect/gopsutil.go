package procinspect

import (
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
)

// gopsutilInspector reads the OS process table via gopsutil
type gopsutilInspector struct {
	logger logging.Logger
}

// NewInspector creates the OS-backed process inspector
func NewInspector(logger logging.Logger) Inspector {
	return &gopsutilInspector{logger: logger}
}

func (i *gopsutilInspector) ListMainProcesses(nameFragment string) ([]MainProcess, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, errors.NewDiscoveryError("failed to enumerate processes", err)
	}

	fragment := strings.ToLower(nameFragment)

	var main []MainProcess
	for _, p := range procs {
		// Permission-denied and already-exited PIDs are expected races
		// during a scan; skip them silently
		name, err := p.Name()
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(name), fragment) {
			continue
		}
		if IsHelperProcessName(name) {
			continue
		}

		argv, err := p.CmdlineSlice()
		if err != nil || len(argv) == 0 {
			continue
		}
		if !IsMainBrowserArgv(argv) {
			continue
		}

		createTime := time.Time{}
		if millis, err := p.CreateTime(); err == nil {
			createTime = time.Unix(millis/1000, 0)
		}

		main = append(main, MainProcess{
			PID:        int(p.Pid),
			Argv:       argv,
			CreateTime: createTime,
			Handle:     &gopsutilHandle{proc: p},
		})
	}

	i.logger.Debugf("Process scan found %d main processes matching '%s'", len(main), nameFragment)

	return main, nil
}

func (i *gopsutilInspector) OpenHandle(pid int) (Handle, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, errors.NewProcessError("process not found", err).WithContext("pid", pid)
	}
	return &gopsutilHandle{proc: p}, nil
}

// gopsutilHandle wraps a gopsutil process as a Handle
type gopsutilHandle struct {
	proc *process.Process
}

func (h *gopsutilHandle) PID() int {
	return int(h.proc.Pid)
}

func (h *gopsutilHandle) IsRunning() (bool, error) {
	return h.proc.IsRunning()
}

func (h *gopsutilHandle) Usage() (*Usage, error) {
	memInfo, err := h.proc.MemoryInfo()
	if err != nil {
		return nil, errors.NewProcessError("failed to read memory info", err).WithContext("pid", h.PID())
	}

	usage := &Usage{
		MemoryRSS: memInfo.RSS,
		Status:    "unknown",
	}

	// Remaining fields are best-effort; partial data beats none
	if percent, err := h.proc.MemoryPercent(); err == nil {
		usage.MemoryPercent = percent
	}
	if percent, err := h.proc.CPUPercent(); err == nil {
		usage.CPUPercent = percent
	}
	if status, err := h.proc.Status(); err == nil && len(status) > 0 {
		usage.Status = status[0]
	}

	return usage, nil
}

func (h *gopsutilHandle) OpenFilePaths() ([]string, error) {
	stats, err := h.proc.OpenFiles()
	if err != nil {
		return nil, errors.NewPermissionError("failed to list open files", err).WithContext("pid", h.PID())
	}
	paths := make([]string, 0, len(stats))
	for _, stat := range stats {
		paths = append(paths, stat.Path)
	}
	return paths, nil
}

func (h *gopsutilHandle) Terminate() error {
	return h.proc.Terminate()
}

func (h *gopsutilHandle) Kill() error {
	return h.proc.Kill()
}

// WaitExit polls until the process exits or the budget runs out. gopsutil
// cannot wait on non-child processes, so this is a bounded liveness loop.
func (h *gopsutilHandle) WaitExit(timeout time.Duration) error {
	const pollInterval = 100 * time.Millisecond

	deadline := time.Now().Add(timeout)
	for {
		running, err := h.proc.IsRunning()
		if err != nil || !running {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.NewTimeoutError("process did not exit within grace period", nil).
				WithContext("pid", h.PID()).
				WithContext("timeout", timeout.String())
		}
		time.Sleep(pollInterval)
	}
}
