package browser

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/logging"
	"github.com/browser-tools/chrome-station-go/pkg/process"
	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
)

// Shared fake process-table infrastructure for the browser package tests.
// The launch controller and reconciler are exercised against these instead
// of the real OS process table.

// BrowserMockLogger is a no-op Logger for tests
type BrowserMockLogger struct{}

func (m *BrowserMockLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (m *BrowserMockLogger) Debugf(format string, args ...interface{})               {}
func (m *BrowserMockLogger) Infof(format string, args ...interface{})                {}
func (m *BrowserMockLogger) Warnf(format string, args ...interface{})                {}
func (m *BrowserMockLogger) Errorf(format string, args ...interface{})               {}

// fakeHandle is a scriptable process handle
type fakeHandle struct {
	mu            sync.Mutex
	pid           int
	running       bool
	openFiles     []string
	usage         procinspect.Usage
	ignoresTerm   bool
	killFail      bool
	terminateCnt  int
	killCnt       int
	openFilesFail bool
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{
		pid:     pid,
		running: true,
		usage: procinspect.Usage{
			MemoryRSS:     256 << 20,
			MemoryPercent: 3.5,
			CPUPercent:    12.0,
			Status:        "running",
		},
	}
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) IsRunning() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running, nil
}

func (h *fakeHandle) Usage() (*procinspect.Usage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil, fmt.Errorf("process %d has exited", h.pid)
	}
	usage := h.usage
	return &usage, nil
}

func (h *fakeHandle) OpenFilePaths() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openFilesFail {
		return nil, fmt.Errorf("access denied")
	}
	return h.openFiles, nil
}

func (h *fakeHandle) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminateCnt++
	if !h.running {
		return fmt.Errorf("process %d already finished", h.pid)
	}
	if !h.ignoresTerm {
		h.running = false
	}
	return nil
}

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.killCnt++
	if h.killFail {
		return fmt.Errorf("operation not permitted")
	}
	h.running = false
	return nil
}

func (h *fakeHandle) WaitExit(timeout time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return fmt.Errorf("process %d did not exit within %v", h.pid, timeout)
	}
	return nil
}

func (h *fakeHandle) markDead() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}

// fakeInspector is a scriptable process table
type fakeInspector struct {
	mu          sync.Mutex
	procs       []procinspect.MainProcess
	handles     map[int]procinspect.Handle
	listErr     error
	listCalls   int
	appearAfter int // ListMainProcesses returns nothing for this many calls
}

func newFakeInspector() *fakeInspector {
	return &fakeInspector{handles: make(map[int]procinspect.Handle)}
}

func (f *fakeInspector) addProcess(pid int, argv []string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	handle := newFakeHandle(pid)
	f.procs = append(f.procs, procinspect.MainProcess{
		PID:        pid,
		Argv:       argv,
		CreateTime: time.Now().Add(-time.Minute),
		Handle:     handle,
	})
	f.handles[pid] = handle
	return handle
}

func (f *fakeInspector) ListMainProcesses(nameFragment string) ([]procinspect.MainProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listCalls <= f.appearAfter {
		return nil, nil
	}
	procs := make([]procinspect.MainProcess, len(f.procs))
	copy(procs, f.procs)
	return procs, nil
}

func (f *fakeInspector) OpenHandle(pid int) (procinspect.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if handle, ok := f.handles[pid]; ok {
		return handle, nil
	}
	return nil, fmt.Errorf("process %d not found", pid)
}

// fastSettings keeps settle+poll budgets tiny so tests stay quick
func fastSettings() LaunchSettings {
	return LaunchSettings{
		SettleDelay:  5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		PollBudget:   50 * time.Millisecond,
		GraceTimeout: 50 * time.Millisecond,
	}
}

// spawnReturning builds a SpawnFunc handing back a fixed process
func spawnReturning(proc *os.Process, err error) SpawnFunc {
	return func(config process.SpawnConfig, id string, logger logging.Logger) (*os.Process, error) {
		return proc, err
	}
}

// alivePID is a PID guaranteed to be running during the test
func alivePID() int { return os.Getpid() }

// deadPID is a PID guaranteed not to exist (beyond any realistic pid_max)
const deadPID = 99999999
