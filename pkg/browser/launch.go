package browser

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/process"
	"github.com/browser-tools/chrome-station-go/pkg/processstate"
	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
	"github.com/browser-tools/chrome-station-go/pkg/profiles"
)

// LaunchOutcome distinguishes a fully confirmed launch from one where the
// browser is apparently running but could not be matched to a main process.
type LaunchOutcome string

const (
	// LaunchConfirmed means the owning main process was found and its
	// PID recorded
	LaunchConfirmed LaunchOutcome = "confirmed"

	// LaunchUnconfirmed means the poll budget expired but the spawned
	// process is still alive; the registry entry carries the launcher
	// PID, which may not be the real browser process
	LaunchUnconfirmed LaunchOutcome = "unconfirmed"
)

// LaunchResult reports a successful (or optimistically successful) launch
type LaunchResult struct {
	Instance *TrackedInstance
	Outcome  LaunchOutcome
}

// Launch starts a browser instance for a profile. The spawned process is
// frequently a short-lived launcher that hands off to the real browser
// process and exits, so its PID is not authoritative: after a settle
// delay, Launch polls the process table for a main process using the data
// directory it just requested and records that one. Blocks the calling
// goroutine for the duration of the settle+poll sequence (several
// seconds); callers driving a UI should run it off the event loop.
//
// Failures are never retried here; retry policy belongs to the caller.
func (m *Manager) Launch(profile profiles.ProfileIdentity, opts LaunchOptions) (*LaunchResult, error) {
	if m.registry.Contains(profile.Name) {
		// Checked against registry state, not a fresh OS scan, to keep
		// the semantics predictable
		return nil, errors.NewConflictError("profile already running", nil).
			WithContext("profile", profile.Name)
	}

	if m.executablePath == "" {
		return nil, errors.NewNotFoundError("no browser executable located at startup", nil).
			WithContext("profile", profile.Name)
	}

	dataDir, profileDir := m.dataDirFor(profile)

	args := BuildLaunchArgs(dataDir, profileDir, opts)
	commandLine := append([]string{m.executablePath}, args...)

	launcher, err := m.spawn(process.SpawnConfig{
		ExecutablePath: m.executablePath,
		Args:           args,
	}, profile.Name, m.logger)
	if err != nil {
		return nil, errors.NewProcessError("failed to spawn browser", err).
			WithContext("profile", profile.Name).
			WithContext("command_line", commandLine)
	}

	m.logger.Infof("Spawned launcher for profile '%s' (PID %d), waiting for handoff",
		profile.Name, launcher.Pid)

	// Settle, then poll for the real owning process
	time.Sleep(m.settings.SettleDelay)

	deadline := time.Now().Add(m.settings.PollBudget)
	for {
		if proc, ok := m.findOwnedProcess(dataDir, profileDir); ok {
			instance := &TrackedInstance{
				ProfileName: profile.Name,
				PID:         proc.PID,
				Handle:      proc.Handle,
				StartTime:   time.Now(),
				DataDir:     dataDir,
				CommandLine: commandLine,
				Discovered:  false,
			}
			m.registry.Put(instance)
			m.logger.Infof("Launch confirmed for profile '%s': PID %d", profile.Name, proc.PID)
			return &LaunchResult{Instance: instance, Outcome: LaunchConfirmed}, nil
		}

		if time.Now().After(deadline) {
			break
		}
		time.Sleep(m.settings.PollInterval)
	}

	// Budget exhausted. If the original spawned process is still alive
	// and nothing contradicts it, report success without a confirmed
	// PID rather than killing a browser that may well be up.
	if running, _ := processstate.IsProcessRunning(launcher.Pid); running {
		if handle, err := m.inspector.OpenHandle(launcher.Pid); err == nil {
			instance := &TrackedInstance{
				ProfileName: profile.Name,
				PID:         launcher.Pid,
				Handle:      handle,
				StartTime:   time.Now(),
				DataDir:     dataDir,
				CommandLine: commandLine,
				Discovered:  false,
			}
			m.registry.Put(instance)
			m.logger.Warnf("Launch unconfirmed for profile '%s': launcher PID %d alive but no main process matched",
				profile.Name, launcher.Pid)
			return &LaunchResult{Instance: instance, Outcome: LaunchUnconfirmed}, nil
		}
	}

	return nil, errors.NewTimeoutError("launch confirmation timed out", nil).
		WithContext("profile", profile.Name).
		WithContext("command_line", commandLine)
}

// Restart closes a running instance (if any) and launches it again with
// the given options.
func (m *Manager) Restart(profile profiles.ProfileIdentity, opts LaunchOptions) (*LaunchResult, error) {
	if m.IsRunning(profile.Name) {
		if err := m.Close(profile.Name, false); err != nil {
			return nil, err
		}
		// Give the old process tree a moment to release its locks
		time.Sleep(2 * time.Second)
	}
	return m.Launch(profile, opts)
}

// findOwnedProcess scans for a main process that uses the data directory
// just requested: in shared mode the profile flag must also match, since
// every instance shares the one data directory.
func (m *Manager) findOwnedProcess(dataDir, profileDir string) (procinspect.MainProcess, bool) {
	mainProcs, err := m.inspector.ListMainProcesses(m.processName)
	if err != nil {
		m.logger.Warnf("Process scan failed during launch confirmation: %v", err)
		return procinspect.MainProcess{}, false
	}

	for _, proc := range mainProcs {
		procDataDir, ok := userDataDirFromArgv(proc.Argv)
		if !ok || filepath.Clean(procDataDir) != filepath.Clean(dataDir) {
			continue
		}
		if profileDir != "" {
			procProfileDir, ok := profileDirFromArgv(proc.Argv)
			if !ok || procProfileDir != profileDir {
				continue
			}
		}
		return proc, true
	}

	return procinspect.MainProcess{}, false
}

// dataDirFor resolves the isolation strategy for a launch: shared mode
// returns the real user-data directory plus a profile selector;
// independent mode provisions a dedicated directory and no selector.
func (m *Manager) dataDirFor(profile profiles.ProfileIdentity) (dataDir, profileDir string) {
	if m.isolation == IsolationIndependent {
		dataDir = IndependentDataDir(m.userDataDir, profile.Name)
		m.provisionIndependentDataDir(dataDir, profile)
		return dataDir, ""
	}
	return m.userDataDir, profile.Name
}

// provisionIndependentDataDir creates the dedicated data directory and
// seeds its Default profile with a copy of the real profile data on first
// launch. Copy failures are logged and tolerated: the browser creates a
// fresh profile when the seed is missing.
func (m *Manager) provisionIndependentDataDir(dataDir string, profile profiles.ProfileIdentity) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		m.logger.Warnf("Failed to create independent data dir %s: %v", dataDir, err)
		return
	}

	seedPath := filepath.Join(dataDir, "Default")
	if _, err := os.Stat(seedPath); err == nil {
		return // already provisioned
	}

	if _, err := os.Stat(profile.Path); err != nil {
		m.logger.Infof("Profile '%s' has no source data, browser will create a fresh one", profile.Name)
		return
	}

	m.logger.Infof("Seeding independent data dir for profile '%s': %s -> %s",
		profile.Name, profile.Path, seedPath)

	if err := copyTree(profile.Path, seedPath); err != nil {
		m.logger.Warnf("Partial profile copy for '%s': %v", profile.Name, err)
	}
}

// copyTree copies a directory recursively, skipping unreadable files
// (Chrome holds locks on a few of them).
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return nil
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return nil // locked or unreadable, skip
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
