package browser

import (
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/profiles"
)

// The lifecycle reconciler keeps the registry consistent with the OS
// process table despite the browser being an uncontrolled external
// process: users quit Chrome directly, open new windows, and launch
// instances this tool never started. All three operations are idempotent
// and safe on any schedule; polling cadence is the caller's concern.

// PruneDead removes registry entries whose process has died externally and
// returns the profile names that were removed. A process that vanished
// entirely or denies access counts as dead evidence-wise: the registry
// must never answer "running" for a dead PID.
func (m *Manager) PruneDead() []string {
	var pruned []string

	for profileName, instance := range m.registry.Snapshot() {
		running, err := instance.Handle.IsRunning()
		if err != nil {
			m.logger.Debugf("Liveness check failed for profile '%s' (PID %d): %v",
				profileName, instance.PID, err)
			running = false
		}
		if !running {
			if m.registry.Delete(profileName) {
				m.logger.Infof("Pruned dead instance for profile '%s' (PID %d)",
					profileName, instance.PID)
				pruned = append(pruned, profileName)
			}
		}
	}

	return pruned
}

// DiscoverUnmanaged scans for live main browser processes not in the
// registry, resolves each to a known profile, and adopts the matches as
// discovered instances. Returns status info for every adoption. Calling it
// twice with an unchanged process table adopts nothing the second time.
func (m *Manager) DiscoverUnmanaged(known []profiles.ProfileIdentity) (map[string]InstanceInfo, error) {
	adopted := make(map[string]InstanceInfo)

	mainProcs, err := m.inspector.ListMainProcesses(m.processName)
	if err != nil {
		return adopted, err
	}

	// Profiles already tracked are claimed before the pass begins, so
	// heuristic guessing never steals them
	claimed := make(map[string]bool)
	for _, profileName := range m.registry.Names() {
		claimed[profileName] = true
	}

	for _, proc := range mainProcs {
		resolution := m.resolver.Resolve(proc, known, claimed)
		if resolution == nil {
			continue
		}
		claimed[resolution.ProfileName] = true

		if m.registry.Contains(resolution.ProfileName) {
			continue
		}

		dataDir := m.userDataDir
		if procDataDir, ok := userDataDirFromArgv(proc.Argv); ok {
			dataDir = procDataDir
		}

		startTime := proc.CreateTime
		if startTime.IsZero() {
			startTime = time.Now()
		}

		instance := &TrackedInstance{
			ProfileName: resolution.ProfileName,
			PID:         proc.PID,
			Handle:      proc.Handle,
			StartTime:   startTime,
			DataDir:     dataDir,
			CommandLine: proc.Argv,
			Discovered:  true,
		}
		m.registry.Put(instance)

		if resolution.Ambiguous {
			m.logger.Warnf("Adopted external instance for profile '%s' (PID %d) on a heuristic guess",
				resolution.ProfileName, proc.PID)
		} else {
			m.logger.Infof("Adopted external instance for profile '%s' (PID %d)",
				resolution.ProfileName, proc.PID)
		}

		adopted[resolution.ProfileName] = instance.info()
	}

	return adopted, nil
}

// IsRunning reports whether the registry holds a live entry for the
// profile name. A stale entry found during the check is pruned on the spot
// rather than waiting for the next reconciliation cycle.
func (m *Manager) IsRunning(profileName string) bool {
	instance := m.registry.Get(profileName)
	if instance == nil {
		return false
	}

	running, err := instance.Handle.IsRunning()
	if err != nil {
		running = false
	}
	if !running {
		if m.registry.Delete(profileName) {
			m.logger.Infof("Self-healed stale entry for profile '%s' (PID %d)",
				profileName, instance.PID)
		}
		return false
	}

	return true
}

// Info returns the status record for a profile's instance, or false when
// the profile is not running. The liveness check self-heals like IsRunning.
func (m *Manager) Info(profileName string) (*InstanceInfo, bool) {
	if !m.IsRunning(profileName) {
		return nil, false
	}
	instance := m.registry.Get(profileName)
	if instance == nil {
		return nil, false
	}
	info := instance.info()
	return &info, true
}

// AllRunning returns status for every live instance, adopting unmanaged
// processes first when a profile list is supplied, and pruning anything
// that died since the last call.
func (m *Manager) AllRunning(known []profiles.ProfileIdentity) map[string]InstanceInfo {
	if len(known) > 0 {
		if _, err := m.DiscoverUnmanaged(known); err != nil {
			m.logger.Warnf("Discovery scan failed: %v", err)
		}
	}

	m.PruneDead()

	running := make(map[string]InstanceInfo)
	for profileName, instance := range m.registry.Snapshot() {
		if alive, err := instance.Handle.IsRunning(); err != nil || !alive {
			continue
		}
		running[profileName] = instance.info()
	}
	return running
}
