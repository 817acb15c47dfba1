package browser

import (
	"github.com/browser-tools/chrome-station-go/pkg/errors"
)

// Close terminates a tracked instance: graceful termination first, then a
// forced kill when the bounded grace period expires. force skips the
// graceful step. A process that already vanished counts as success.
// Discovered instances close exactly like tool-launched ones.
func (m *Manager) Close(profileName string, force bool) error {
	instance := m.registry.Get(profileName)
	if instance == nil {
		return errors.NewNotFoundError("profile is not running", nil).
			WithContext("profile", profileName)
	}

	// The entry stays in the registry until the process is verifiably
	// gone: a failed close must not orphan a live instance

	running, err := instance.Handle.IsRunning()
	if err != nil || !running {
		m.registry.Delete(profileName)
		m.logger.Infof("Process already gone for profile '%s' (PID %d)", profileName, instance.PID)
		return nil
	}

	if force {
		if err := instance.Handle.Kill(); err != nil {
			if stillRunning, _ := instance.Handle.IsRunning(); stillRunning {
				return errors.NewProcessError("failed to kill browser", err).
					WithContext("profile", profileName).
					WithContext("pid", instance.PID)
			}
		}
		m.registry.Delete(profileName)
		m.logger.Infof("Killed browser instance for profile '%s' (PID %d)", profileName, instance.PID)
		return nil
	}

	if err := instance.Handle.Terminate(); err != nil {
		// Termination may race with the process exiting on its own
		if stillRunning, _ := instance.Handle.IsRunning(); !stillRunning {
			m.registry.Delete(profileName)
			return nil
		}
		return errors.NewProcessError("failed to terminate browser", err).
			WithContext("profile", profileName).
			WithContext("pid", instance.PID)
	}

	if err := instance.Handle.WaitExit(m.settings.GraceTimeout); err != nil {
		m.logger.Warnf("Profile '%s' (PID %d) ignored termination, killing", profileName, instance.PID)
		if killErr := instance.Handle.Kill(); killErr != nil {
			if stillRunning, _ := instance.Handle.IsRunning(); stillRunning {
				return errors.NewProcessError("failed to kill browser after grace period", killErr).
					WithContext("profile", profileName).
					WithContext("pid", instance.PID)
			}
		}
	}

	m.registry.Delete(profileName)
	m.logger.Infof("Closed browser instance for profile '%s' (PID %d)", profileName, instance.PID)
	return nil
}

// CloseAll closes every tracked instance, collecting failures instead of
// stopping at the first one.
func (m *Manager) CloseAll() error {
	collection := errors.NewErrorCollection()
	for _, profileName := range m.registry.Names() {
		collection.Add(m.Close(profileName, false))
	}
	return collection.ToError()
}
