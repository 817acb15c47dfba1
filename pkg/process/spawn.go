package process

import (
	"os"
	"os/exec"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
)

// SpawnConfig describes a detached browser launch
type SpawnConfig struct {
	ExecutablePath string   `yaml:"executable_path"`
	Args           []string `yaml:"args,omitempty"`
}

// SpawnDetached starts the browser in its own session/process group with
// stdio discarded, so the child's lifetime is independent of the manager's.
// The returned process is frequently a short-lived launcher that hands off
// to the real browser process; callers must not treat its PID as
// authoritative.
func SpawnDetached(config SpawnConfig, id string, logger logging.Logger) (*os.Process, error) {
	if err := ValidateSpawnConfig(config); err != nil {
		logger.Errorf("Spawn configuration validation failed, id: %s, error: %v", id, err)
		return nil, errors.NewValidationError("invalid spawn configuration", err).WithContext("id", id)
	}

	logger.Debugf("Spawning detached process, id: %s, executable: '%s', args: %v",
		id, config.ExecutablePath, config.Args)

	cmd := exec.Command(config.ExecutablePath, config.Args...)

	// Stdout and Stderr left nil: exec connects them to os.DevNull
	setupDetachedAttributes(cmd)

	if err := cmd.Start(); err != nil {
		return nil, errors.NewProcessError("failed to start the process", err).
			WithContext("id", id).
			WithContext("executable_path", config.ExecutablePath)
	}

	logger.Infof("Spawned detached process, id: %s, PID: %d", id, cmd.Process.Pid)

	// Reap the launcher when it hands off and exits, so it never lingers
	// as a zombie
	go func() {
		_ = cmd.Wait()
	}()

	return cmd.Process, nil
}
