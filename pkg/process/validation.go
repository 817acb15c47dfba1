package process

import (
	"os"
	"strconv"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
)

// ValidateSpawnConfig validates a spawn configuration
func ValidateSpawnConfig(config SpawnConfig) error {
	if config.ExecutablePath == "" {
		return errors.NewValidationError("executable path is required", nil)
	}

	if _, err := os.Stat(config.ExecutablePath); os.IsNotExist(err) {
		return errors.NewValidationError("executable not found: "+config.ExecutablePath, err)
	}

	for _, arg := range config.Args {
		if arg == "" {
			return errors.NewValidationError("empty argument in spawn args", nil)
		}
	}

	return nil
}

// ValidatePID validates a PID value
func ValidatePID(pidStr string) (int, error) {
	if pidStr == "" {
		return 0, errors.NewValidationError("PID cannot be empty", nil)
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, errors.NewValidationError("invalid PID format: "+pidStr, err)
	}

	if pid <= 0 {
		return 0, errors.NewValidationError("PID must be positive: "+pidStr, nil)
	}

	return pid, nil
}
