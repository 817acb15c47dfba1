// Package config holds the application configuration file and the
// per-profile settings store. The application file is YAML and read once
// at startup; profile settings are JSON documents written whenever the
// user edits them.
package config

import (
	"os"

	"github.com/browser-tools/chrome-station-go/pkg/browser"
	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the top-level configuration file structure
type AppConfig struct {
	Browser BrowserConfigOptions   `yaml:"browser"`
	Launch  browser.LaunchSettings `yaml:"launch,omitempty"`
	Logging logging.ZapConfig      `yaml:"logging,omitempty"`
}

// BrowserConfigOptions represents browser-level configuration
type BrowserConfigOptions struct {
	// ExecutablePath overrides automatic browser discovery
	ExecutablePath string `yaml:"executable_path,omitempty"`

	// UserDataDir overrides the per-OS default Chrome data directory
	UserDataDir string `yaml:"user_data_dir,omitempty"`

	// Isolation selects the data-directory strategy: "shared" or
	// "independent"
	Isolation browser.IsolationMode `yaml:"isolation,omitempty"`

	// SettingsDir is where profile settings documents live
	SettingsDir string `yaml:"settings_dir,omitempty"`
}

// DefaultAppConfig returns the configuration used when no file exists
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Browser: BrowserConfigOptions{
			Isolation: browser.IsolationShared,
		},
		Launch:  browser.DefaultLaunchSettings(),
		Logging: logging.DefaultZapConfig(),
	}
}

// LoadAppConfig loads application configuration from a YAML file. A
// missing file is not an error; defaults apply.
func LoadAppConfig(filename string) (*AppConfig, error) {
	config := DefaultAppConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.NewIOError("failed to read configuration file", err).
			WithContext("filename", filename)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).
			WithContext("filename", filename)
	}

	if err := ValidateAppConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateAppConfig validates the configuration structure
func ValidateAppConfig(config *AppConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	switch config.Browser.Isolation {
	case "", browser.IsolationShared, browser.IsolationIndependent:
	default:
		return errors.NewValidationError("unsupported isolation mode", nil).
			WithContext("isolation", string(config.Browser.Isolation)).
			WithContext("supported_modes", "shared, independent")
	}

	if config.Browser.ExecutablePath != "" {
		if info, err := os.Stat(config.Browser.ExecutablePath); err != nil || info.IsDir() {
			return errors.NewValidationError("configured executable path is not a file", err).
				WithContext("executable_path", config.Browser.ExecutablePath)
		}
	}

	return nil
}
