package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/browser"
	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
)

const orderFileName = "profile_order.json"

// ProfileSettings holds the per-profile launch settings the user edits.
// Proxy credentials are stored for completeness; they never reach the
// browser command line.
type ProfileSettings struct {
	ProfileName   string   `json:"profile_name"`
	Language      string   `json:"language,omitempty"`
	ProxyEnabled  bool     `json:"proxy_enabled"`
	ProxyType     string   `json:"proxy_type,omitempty"`
	ProxyServer   string   `json:"proxy_server,omitempty"`
	ProxyPort     int      `json:"proxy_port,omitempty"`
	ProxyUsername string   `json:"proxy_username,omitempty"`
	ProxyPassword string   `json:"proxy_password,omitempty"`
	WindowWidth   int      `json:"window_width,omitempty"`
	WindowHeight  int      `json:"window_height,omitempty"`
	CustomArgs    []string `json:"custom_args,omitempty"`
}

// DefaultProfileSettings returns the settings applied to a profile that
// was never configured
func DefaultProfileSettings(profileName string) *ProfileSettings {
	return &ProfileSettings{
		ProfileName:  profileName,
		ProxyType:    string(browser.ProxyTypeHTTP),
		ProxyPort:    8080,
		WindowWidth:  1280,
		WindowHeight: 720,
	}
}

// LaunchOptions converts stored settings into a launch argument
// specification for the browser. A disabled or server-less proxy
// contributes nothing.
func (s *ProfileSettings) LaunchOptions() browser.LaunchOptions {
	opts := browser.LaunchOptions{
		Language:  s.Language,
		ExtraArgs: s.CustomArgs,
	}

	if s.ProxyEnabled && s.ProxyServer != "" {
		opts.Proxy = &browser.ProxyConfig{
			Type:     browser.ProxyType(s.ProxyType),
			Host:     s.ProxyServer,
			Port:     s.ProxyPort,
			Username: s.ProxyUsername,
			Password: s.ProxyPassword,
		}
	}

	if s.WindowWidth > 0 && s.WindowHeight > 0 {
		opts.WindowSize = &browser.WindowSize{
			Width:  s.WindowWidth,
			Height: s.WindowHeight,
		}
	}

	return opts
}

// profileOrder is the on-disk shape of the ordering file
type profileOrder struct {
	Order     []string `json:"order"`
	Timestamp float64  `json:"timestamp"`
}

// Store persists profile settings as one JSON document per profile in a
// settings directory, plus an ordering file for display
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates a settings store rooted at dir, creating the directory
// if needed. An empty dir resolves to "chrome-station" under the OS user
// config directory.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.NewIOError("failed to locate user config directory", err)
		}
		dir = filepath.Join(configDir, "chrome-station")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewIOError("failed to create settings directory", err).
			WithContext("dir", dir)
	}

	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the settings directory
func (s *Store) Dir() string {
	return s.dir
}

// settingsPath maps a profile name to its document path. Separator and
// drive characters in the name are replaced so the name cannot escape the
// settings directory.
func (s *Store) settingsPath(profileName string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(profileName)
	return filepath.Join(s.dir, safe+".json")
}

// Load reads the settings for a profile. A missing or unreadable document
// yields the defaults; a profile is always launchable.
func (s *Store) Load(profileName string) *ProfileSettings {
	data, err := os.ReadFile(s.settingsPath(profileName))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("Failed to read settings for profile '%s': %v", profileName, err)
		}
		return DefaultProfileSettings(profileName)
	}

	settings := DefaultProfileSettings(profileName)
	if err := json.Unmarshal(data, settings); err != nil {
		s.logger.Warnf("Corrupt settings document for profile '%s', using defaults: %v", profileName, err)
		return DefaultProfileSettings(profileName)
	}
	settings.ProfileName = profileName

	return settings
}

// Save writes the settings document for a profile
func (s *Store) Save(settings *ProfileSettings) error {
	if settings == nil || settings.ProfileName == "" {
		return errors.NewValidationError("profile settings require a profile name", nil)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to encode profile settings", err).
			WithContext("profile", settings.ProfileName)
	}

	path := s.settingsPath(settings.ProfileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError("failed to write profile settings", err).
			WithContext("path", path)
	}

	s.logger.Debugf("Saved settings for profile '%s'", settings.ProfileName)
	return nil
}

// Delete removes the settings document for a profile. Deleting settings
// that were never saved is a no-op.
func (s *Store) Delete(profileName string) error {
	path := s.settingsPath(profileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("failed to delete profile settings", err).
			WithContext("path", path)
	}
	return nil
}

// List returns the profile names that have saved settings, sorted
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewIOError("failed to read settings directory", err).
			WithContext("dir", s.dir)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == orderFileName {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)

	return names, nil
}

// Export writes a profile's settings document to an external path. A
// profile that was never configured exports its defaults, so the document
// is always complete.
func (s *Store) Export(profileName, exportPath string) error {
	data, err := json.MarshalIndent(s.Load(profileName), "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to encode profile settings", err).
			WithContext("profile", profileName)
	}

	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		return errors.NewIOError("failed to export profile settings", err).
			WithContext("path", exportPath)
	}
	return nil
}

// Import reads a settings document from an external path and saves it in
// the store under the profile name the document carries.
func (s *Store) Import(importPath string) (*ProfileSettings, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return nil, errors.NewIOError("failed to read settings document", err).
			WithContext("path", importPath)
	}

	var settings ProfileSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, errors.NewValidationError("malformed settings document", err).
			WithContext("path", importPath)
	}
	if settings.ProfileName == "" {
		return nil, errors.NewValidationError("settings document has no profile name", nil).
			WithContext("path", importPath)
	}

	if err := s.Save(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveOrder persists the display order of profiles
func (s *Store) SaveOrder(order []string) error {
	data, err := json.MarshalIndent(profileOrder{
		Order:     order,
		Timestamp: float64(time.Now().UnixMilli()) / 1000.0,
	}, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to encode profile order", err)
	}

	path := filepath.Join(s.dir, orderFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError("failed to write profile order", err).
			WithContext("path", path)
	}
	return nil
}

// LoadOrder returns the saved display order, empty when none was saved
func (s *Store) LoadOrder() []string {
	data, err := os.ReadFile(filepath.Join(s.dir, orderFileName))
	if err != nil {
		return nil
	}

	var order profileOrder
	if err := json.Unmarshal(data, &order); err != nil {
		s.logger.Warnf("Corrupt profile order file, ignoring: %v", err)
		return nil
	}
	return order.Order
}
