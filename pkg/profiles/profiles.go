// Package profiles discovers Chrome profile directories and reads their
// metadata (display name, bookmarks, extensions, storage footprint).
package profiles

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
)

// ProfileIdentity is the lookup key the rest of the system operates on.
// Immutable once scanned.
type ProfileIdentity struct {
	Name        string
	DisplayName string
	Path        string
	IsDefault   bool
}

// Profile is a scanned profile with its metadata
type Profile struct {
	ProfileIdentity
	BookmarksCount  int
	ExtensionsCount int
	StorageSize     int64
	LastUsedTime    time.Time
}

// DefaultUserDataDir returns the standard Chrome user-data directory for
// the current platform.
func DefaultUserDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewIOError("failed to resolve home directory", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "Google", "Chrome", "User Data"), nil
		}
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data"), nil
	case "linux":
		return filepath.Join(home, ".config", "google-chrome"), nil
	default:
		return "", errors.NewValidationError("unsupported platform: "+runtime.GOOS, nil)
	}
}

// Scanner scans a Chrome user-data directory for profiles
type Scanner struct {
	userDataDir string
	logger      logging.Logger
}

// NewScanner creates a scanner rooted at userDataDir. An empty userDataDir
// selects the platform default.
func NewScanner(userDataDir string, logger logging.Logger) (*Scanner, error) {
	if userDataDir == "" {
		detected, err := DefaultUserDataDir()
		if err != nil {
			return nil, err
		}
		userDataDir = detected
	}
	return &Scanner{
		userDataDir: userDataDir,
		logger:      logger,
	}, nil
}

// UserDataDir returns the directory this scanner reads
func (s *Scanner) UserDataDir() string {
	return s.userDataDir
}

// Scan lists every profile under the user-data directory: "Default" first,
// then "Profile *" directories in lexical order. A profile that cannot be
// read is skipped, never aborts the scan.
func (s *Scanner) Scan() ([]Profile, error) {
	if _, err := os.Stat(s.userDataDir); err != nil {
		return nil, errors.NewIOError("user data directory not accessible", err).
			WithContext("user_data_dir", s.userDataDir)
	}

	var profiles []Profile

	defaultPath := filepath.Join(s.userDataDir, "Default")
	if info, err := os.Stat(defaultPath); err == nil && info.IsDir() {
		profiles = append(profiles, s.readProfile("Default", defaultPath, true))
	}

	entries, err := os.ReadDir(s.userDataDir)
	if err != nil {
		return nil, errors.NewIOError("failed to read user data directory", err).
			WithContext("user_data_dir", s.userDataDir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "Profile ") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		profiles = append(profiles, s.readProfile(name, filepath.Join(s.userDataDir, name), false))
	}

	s.logger.Infof("Scanned %d profiles in %s", len(profiles), s.userDataDir)

	return profiles, nil
}

// ByName returns the profile with the given directory name, or nil
func ByName(profiles []Profile, name string) *Profile {
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i]
		}
	}
	return nil
}

// Identities projects scanned profiles down to their identities
func Identities(profiles []Profile) []ProfileIdentity {
	identities := make([]ProfileIdentity, len(profiles))
	for i := range profiles {
		identities[i] = profiles[i].ProfileIdentity
	}
	return identities
}

func (s *Scanner) readProfile(name, path string, isDefault bool) Profile {
	profile := Profile{
		ProfileIdentity: ProfileIdentity{
			Name:        name,
			DisplayName: name,
			Path:        path,
			IsDefault:   isDefault,
		},
	}

	if displayName, mtime, err := readPreferences(path); err == nil {
		if displayName != "" {
			profile.DisplayName = displayName
		}
		profile.LastUsedTime = mtime
	} else {
		s.logger.Debugf("No readable Preferences for profile %s: %v", name, err)
	}

	profile.BookmarksCount = countBookmarks(path)
	profile.ExtensionsCount = countExtensions(path)
	profile.StorageSize = storageSize(path)

	return profile
}

// readPreferences extracts the display name from the profile's Preferences
// JSON and reports the file's modification time as last-used.
func readPreferences(profilePath string) (string, time.Time, error) {
	prefsPath := filepath.Join(profilePath, "Preferences")

	data, err := os.ReadFile(prefsPath)
	if err != nil {
		return "", time.Time{}, err
	}

	var prefs struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return "", time.Time{}, err
	}

	var mtime time.Time
	if info, err := os.Stat(prefsPath); err == nil {
		mtime = info.ModTime()
	}

	return prefs.Profile.Name, mtime, nil
}

type bookmarkNode struct {
	Type     string         `json:"type"`
	Children []bookmarkNode `json:"children"`
}

func countBookmarks(profilePath string) int {
	data, err := os.ReadFile(filepath.Join(profilePath, "Bookmarks"))
	if err != nil {
		return 0
	}

	var bookmarks struct {
		Roots map[string]bookmarkNode `json:"roots"`
	}
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return 0
	}

	total := 0
	for _, root := range bookmarks.Roots {
		total += countBookmarkNodes(root)
	}
	return total
}

func countBookmarkNodes(node bookmarkNode) int {
	if node.Type == "url" {
		return 1
	}
	count := 0
	for _, child := range node.Children {
		count += countBookmarkNodes(child)
	}
	return count
}

func countExtensions(profilePath string) int {
	entries, err := os.ReadDir(filepath.Join(profilePath, "Extensions"))
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	return count
}

func storageSize(profilePath string) int64 {
	var total int64
	_ = filepath.WalkDir(profilePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Chrome holds locks on some files; size is best-effort
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
