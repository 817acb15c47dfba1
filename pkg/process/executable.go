package process

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
)

// FindBrowserExecutable locates the Chrome executable from a fixed per-OS
// candidate list. Discovery happens once at startup; first existing path
// wins. An explicit override path short-circuits the candidate list.
func FindBrowserExecutable(override string, logger logging.Logger) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", errors.NewNotFoundError("browser executable not found", err).WithContext("path", override)
		}
		logger.Infof("Using browser executable override: %s", override)
		return override, nil
	}

	candidates := browserExecutableCandidates()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			logger.Infof("Found browser executable: %s", path)
			return path, nil
		}
	}

	return "", errors.NewNotFoundError("no browser executable found", nil).
		WithContext("platform", runtime.GOOS).
		WithContext("candidates", candidates)
}

func browserExecutableCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = "C:\\Program Files"
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = "C:\\Program Files (x86)"
		}
		candidates := []string{
			filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe"),
		}
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			candidates = append(candidates,
				filepath.Join(localAppData, "Google", "Chrome", "Application", "chrome.exe"))
		}
		return candidates
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// BrowserProcessName returns the fragment used to match browser processes
// in the OS process table. Matching is case-insensitive substring, since
// platform launchers vary casing and naming ("Google Chrome", "chrome.exe",
// "google-chrome-stable").
func BrowserProcessName() string {
	return "chrome"
}
