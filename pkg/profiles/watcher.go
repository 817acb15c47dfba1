package profiles

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
)

// Watch monitors the user-data directory and invokes onChange whenever a
// profile directory is created, removed or renamed. Events are debounced:
// Chrome touches many files at once and one rescan is enough. Blocks until
// the context is cancelled.
func (s *Scanner) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewIOError("failed to create watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.userDataDir); err != nil {
		return errors.NewIOError("failed to watch user data directory", err).
			WithContext("user_data_dir", s.userDataDir)
	}

	s.logger.Infof("Watching %s for profile changes", s.userDataDir)

	const debounce = 2 * time.Second

	// Inactive until the first relevant event arrives
	pending := time.NewTimer(debounce)
	if !pending.Stop() {
		<-pending.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isProfileDirEvent(event) {
				continue
			}
			s.logger.Debugf("Profile directory event: %s", event)
			pending.Reset(debounce)

		case <-pending.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnf("Watcher error: %v", err)
		}
	}
}

// isProfileDirEvent filters for events on profile directories themselves,
// ignoring the constant churn inside them.
func isProfileDirEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == "Default" || strings.HasPrefix(name, "Profile ")
}
