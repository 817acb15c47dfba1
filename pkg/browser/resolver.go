package browser

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/browser-tools/chrome-station-go/pkg/logging"
	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
	"github.com/browser-tools/chrome-station-go/pkg/profiles"
)

const (
	profileDirFlag    = "--profile-directory"
	userDataDirFlag   = "--user-data-dir"
	independentPrefix = "Chrome_Instance_"
	preferencesFile   = "Preferences"
)

// Matches the flag inside a joined command line. Profile names contain
// spaces ("Profile 2"), so the value runs until the next flag or the end.
var profileDirPattern = regexp.MustCompile(`--profile-directory=(.+?)(?:\s--|\s-[^-]|$)`)

// Resolution maps a process to a profile name. Ambiguous marks a
// best-effort heuristic guess (open-files introspection or claim-order
// assignment) as opposed to an explicit command-line match; callers decide
// how much to trust it.
type Resolution struct {
	ProfileName string
	Ambiguous   bool
}

// Resolver determines which logical profile a browser process belongs to,
// from its command line and, failing that, from heuristics.
type Resolver struct {
	// UserDataDir is the real Chrome user-data directory; a process
	// using it without an explicit profile flag runs "Default"
	UserDataDir string

	Logger logging.Logger
}

// Resolve maps one main process to a profile name. claimed holds profile
// names already assigned to other processes in the current resolution
// pass; they are never reassigned. Returns nil when the process cannot be
// matched to any known, unclaimed profile; callers treat that as
// "unassignable", not an error.
func (r *Resolver) Resolve(proc procinspect.MainProcess, known []profiles.ProfileIdentity, claimed map[string]bool) *Resolution {
	// Explicit flag, token and =-joined forms
	if name, ok := profileDirFromArgv(proc.Argv); ok {
		return r.accept(name, known, claimed, false, proc.PID)
	}

	// Regex fallback over the joined command line, for launchers that
	// mangle argument boundaries
	joined := strings.Join(proc.Argv, " ")
	hasProfileFlag := strings.Contains(joined, profileDirFlag)
	if hasProfileFlag {
		if match := profileDirPattern.FindStringSubmatch(joined); match != nil {
			return r.accept(strings.TrimSpace(match[1]), known, claimed, false, proc.PID)
		}
	}

	// A user-data-dir argument can settle it without a profile flag
	if dataDir, ok := userDataDirFromArgv(proc.Argv); ok {
		// Independently provisioned directories encode the profile
		// name in the directory itself
		if name, ok := ProfileForIndependentDir(dataDir); ok {
			return r.accept(name, known, claimed, false, proc.PID)
		}
		// Without a profile flag, the real user-data directory means
		// the default profile
		if !hasProfileFlag && r.UserDataDir != "" && filepath.Clean(dataDir) == filepath.Clean(r.UserDataDir) {
			return r.accept("Default", known, claimed, false, proc.PID)
		}
		return nil
	}

	// Degenerate single-token argv: some launchers exec the bare binary
	// with no flags at all. Identity is ambiguous; guess.
	if len(proc.Argv) == 1 {
		return r.guess(proc, known, claimed)
	}

	return nil
}

// accept validates a candidate name against the known profiles and the
// claimed set
func (r *Resolver) accept(name string, known []profiles.ProfileIdentity, claimed map[string]bool, ambiguous bool, pid int) *Resolution {
	if name == "" || claimed[name] {
		return nil
	}
	for _, profile := range known {
		if profile.Name == name {
			r.Logger.Debugf("Resolved PID %d to profile '%s' (ambiguous=%v)", pid, name, ambiguous)
			return &Resolution{ProfileName: name, Ambiguous: ambiguous}
		}
	}
	return nil
}

// guess disambiguates a flagless process: first by inspecting its open
// files for a known profile's Preferences path, then by assigning the next
// unclaimed profile (Default first, then lexical order). Best-effort and
// occasionally wrong; always reported as Ambiguous.
func (r *Resolver) guess(proc procinspect.MainProcess, known []profiles.ProfileIdentity, claimed map[string]bool) *Resolution {
	if openPaths, err := proc.Handle.OpenFilePaths(); err == nil {
		for _, openPath := range openPaths {
			for _, profile := range known {
				if claimed[profile.Name] {
					continue
				}
				if openPath == filepath.Join(profile.Path, preferencesFile) {
					r.Logger.Debugf("Guessed profile '%s' for PID %d from open file %s",
						profile.Name, proc.PID, openPath)
					return &Resolution{ProfileName: profile.Name, Ambiguous: true}
				}
			}
		}
	}

	unclaimed := make([]profiles.ProfileIdentity, 0, len(known))
	for _, profile := range known {
		if !claimed[profile.Name] {
			unclaimed = append(unclaimed, profile)
		}
	}
	if len(unclaimed) == 0 {
		return nil
	}

	sort.Slice(unclaimed, func(i, j int) bool {
		if unclaimed[i].IsDefault != unclaimed[j].IsDefault {
			return unclaimed[i].IsDefault
		}
		return unclaimed[i].Name < unclaimed[j].Name
	})

	r.Logger.Debugf("Assigned unclaimed profile '%s' to PID %d by claim order",
		unclaimed[0].Name, proc.PID)

	return &Resolution{ProfileName: unclaimed[0].Name, Ambiguous: true}
}

// profileDirFromArgv finds --profile-directory in either argument form.
// The =-joined value is taken from the whole logical argument, so display
// names with spaces round-trip exactly.
func profileDirFromArgv(argv []string) (string, bool) {
	for i, arg := range argv {
		if arg == profileDirFlag && i+1 < len(argv) {
			return argv[i+1], true
		}
		if strings.HasPrefix(arg, profileDirFlag+"=") {
			return arg[len(profileDirFlag)+1:], true
		}
	}
	return "", false
}

// userDataDirFromArgv finds --user-data-dir in either argument form
func userDataDirFromArgv(argv []string) (string, bool) {
	for i, arg := range argv {
		if arg == userDataDirFlag && i+1 < len(argv) {
			return argv[i+1], true
		}
		if strings.HasPrefix(arg, userDataDirFlag+"=") {
			return arg[len(userDataDirFlag)+1:], true
		}
	}
	return "", false
}

// IndependentDataDir returns the provisioned user-data directory for a
// profile in independent isolation mode: a sibling of the real user-data
// directory named after the profile.
func IndependentDataDir(userDataDir, profileName string) string {
	return filepath.Join(filepath.Dir(userDataDir), independentPrefix+profileName)
}

// ProfileForIndependentDir recovers the profile name from an independently
// provisioned data directory path.
func ProfileForIndependentDir(dataDir string) (string, bool) {
	base := filepath.Base(filepath.Clean(dataDir))
	if strings.HasPrefix(base, independentPrefix) {
		return base[len(independentPrefix):], true
	}
	return "", false
}
