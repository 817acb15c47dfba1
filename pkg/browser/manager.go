package browser

import (
	"os"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/logging"
	"github.com/browser-tools/chrome-station-go/pkg/process"
	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
)

// IsolationMode selects how launched instances relate to the real Chrome
// user-data directory. A Manager runs exactly one mode for its lifetime;
// there is no hybrid.
type IsolationMode string

const (
	// IsolationShared launches every profile out of the one real
	// user-data directory, selected via --profile-directory. Instances
	// share on-disk state with the user's regular browser.
	IsolationShared IsolationMode = "shared"

	// IsolationIndependent provisions a dedicated user-data directory
	// per profile (a sibling of the real one), copying the profile data
	// into it on first launch. Stronger OS-level separation at the cost
	// of duplicated state that diverges from the real profile.
	IsolationIndependent IsolationMode = "independent"
)

// LaunchSettings bounds the settle+poll confirmation sequence and the
// close grace period. All budgets are finite and always reached.
type LaunchSettings struct {
	SettleDelay  time.Duration `yaml:"settle_delay,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	PollBudget   time.Duration `yaml:"poll_budget,omitempty"`
	GraceTimeout time.Duration `yaml:"grace_timeout,omitempty"`
}

// DefaultLaunchSettings returns the empirically workable defaults: Chrome's
// launcher usually hands off within ~3s, and a confirmed main process shows
// up well inside the poll budget.
func DefaultLaunchSettings() LaunchSettings {
	return LaunchSettings{
		SettleDelay:  3 * time.Second,
		PollInterval: 500 * time.Millisecond,
		PollBudget:   7500 * time.Millisecond,
		GraceTimeout: 10 * time.Second,
	}
}

func (s LaunchSettings) withDefaults() LaunchSettings {
	defaults := DefaultLaunchSettings()
	if s.SettleDelay <= 0 {
		s.SettleDelay = defaults.SettleDelay
	}
	if s.PollInterval <= 0 {
		s.PollInterval = defaults.PollInterval
	}
	if s.PollBudget <= 0 {
		s.PollBudget = defaults.PollBudget
	}
	if s.GraceTimeout <= 0 {
		s.GraceTimeout = defaults.GraceTimeout
	}
	return s
}

// SpawnFunc starts a detached browser process. Injectable for tests.
type SpawnFunc func(config process.SpawnConfig, id string, logger logging.Logger) (*os.Process, error)

// ManagerOptions configures a Manager
type ManagerOptions struct {
	// ExecutablePath is the browser binary located at startup. Empty
	// means discovery failed; every launch will be rejected.
	ExecutablePath string

	// UserDataDir is the real Chrome user-data directory
	UserDataDir string

	// Isolation selects the data-directory strategy, default shared
	Isolation IsolationMode

	// ProcessName overrides the fragment used to match browser
	// processes; default from the process package
	ProcessName string

	Settings LaunchSettings

	// Spawn overrides the process spawner, for tests
	Spawn SpawnFunc
}

// Manager owns the instance registry and composes the launch controller
// and lifecycle reconciler. It is an explicit object: whoever builds the
// system (CLI entrypoint, GUI root) creates one and passes it around.
type Manager struct {
	executablePath string
	userDataDir    string
	isolation      IsolationMode
	processName    string
	settings       LaunchSettings
	registry       *Registry
	inspector      procinspect.Inspector
	resolver       *Resolver
	spawn          SpawnFunc
	logger         logging.Logger
}

// NewManager creates a manager around an inspector and options
func NewManager(options ManagerOptions, inspector procinspect.Inspector, logger logging.Logger) *Manager {
	isolation := options.Isolation
	if isolation == "" {
		isolation = IsolationShared
	}
	processName := options.ProcessName
	if processName == "" {
		processName = process.BrowserProcessName()
	}
	spawn := options.Spawn
	if spawn == nil {
		spawn = process.SpawnDetached
	}

	return &Manager{
		executablePath: options.ExecutablePath,
		userDataDir:    options.UserDataDir,
		isolation:      isolation,
		processName:    processName,
		settings:       options.Settings.withDefaults(),
		registry:       NewRegistry(),
		inspector:      inspector,
		resolver: &Resolver{
			UserDataDir: options.UserDataDir,
			Logger:      logger,
		},
		spawn:  spawn,
		logger: logger,
	}
}

// Registry exposes the instance registry for status iteration
func (m *Manager) Registry() *Registry {
	return m.registry
}

// ExecutablePath returns the browser binary located at startup, empty if
// none was found
func (m *Manager) ExecutablePath() string {
	return m.executablePath
}

// Isolation returns the manager's data-directory strategy
func (m *Manager) Isolation() IsolationMode {
	return m.isolation
}
