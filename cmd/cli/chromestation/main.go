package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/browser"
	"github.com/browser-tools/chrome-station-go/pkg/config"
	"github.com/browser-tools/chrome-station-go/pkg/logging"
	"github.com/browser-tools/chrome-station-go/pkg/process"
	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
	"github.com/browser-tools/chrome-station-go/pkg/profiles"

	flags "github.com/jessevdk/go-flags"
)

type globalOptions struct {
	Config      string `long:"config" description:"path to the configuration file"`
	UserDataDir string `long:"user-data-dir" description:"Chrome user data directory (default: auto-detect)"`
	Executable  string `long:"executable" description:"path to the Chrome executable (default: auto-detect)"`
	Isolation   string `long:"isolation" choice:"shared" choice:"independent" description:"instance isolation mode"`
	Verbose     bool   `short:"v" long:"verbose" description:"enable debug logging"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

// app holds the composed components every subcommand operates on
type app struct {
	logger  *logging.ZapLogger
	scanner *profiles.Scanner
	store   *config.Store
	manager *browser.Manager
}

func (a *app) identities() ([]profiles.ProfileIdentity, error) {
	scanned, err := a.scanner.Scan()
	if err != nil {
		return nil, err
	}
	return profiles.Identities(scanned), nil
}

func (a *app) identity(name string) (profiles.ProfileIdentity, error) {
	known, err := a.identities()
	if err != nil {
		return profiles.ProfileIdentity{}, err
	}
	for _, candidate := range known {
		if candidate.Name == name || candidate.DisplayName == name {
			return candidate, nil
		}
	}
	return profiles.ProfileIdentity{}, fmt.Errorf("unknown profile %q (try 'chromestation list')", name)
}

func buildApp(opts globalOptions) (*app, error) {
	appConfig, err := config.LoadAppConfig(configPath(opts))
	if err != nil {
		return nil, err
	}

	logConfig := appConfig.Logging
	if opts.Verbose {
		logConfig.Level = "debug"
	}
	logger, err := logging.NewZapLogger(logPrefix("chrome-station"), logConfig)
	if err != nil {
		return nil, err
	}

	userDataDir := appConfig.Browser.UserDataDir
	if opts.UserDataDir != "" {
		userDataDir = opts.UserDataDir
	}
	scanner, err := profiles.NewScanner(userDataDir, logger)
	if err != nil {
		return nil, err
	}

	store, err := config.NewStore(appConfig.Browser.SettingsDir, logger)
	if err != nil {
		return nil, err
	}

	override := appConfig.Browser.ExecutablePath
	if opts.Executable != "" {
		override = opts.Executable
	}
	executablePath, err := process.FindBrowserExecutable(override, logger)
	if err != nil {
		// Listing and status still work without a browser binary
		logger.Warnf("No Chrome executable found: %v", err)
		executablePath = ""
	}

	isolation := appConfig.Browser.Isolation
	if opts.Isolation != "" {
		isolation = browser.IsolationMode(opts.Isolation)
	}

	inspector := procinspect.NewInspector(logger)
	manager := browser.NewManager(browser.ManagerOptions{
		ExecutablePath: executablePath,
		UserDataDir:    scanner.UserDataDir(),
		Isolation:      isolation,
		Settings:       appConfig.Launch,
	}, inspector, logger)

	return &app{
		logger:  logger,
		scanner: scanner,
		store:   store,
		manager: manager,
	}, nil
}

func configPath(opts globalOptions) string {
	if opts.Config != "" {
		return opts.Config
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "chrome-station", "config.yaml")
}

type listCommand struct {
	app func() (*app, error)
}

func (c *listCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	scanned, err := a.scanner.Scan()
	if err != nil {
		return err
	}
	known := profiles.Identities(scanned)
	running := a.manager.AllRunning(known)

	order := a.store.LoadOrder()
	scanned = applyOrder(scanned, order)

	fmt.Printf("%-12s %-20s %-9s %-10s %-10s %s\n",
		"PROFILE", "NAME", "BOOKMARKS", "EXTENSIONS", "STORAGE", "STATUS")
	for _, profile := range scanned {
		status := "-"
		if info, ok := running[profile.Name]; ok {
			status = fmt.Sprintf("running (PID %d)", info.PID)
			if info.Discovered {
				status += " [external]"
			}
		}
		fmt.Printf("%-12s %-20s %-9d %-10d %-10s %s\n",
			profile.Name, profile.DisplayName,
			profile.BookmarksCount, profile.ExtensionsCount,
			browser.FormatMemory(uint64(profile.StorageSize)), status)
	}
	return nil
}

// applyOrder sorts profiles by the saved display order; profiles not in
// the order file keep their scan position at the end.
func applyOrder(scanned []profiles.Profile, order []string) []profiles.Profile {
	if len(order) == 0 {
		return scanned
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sort.SliceStable(scanned, func(i, j int) bool {
		ri, iOK := rank[scanned[i].Name]
		rj, jOK := rank[scanned[j].Name]
		if iOK && jOK {
			return ri < rj
		}
		return iOK && !jOK
	})
	return scanned
}

type startCommand struct {
	app  func() (*app, error)
	Args struct {
		Profile string `positional-arg-name:"profile" required:"yes" description:"profile directory name"`
	} `positional-args:"yes"`
}

func (c *startCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	profile, err := a.identity(c.Args.Profile)
	if err != nil {
		return err
	}

	opts := a.store.Load(profile.Name).LaunchOptions()
	result, err := a.manager.Launch(profile, opts)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case browser.LaunchConfirmed:
		fmt.Printf("Started profile %q (PID %d)\n", profile.Name, result.Instance.PID)
	case browser.LaunchUnconfirmed:
		fmt.Printf("Started profile %q, main process not yet confirmed (launcher PID %d)\n",
			profile.Name, result.Instance.PID)
	}
	return nil
}

type stopCommand struct {
	app   func() (*app, error)
	Force bool `long:"force" description:"kill immediately instead of terminating gracefully"`
	Args  struct {
		Profile string `positional-arg-name:"profile" required:"yes" description:"profile directory name"`
	} `positional-args:"yes"`
}

func (c *stopCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	profile, err := a.identity(c.Args.Profile)
	if err != nil {
		return err
	}

	// Adopt externally started instances first so they can be stopped too
	if known, err := a.identities(); err == nil {
		if _, err := a.manager.DiscoverUnmanaged(known); err != nil {
			a.logger.Warnf("Discovery scan failed: %v", err)
		}
	}

	if err := a.manager.Close(profile.Name, c.Force); err != nil {
		return err
	}
	fmt.Printf("Stopped profile %q\n", profile.Name)
	return nil
}

type stopAllCommand struct {
	app func() (*app, error)
}

func (c *stopAllCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	known, err := a.identities()
	if err != nil {
		return err
	}
	if _, err := a.manager.DiscoverUnmanaged(known); err != nil {
		a.logger.Warnf("Discovery scan failed: %v", err)
	}

	count := a.manager.Registry().Len()
	if err := a.manager.CloseAll(); err != nil {
		return err
	}
	fmt.Printf("Stopped %d instance(s)\n", count)
	return nil
}

type restartCommand struct {
	app  func() (*app, error)
	Args struct {
		Profile string `positional-arg-name:"profile" required:"yes" description:"profile directory name"`
	} `positional-args:"yes"`
}

func (c *restartCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	profile, err := a.identity(c.Args.Profile)
	if err != nil {
		return err
	}

	if known, err := a.identities(); err == nil {
		if _, err := a.manager.DiscoverUnmanaged(known); err != nil {
			a.logger.Warnf("Discovery scan failed: %v", err)
		}
	}

	opts := a.store.Load(profile.Name).LaunchOptions()
	result, err := a.manager.Restart(profile, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Restarted profile %q (PID %d)\n", profile.Name, result.Instance.PID)
	return nil
}

type statusCommand struct {
	app  func() (*app, error)
	Args struct {
		Profile string `positional-arg-name:"profile" description:"profile directory name (default: all)"`
	} `positional-args:"yes"`
}

func (c *statusCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	known, err := a.identities()
	if err != nil {
		return err
	}
	running := a.manager.AllRunning(known)

	if c.Args.Profile != "" {
		profile, err := a.identity(c.Args.Profile)
		if err != nil {
			return err
		}
		info, ok := running[profile.Name]
		if !ok {
			fmt.Printf("Profile %q is not running\n", profile.Name)
			return nil
		}
		printStatus(profile.Name, info)
		return nil
	}

	if len(running) == 0 {
		fmt.Println("No instances running")
		return nil
	}

	var names []string
	for name := range running {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printStatus(name, running[name])
	}
	return nil
}

func printStatus(profileName string, info browser.InstanceInfo) {
	origin := ""
	if info.Discovered {
		origin = " [external]"
	}
	fmt.Printf("%s%s\n", profileName, origin)
	fmt.Printf("  PID:     %d\n", info.PID)
	fmt.Printf("  Status:  %s\n", info.Status)
	fmt.Printf("  Memory:  %s (%.1f%%)\n", browser.FormatMemory(info.MemoryBytes), info.MemoryPercent)
	fmt.Printf("  CPU:     %.1f%%\n", info.CPUPercent)
	fmt.Printf("  Uptime:  %s\n", time.Since(info.StartTime).Round(time.Second))
}

type configureCommand struct {
	app          func() (*app, error)
	Language     string   `long:"language" description:"UI language, e.g. en-US"`
	ProxyServer  string   `long:"proxy-server" description:"proxy host (enables the proxy)"`
	ProxyPort    int      `long:"proxy-port" description:"proxy port"`
	ProxyType    string   `long:"proxy-type" choice:"http" choice:"https" choice:"socks4" choice:"socks5" description:"proxy type"`
	WindowWidth  int      `long:"width" description:"window width"`
	WindowHeight int      `long:"height" description:"window height"`
	CustomArgs   []string `long:"arg" description:"extra command-line argument (repeatable)"`
	Export       string   `long:"export" description:"write the profile's settings to a file instead of editing"`
	Args         struct {
		Profile string `positional-arg-name:"profile" required:"yes" description:"profile directory name"`
	} `positional-args:"yes"`
}

func (c *configureCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	profile, err := a.identity(c.Args.Profile)
	if err != nil {
		return err
	}

	if c.Export != "" {
		if err := a.store.Export(profile.Name, c.Export); err != nil {
			return err
		}
		fmt.Printf("Exported settings for profile %q to %s\n", profile.Name, c.Export)
		return nil
	}

	settings := a.store.Load(profile.Name)
	if c.Language != "" {
		settings.Language = c.Language
	}
	if c.ProxyServer != "" {
		settings.ProxyEnabled = true
		settings.ProxyServer = c.ProxyServer
	}
	if c.ProxyPort != 0 {
		settings.ProxyPort = c.ProxyPort
	}
	if c.ProxyType != "" {
		settings.ProxyType = c.ProxyType
	}
	if c.WindowWidth != 0 {
		settings.WindowWidth = c.WindowWidth
	}
	if c.WindowHeight != 0 {
		settings.WindowHeight = c.WindowHeight
	}
	if len(c.CustomArgs) != 0 {
		settings.CustomArgs = c.CustomArgs
	}

	if err := a.store.Save(settings); err != nil {
		return err
	}
	fmt.Printf("Saved settings for profile %q\n", profile.Name)
	return nil
}

type importCommand struct {
	app  func() (*app, error)
	Args struct {
		File string `positional-arg-name:"file" required:"yes" description:"settings document to import"`
	} `positional-args:"yes"`
}

func (c *importCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	settings, err := a.store.Import(c.Args.File)
	if err != nil {
		return err
	}
	fmt.Printf("Imported settings for profile %q\n", settings.ProfileName)
	return nil
}

type watchCommand struct {
	app      func() (*app, error)
	Interval time.Duration `long:"interval" default:"5s" description:"reconciliation interval"`
}

func (c *watchCommand) Execute(args []string) error {
	a, err := c.app()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	known, err := a.identities()
	if err != nil {
		return err
	}

	rescan := make(chan struct{}, 1)
	go func() {
		err := a.scanner.Watch(ctx, func() {
			select {
			case rescan <- struct{}{}:
			default:
			}
		})
		if err != nil {
			a.logger.Warnf("Profile watcher stopped: %v", err)
		}
	}()

	fmt.Println("Watching instances, Ctrl-C to stop")

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	last := a.manager.AllRunning(known)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-rescan:
			refreshed, err := a.identities()
			if err != nil {
				a.logger.Warnf("Profile rescan failed: %v", err)
				continue
			}
			a.logger.Infof("Profile list changed: %d profiles", len(refreshed))
			known = refreshed

		case <-ticker.C:
			running := a.manager.AllRunning(known)
			for name, info := range running {
				a.logger.Infof("Instance %s: PID %d, %s, CPU %.1f%%",
					name, info.PID, browser.FormatMemory(info.MemoryBytes), info.CPUPercent)
			}
			for _, name := range exitedProfiles(last, running) {
				fmt.Printf("Instance for profile %q exited\n", name)
			}
			last = running
		}
	}
}

// exitedProfiles returns the profile names present in the previous
// reconciliation pass but gone from the current one, sorted.
func exitedProfiles(prev, current map[string]browser.InstanceInfo) []string {
	var exited []string
	for name := range prev {
		if _, ok := current[name]; !ok {
			exited = append(exited, name)
		}
	}
	sort.Strings(exited)
	return exited
}

func main() {
	var opts globalOptions

	var built *app
	lazyApp := func() (*app, error) {
		if built != nil {
			return built, nil
		}
		a, err := buildApp(opts)
		if err != nil {
			return nil, err
		}
		built = a
		return built, nil
	}

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.AddCommand("list", "List profiles", "List Chrome profiles with metadata and running state", &listCommand{app: lazyApp})
	parser.AddCommand("start", "Start a profile", "Launch a Chrome instance for a profile", &startCommand{app: lazyApp})
	parser.AddCommand("stop", "Stop a profile", "Close the Chrome instance of a profile", &stopCommand{app: lazyApp})
	parser.AddCommand("stop-all", "Stop everything", "Close all running Chrome instances", &stopAllCommand{app: lazyApp})
	parser.AddCommand("restart", "Restart a profile", "Close and relaunch the Chrome instance of a profile", &restartCommand{app: lazyApp})
	parser.AddCommand("status", "Show instance status", "Show PIDs and resource usage of running instances", &statusCommand{app: lazyApp})
	parser.AddCommand("configure", "Edit profile settings", "Save or export per-profile launch settings", &configureCommand{app: lazyApp})
	parser.AddCommand("import", "Import profile settings", "Import a previously exported settings document", &importCommand{app: lazyApp})
	parser.AddCommand("watch", "Watch instances", "Reconcile instances and watch for profile changes", &watchCommand{app: lazyApp})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Print(flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if built != nil {
		built.logger.Sync()
	}
}
