package browser

import (
	"fmt"
)

// ProxyType selects the scheme prefix of the --proxy-server flag
type ProxyType string

const (
	ProxyTypeHTTP   ProxyType = "http"
	ProxyTypeHTTPS  ProxyType = "https"
	ProxyTypeSOCKS4 ProxyType = "socks4"
	ProxyTypeSOCKS5 ProxyType = "socks5"
)

// ProxyConfig describes an upstream proxy for a launched instance.
// Username and password are accepted for completeness but never reach the
// command line: Chrome has no native proxy-auth flag, so credentials are a
// documented no-op here, not something to silently drop.
type ProxyConfig struct {
	Type     ProxyType `json:"type"`
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Username string    `json:"username,omitempty"`
	Password string    `json:"password,omitempty"`
}

// scheme maps the proxy type to its --proxy-server prefix. http and https
// proxies both use the http:// form.
func (p ProxyConfig) scheme() string {
	switch p.Type {
	case ProxyTypeSOCKS5:
		return "socks5"
	case ProxyTypeSOCKS4:
		return "socks4"
	default:
		return "http"
	}
}

// WindowSize sets the initial window dimensions
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LaunchOptions carries the per-profile launch settings. Every field is
// optional; the zero value means "browser default".
type LaunchOptions struct {
	Language   string
	Proxy      *ProxyConfig
	WindowSize *WindowSize
	ExtraArgs  []string
}

// BuildLaunchArgs constructs the argument vector for a new browser
// process, excluding the executable path. profileDir selects a profile
// within the shared data directory and is empty in independent isolation
// mode, where the data directory itself identifies the profile.
func BuildLaunchArgs(dataDir, profileDir string, opts LaunchOptions) []string {
	var args []string

	args = append(args, userDataDirFlag+"="+dataDir)
	if profileDir != "" {
		args = append(args, profileDirFlag+"="+profileDir)
	}

	if opts.Language != "" {
		args = append(args, "--lang="+opts.Language)
	}

	if opts.Proxy != nil && opts.Proxy.Host != "" {
		args = append(args, fmt.Sprintf("--proxy-server=%s://%s:%d",
			opts.Proxy.scheme(), opts.Proxy.Host, opts.Proxy.Port))
	}

	if opts.WindowSize != nil {
		args = append(args, fmt.Sprintf("--window-size=%d,%d",
			opts.WindowSize.Width, opts.WindowSize.Height))
	}

	args = append(args, opts.ExtraArgs...)

	// Baseline flags: suppress onboarding prompts on a fresh data dir
	args = append(args,
		"--no-first-run",
		"--no-default-browser-check",
	)

	return args
}
