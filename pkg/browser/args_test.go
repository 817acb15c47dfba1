package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func countArgsWithPrefix(args []string, prefix string) int {
	count := 0
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			count++
		}
	}
	return count
}

func TestBuildLaunchArgs_FullConfig(t *testing.T) {
	args := BuildLaunchArgs("/data/chrome", "Profile 2", LaunchOptions{
		Language: "en-US",
		Proxy: &ProxyConfig{
			Type:     ProxyTypeHTTP,
			Host:     "1.2.3.4",
			Port:     8080,
			Username: "credusr",
			Password: "credpw",
		},
		WindowSize: &WindowSize{Width: 1280, Height: 720},
	})

	assert.Contains(t, args, "--user-data-dir=/data/chrome")
	assert.Contains(t, args, "--profile-directory=Profile 2")
	assert.Contains(t, args, "--lang=en-US")
	assert.Contains(t, args, "--proxy-server=http://1.2.3.4:8080")
	assert.Contains(t, args, "--window-size=1280,720")
	assert.Contains(t, args, "--no-first-run")
	assert.Contains(t, args, "--no-default-browser-check")

	// Exactly one of each optional flag
	assert.Equal(t, 1, countArgsWithPrefix(args, "--lang="))
	assert.Equal(t, 1, countArgsWithPrefix(args, "--proxy-server="))
	assert.Equal(t, 1, countArgsWithPrefix(args, "--window-size="))

	// Proxy credentials never reach the command line
	for _, arg := range args {
		assert.NotContains(t, arg, "credusr")
		assert.NotContains(t, arg, "credpw")
	}
}

func TestBuildLaunchArgs_Defaults(t *testing.T) {
	args := BuildLaunchArgs("/data/chrome", "Default", LaunchOptions{})

	assert.Equal(t, []string{
		"--user-data-dir=/data/chrome",
		"--profile-directory=Default",
		"--no-first-run",
		"--no-default-browser-check",
	}, args)
}

func TestBuildLaunchArgs_IndependentMode_NoProfileFlag(t *testing.T) {
	args := BuildLaunchArgs("/data/Chrome_Instance_Profile 2", "", LaunchOptions{})

	assert.Equal(t, 0, countArgsWithPrefix(args, "--profile-directory"))
	assert.Contains(t, args, "--user-data-dir=/data/Chrome_Instance_Profile 2")
}

func TestBuildLaunchArgs_ProxySchemes(t *testing.T) {
	tests := []struct {
		proxyType ProxyType
		want      string
	}{
		{ProxyTypeHTTP, "--proxy-server=http://proxy:3128"},
		{ProxyTypeHTTPS, "--proxy-server=http://proxy:3128"},
		{ProxyTypeSOCKS4, "--proxy-server=socks4://proxy:3128"},
		{ProxyTypeSOCKS5, "--proxy-server=socks5://proxy:3128"},
	}

	for _, tt := range tests {
		t.Run(string(tt.proxyType), func(t *testing.T) {
			args := BuildLaunchArgs("/data", "", LaunchOptions{
				Proxy: &ProxyConfig{Type: tt.proxyType, Host: "proxy", Port: 3128},
			})
			assert.Contains(t, args, tt.want)
		})
	}
}

func TestBuildLaunchArgs_ProxyWithoutHostOmitted(t *testing.T) {
	args := BuildLaunchArgs("/data", "", LaunchOptions{
		Proxy: &ProxyConfig{Type: ProxyTypeHTTP, Port: 8080},
	})

	assert.Equal(t, 0, countArgsWithPrefix(args, "--proxy-server"))
}

func TestBuildLaunchArgs_ExtraArgsVerbatimAndOrdered(t *testing.T) {
	args := BuildLaunchArgs("/data", "Default", LaunchOptions{
		ExtraArgs: []string{"--incognito", "--disable-extensions"},
	})

	incognito := -1
	disable := -1
	for i, arg := range args {
		if arg == "--incognito" {
			incognito = i
		}
		if arg == "--disable-extensions" {
			disable = i
		}
	}
	assert.Greater(t, incognito, -1)
	assert.Equal(t, incognito+1, disable)
}
