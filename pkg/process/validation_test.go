package process

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
)

func TestValidatePID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "valid pid", input: "1234", want: 1234},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid, err := ValidatePID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pid)
		})
	}
}

func TestValidateSpawnConfig(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "fake-chrome")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	t.Run("valid", func(t *testing.T) {
		err := ValidateSpawnConfig(SpawnConfig{
			ExecutablePath: exe,
			Args:           []string{"--no-first-run"},
		})
		assert.NoError(t, err)
	})

	t.Run("missing executable path", func(t *testing.T) {
		err := ValidateSpawnConfig(SpawnConfig{})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("nonexistent executable", func(t *testing.T) {
		err := ValidateSpawnConfig(SpawnConfig{ExecutablePath: filepath.Join(t.TempDir(), "missing")})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("empty argument", func(t *testing.T) {
		err := ValidateSpawnConfig(SpawnConfig{ExecutablePath: exe, Args: []string{""}})
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestFindBrowserExecutable_Override(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(exe, []byte{}, 0o755))

	path, err := FindBrowserExecutable(exe, nopLogger{})
	require.NoError(t, err)
	assert.Equal(t, exe, path)
}

func TestFindBrowserExecutable_OverrideMissing(t *testing.T) {
	_, err := FindBrowserExecutable(filepath.Join(t.TempDir(), "missing"), nopLogger{})
	assert.True(t, errors.IsNotFoundError(err))
}

type nopLogger struct{}

func (nopLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (nopLogger) Debugf(format string, args ...interface{})               {}
func (nopLogger) Infof(format string, args ...interface{})                {}
func (nopLogger) Warnf(format string, args ...interface{})                {}
func (nopLogger) Errorf(format string, args ...interface{})               {}
