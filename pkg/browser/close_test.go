package browser

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browser-tools/chrome-station-go/pkg/errors"
)

// launchTracked puts a confirmed instance in the registry and returns its
// scriptable handle
func launchTracked(t *testing.T, manager *Manager, inspector *fakeInspector, profileName string, pid int) *fakeHandle {
	t.Helper()
	handle := inspector.addProcess(pid,
		[]string{"/usr/bin/google-chrome",
			"--user-data-dir=" + testUserDataDir,
			"--profile-directory=" + profileName})

	var profile = knownProfiles()[0]
	for _, candidate := range knownProfiles() {
		if candidate.Name == profileName {
			profile = candidate
		}
	}

	_, err := manager.Launch(profile, LaunchOptions{})
	require.NoError(t, err)
	return handle
}

func TestClose_Graceful(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5100)

	err := manager.Close("Default", false)
	require.NoError(t, err)

	assert.Equal(t, 1, handle.terminateCnt)
	assert.Equal(t, 0, handle.killCnt)
	assert.False(t, manager.Registry().Contains("Default"))
}

func TestClose_EscalatesToKill(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5101)
	handle.ignoresTerm = true

	err := manager.Close("Default", false)
	require.NoError(t, err)

	assert.Equal(t, 1, handle.terminateCnt)
	assert.Equal(t, 1, handle.killCnt)
	assert.False(t, manager.Registry().Contains("Default"))
}

func TestClose_Force_SkipsGraceful(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5102)

	err := manager.Close("Default", true)
	require.NoError(t, err)

	assert.Equal(t, 0, handle.terminateCnt)
	assert.Equal(t, 1, handle.killCnt)
}

func TestClose_AlreadyGone_IsSuccess(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5103)
	handle.markDead()

	err := manager.Close("Default", false)
	require.NoError(t, err)
	assert.Equal(t, 0, handle.terminateCnt)
	assert.False(t, manager.Registry().Contains("Default"))
}

func TestClose_KillFailureKeepsEntryTracked(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5106)
	handle.killFail = true

	err := manager.Close("Default", true)
	require.Error(t, err)
	assert.True(t, errors.IsProcessError(err))

	// The instance is still alive, so it must still be tracked
	assert.True(t, manager.Registry().Contains("Default"))
	assert.True(t, manager.IsRunning("Default"))
}

func TestClose_EscalationFailureKeepsEntryTracked(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	handle := launchTracked(t, manager, inspector, "Default", 5107)
	handle.ignoresTerm = true
	handle.killFail = true

	err := manager.Close("Default", false)
	require.Error(t, err)
	assert.True(t, errors.IsProcessError(err))
	assert.True(t, manager.Registry().Contains("Default"))
}

func TestClose_NotTracked(t *testing.T) {
	manager := newTestManager(newFakeInspector(), spawnReturning(&os.Process{Pid: 4000}, nil))

	err := manager.Close("Default", false)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestCloseAll(t *testing.T) {
	inspector := newFakeInspector()
	manager := newTestManager(inspector, spawnReturning(&os.Process{Pid: 4000}, nil))
	first := launchTracked(t, manager, inspector, "Default", 5104)
	second := launchTracked(t, manager, inspector, "Profile 2", 5105)

	err := manager.CloseAll()
	require.NoError(t, err)

	running, _ := first.IsRunning()
	assert.False(t, running)
	running, _ = second.IsRunning()
	assert.False(t, running)
	assert.Equal(t, 0, manager.Registry().Len())
}
