// Package browser manages Chrome instances bound to logical profiles:
// launching them with per-profile settings, adopting externally started
// ones, and keeping an in-memory registry consistent with the OS process
// table.
package browser

import (
	"time"

	"github.com/browser-tools/chrome-station-go/pkg/procinspect"
)

// TrackedInstance is a browser process the manager believes is running.
// At most one exists per profile name.
type TrackedInstance struct {
	ProfileName string
	PID         int
	Handle      procinspect.Handle
	StartTime   time.Time
	DataDir     string
	CommandLine []string
	Discovered  bool
}

// InstanceInfo is the status record returned to callers (GUI/CLI)
type InstanceInfo struct {
	PID           int
	StartTime     time.Time
	MemoryBytes   uint64
	MemoryPercent float32
	CPUPercent    float64
	Status        string
	CommandLine   []string
	Discovered    bool
}

// info builds a status record from a tracked instance, reading the current
// resource usage from its handle. Usage failures degrade to zeros: a
// status query must not fail because one counter was unreadable.
func (instance *TrackedInstance) info() InstanceInfo {
	result := InstanceInfo{
		PID:         instance.PID,
		StartTime:   instance.StartTime,
		Status:      "unknown",
		CommandLine: instance.CommandLine,
		Discovered:  instance.Discovered,
	}

	if usage, err := instance.Handle.Usage(); err == nil {
		result.MemoryBytes = usage.MemoryRSS
		result.MemoryPercent = usage.MemoryPercent
		result.CPUPercent = usage.CPUPercent
		result.Status = usage.Status
	}

	return result
}
