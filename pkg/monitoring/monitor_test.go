package monitoring

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

func fastFileCheckConfig(path string, retries int) *HealthCheckConfig {
	return &HealthCheckConfig{
		Type: HealthCheckTypeFile,
		File: FileHealthCheckConfig{Path: path},
		RunOptions: HealthCheckRunOptions{
			Enabled:  true,
			Interval: 10 * time.Millisecond,
			Timeout:  time.Second,
			Retries:  retries,
		},
	}
}

func waitForStatus(t *testing.T, monitor HealthMonitor, status HealthCheckStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return monitor.State().Status == status
	}, 2*time.Second, 5*time.Millisecond, "expected status %s, last state: %+v", status, monitor.State())
}

func TestNewHealthMonitor_NilConfig(t *testing.T) {
	_, err := NewHealthMonitor(nil, "safety", logging.NewNullLogger())

	assert.Error(t, err)
}

func TestNewHealthMonitor_InvalidConfig(t *testing.T) {
	config := &HealthCheckConfig{Type: HealthCheckTypeFile}

	_, err := NewHealthMonitor(config, "safety", logging.NewNullLogger())

	assert.Error(t, err)
}

func TestStart_Disabled(t *testing.T) {
	config := &HealthCheckConfig{
		Type:       HealthCheckTypeFile,
		File:       FileHealthCheckConfig{Path: "/dev/shm/never-probed.health"},
		RunOptions: HealthCheckRunOptions{Enabled: false},
	}
	monitor, err := NewHealthMonitor(config, "safety", logging.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, monitor.Start(context.Background()))

	assert.Equal(t, HealthCheckStatusStarting, monitor.State().Status)
	assert.Equal(t, int64(0), monitor.State().TotalProbes)
}

func TestStart_Twice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	monitor, err := NewHealthMonitor(fastFileCheckConfig(path, 1), "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	require.NoError(t, monitor.Start(context.Background()))

	assert.Error(t, monitor.Start(context.Background()))
}

// TestMonitor_ContainerStartScenario follows the contract end to end: the
// record is absent at start, so probes report unhealthy; once the monitored
// process writes a healthy record the next probe recovers
func TestMonitor_ContainerStartScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	monitor, err := NewHealthMonitor(fastFileCheckConfig(path, 1), "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	require.NoError(t, monitor.Start(context.Background()))
	waitForStatus(t, monitor, HealthCheckStatusUnhealthy)

	require.NoError(t, os.WriteFile(path, []byte("OK: true\n"), 0644))
	waitForStatus(t, monitor, HealthCheckStatusHealthy)

	assert.Equal(t, 0, monitor.State().ConsecutiveFailures)
}

func TestMonitor_FailureThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	require.NoError(t, os.WriteFile(path, []byte("OK: true\n"), 0644))

	monitor, err := NewHealthMonitor(fastFileCheckConfig(path, 3), "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	require.NoError(t, monitor.Start(context.Background()))
	waitForStatus(t, monitor, HealthCheckStatusHealthy)

	// Flip to unhealthy content; three consecutive failures must accrue
	// before the transition
	require.NoError(t, os.WriteFile(path, []byte("OK: false\n"), 0644))
	waitForStatus(t, monitor, HealthCheckStatusUnhealthy)

	state := monitor.State()
	assert.GreaterOrEqual(t, state.ConsecutiveFailures, 3)
	assert.NotEmpty(t, state.LastError)
}

func TestMonitor_RestartCallbackOnUnhealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	monitor, err := NewHealthMonitor(fastFileCheckConfig(path, 1), "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	var restarts int32
	monitor.SetRestartCallback(func(reason string) error {
		atomic.AddInt32(&restarts, 1)
		return nil
	})

	var transitions int32
	monitor.SetStateChangeCallback(func(from, to HealthCheckStatus, reason string) {
		atomic.AddInt32(&transitions, 1)
	})

	require.NoError(t, monitor.Start(context.Background()))
	waitForStatus(t, monitor, HealthCheckStatusUnhealthy)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&restarts) == 1
	}, time.Second, 5*time.Millisecond)

	// The callback fires on the transition, not on every failed probe
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&restarts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&transitions))
}

// TestMonitor_ProbeTimeoutCountsAsFailure pins the deadline semantics: a
// probe that outlives RunOptions.Timeout is a failed probe like any other
// and drives the target to unhealthy
func TestMonitor_ProbeTimeoutCountsAsFailure(t *testing.T) {
	config := &HealthCheckConfig{
		Type:    HealthCheckTypeCommand,
		Command: CommandHealthCheckConfig{Command: "sleep", Args: []string{"5"}},
		RunOptions: HealthCheckRunOptions{
			Enabled:  true,
			Interval: 10 * time.Millisecond,
			Timeout:  10 * time.Millisecond,
			Retries:  1,
		},
	}
	monitor, err := NewHealthMonitor(config, "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	require.NoError(t, monitor.Start(context.Background()))
	waitForStatus(t, monitor, HealthCheckStatusUnhealthy)

	state := monitor.State()
	assert.Greater(t, state.TotalFailures, int64(0))
	assert.NotEmpty(t, state.LastError)
}

func TestMonitor_StopIsTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	require.NoError(t, os.WriteFile(path, []byte("OK: true\n"), 0644))

	monitor, err := NewHealthMonitor(fastFileCheckConfig(path, 1), "safety", logging.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, monitor.Start(context.Background()))
	waitForStatus(t, monitor, HealthCheckStatusHealthy)

	monitor.Stop()

	assert.Equal(t, HealthCheckStatusStopped, monitor.State().Status)

	// Stop is idempotent
	monitor.Stop()
	assert.Equal(t, HealthCheckStatusStopped, monitor.State().Status)
}

func TestMonitor_InitialDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.health")
	config := fastFileCheckConfig(path, 1)
	config.RunOptions.InitialDelay = 50 * time.Millisecond

	monitor, err := NewHealthMonitor(config, "safety", logging.NewNullLogger())
	require.NoError(t, err)
	defer monitor.Stop()

	require.NoError(t, monitor.Start(context.Background()))

	// Still starting during the delay window
	assert.Equal(t, HealthCheckStatusStarting, monitor.State().Status)
	waitForStatus(t, monitor, HealthCheckStatusUnhealthy)
}
