package supervisor

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
	"github.com/core-tools/hsu-healthmon-go/pkg/monitoring"
	"github.com/core-tools/hsu-healthmon-go/pkg/observability"
)

// TargetRegistry manages the set of monitored targets
type TargetRegistry interface {
	AddTarget(target TargetConfig) error
	RemoveTarget(id string) error
}

// TargetLifecycle drives monitoring of registered targets
type TargetLifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetManagerState() ManagerState
	GetTargetState(id string) (monitoring.HealthState, error)
	GetAllTargetStates() map[string]monitoring.HealthState
}

// MetricsIntegration wires the optional Prometheus instruments
type MetricsIntegration interface {
	SetHealthMetrics(metrics *observability.HealthMetrics)
}

// Manager is the supervisor core: a registry of monitored targets, each
// with its own health monitor and state machine
type Manager interface {
	TargetRegistry
	TargetLifecycle
	MetricsIntegration
}

// ManagerState represents the current state of the supervisor manager
type ManagerState string

const (
	// ManagerStateNotStarted is the initial state before Start() is called
	ManagerStateNotStarted ManagerState = "not_started"

	// ManagerStateRunning means the supervisor is running and probing
	ManagerStateRunning ManagerState = "running"

	// ManagerStateStopping means the supervisor is shutting down
	ManagerStateStopping ManagerState = "stopping"

	// ManagerStateStopped means the supervisor has stopped
	ManagerStateStopped ManagerState = "stopped"
)

// targetEntry combines configuration and monitor for a target
type targetEntry struct {
	Config  TargetConfig
	Monitor monitoring.HealthMonitor
}

type manager struct {
	targets map[string]*targetEntry
	state   ManagerState
	runCtx  context.Context
	metrics *observability.HealthMetrics
	mutex   sync.Mutex
	logger  logging.Logger
}

// NewManager creates a supervisor manager
func NewManager(logger logging.Logger) Manager {
	return &manager{
		targets: make(map[string]*targetEntry),
		state:   ManagerStateNotStarted,
		logger:  logger,
	}
}

func (m *manager) SetHealthMetrics(metrics *observability.HealthMetrics) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.metrics = metrics
}

func (m *manager) AddTarget(target TargetConfig) error {
	if err := ValidateTargetID(target.ID); err != nil {
		return err
	}
	if err := monitoring.ValidateHealthCheckConfig(&target.HealthCheck); err != nil {
		return errors.NewValidationError("invalid health check configuration", err).WithContext("target_id", target.ID)
	}

	id := target.ID
	m.logger.Infof("Adding target, id: %s, check_type: %s, interval: %s",
		id, target.HealthCheck.Type, target.HealthCheck.RunOptions.Interval)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.targets[id]; exists {
		return errors.NewConflictError("target already exists", nil).WithContext("target_id", id)
	}
	if m.state == ManagerStateStopping || m.state == ManagerStateStopped {
		return errors.NewValidationError("cannot add target to a stopped supervisor", nil).WithContext("target_id", id)
	}

	monitor, err := monitoring.NewHealthMonitor(&target.HealthCheck, id, m.logger)
	if err != nil {
		return errors.NewInternalError("failed to create health monitor", err).WithContext("target_id", id)
	}

	m.wireCallbacks(monitor, target)

	m.targets[id] = &targetEntry{
		Config:  target,
		Monitor: monitor,
	}

	// A target added to a running supervisor starts probing right away,
	// the same as if it had been registered before Start
	if m.state == ManagerStateRunning {
		if err := monitor.Start(m.runCtx); err != nil {
			delete(m.targets, id)
			return errors.NewInternalError("failed to start target monitor", err).WithContext("target_id", id)
		}
		m.logger.Infof("Target added to running supervisor, monitoring started, id: %s", id)
		return nil
	}

	m.logger.Infof("Target added successfully, id: %s", id)
	return nil
}

func (m *manager) RemoveTarget(id string) error {
	if err := ValidateTargetID(id); err != nil {
		return err
	}

	m.mutex.Lock()
	entry, exists := m.targets[id]
	if !exists {
		m.mutex.Unlock()
		return errors.NewNotFoundError("target not found", nil).WithContext("target_id", id)
	}
	delete(m.targets, id)
	m.mutex.Unlock()

	// Stop outside the lock, probes may be in flight
	entry.Monitor.Stop()

	m.logger.Infof("Target removed, id: %s", id)
	return nil
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	m.mutex.Lock()
	if m.state != ManagerStateNotStarted {
		state := m.state
		m.mutex.Unlock()
		return errors.NewValidationError(
			fmt.Sprintf("supervisor cannot start from state '%s'", state), nil)
	}
	m.state = ManagerStateRunning
	m.runCtx = ctx
	entries := m.snapshotUnsafe()
	m.mutex.Unlock()

	m.logger.Infof("Supervisor starting, targets: %d", len(entries))

	for id, entry := range entries {
		if err := entry.Monitor.Start(ctx); err != nil {
			m.logger.Errorf("Failed to start monitor, id: %s, error: %v", id, err)
			return errors.NewInternalError("failed to start target monitor", err).WithContext("target_id", id)
		}
	}

	m.logger.Infof("Supervisor started")
	return nil
}

func (m *manager) Stop(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	m.mutex.Lock()
	if m.state != ManagerStateRunning {
		state := m.state
		m.mutex.Unlock()
		return errors.NewValidationError(
			fmt.Sprintf("supervisor cannot stop from state '%s'", state), nil)
	}
	m.state = ManagerStateStopping
	entries := m.snapshotUnsafe()
	m.mutex.Unlock()

	m.logger.Infof("Supervisor stopping, targets: %d", len(entries))

	for id, entry := range entries {
		entry.Monitor.Stop()
		m.logger.Debugf("Monitor stopped, id: %s", id)
	}

	m.mutex.Lock()
	m.state = ManagerStateStopped
	m.mutex.Unlock()

	m.logger.Infof("Supervisor stopped")
	return nil
}

func (m *manager) GetManagerState() ManagerState {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

func (m *manager) GetTargetState(id string) (monitoring.HealthState, error) {
	m.mutex.Lock()
	entry, exists := m.targets[id]
	m.mutex.Unlock()

	if !exists {
		return monitoring.HealthState{}, errors.NewNotFoundError("target not found", nil).WithContext("target_id", id)
	}
	return entry.Monitor.State(), nil
}

func (m *manager) GetAllTargetStates() map[string]monitoring.HealthState {
	m.mutex.Lock()
	entries := m.snapshotUnsafe()
	m.mutex.Unlock()

	states := make(map[string]monitoring.HealthState, len(entries))
	for id, entry := range entries {
		states[id] = entry.Monitor.State()
	}
	return states
}

func (m *manager) snapshotUnsafe() map[string]*targetEntry {
	entries := make(map[string]*targetEntry, len(m.targets))
	for id, entry := range m.targets {
		entries[id] = entry
	}
	return entries
}

// wireCallbacks connects monitor events to metrics and the corrective
// restart command. Called before the entry is published, so no lock is held
// while the monitor is still private
func (m *manager) wireCallbacks(monitor monitoring.HealthMonitor, target TargetConfig) {
	id := target.ID
	metrics := m.metrics

	if metrics != nil {
		monitor.SetProbeCallback(func(healthy bool, err error) {
			metrics.ObserveProbe(id, healthy)
		})
	}

	monitor.SetStateChangeCallback(func(from, to monitoring.HealthCheckStatus, reason string) {
		m.logger.Infof("Target health changed, id: %s, %s->%s, reason: %s", id, from, to, reason)
		if metrics != nil {
			metrics.ObserveTransition(id, to)
		}
	})

	if target.RestartCommand != nil {
		command := *target.RestartCommand
		monitor.SetRestartCallback(func(reason string) error {
			return m.runRestartCommand(id, command, reason)
		})
	}
}

// runRestartCommand executes the configured corrective action with its own
// deadline. Failures are reported to the caller and logged; the monitor
// keeps probing regardless
func (m *manager) runRestartCommand(id string, command RestartCommandConfig, reason string) error {
	m.logger.Warnf("Running restart command, target: %s, command: %s, reason: %s", id, command.Command, reason)

	ctx, cancel := context.WithTimeout(context.Background(), command.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command.Command, command.Args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.NewProcessError("restart command failed", err).
			WithContext("target_id", id).
			WithContext("command", command.Command).
			WithContext("output", string(output))
	}

	m.logger.Infof("Restart command completed, target: %s", id)
	return nil
}
