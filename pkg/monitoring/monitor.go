package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
	"github.com/core-tools/hsu-healthmon-go/pkg/monitoring/healthstatemachine"
)

// HealthCheckStatus is the externally visible health verdict
type HealthCheckStatus string

const (
	HealthCheckStatusStarting  HealthCheckStatus = HealthCheckStatus(healthstatemachine.HealthStateStarting)
	HealthCheckStatusHealthy   HealthCheckStatus = HealthCheckStatus(healthstatemachine.HealthStateHealthy)
	HealthCheckStatusUnhealthy HealthCheckStatus = HealthCheckStatus(healthstatemachine.HealthStateUnhealthy)
	HealthCheckStatusStopped   HealthCheckStatus = HealthCheckStatus(healthstatemachine.HealthStateStopped)
)

// HealthState is a snapshot of the monitor's view of its target
type HealthState struct {
	Status              HealthCheckStatus
	ConsecutiveFailures int
	TotalProbes         int64
	TotalFailures       int64
	LastProbeTime       time.Time
	LastError           string
}

// RestartCallback is invoked when the target transitions to unhealthy.
// Corrective action is entirely supervisor policy; the monitor only reports
type RestartCallback func(reason string) error

// StateChangeCallback observes every health state transition
type StateChangeCallback func(from, to HealthCheckStatus, reason string)

// ProbeCallback observes every probe verdict, including those that do not
// cause a state transition
type ProbeCallback func(healthy bool, err error)

// HealthMonitor probes a single target on a fixed wall-clock interval,
// independent of and concurrent with the target's own execution
type HealthMonitor interface {
	Start(ctx context.Context) error
	Stop()
	State() HealthState
	SetRestartCallback(callback RestartCallback)
	SetStateChangeCallback(callback StateChangeCallback)
	SetProbeCallback(callback ProbeCallback)
}

type healthMonitor struct {
	config   *HealthCheckConfig
	targetID string
	checker  healthChecker
	machine  *healthstatemachine.HealthStateMachine
	logger   logging.Logger

	restartCallback     RestartCallback
	stateChangeCallback StateChangeCallback
	probeCallback       ProbeCallback

	consecutiveFailures int
	totalProbes         int64
	totalFailures       int64
	lastProbeTime       time.Time
	lastError           string

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	mutex   sync.RWMutex
}

// NewHealthMonitor creates a health monitor for the given configuration.
// Defaults are applied to unset run options
func NewHealthMonitor(config *HealthCheckConfig, targetID string, logger logging.Logger) (HealthMonitor, error) {
	return newHealthMonitor(config, targetID, nil, logger)
}

// NewHealthMonitorWithProcessInfo creates a monitor whose process liveness
// checks use the given ProcessInfo instead of a PID file
func NewHealthMonitorWithProcessInfo(config *HealthCheckConfig, targetID string, processInfo ProcessInfo, logger logging.Logger) (HealthMonitor, error) {
	return newHealthMonitor(config, targetID, &processInfo, logger)
}

func newHealthMonitor(config *HealthCheckConfig, targetID string, processInfo *ProcessInfo, logger logging.Logger) (HealthMonitor, error) {
	if config == nil {
		return nil, errors.NewValidationError("health check configuration cannot be nil", nil)
	}

	SetHealthCheckConfigDefaults(config)
	if err := ValidateHealthCheckConfig(config); err != nil {
		return nil, err
	}

	checker, err := newHealthChecker(config, processInfo)
	if err != nil {
		return nil, err
	}

	return &healthMonitor{
		config:   config,
		targetID: targetID,
		checker:  checker,
		machine:  healthstatemachine.NewHealthStateMachine(targetID, logger),
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

func (m *healthMonitor) SetRestartCallback(callback RestartCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.restartCallback = callback
}

func (m *healthMonitor) SetStateChangeCallback(callback StateChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.stateChangeCallback = callback
}

func (m *healthMonitor) SetProbeCallback(callback ProbeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.probeCallback = callback
}

// Start launches the probe loop. It returns immediately; probes run on
// their own goroutine until Stop or context cancellation
func (m *healthMonitor) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	m.mutex.Lock()
	if m.started {
		m.mutex.Unlock()
		return errors.NewConflictError("health monitor already started", nil).WithContext("target_id", m.targetID)
	}
	m.started = true

	if !m.config.RunOptions.Enabled {
		m.mutex.Unlock()
		m.logger.Infof("Health monitoring disabled, target: %s", m.targetID)
		close(m.done)
		return nil
	}

	probeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mutex.Unlock()

	m.logger.Infof("Health monitor starting, target: %s, type: %s, interval: %s, timeout: %s, retries: %d",
		m.targetID, m.config.Type, m.config.RunOptions.Interval, m.config.RunOptions.Timeout, m.config.RunOptions.Retries)

	go m.run(probeCtx)
	return nil
}

// Stop terminates monitoring and moves the state machine to its terminal
// stopped state. Safe to call more than once
func (m *healthMonitor) Stop() {
	m.mutex.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-m.done
}

// State returns a snapshot of the monitor's current view
func (m *healthMonitor) State() HealthState {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return HealthState{
		Status:              HealthCheckStatus(m.machine.GetCurrentState()),
		ConsecutiveFailures: m.consecutiveFailures,
		TotalProbes:         m.totalProbes,
		TotalFailures:       m.totalFailures,
		LastProbeTime:       m.lastProbeTime,
		LastError:           m.lastError,
	}
}

func (m *healthMonitor) run(ctx context.Context) {
	defer close(m.done)
	defer m.enterStopped()

	if delay := m.config.RunOptions.InitialDelay; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	m.probe(ctx)

	ticker := time.NewTicker(m.config.RunOptions.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// probe executes one blocking check bounded by the configured timeout and
// feeds the verdict into the state machine
func (m *healthMonitor) probe(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, m.config.RunOptions.Timeout)
	err := m.checker.Check(checkCtx)
	cancel()

	if ctx.Err() != nil {
		// Shutdown, not a verdict
		return
	}

	m.mutex.RLock()
	probeCallback := m.probeCallback
	m.mutex.RUnlock()
	if probeCallback != nil {
		probeCallback(err == nil, err)
	}

	if err != nil {
		m.recordFailure(err)
	} else {
		m.recordSuccess()
	}
}

func (m *healthMonitor) recordSuccess() {
	m.mutex.Lock()
	m.totalProbes++
	m.consecutiveFailures = 0
	m.lastProbeTime = time.Now()
	m.lastError = ""
	callback := m.stateChangeCallback
	m.mutex.Unlock()

	from := m.machine.GetCurrentState()
	if from == healthstatemachine.HealthStateHealthy {
		return
	}

	// A single successful probe recovers from unhealthy
	if transitionErr := m.machine.Transition(healthstatemachine.HealthStateHealthy, "probe_success", nil); transitionErr != nil {
		m.logger.Errorf("Failed to transition to healthy, target: %s, error: %v", m.targetID, transitionErr)
		return
	}

	if callback != nil {
		callback(HealthCheckStatus(from), HealthCheckStatusHealthy, "probe succeeded")
	}
}

func (m *healthMonitor) recordFailure(err error) {
	m.mutex.Lock()
	m.totalProbes++
	m.totalFailures++
	m.consecutiveFailures++
	m.lastProbeTime = time.Now()
	m.lastError = err.Error()
	failures := m.consecutiveFailures
	stateCallback := m.stateChangeCallback
	restartCallback := m.restartCallback
	m.mutex.Unlock()

	m.logger.Debugf("Probe failed, target: %s, consecutive: %d/%d, error: %v",
		m.targetID, failures, m.config.RunOptions.Retries, err)

	if failures < m.config.RunOptions.Retries {
		return
	}

	from := m.machine.GetCurrentState()
	if from == healthstatemachine.HealthStateUnhealthy {
		return
	}

	if transitionErr := m.machine.Transition(healthstatemachine.HealthStateUnhealthy, "failure_threshold", err); transitionErr != nil {
		m.logger.Errorf("Failed to transition to unhealthy, target: %s, error: %v", m.targetID, transitionErr)
		return
	}

	if stateCallback != nil {
		stateCallback(HealthCheckStatus(from), HealthCheckStatusUnhealthy, err.Error())
	}

	if restartCallback != nil {
		if callbackErr := restartCallback(err.Error()); callbackErr != nil {
			m.logger.Errorf("Restart callback failed, target: %s, error: %v", m.targetID, callbackErr)
		}
	}
}

func (m *healthMonitor) enterStopped() {
	if m.machine.GetCurrentState() == healthstatemachine.HealthStateStopped {
		return
	}
	if err := m.machine.Transition(healthstatemachine.HealthStateStopped, "stop", nil); err != nil {
		m.logger.Errorf("Failed to transition to stopped, target: %s, error: %v", m.targetID, err)
	}
}
