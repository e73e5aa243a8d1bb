package healthstatemachine

import (
	"fmt"
	"sync"
	"time"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// HealthState represents the supervisor's view of a monitored target
type HealthState string

const (
	// HealthStateStarting is the initial state before the first probe
	// verdict; optionally extended by an initial delay
	HealthStateStarting HealthState = "starting"

	// HealthStateHealthy means the last probe matched the success sentinel
	HealthStateHealthy HealthState = "healthy"

	// HealthStateUnhealthy means the consecutive-failure threshold was
	// reached; a single successful probe transitions back to healthy
	HealthStateUnhealthy HealthState = "unhealthy"

	// HealthStateStopped is terminal and reached only by explicit
	// termination of monitoring, never by probe results
	HealthStateStopped HealthState = "stopped"
)

// HealthStateTransition represents a state transition with metadata
type HealthStateTransition struct {
	From      HealthState
	To        HealthState
	Operation string
	Timestamp time.Time
	Error     error
}

// HealthStateMachine manages health state transitions with validation
type HealthStateMachine struct {
	targetID         string
	currentState     HealthState
	transitions      []HealthStateTransition
	validTransitions map[HealthState][]HealthState
	mutex            sync.RWMutex
	logger           logging.Logger
}

// NewHealthStateMachine creates a state machine in the starting state
func NewHealthStateMachine(targetID string, logger logging.Logger) *HealthStateMachine {
	hsm := &HealthStateMachine{
		targetID:     targetID,
		currentState: HealthStateStarting,
		transitions:  make([]HealthStateTransition, 0),
		mutex:        sync.RWMutex{},
		logger:       logger,
	}

	// Define valid state transitions
	hsm.validTransitions = map[HealthState][]HealthState{
		HealthStateStarting: {
			HealthStateHealthy,   // first successful probe
			HealthStateUnhealthy, // failure threshold reached before any success
			HealthStateStopped,   // monitoring stopped before a verdict
		},
		HealthStateHealthy: {
			HealthStateUnhealthy, // failure threshold reached
			HealthStateStopped,   // explicit termination
		},
		HealthStateUnhealthy: {
			HealthStateHealthy, // next successful probe
			HealthStateStopped, // explicit termination
		},
		// HealthStateStopped is terminal
		HealthStateStopped: {},
	}

	return hsm
}

// GetCurrentState returns the current state (thread-safe)
func (hsm *HealthStateMachine) GetCurrentState() HealthState {
	hsm.mutex.RLock()
	defer hsm.mutex.RUnlock()
	return hsm.currentState
}

// CanTransition checks if a state transition is valid (thread-safe)
func (hsm *HealthStateMachine) CanTransition(to HealthState) bool {
	hsm.mutex.RLock()
	defer hsm.mutex.RUnlock()
	return hsm.canTransitionUnsafe(to)
}

// Transition changes the health state with validation (thread-safe)
func (hsm *HealthStateMachine) Transition(to HealthState, operation string, err error) error {
	hsm.mutex.Lock()
	defer hsm.mutex.Unlock()

	if !hsm.canTransitionUnsafe(to) {
		return errors.NewValidationError(
			fmt.Sprintf("invalid health state transition from '%s' to '%s'", hsm.currentState, to),
			nil,
		).WithContext("target_id", hsm.targetID).
			WithContext("from_state", string(hsm.currentState)).
			WithContext("to_state", string(to)).
			WithContext("operation", operation)
	}

	from := hsm.currentState
	transition := HealthStateTransition{
		From:      from,
		To:        to,
		Operation: operation,
		Timestamp: time.Now(),
		Error:     err,
	}

	hsm.transitions = append(hsm.transitions, transition)
	hsm.currentState = to

	if err != nil {
		hsm.logger.Warnf("Health state transition, target: %s, %s->%s, operation: %s, error: %v",
			hsm.targetID, from, to, operation, err)
	} else {
		hsm.logger.Infof("Health state transition, target: %s, %s->%s, operation: %s",
			hsm.targetID, from, to, operation)
	}

	return nil
}

// canTransitionUnsafe checks transition validity without locking (internal use)
func (hsm *HealthStateMachine) canTransitionUnsafe(to HealthState) bool {
	validStates, exists := hsm.validTransitions[hsm.currentState]
	if !exists {
		return false
	}

	for _, validState := range validStates {
		if validState == to {
			return true
		}
	}
	return false
}

// GetTransitionHistory returns the complete transition history (thread-safe)
func (hsm *HealthStateMachine) GetTransitionHistory() []HealthStateTransition {
	hsm.mutex.RLock()
	defer hsm.mutex.RUnlock()

	// Return a copy to prevent external modification
	history := make([]HealthStateTransition, len(hsm.transitions))
	copy(history, hsm.transitions)
	return history
}

// HealthStateInfo provides comprehensive information about a target's state
type HealthStateInfo struct {
	TargetID        string
	CurrentState    HealthState
	LastTransition  *HealthStateTransition
	TransitionCount int
	ValidNextStates []HealthState
}

// GetStateInfo returns comprehensive state information
func (hsm *HealthStateMachine) GetStateInfo() HealthStateInfo {
	hsm.mutex.RLock()
	defer hsm.mutex.RUnlock()

	var lastTransition *HealthStateTransition
	if len(hsm.transitions) > 0 {
		lastTransition = &hsm.transitions[len(hsm.transitions)-1]
	}

	validStates := hsm.validTransitions[hsm.currentState]
	nextStates := make([]HealthState, len(validStates))
	copy(nextStates, validStates)

	return HealthStateInfo{
		TargetID:        hsm.targetID,
		CurrentState:    hsm.currentState,
		LastTransition:  lastTransition,
		TransitionCount: len(hsm.transitions),
		ValidNextStates: nextStates,
	}
}
