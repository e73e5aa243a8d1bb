package healthstatemachine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

func TestNewHealthStateMachine_StartsInStarting(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())

	assert.Equal(t, HealthStateStarting, hsm.GetCurrentState())
	assert.Empty(t, hsm.GetTransitionHistory())
}

func TestTransition_StartingToHealthy(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())

	require.NoError(t, hsm.Transition(HealthStateHealthy, "probe_success", nil))

	assert.Equal(t, HealthStateHealthy, hsm.GetCurrentState())
}

func TestTransition_HealthyUnhealthyOscillation(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())
	require.NoError(t, hsm.Transition(HealthStateHealthy, "probe_success", nil))

	// healthy <-> unhealthy may flip any number of times
	for i := 0; i < 3; i++ {
		require.NoError(t, hsm.Transition(HealthStateUnhealthy, "failure_threshold", fmt.Errorf("probe %d failed", i)))
		require.NoError(t, hsm.Transition(HealthStateHealthy, "probe_success", nil))
	}

	assert.Equal(t, HealthStateHealthy, hsm.GetCurrentState())
	assert.Len(t, hsm.GetTransitionHistory(), 7)
}

func TestTransition_StoppedIsTerminal(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())
	require.NoError(t, hsm.Transition(HealthStateHealthy, "probe_success", nil))
	require.NoError(t, hsm.Transition(HealthStateStopped, "stop", nil))

	err := hsm.Transition(HealthStateHealthy, "probe_success", nil)

	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, HealthStateStopped, hsm.GetCurrentState())
}

func TestTransition_InvalidFromStarting(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())

	// starting may not loop to itself
	err := hsm.Transition(HealthStateStarting, "noop", nil)

	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())

	assert.True(t, hsm.CanTransition(HealthStateHealthy))
	assert.True(t, hsm.CanTransition(HealthStateUnhealthy))
	assert.True(t, hsm.CanTransition(HealthStateStopped))
	assert.False(t, hsm.CanTransition(HealthStateStarting))
}

func TestGetStateInfo(t *testing.T) {
	hsm := NewHealthStateMachine("safety", logging.NewNullLogger())
	require.NoError(t, hsm.Transition(HealthStateUnhealthy, "failure_threshold", fmt.Errorf("no record")))

	info := hsm.GetStateInfo()

	assert.Equal(t, "safety", info.TargetID)
	assert.Equal(t, HealthStateUnhealthy, info.CurrentState)
	assert.Equal(t, 1, info.TransitionCount)
	require.NotNil(t, info.LastTransition)
	assert.Equal(t, HealthStateStarting, info.LastTransition.From)
	assert.ElementsMatch(t, []HealthState{HealthStateHealthy, HealthStateStopped}, info.ValidNextStates)
}
