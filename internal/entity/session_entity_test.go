package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateMergeAccumulates(t *testing.T) {
	var state RunState

	text := "personal profile"
	require.NoError(t, state.Merge(RunState{PersonalText: &text}, false))

	profile := TargetProfile{Name: "Grant"}
	require.NoError(t, state.Merge(RunState{TargetProfile: &profile}, false))

	require.NotNil(t, state.PersonalText)
	assert.Equal(t, text, *state.PersonalText)
	require.NotNil(t, state.TargetProfile)
	assert.Equal(t, "Grant", state.TargetProfile.Name)
}

func TestRunStateMergeRejectsOverwrite(t *testing.T) {
	var state RunState

	first := "first"
	second := "second"
	require.NoError(t, state.Merge(RunState{PersonalText: &first}, false))

	err := state.Merge(RunState{PersonalText: &second}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStateFieldOverwrite))
	// The original value survives a rejected merge.
	assert.Equal(t, first, *state.PersonalText)
}

func TestRunStateMergeForceOverwrites(t *testing.T) {
	var state RunState

	first := "first"
	second := "second"
	require.NoError(t, state.Merge(RunState{PersonalText: &first}, false))
	require.NoError(t, state.Merge(RunState{PersonalText: &second}, true))
	assert.Equal(t, second, *state.PersonalText)
}

func TestRunStateMergeUnsetFieldsUntouched(t *testing.T) {
	text := "kept"
	state := RunState{PersonalText: &text}

	criteria := []Criterion{{Name: "Leadership", Weight: 1.0}}
	require.NoError(t, state.Merge(RunState{Criteria: criteria}, false))

	require.NotNil(t, state.PersonalText)
	assert.Equal(t, "kept", *state.PersonalText)
	assert.Len(t, state.Criteria, 1)
}
