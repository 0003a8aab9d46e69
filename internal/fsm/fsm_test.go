// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state string
type event string

const (
	stOff   state = "off"
	stOn    state = "on"
	stError state = "error"

	evToggle event = "toggle"
	evFail   event = "fail"
	evReset  event = "reset"
)

func testTable() []Transition[state, event] {
	return []Transition[state, event]{
		{From: stOff, Event: evToggle, To: stOn},
		{From: stOn, Event: evToggle, To: stOff},
		{Event: evFail, To: stError},
		{From: stError, Event: evReset, To: stOff},
	}
}

func TestMachine_ExactTransitions(t *testing.T) {
	m := MustNew(stOff, testTable())

	to, err := m.Fire(context.Background(), evToggle)
	require.NoError(t, err)
	assert.Equal(t, stOn, to)
	assert.Equal(t, stOn, m.State())
}

func TestMachine_WildcardSource(t *testing.T) {
	for _, start := range []state{stOff, stOn} {
		m := MustNew(start, testTable())
		to, err := m.Fire(context.Background(), evFail)
		require.NoError(t, err)
		assert.Equal(t, stError, to)
	}
}

func TestMachine_UnknownTransitionIsError(t *testing.T) {
	m := MustNew(stOff, testTable())
	_, err := m.Fire(context.Background(), evReset)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, stOff, m.State())
	assert.False(t, m.Can(evReset))
	assert.True(t, m.Can(evFail))
}

func TestMachine_GuardRejects(t *testing.T) {
	errBlocked := errors.New("blocked")
	table := []Transition[state, event]{
		{From: stOff, Event: evToggle, To: stOn, Guard: func(context.Context, state, event) error {
			return errBlocked
		}},
	}
	m := MustNew(stOff, table)
	_, err := m.Fire(context.Background(), evToggle)
	require.ErrorIs(t, err, errBlocked)
	assert.Equal(t, stOff, m.State())
}

func TestMachine_ActionSeesEdge(t *testing.T) {
	var gotFrom, gotTo state
	table := []Transition[state, event]{
		{From: stOff, Event: evToggle, To: stOn, Action: func(_ context.Context, from, to state, _ event) error {
			gotFrom, gotTo = from, to
			return nil
		}},
	}
	m := MustNew(stOff, table)
	_, err := m.Fire(context.Background(), evToggle)
	require.NoError(t, err)
	assert.Equal(t, stOff, gotFrom)
	assert.Equal(t, stOn, gotTo)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(stOff, []Transition[state, event]{
		{From: stOff, Event: evToggle, To: stOn},
		{From: stOff, Event: evToggle, To: stError},
	})
	require.Error(t, err)
}
