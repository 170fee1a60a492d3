package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusExpired},
		{StatusConfirmed, StatusActive},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusExpired},
		{StatusActive, StatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to Status
	}{
		{StatusPending, StatusActive},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusCompleted},
		{StatusActive, StatusCancelled},
		{StatusActive, StatusExpired},
		{StatusActive, StatusPending},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusExpired}
	all := []Status{StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled, StatusExpired}

	for _, terminal := range terminals {
		assert.True(t, terminal.IsTerminal())
		for _, target := range all {
			assert.False(t, terminal.CanTransitionTo(target),
				"terminal state %s must not transition to %s", terminal, target)
		}
	}

	for _, live := range []Status{StatusPending, StatusConfirmed, StatusActive} {
		assert.False(t, live.IsTerminal())
	}
}
