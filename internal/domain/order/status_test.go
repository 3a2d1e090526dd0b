package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	valid := []Status{StatusCreated, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, Status("DRAFT").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusCreated, StatusPaid, true},
		{StatusCreated, StatusCancelled, true},
		{StatusCreated, StatusShipped, false},
		{StatusCreated, StatusCompleted, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusCompleted, false},
		{StatusPaid, StatusCreated, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	all := []Status{StatusCreated, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled}
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		for _, target := range all {
			assert.False(t, terminal.CanTransitionTo(target), "%s -> %s must be rejected", terminal, target)
		}
	}
}

func TestCanActorTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		actor   Actor
		allowed bool
	}{
		{"system marks paid", StatusCreated, StatusPaid, ActorSystem, true},
		{"buyer cannot mark own order paid", StatusCreated, StatusPaid, ActorBuyer, false},
		{"seller cannot mark paid", StatusCreated, StatusPaid, ActorSeller, false},
		{"buyer cancels created order", StatusCreated, StatusCancelled, ActorBuyer, true},
		{"seller cancels created order", StatusCreated, StatusCancelled, ActorSeller, true},
		{"buyer cannot cancel paid order", StatusPaid, StatusCancelled, ActorBuyer, false},
		{"seller cancels paid order", StatusPaid, StatusCancelled, ActorSeller, true},
		{"admin cancels paid order", StatusPaid, StatusCancelled, ActorAdmin, true},
		{"seller ships paid order", StatusPaid, StatusShipped, ActorSeller, true},
		{"buyer cannot ship", StatusPaid, StatusShipped, ActorBuyer, false},
		{"seller completes shipped order", StatusShipped, StatusCompleted, ActorSeller, true},
		{"buyer cannot complete", StatusShipped, StatusCompleted, ActorBuyer, false},
		{"admin cannot manually mark paid", StatusCreated, StatusPaid, ActorAdmin, false},
		{"admin still bound by state machine", StatusCompleted, StatusCancelled, ActorAdmin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanActorTransition(tt.from, tt.to, tt.actor))
		})
	}
}
