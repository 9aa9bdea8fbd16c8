package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSubscribeReceivesEmittedEvent(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got *Event
	bus.Subscribe(CircuitBreakerTrip, func(e *Event) {
		got = e
	})

	bus.Emit(CircuitBreakerTrip, "risk_manager", map[string]interface{}{"reason": "daily_loss"})

	if assert.NotNil(t, got) {
		assert.Equal(t, CircuitBreakerTrip, got.Type)
		assert.Equal(t, "risk_manager", got.Component)
		assert.Equal(t, "daily_loss", got.Data["reason"])
	}
}

func TestSubscribeIgnoresOtherTypes(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	called := false
	bus.Subscribe(OrderFilled, func(e *Event) { called = true })

	bus.Emit(ProposalRejected, "risk_manager", nil)

	assert.False(t, called)
}
