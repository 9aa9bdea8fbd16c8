// Package events is the engine-wide pub/sub bus. Agents emit status and
// lifecycle events (halts, liquidations, reconnects, rejections) through
// it so the out-of-scope UI/dashboard and the log sink both observe the
// same structured record (spec §7: "Halts, liquidations, and PDT
// rejections are reported to the UI via structured log events and agent
// status").
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type names a category of engine event.
type Type string

const (
	AgentStarted       Type = "AGENT_STARTED"
	AgentHeartbeat      Type = "AGENT_HEARTBEAT"
	AgentDegraded       Type = "AGENT_DEGRADED"
	AgentDead           Type = "AGENT_DEAD"
	ProposalRejected    Type = "PROPOSAL_REJECTED"
	ProposalDropped     Type = "PROPOSAL_DROPPED"
	OrderSubmitted      Type = "ORDER_SUBMITTED"
	OrderFilled         Type = "ORDER_FILLED"
	OrderCanceled       Type = "ORDER_CANCELED"
	CircuitBreakerTrip  Type = "CIRCUIT_BREAKER_TRIP"
	LiquidationEmitted  Type = "LIQUIDATION_EMITTED"
	PDTRejected         Type = "PDT_REJECTED"
	ReconnectAttempt    Type = "RECONNECT_ATTEMPT"
	BackupCompleted     Type = "BACKUP_COMPLETED"
	ErrorOccurred       Type = "ERROR_OCCURRED"
)

// Event is one emitted record. Data is a flat map rather than a typed
// payload per event — the set of event shapes is open-ended and every
// subscriber (logger, HTTP status surface, future UI) only needs
// key/value access, not static typing.
type Event struct {
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Component string                 `json:"component"`
	Data      map[string]interface{} `json:"data"`
}

// Handler reacts to a published Event.
type Handler func(*Event)

// Bus is the process-wide event bus: a single writer path (Emit) fanning
// out to any number of subscribers, plus a structured log of every
// event. It is one of the few process-wide objects the design allows
// (spec §9: "the only process-wide objects are the agent registry,
// metrics, and the spread cache, each wrapped in their own
// synchronization type") — the bus joins that short list because every
// agent needs to reach it without a constructor-time back-reference.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]Handler
	log         zerolog.Logger
}

// NewBus constructs a Bus that logs every emitted event at Info level.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[Type][]Handler),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers fn to run synchronously whenever t is emitted.
func (b *Bus) Subscribe(t Type, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[t] = append(b.subscribers[t], fn)
}

// Emit publishes an event: it is logged unconditionally, then delivered
// to every subscriber of its Type.
func (b *Bus) Emit(t Type, component string, data map[string]interface{}) {
	event := &Event{Type: t, Timestamp: time.Now(), Component: component, Data: data}

	eventJSON, _ := json.Marshal(event)
	b.log.Info().
		Str("event_type", string(t)).
		Str("component", component).
		RawJSON("event", eventJSON).
		Msg("event emitted")

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[t]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(event)
	}
}

// EmitError is a convenience wrapper for ErrorOccurred events.
func (b *Bus) EmitError(component string, err error, context map[string]interface{}) {
	data := map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	}
	b.Emit(ErrorOccurred, component, data)
}
