package registry

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHeartbeatPromotesToHealthy(t *testing.T) {
	r := New(zerolog.Nop())
	r.Register("sentinel")
	r.Heartbeat("sentinel", "subscribed")

	snap := r.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, Healthy, snap[0].Status)
}

func TestSweepDegradesStaleAgent(t *testing.T) {
	r := New(zerolog.Nop())
	r.Register("analyst")
	r.Heartbeat("analyst", "")

	future := time.Now().Add(DegradedAfter + time.Second)
	r.Sweep(future)

	snap := r.Snapshot()
	assert.Equal(t, Degraded, snap[0].Status)
}

func TestSweepMarksDeadAgentDead(t *testing.T) {
	r := New(zerolog.Nop())
	r.Register("executor")
	r.Heartbeat("executor", "")

	future := time.Now().Add(DeadAfter + time.Second)
	r.Sweep(future)

	snap := r.Snapshot()
	assert.Equal(t, Dead, snap[0].Status)
}

func TestOverallReportsWorstStatus(t *testing.T) {
	r := New(zerolog.Nop())
	r.Register("a")
	r.Register("b")
	r.Heartbeat("a", "")
	r.MarkDegraded("b", "reconnecting")

	assert.Equal(t, Degraded, r.Overall())
}
