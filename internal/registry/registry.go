// Package registry tracks agent liveness from heartbeats and exposes a
// narrow HTTP surface for the (out-of-scope) dashboard to poll. The
// RWMutex-guarded cache shape follows the teacher's
// MarketStateDetector (internal/market_regime/market_state.go):
// writers hold the lock briefly, readers copy out before releasing it.
package registry

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is an agent's health classification (spec §5).
type Status string

const (
	Starting Status = "starting"
	Healthy  Status = "healthy"
	Degraded Status = "degraded"
	Dead     Status = "dead"
)

// Staleness thresholds from spec §5: "(>10s stale -> Degraded; >30s ->
// Dead)".
const (
	DegradedAfter = 10 * time.Second
	DeadAfter     = 30 * time.Second
)

// AgentInfo is the registry's view of one agent.
type AgentInfo struct {
	Name          string    `json:"name"`
	Status        Status    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Detail        string    `json:"detail,omitempty"`
}

// Registry is the single process-wide agent health table (spec §9 lists
// it among the few process-wide objects allowed outside message
// passing).
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*AgentInfo
	log    zerolog.Logger
}

// New constructs an empty Registry.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*AgentInfo),
		log:    log.With().Str("component", "registry").Logger(),
	}
}

// Register adds an agent in Starting status.
func (r *Registry) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[name] = &AgentInfo{Name: name, Status: Starting, LastHeartbeat: time.Now()}
}

// Heartbeat records a liveness beat, promoting Starting/Degraded/Dead
// back to Healthy.
func (r *Registry) Heartbeat(name string, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.agents[name]
	if !ok {
		info = &AgentInfo{Name: name}
		r.agents[name] = info
	}
	info.Status = Healthy
	info.LastHeartbeat = time.Now()
	info.Detail = detail
}

// MarkDegraded explicitly flags an agent as degraded (e.g. Sentinel
// during a broker reconnect, spec §4.1), independent of staleness.
func (r *Registry) MarkDegraded(name, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.agents[name]
	if !ok {
		info = &AgentInfo{Name: name, LastHeartbeat: time.Now()}
		r.agents[name] = info
	}
	info.Status = Degraded
	info.Detail = detail
}

// Sweep recomputes staleness-derived status for every agent not
// explicitly Degraded by MarkDegraded since its last heartbeat. Intended
// to run on a short ticker from cmd/server.
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, info := range r.agents {
		age := now.Sub(info.LastHeartbeat)
		switch {
		case age > DeadAfter:
			if info.Status != Dead {
				r.log.Warn().Str("agent", info.Name).Dur("age", age).Msg("agent heartbeat stale beyond dead threshold")
			}
			info.Status = Dead
		case age > DegradedAfter:
			if info.Status == Healthy {
				info.Status = Degraded
			}
		}
	}
}

// Snapshot returns a copy of every agent's current info.
func (r *Registry) Snapshot() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentInfo, 0, len(r.agents))
	for _, info := range r.agents {
		out = append(out, *info)
	}
	return out
}

// Overall reports the worst status across all agents, used for the
// top-level health endpoint.
func (r *Registry) Overall() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	worst := Healthy
	rank := map[Status]int{Starting: 1, Healthy: 0, Degraded: 2, Dead: 3}
	for _, info := range r.agents {
		if rank[info.Status] > rank[worst] {
			worst = info.Status
		}
	}
	return worst
}
