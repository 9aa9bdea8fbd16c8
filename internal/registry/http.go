package registry

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// hostHealth feeds the dashboard's Degraded-vs-overloaded distinction:
// an agent can be reporting Healthy heartbeats while the host itself is
// under memory/CPU pressure.
type hostHealth struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
}

func readHostHealth() hostHealth {
	var h hostHealth
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		h.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemPercent = vm.UsedPercent
	}
	return h
}

// Router builds the narrow health/heartbeat HTTP surface the external
// dashboard polls (spec §1 Non-goals keeps the dashboard itself out of
// scope, but it still needs something to poll).
func (r *Registry) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		overall := r.Overall()
		status := http.StatusOK
		if overall == Dead {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": overall,
			"host":   readHostHealth(),
		})
	})

	router.Get("/agents", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Snapshot())
	})

	return router
}
