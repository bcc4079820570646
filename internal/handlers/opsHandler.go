package handlers

import (
	"context"
	"net/http"

	"github.com/akolanti/ContractIntelAPI/internal/adapter"
	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

// HealthHandler godoc
// @Summary      Dependency health
// @Description  Pings the relational store, redis and the vector index.
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  api.HealthResponse  "All components reachable"
// @Failure      503  {object}  api.HealthResponse  "A component is down"
// @Router       /healthz [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	res := api.HealthResponse{Status: "ok", Components: make(map[string]string, len(h.healthChecks))}
	for _, check := range h.healthChecks {
		ctx, cancel := context.WithTimeout(r.Context(), config.HealthCheckTimeout)
		err := check.Ping(ctx)
		cancel()
		if err != nil {
			logRH.WithTrace(r.Context()).Warn("Health check failed", "component", check.Name, "error", err)
			res.Components[check.Name] = "down"
			res.Status = "degraded"
			continue
		}
		res.Components[check.Name] = "ok"
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJsonResponse(w, status, res)
}

// StatsHandler godoc
// @Summary      Usage statistics
// @Description  Documents by status, extraction success rate and the durable request counters.
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /stats [get]
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	ctx := r.Context()

	var byStatus map[documentModel.Status]int
	if h.documentStats != nil {
		var err error
		if byStatus, err = h.documentStats.CountByStatus(ctx); err != nil {
			WriteErrorResponse(w, r, apperr.Internal("could not count documents", err))
			return
		}
	}

	var extraction contractModel.ExtractionStats
	if h.extractStats != nil {
		var err error
		if extraction, err = h.extractStats.ExtractionStats(ctx); err != nil {
			WriteErrorResponse(w, r, apperr.Internal("could not read extraction stats", err))
			return
		}
	}

	var counters map[string]int64
	if h.counters != nil {
		var err error
		// counters are advisory; a redis outage should not take /stats down
		if counters, err = h.counters.Snapshot(ctx); err != nil {
			logRH.WithTrace(ctx).Warn("Counter snapshot failed", "error", err)
		}
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(byStatus, extraction, counters))
}
