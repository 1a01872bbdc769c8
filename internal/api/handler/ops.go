// Package handler provides HTTP handlers for the Auracast API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/provider/resilience"
	"github.com/auracast/auracast/internal/session"
)

// readyTimeout bounds the dependency checks of the readiness probe.
const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies reported by the ops endpoints.
// Every field except Version and BuildTime is optional.
type OpsConfig struct {
	Version   string
	BuildTime string
	DB        Pinger
	Providers *resilience.Registry
	Sessions  *session.Manager
	Flags     *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.cfg.DB.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.subsystems(r.Context()),
		Providers:  h.providers(),
	}
	if h.cfg.Sessions != nil {
		status.ActiveSessions = h.cfg.Sessions.Count()
	}
	if h.cfg.Flags != nil {
		status.DisabledFlags = disabledFlags(h.cfg.Flags.GetAllFlags(r.Context()))
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		// Lookups and simulation run without providers.
		if p.Status != models.HealthStatusOK {
			status.Status = worst(status.Status, models.HealthStatusDegraded)
		}
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystems(ctx context.Context) []models.SubsystemStatus {
	if h.cfg.DB == nil {
		detail := "in-memory"
		return []models.SubsystemStatus{{Name: "city-store", Status: models.HealthStatusOK, Detail: &detail}}
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
	if err := h.cfg.DB.Ping(ctx); err != nil {
		msg := err.Error()
		sub.Status = models.HealthStatusFail
		sub.Detail = &msg
	}
	return []models.SubsystemStatus{sub}
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.cfg.Providers == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Providers.All()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, p := range all {
		ps := models.ProviderStatus{
			Provider:      p.Name,
			Status:        providerStatus(p.State),
			CircuitState:  p.State,
			Requests:      p.Requests,
			Failures:      p.Failures,
			LastSuccessAt: timestampPtr(p.LastSuccessAt),
			LastFailureAt: timestampPtr(p.LastFailureAt),
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func providerStatus(state string) models.HealthStatus {
	switch state {
	case gobreaker.StateClosed.String():
		return models.HealthStatusOK
	case gobreaker.StateHalfOpen.String():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}

func disabledFlags(flags map[string]*featureflags.Flag) []string {
	var out []string
	for key, f := range flags {
		if _, isBool := f.Value.(bool); isBool && !f.BoolValue(true) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
