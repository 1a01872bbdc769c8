package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/aqi"
)

// AQIHandler exposes the classification and derivation engine.
type AQIHandler struct {
	rng aqi.RandomSource
}

// NewAQIHandler creates a new AQIHandler. A nil rng uses aqi.DefaultSource.
func NewAQIHandler(rng aqi.RandomSource) *AQIHandler {
	if rng == nil {
		rng = aqi.DefaultSource
	}
	return &AQIHandler{rng: rng}
}

// Classify handles GET /v1/aqi/classify?value=N.
func (h *AQIHandler) Classify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	if raw == "" {
		response.BadRequest(w, r, "query parameter 'value' is required", []models.FieldError{
			{Field: "value", Message: "is required", Code: "required"},
		})
		return
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		response.BadRequest(w, r, "query parameter 'value' must be a finite number", []models.FieldError{
			{Field: "value", Message: "must be a finite number", Code: "numeric"},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Classification{
		AQI:   value,
		Level: aqi.Classify(value),
	})
}

// Status handles POST /v1/aqi/status - derive the headline status of a snapshot.
func (h *AQIHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	response.JSON(w, r, http.StatusOK, aqi.DeriveStatus(req.Snapshot()))
}

// Fluctuate handles POST /v1/aqi/fluctuate - apply one simulated tick.
func (h *AQIHandler) Fluctuate(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	next := aqi.Fluctuate(req.Snapshot(), h.rng)
	response.JSON(w, r, http.StatusOK, models.FluctuateResponse{
		Pollutants: next,
		Current:    aqi.DeriveStatus(next),
	})
}
