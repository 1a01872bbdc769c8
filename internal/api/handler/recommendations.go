package handler

import (
	"errors"
	"net/http"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/recommend"
)

// RecommendationHandler handles health recommendation requests.
type RecommendationHandler struct {
	service *recommend.Service
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(service *recommend.Service) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// Recommend handles POST /v1/recommendations.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	value := *req.AQI
	level := req.Level
	if level == "" {
		level = aqi.Classify(value).Name
	}

	text, err := h.service.Recommend(r.Context(), value, level)
	switch {
	case err == nil:
		response.JSON(w, r, http.StatusOK, models.Recommendation{AQI: value, Level: level, Text: text})
	case errors.Is(err, recommend.ErrDisabled):
		response.ServiceUnavailable(w, r, "health recommendations are not available")
	default:
		response.ServiceUnavailable(w, r, recommend.ErrGenerationFailed.Error())
	}
}
