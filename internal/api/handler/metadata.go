package handler

import (
	"net/http"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/aqi"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// ListPollutants handles GET /v1/metadata/pollutants.
func (h *MetadataHandler) ListPollutants(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.PollutantList{Items: aqi.AllMeta()})
}

// ListLevels handles GET /v1/metadata/levels.
func (h *MetadataHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.LevelList{Items: aqi.Levels()})
}
