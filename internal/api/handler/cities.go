package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/api/response"
	"github.com/auracast/auracast/internal/city"
)

// CityHandler handles city lookup endpoints.
type CityHandler struct {
	service *city.Service
	logger  zerolog.Logger
}

// NewCityHandler creates a new CityHandler.
func NewCityHandler(service *city.Service, logger zerolog.Logger) *CityHandler {
	return &CityHandler{service: service, logger: logger}
}

// ListCities handles GET /v1/cities.
func (h *CityHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list cities")
		response.InternalError(w, r, "failed to list cities")
		return
	}

	items := make([]models.CitySummary, 0, len(records))
	for _, rec := range records {
		items = append(items, models.NewCitySummary(rec))
	}
	response.JSON(w, r, http.StatusOK, models.CityList{
		Items: items,
		Meta:  models.ListMeta{Count: len(items)},
	})
}

// GetCity handles GET /v1/cities/{city}.
func (h *CityHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Lookup(r.Context(), chi.URLParam(r, "city"))
	if err != nil {
		writeLookupError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewCityDetail(rec))
}

// writeLookupError maps city lookup failures to Problem responses.
func writeLookupError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var notFound *city.NotFoundError
	switch {
	case errors.As(err, &notFound):
		response.CityNotFound(w, r, notFound.Error(), notFound.Suggestions)
	case errors.Is(err, city.ErrEmptyQuery):
		response.BadRequest(w, r, "city is required", []models.FieldError{
			{Field: "city", Message: "is required", Code: "required"},
		})
	case r.Context().Err() != nil:
		// Client went away; nothing useful to write.
	default:
		logger.Error().Err(err).Msg("city lookup failed")
		response.InternalError(w, r, "city lookup failed")
	}
}
