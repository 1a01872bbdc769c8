package models

import "github.com/auracast/auracast/internal/aqi"

// PollutantList is the pollutant metadata table in canonical order.
type PollutantList struct {
	Items []aqi.Meta `json:"items"`
}

// LevelList is the AQI tier table, lowest first.
type LevelList struct {
	Items []aqi.Level `json:"items"`
}

// RecommendationRequest asks for health advice for an AQI reading.
// Level is derived from AQI when omitted.
type RecommendationRequest struct {
	AQI   *float64 `json:"aqi" validate:"required,gte=0"`
	Level string   `json:"level" validate:"omitempty,max=64"`
}

// Recommendation is the model's advice, passed through unchanged.
type Recommendation struct {
	AQI   float64 `json:"aqi"`
	Level string  `json:"level"`
	Text  string  `json:"text"`
}
