package models

import (
	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/session"
)

// SessionRequest starts a session or switches its city.
type SessionRequest struct {
	City string `json:"city" validate:"required,max=100"`
}

// Session is the state of one live session.
type Session struct {
	ID         string          `json:"id"`
	Running    bool            `json:"running"`
	City       string          `json:"city"`
	Current    aqi.Status      `json:"current"`
	LevelInfo  aqi.Level       `json:"levelInfo"`
	Pollutants []PollutantView `json:"pollutants"`
	Forecast   []ForecastEntry `json:"forecast"`
	Tick       uint64          `json:"tick"`
	Seq        uint64          `json:"seq"`
	UpdatedAt  Timestamp       `json:"updatedAt"`
}

// NewSession builds the session view from a reading.
func NewSession(id string, running bool, r session.Reading) Session {
	return Session{
		ID:         id,
		Running:    running,
		City:       r.City,
		Current:    r.Current,
		LevelInfo:  aqi.Classify(r.Current.OverallAQI),
		Pollutants: NewPollutantViews(r.Pollutants),
		Forecast:   NewForecast(r.Forecast),
		Tick:       r.Tick,
		Seq:        r.Seq,
		UpdatedAt:  Timestamp(r.UpdatedAt),
	}
}
