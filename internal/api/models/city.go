package models

import (
	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/city"
)

// CitySummary is one entry of the city list.
type CitySummary struct {
	City  string  `json:"city"`
	AQI   float64 `json:"aqi"`
	Level string  `json:"level"`
}

// CityList is the list of cities with sample data.
type CityList struct {
	Items []CitySummary `json:"items"`
	Meta  ListMeta      `json:"meta"`
}

// ForecastEntry is a forecast day with its tier for bar coloring.
type ForecastEntry struct {
	Day        string  `json:"day"`
	AQI        float64 `json:"aqi"`
	Level      string  `json:"level"`
	ChartColor string  `json:"chartColor"`
}

// CityDetail is the lookup result for one city.
type CityDetail struct {
	City       string          `json:"city"`
	Current    aqi.Status      `json:"current"`
	LevelInfo  aqi.Level       `json:"levelInfo"`
	Pollutants []PollutantView `json:"pollutants"`
	Forecast   []ForecastEntry `json:"forecast"`
}

// PollutantView is one pollutant concentration with its display metadata.
type PollutantView struct {
	aqi.Meta
	Value float64 `json:"value"`
}

// NewCitySummary builds a list entry from a record.
func NewCitySummary(rec *city.Record) CitySummary {
	return CitySummary{
		City:  rec.City,
		AQI:   rec.Current.OverallAQI,
		Level: rec.Current.Level,
	}
}

// NewCityDetail builds the lookup response for a record.
func NewCityDetail(rec *city.Record) CityDetail {
	return CityDetail{
		City:       rec.City,
		Current:    rec.Current,
		LevelInfo:  aqi.Classify(rec.Current.OverallAQI),
		Pollutants: NewPollutantViews(rec.Pollutants),
		Forecast:   NewForecast(rec.Forecast),
	}
}

// NewPollutantViews lists a snapshot in canonical order with metadata.
func NewPollutantViews(s aqi.Snapshot) []PollutantView {
	meta := aqi.AllMeta()
	out := make([]PollutantView, 0, len(meta))
	for _, m := range meta {
		out = append(out, PollutantView{Meta: m, Value: s.Get(m.Code)})
	}
	return out
}

// NewForecast classifies each forecast day.
func NewForecast(days []aqi.ForecastDay) []ForecastEntry {
	out := make([]ForecastEntry, 0, len(days))
	for _, d := range days {
		level := aqi.Classify(d.AQI)
		out = append(out, ForecastEntry{
			Day:        d.Day,
			AQI:        d.AQI,
			Level:      level.Name,
			ChartColor: level.ChartColor,
		})
	}
	return out
}
