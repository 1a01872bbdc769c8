package aqi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPollutant is returned when a pollutant code is not one of the six tracked codes.
var ErrUnknownPollutant = errors.New("unknown pollutant")

// Pollutant is a tracked pollutant code.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantO3   Pollutant = "o3"
	PollutantNO2  Pollutant = "no2"
	PollutantSO2  Pollutant = "so2"
	PollutantCO   Pollutant = "co"
)

// canonicalOrder fixes iteration order for dominance scans and perturbation draws.
var canonicalOrder = [...]Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantO3,
	PollutantNO2,
	PollutantSO2,
	PollutantCO,
}

// CanonicalOrder returns the six pollutant codes in canonical order.
func CanonicalOrder() []Pollutant {
	return canonicalOrder[:]
}

// Meta describes a pollutant for display.
type Meta struct {
	Code        Pollutant `json:"code"`
	DisplayName string    `json:"name"`
	Unit        string    `json:"unit"`
	Description string    `json:"description"`
}

var pollutantMeta = map[Pollutant]Meta{
	PollutantPM25: {Code: PollutantPM25, DisplayName: "PM2.5", Unit: "µg/m³", Description: "Fine Particulate Matter"},
	PollutantPM10: {Code: PollutantPM10, DisplayName: "PM10", Unit: "µg/m³", Description: "Particulate Matter"},
	PollutantO3:   {Code: PollutantO3, DisplayName: "O₃", Unit: "ppb", Description: "Ozone"},
	PollutantNO2:  {Code: PollutantNO2, DisplayName: "NO₂", Unit: "ppb", Description: "Nitrogen Dioxide"},
	PollutantSO2:  {Code: PollutantSO2, DisplayName: "SO₂", Unit: "ppb", Description: "Sulphur Dioxide"},
	PollutantCO:   {Code: PollutantCO, DisplayName: "CO", Unit: "ppm", Description: "Carbon Monoxide"},
}

// MetaFor returns the display metadata for a pollutant code.
func MetaFor(p Pollutant) (Meta, bool) {
	m, ok := pollutantMeta[p]
	return m, ok
}

// AllMeta returns metadata for every pollutant in canonical order.
func AllMeta() []Meta {
	out := make([]Meta, 0, len(canonicalOrder))
	for _, p := range canonicalOrder {
		out = append(out, pollutantMeta[p])
	}
	return out
}

// DisplayName returns the display name of p, or the raw code if p is unknown.
func (p Pollutant) DisplayName() string {
	if m, ok := pollutantMeta[p]; ok {
		return m.DisplayName
	}
	return string(p)
}

// Valid reports whether p is one of the six tracked codes.
func (p Pollutant) Valid() bool {
	_, ok := pollutantMeta[p]
	return ok
}

// ParsePollutant accepts a code ("pm25") or display name ("PM2.5"), case-insensitively.
func ParsePollutant(s string) (Pollutant, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, ".", "")
	p := Pollutant(key)
	if p.Valid() {
		return p, nil
	}
	for _, m := range pollutantMeta {
		if strings.EqualFold(m.DisplayName, strings.TrimSpace(s)) {
			return m.Code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPollutant, s)
}
