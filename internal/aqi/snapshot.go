package aqi

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Snapshot validation errors.
var (
	ErrIncompleteSnapshot    = errors.New("snapshot is missing a pollutant")
	ErrNegativeConcentration = errors.New("pollutant concentration must not be negative")
)

// Fluctuation bound applied per pollutant on every simulated tick.
const MaxFluctuation = 2.0

// Snapshot is a complete set of six pollutant concentrations at one instant.
// It is a value type: copies never share state.
type Snapshot struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// Get returns the concentration for p. Unknown codes read as 0.
func (s Snapshot) Get(p Pollutant) float64 {
	switch p {
	case PollutantPM25:
		return s.PM25
	case PollutantPM10:
		return s.PM10
	case PollutantO3:
		return s.O3
	case PollutantNO2:
		return s.NO2
	case PollutantSO2:
		return s.SO2
	case PollutantCO:
		return s.CO
	}
	return 0
}

// With returns a copy of s with p set to v.
func (s Snapshot) With(p Pollutant, v float64) Snapshot {
	switch p {
	case PollutantPM25:
		s.PM25 = v
	case PollutantPM10:
		s.PM10 = v
	case PollutantO3:
		s.O3 = v
	case PollutantNO2:
		s.NO2 = v
	case PollutantSO2:
		s.SO2 = v
	case PollutantCO:
		s.CO = v
	}
	return s
}

// Map returns the snapshot keyed by pollutant code.
func (s Snapshot) Map() map[Pollutant]float64 {
	out := make(map[Pollutant]float64, len(canonicalOrder))
	for _, p := range canonicalOrder {
		out[p] = s.Get(p)
	}
	return out
}

// Validate checks that every concentration is finite and non-negative.
func (s Snapshot) Validate() error {
	for _, p := range canonicalOrder {
		v := s.Get(p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %w", p, ErrIncompleteSnapshot)
		}
		if v < 0 {
			return fmt.Errorf("%s: %w", p, ErrNegativeConcentration)
		}
	}
	return nil
}

// SnapshotFromMap builds a Snapshot from loosely keyed input.
// Every one of the six codes must be present; missing codes fail fast
// rather than defaulting to zero.
func SnapshotFromMap(m map[string]float64) (Snapshot, error) {
	var s Snapshot
	seen := make(map[Pollutant]bool, len(canonicalOrder))
	for k, v := range m {
		p, err := ParsePollutant(k)
		if err != nil {
			return Snapshot{}, err
		}
		s = s.With(p, v)
		seen[p] = true
	}
	for _, p := range canonicalOrder {
		if !seen[p] {
			return Snapshot{}, fmt.Errorf("%s: %w", p, ErrIncompleteSnapshot)
		}
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Status is the derived headline state of a snapshot.
type Status struct {
	// OverallAQI is the PM2.5 concentration of the snapshot.
	OverallAQI float64 `json:"aqi"`

	// Level is the tier name for OverallAQI.
	Level string `json:"level"`

	// DominantPollutant is the display name of the highest concentration.
	DominantPollutant string `json:"dominantPollutant"`

	// DominantCode is the code behind DominantPollutant.
	DominantCode Pollutant `json:"dominantCode,omitempty"`
}

// Dominant returns the pollutant with the highest concentration.
// Ties keep the first code in canonical order.
func Dominant(s Snapshot) Pollutant {
	best := canonicalOrder[0]
	bestValue := s.Get(best)
	for _, p := range canonicalOrder[1:] {
		if v := s.Get(p); v > bestValue {
			best, bestValue = p, v
		}
	}
	return best
}

// DeriveStatus computes the headline status of s.
//
// The overall AQI is the raw PM2.5 value, not an EPA max-sub-index.
func DeriveStatus(s Snapshot) Status {
	overall := s.PM25
	dominant := Dominant(s)
	return Status{
		OverallAQI:        overall,
		Level:             Classify(overall).Name,
		DominantPollutant: dominant.DisplayName(),
		DominantCode:      dominant,
	}
}

// RandomSource supplies uniform draws in [0, 1]. *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// DefaultSource draws from the math/rand/v2 global generator. It is safe for concurrent use.
var DefaultSource RandomSource = globalSource{}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Fluctuate returns a perturbed copy of s. Each concentration moves by a
// uniform draw in [-2, 2], is rounded to the nearest integer and clamped at 0.
// Draws are taken in canonical order.
func Fluctuate(s Snapshot, rng RandomSource) Snapshot {
	next := s
	for _, p := range canonicalOrder {
		delta := rng.Float64()*2*MaxFluctuation - MaxFluctuation
		v := math.Round(s.Get(p) + delta)
		if v <= 0 || math.IsNaN(v) {
			v = 0
		}
		next = next.With(p, v)
	}
	return next
}

// ForecastDay is one day of a static seven-day forecast.
type ForecastDay struct {
	Day string  `json:"day"`
	AQI float64 `json:"aqi"`
}
