// Package featureflags provides runtime switches for the simulation and its add-ons.
package featureflags

import (
	"encoding/json"
	"sort"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagLiveSimulation enables the periodic fluctuation of session readings.
	// When off, a lookup installs its reading and no ticks are scheduled.
	FlagLiveSimulation = "live_simulation_enabled"

	// FlagHealthRecommendations enables the generated health recommendation endpoint.
	FlagHealthRecommendations = "health_recommendations_enabled"

	// FlagWorkerPublishing enables fan-out of worker readings to the configured sinks.
	FlagWorkerPublishing = "worker_publishing_enabled"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key" validate:"required"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates" validate:"required,min=1,dive"`
	Reason  string       `json:"reason" validate:"required"`
}

func (f *Flag) clone() *Flag {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean or number.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag value as an integer.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// JSONValue unmarshals the flag value into target.
func (f *Flag) JSONValue(target interface{}) error {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// DefaultFlags returns the default feature flags for the application.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagLiveSimulation: {
			Key:       FlagLiveSimulation,
			Value:     true,
			UpdatedAt: now,
		},
		FlagHealthRecommendations: {
			Key:       FlagHealthRecommendations,
			Value:     true,
			UpdatedAt: now,
		},
		FlagWorkerPublishing: {
			Key:       FlagWorkerPublishing,
			Value:     true,
			UpdatedAt: now,
		},
	}
}

// IsKnown reports whether key names one of the well-known flags.
func IsKnown(key string) bool {
	switch key {
	case FlagLiveSimulation, FlagHealthRecommendations, FlagWorkerPublishing:
		return true
	}
	return false
}

// Sorted returns the flags as a list ordered by key.
func Sorted(flags map[string]*Flag) FlagList {
	items := make([]Flag, 0, len(flags))
	for _, f := range flags {
		items = append(items, *f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return FlagList{Items: items}
}
