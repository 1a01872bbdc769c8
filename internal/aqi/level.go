// Package aqi classifies Air Quality Index values and derives the current
// air quality status from a set of pollutant concentrations.
package aqi

import "math"

// Level is one band of the AQI health-risk scale.
type Level struct {
	// Name is the human-readable tier name, e.g. "Moderate".
	Name string `json:"level"`

	// Min is the lowest integer in the tier and Max its inclusive upper bound.
	// Max is ignored when Unbounded is set.
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Unbounded bool    `json:"unbounded,omitempty"`

	// Above is the exclusive lower bound, equal to the previous tier's Max.
	// Fractional values such as 50.5 fall in (Above, Max]. Unset for the first tier.
	Above float64 `json:"above,omitempty"`

	// Color and TextColor are severity tokens consumed by the dashboard.
	Color     string `json:"color"`
	TextColor string `json:"textColor"`

	// ChartColor is the hex color used for forecast bars.
	ChartColor string `json:"chartColor"`

	Description string `json:"description"`
}

// Well-known tier names.
const (
	LevelGood                        = "Good"
	LevelModerate                    = "Moderate"
	LevelUnhealthyForSensitiveGroups = "Unhealthy for Sensitive Groups"
	LevelUnhealthy                   = "Unhealthy"
	LevelVeryUnhealthy               = "Very Unhealthy"
	LevelHazardous                   = "Hazardous"
)

// levels is ordered by upper bound; the last entry is open-ended.
var levels = []Level{
	{
		Name:        LevelGood,
		Min:         0,
		Max:         50,
		Color:       "bg-green-500",
		TextColor:   "text-green-800",
		ChartColor:  "#22c55e",
		Description: "Air quality is satisfactory, and air pollution poses little or no risk.",
	},
	{
		Name:        LevelModerate,
		Min:         51,
		Above:       50,
		Max:         100,
		Color:       "bg-yellow-400",
		TextColor:   "text-yellow-800",
		ChartColor:  "#facc15",
		Description: "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	},
	{
		Name:        LevelUnhealthyForSensitiveGroups,
		Min:         101,
		Above:       100,
		Max:         150,
		Color:       "bg-orange-500",
		TextColor:   "text-orange-800",
		ChartColor:  "#f97316",
		Description: "Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	},
	{
		Name:        LevelUnhealthy,
		Min:         151,
		Above:       150,
		Max:         200,
		Color:       "bg-red-500",
		TextColor:   "text-red-800",
		ChartColor:  "#ef4444",
		Description: "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects.",
	},
	{
		Name:        LevelVeryUnhealthy,
		Min:         201,
		Above:       200,
		Max:         300,
		Color:       "bg-purple-600",
		TextColor:   "text-purple-100",
		ChartColor:  "#9333ea",
		Description: "Health alert: The risk of health effects is increased for everyone.",
	},
	{
		Name:        LevelHazardous,
		Min:         301,
		Above:       300,
		Unbounded:   true,
		Color:       "bg-maroon-800",
		TextColor:   "text-maroon-100",
		ChartColor:  "#881337",
		Description: "Health warning of emergency conditions: everyone is more likely to be affected.",
	},
}

// Levels returns the tier table in ascending order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// Classify returns the tier containing value. A value on a breakpoint belongs
// to the lower tier; values between integer bounds (50.5) belong to the upper one.
// Negative and NaN inputs are treated as 0.
func Classify(value float64) Level {
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	for _, l := range levels {
		if l.Unbounded || value <= l.Max {
			return l
		}
	}
	return levels[len(levels)-1]
}

// Contains reports whether Classify would place value in l.
func (l Level) Contains(value float64) bool {
	return Classify(value) == l
}
