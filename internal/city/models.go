// Package city provides the city air quality lookup used to start a dashboard session.
package city

import (
	"errors"
	"fmt"
	"strings"

	"github.com/auracast/auracast/internal/aqi"
)

// Lookup errors.
var (
	ErrCityNotFound = errors.New("city not found")
	ErrEmptyQuery   = errors.New("city query is empty")
)

// Record is the air quality data for one city as returned by a lookup.
type Record struct {
	// Key is the normalized lookup key, e.g. "new york".
	Key string `json:"-"`

	City       string            `json:"city"`
	Current    aqi.Status        `json:"current"`
	Pollutants aqi.Snapshot      `json:"pollutants"`
	Forecast   []aqi.ForecastDay `json:"forecast"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Forecast = make([]aqi.ForecastDay, len(r.Forecast))
	copy(out.Forecast, r.Forecast)
	return &out
}

// NotFoundError reports a failed lookup together with the cities that would succeed.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("Could not find air quality data for %q.", e.Query)
	}

	quoted := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		quoted[i] = fmt.Sprintf("%q", s)
	}

	var list string
	switch len(quoted) {
	case 1:
		list = quoted[0]
	default:
		list = strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
	}
	return fmt.Sprintf("Could not find air quality data for %q. Try %s.", e.Query, list)
}

// Is makes errors.Is(err, ErrCityNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCityNotFound
}

// NormalizeKey turns user input into a lookup key.
func NormalizeKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
