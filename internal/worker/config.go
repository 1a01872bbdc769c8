// Package worker runs headless simulation sessions and publishes their readings.
package worker

import (
	"time"

	"github.com/auracast/auracast/internal/city"
)

// Config holds configuration for the worker's load job.
type Config struct {
	// Cities are the queries to keep a live session for.
	// If empty, uses DefaultCities.
	Cities []string

	// Concurrency is the number of lookups run at once.
	// Default: 4
	Concurrency int

	// Timeout bounds each city lookup.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Cities:      DefaultCities(),
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// DefaultCities returns the names of every city with sample data.
func DefaultCities() []string {
	records := city.SampleRecords()
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.City)
	}
	return names
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Cities) == 0 {
		c.Cities = def.Cities
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
