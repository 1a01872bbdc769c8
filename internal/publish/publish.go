// Package publish ships session readings to external sinks.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/session"
)

// Publisher delivers readings to one sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, r session.Reading) error
	Close() error
}

// Slug turns a city name into a topic- and key-safe token, e.g. "New York" -> "new_york".
func Slug(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "_")
}

// Fields returns the scalar values of a reading keyed by field name in a fixed order.
func Fields(r session.Reading) []Field {
	fields := []Field{
		{Name: "aqi", Value: r.Current.OverallAQI},
		{Name: "level", Value: r.Current.Level},
		{Name: "dominant", Value: string(r.Current.DominantCode)},
	}
	for _, p := range aqi.CanonicalOrder() {
		fields = append(fields, Field{Name: string(p), Value: r.Pollutants.Get(p)})
	}
	return fields
}

// Field is one named value of a reading.
type Field struct {
	Name  string
	Value interface{}
}

// Stats counts deliveries per sink.
type Stats struct {
	Published int64     `json:"published"`
	Failed    int64     `json:"failed"`
	LastError string    `json:"lastError,omitempty"`
	LastAt    time.Time `json:"lastAt,omitempty"`
}

// Fanout publishes each reading to every configured sink.
type Fanout struct {
	publishers []Publisher
	timeout    time.Duration
	logger     zerolog.Logger

	mu    sync.Mutex
	stats map[string]*Stats
}

// FanoutConfig holds configuration for the fan-out.
type FanoutConfig struct {
	Publishers []Publisher
	Logger     zerolog.Logger

	// Timeout bounds each sink's publish (default: 5s).
	Timeout time.Duration
}

// NewFanout creates a fan-out over the given publishers.
func NewFanout(cfg FanoutConfig) *Fanout {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	stats := make(map[string]*Stats, len(cfg.Publishers))
	for _, p := range cfg.Publishers {
		stats[p.Name()] = &Stats{}
	}
	return &Fanout{
		publishers: cfg.Publishers,
		timeout:    timeout,
		logger:     cfg.Logger,
		stats:      stats,
	}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.publishers)
}

// Publish sends r to all sinks concurrently and joins their errors.
func (f *Fanout) Publish(ctx context.Context, r session.Reading) error {
	if len(f.publishers) == 0 {
		return nil
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			err := p.Publish(pctx, r)
			f.record(p.Name(), err)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", p.Name(), err)
				f.logger.Warn().Err(err).Str("sink", p.Name()).Str("city", r.City).Msg("publish failed")
			}
		}(i, p)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (f *Fanout) record(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.stats[name]
	if !ok {
		s = &Stats{}
		f.stats[name] = s
	}
	s.LastAt = time.Now()
	if err != nil {
		s.Failed++
		s.LastError = err.Error()
		return
	}
	s.Published++
}

// Stats returns a copy of the per-sink counters.
func (f *Fanout) Stats() map[string]Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]Stats, len(f.stats))
	for k, v := range f.stats {
		out[k] = *v
	}
	return out
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
