// Package session runs the live-simulation loop for a dashboard: a city lookup
// installs a reading, and a scheduled tick keeps perturbing it until the next
// lookup or Stop.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/featureflags"
)

// DefaultInterval is the fluctuation cadence.
const DefaultInterval = 3 * time.Second

// Controller errors.
var (
	ErrSuperseded = errors.New("lookup superseded by a newer request")
	ErrClosed     = errors.New("session closed")
	ErrNoReading  = errors.New("session has no reading")
)

// Lookup resolves a city query to its record.
type Lookup interface {
	Lookup(ctx context.Context, query string) (*city.Record, error)
}

// Reading is the snapshot and derived status shown for a session at one instant.
// It is always replaced as a whole. Tick restarts at 0 on every lookup; Seq
// counts every reading the session has installed and never goes back.
type Reading struct {
	City       string            `json:"city"`
	Current    aqi.Status        `json:"current"`
	Pollutants aqi.Snapshot      `json:"pollutants"`
	Forecast   []aqi.ForecastDay `json:"forecast"`
	Tick       uint64            `json:"tick"`
	Seq        uint64            `json:"seq"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (r Reading) clone() Reading {
	r.Forecast = append([]aqi.ForecastDay(nil), r.Forecast...)
	return r
}

// Config holds configuration for a Controller.
type Config struct {
	ID        string
	Lookup    Lookup
	Scheduler Scheduler
	Logger    zerolog.Logger

	// Interval between ticks (default: 3s).
	Interval time.Duration

	// Rand supplies the fluctuation draws (default: aqi.DefaultSource).
	Rand aqi.RandomSource

	// Flags gates live simulation. Nil means enabled.
	Flags *featureflags.Service

	Metrics *Metrics

	// SubscriberBuffer is the per-subscriber channel capacity (default: 8).
	SubscriberBuffer int

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Controller owns one session: its current reading, its tick job and its subscribers.
type Controller struct {
	id        string
	lookup    Lookup
	scheduler Scheduler
	logger    zerolog.Logger
	interval  time.Duration
	rng       aqi.RandomSource
	flags     *featureflags.Service
	metrics   *Metrics
	bufSize   int
	now       func() time.Time

	mu          sync.Mutex
	reading     *Reading
	generation  uint64
	seq         uint64
	handle      Handle
	subscribers map[chan Reading]struct{}
	closed      bool
}

// NewController creates a stopped controller with no reading.
func NewController(cfg Config) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	rng := cfg.Rand
	if rng == nil {
		rng = aqi.DefaultSource
	}
	bufSize := cfg.SubscriberBuffer
	if bufSize <= 0 {
		bufSize = 8
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		id:          cfg.ID,
		lookup:      cfg.Lookup,
		scheduler:   cfg.Scheduler,
		logger:      cfg.Logger.With().Str("session_id", cfg.ID).Logger(),
		interval:    interval,
		rng:         rng,
		flags:       cfg.Flags,
		metrics:     cfg.Metrics,
		bufSize:     bufSize,
		now:         now,
		subscribers: make(map[chan Reading]struct{}),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Load looks up a city and installs its reading, replacing whatever the
// session showed before. The running tick job is cancelled before the lookup
// starts, so no tick from the previous city can land after this call begins.
// On failure the session is left stopped with no reading.
func (c *Controller) Load(ctx context.Context, query string) (Reading, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Reading{}, ErrClosed
	}
	c.stopLocked()
	gen := c.generation
	c.mu.Unlock()

	rec, err := c.lookup.Lookup(ctx, query)
	if err != nil {
		c.metrics.recordLookup(ctx, "error")
		c.logger.Info().Err(err).Str("query", query).Msg("session lookup failed")
		return Reading{}, err
	}

	live := c.flags.LiveSimulationEnabled(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Reading{}, ErrClosed
	}
	if c.generation != gen {
		c.metrics.recordLookup(ctx, "superseded")
		return Reading{}, ErrSuperseded
	}

	reading := Reading{
		City:       rec.City,
		Current:    rec.Current,
		Pollutants: rec.Pollutants,
		Forecast:   rec.Forecast,
		UpdatedAt:  c.now(),
	}

	if live {
		handle, err := c.scheduler.Every(c.interval, func() { c.tick(gen) })
		if err != nil {
			c.metrics.recordLookup(ctx, "error")
			return Reading{}, fmt.Errorf("schedule fluctuation: %w", err)
		}
		c.handle = handle
	} else {
		c.logger.Debug().Str("city", rec.City).Msg("live simulation disabled, reading is static")
	}

	c.seq++
	reading.Seq = c.seq
	c.reading = &reading
	c.metrics.recordLookup(ctx, "ok")
	c.metrics.recordReading(ctx, reading.City, reading.Current.Level, reading.Current.OverallAQI, false)
	c.broadcastLocked(reading)

	c.logger.Info().
		Str("city", reading.City).
		Float64("aqi", reading.Current.OverallAQI).
		Str("level", reading.Current.Level).
		Msg("session loaded city")

	return reading.clone(), nil
}

// Advance applies one tick to the current reading immediately.
// It returns ErrNoReading when the session is stopped.
func (c *Controller) Advance() (Reading, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	r, ok := c.tick(gen)
	if !ok {
		return Reading{}, ErrNoReading
	}
	return r, nil
}

// tick perturbs the reading scheduled under generation gen. Ticks from an
// older generation are discarded.
func (c *Controller) tick(gen uint64) (Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.reading == nil || gen != c.generation {
		c.metrics.recordStaleTick(context.Background())
		return Reading{}, false
	}

	pollutants := aqi.Fluctuate(c.reading.Pollutants, c.rng)
	next := Reading{
		City:       c.reading.City,
		Current:    aqi.DeriveStatus(pollutants),
		Pollutants: pollutants,
		Forecast:   c.reading.Forecast,
		Tick:       c.reading.Tick + 1,
		UpdatedAt:  c.now(),
	}
	c.seq++
	next.Seq = c.seq
	c.reading = &next

	c.metrics.recordReading(context.Background(), next.City, next.Current.Level, next.Current.OverallAQI, true)
	c.broadcastLocked(next)

	return next.clone(), true
}

// Current returns the current reading, if any.
func (c *Controller) Current() (Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reading == nil {
		return Reading{}, false
	}
	return c.reading.clone(), true
}

// Running reports whether a tick job is scheduled.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

// Stop cancels the tick job and releases the reading. Subscribers stay attached.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	c.generation++
	c.reading = nil
}

// Close stops the session and closes every subscriber channel.
// A closed controller rejects further loads.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.stopLocked()
	c.closed = true
	for ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, ch)
	}
}

// Subscribe returns a channel receiving every installed reading and a function
// that detaches it. Readings are dropped for a subscriber whose buffer is full.
func (c *Controller) Subscribe() (<-chan Reading, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Reading, c.bufSize)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
		})
	}
}

func (c *Controller) broadcastLocked(r Reading) {
	for ch := range c.subscribers {
		select {
		case ch <- r.clone():
		default:
			c.metrics.recordDropped(context.Background())
			c.logger.Warn().Uint64("tick", r.Tick).Msg("subscriber buffer full, dropping reading")
		}
	}
}
