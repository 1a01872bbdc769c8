package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/publish"
	"github.com/auracast/auracast/internal/session"
)

// ErrNoCities is returned by HealthCheck when no city is configured.
var ErrNoCities = errors.New("no cities configured")

const healthCheckSessionID = "wrk_health_check"

// Publisher receives every reading of every worker session.
type Publisher interface {
	Publish(ctx context.Context, r session.Reading) error
}

// Worker keeps one headless session per configured city and forwards their
// readings to a Publisher.
type Worker struct {
	config    Config
	logger    zerolog.Logger
	sessions  *session.Manager
	publisher Publisher
	flags     *featureflags.Service

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]string // session ID -> city query

	metrics *Metrics
}

// Metrics tracks worker statistics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	Runs          int64
	Loads         int64
	LoadFailures  int64
	Published     int64
	PublishErrors int64
	Skipped       int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// WorkerConfig holds configuration for creating a Worker.
type WorkerConfig struct {
	Config   Config
	Logger   zerolog.Logger
	Sessions *session.Manager

	// Publisher is optional; without it readings are only simulated.
	Publisher Publisher

	// Flags gates publishing. Nil means enabled.
	Flags *featureflags.Service
}

// New creates a worker.
func New(cfg WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		sessions:  cfg.Sessions,
		publisher: cfg.Publisher,
		flags:     cfg.Flags,
		ctx:       ctx,
		cancel:    cancel,
		active:    make(map[string]string),
		metrics:   &Metrics{},
	}
}

// SessionID returns the ID of the worker session for a city query.
func SessionID(query string) string {
	return "wrk_" + publish.Slug(query)
}

// LoadResult contains the result of a load run.
type LoadResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []LoadError
}

// LoadError represents a city that could not be loaded.
type LoadError struct {
	City  string
	Error string
}

// Run loads every configured city, at most Concurrency at a time.
func (w *Worker) Run(ctx context.Context) *LoadResult {
	return w.run(ctx, w.config.Cities)
}

func (w *Worker) run(ctx context.Context, cities []string) *LoadResult {
	startTime := time.Now()
	result := &LoadResult{
		StartTime: startTime,
		Total:     len(cities),
	}

	w.logger.Info().
		Int("cities", result.Total).
		Int("concurrency", w.config.Concurrency).
		Msg("starting city load")

	citiesChan := make(chan string, len(cities))
	resultsChan := make(chan cityResult, len(cities))

	var wg sync.WaitGroup
	for i := 0; i < w.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loadWorker(ctx, citiesChan, resultsChan)
		}()
	}

	for _, c := range cities {
		citiesChan <- c
	}
	close(citiesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		if cr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, LoadError{City: cr.city, Error: cr.err.Error()})
			continue
		}
		result.Successful++
	}
	// Cities never picked up because ctx ended count as failed.
	if missing := result.Total - result.Successful - result.Failed; missing > 0 {
		result.Failed += missing
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	w.updateMetrics(result)

	w.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("city load completed")

	return result
}

type cityResult struct {
	city string
	err  error
}

func (w *Worker) loadWorker(ctx context.Context, cities <-chan string, results chan<- cityResult) {
	for c := range cities {
		select {
		case <-ctx.Done():
			return
		default:
			results <- cityResult{city: c, err: w.LoadCity(ctx, c)}
		}
	}
}

// LoadCity starts or restarts the worker session for one city and forwards
// its readings. The initial reading is published immediately.
func (w *Worker) LoadCity(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	id := SessionID(query)

	// Subscribing before the lookup means no tick can slip past the sinks.
	// The channel closes when the session is replaced or deleted.
	var readings <-chan session.Reading
	_, reading, err := w.sessions.CreateWithID(ctx, id, query, func(c *session.Controller) {
		readings, _ = c.Subscribe()
	})
	if err != nil {
		atomic.AddInt64(&w.metrics.LoadFailures, 1)
		w.logger.Warn().Err(err).Str("city", query).Msg("city load failed")
		return fmt.Errorf("load %s: %w", query, err)
	}
	atomic.AddInt64(&w.metrics.Loads, 1)

	w.mu.Lock()
	w.active[id] = query
	w.mu.Unlock()

	w.publish(reading)

	w.wg.Add(1)
	go w.forward(readings, reading.Seq)
	return nil
}

// StopCity stops the worker session for a city query.
func (w *Worker) StopCity(query string) error {
	id := SessionID(query)
	if err := w.sessions.Delete(id); err != nil {
		return fmt.Errorf("stop %s: %w", query, err)
	}
	w.mu.Lock()
	delete(w.active, id)
	w.mu.Unlock()
	return nil
}

// Active returns the city queries with a running worker session, sorted.
func (w *Worker) Active() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.active))
	for _, q := range w.active {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// HealthCheck verifies that the first configured city can be looked up.
// It uses a throwaway session and publishes nothing.
func (w *Worker) HealthCheck(ctx context.Context) error {
	if len(w.config.Cities) == 0 {
		return ErrNoCities
	}

	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	if _, _, err := w.sessions.CreateWithID(ctx, healthCheckSessionID, w.config.Cities[0]); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return w.sessions.Delete(healthCheckSessionID)
}

// Close stops every worker session and waits for pending publishes.
func (w *Worker) Close() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.active))
	for id := range w.active {
		ids = append(ids, id)
	}
	w.active = make(map[string]string)
	w.mu.Unlock()

	for _, id := range ids {
		_ = w.sessions.Delete(id)
	}
	w.wg.Wait()
	w.cancel()
}

// forward publishes readings newer than seq until the channel closes.
func (w *Worker) forward(readings <-chan session.Reading, seq uint64) {
	defer w.wg.Done()
	for r := range readings {
		if r.Seq <= seq {
			continue
		}
		w.publish(r)
	}
}

func (w *Worker) publish(r session.Reading) {
	if w.publisher == nil {
		return
	}
	if w.flags != nil && !w.flags.WorkerPublishingEnabled(w.ctx) {
		atomic.AddInt64(&w.metrics.Skipped, 1)
		return
	}

	if err := w.publisher.Publish(w.ctx, r); err != nil {
		atomic.AddInt64(&w.metrics.PublishErrors, 1)
		w.logger.Warn().Err(err).Str("city", r.City).Uint64("tick", r.Tick).Msg("reading publish failed")
		return
	}
	atomic.AddInt64(&w.metrics.Published, 1)
}

func (w *Worker) updateMetrics(result *LoadResult) {
	w.metrics.mu.Lock()
	defer w.metrics.mu.Unlock()

	w.metrics.Runs++
	w.metrics.LastRunAt = result.EndTime
	w.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (w *Worker) GetMetrics() Metrics {
	w.metrics.mu.RLock()
	defer w.metrics.mu.RUnlock()

	return Metrics{
		Runs:            w.metrics.Runs,
		Loads:           atomic.LoadInt64(&w.metrics.Loads),
		LoadFailures:    atomic.LoadInt64(&w.metrics.LoadFailures),
		Published:       atomic.LoadInt64(&w.metrics.Published),
		PublishErrors:   atomic.LoadInt64(&w.metrics.PublishErrors),
		Skipped:         atomic.LoadInt64(&w.metrics.Skipped),
		LastRunAt:       w.metrics.LastRunAt,
		LastRunDuration: w.metrics.LastRunDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (w *Worker) MetricsSnapshot() map[string]interface{} {
	m := w.GetMetrics()
	return map[string]interface{}{
		"runs":              m.Runs,
		"loads":             m.Loads,
		"load_failures":     m.LoadFailures,
		"published":         m.Published,
		"publish_errors":    m.PublishErrors,
		"skipped":           m.Skipped,
		"active_sessions":   len(w.Active()),
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
	}
}
