package city

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the city lookup service.
type ServiceConfig struct {
	// Repository is the city record store.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Latency is an artificial delay applied to every lookup to mimic a
	// remote data provider (default: none).
	Latency time.Duration
}

// Service resolves free-text city queries to air quality records.
type Service struct {
	repo    Repository
	logger  zerolog.Logger
	latency time.Duration
}

// NewService creates a new city lookup service.
func NewService(cfg ServiceConfig) *Service {
	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}
	return &Service{
		repo:    repo,
		logger:  cfg.Logger,
		latency: cfg.Latency,
	}
}

// Lookup returns the record for a city, matching case-insensitively.
// A miss returns a *NotFoundError listing every known city.
func (s *Service) Lookup(ctx context.Context, query string) (*Record, error) {
	key := NormalizeKey(query)
	if key == "" {
		return nil, ErrEmptyQuery
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	rec, err := s.repo.Get(ctx, key)
	if err == nil {
		s.logger.Debug().Str("city", rec.City).Msg("city lookup resolved")
		return rec, nil
	}
	if !errors.Is(err, ErrCityNotFound) {
		s.logger.Error().Err(err).Str("query", query).Msg("city lookup failed")
		return nil, err
	}

	names, listErr := s.Names(ctx)
	if listErr != nil {
		s.logger.Warn().Err(listErr).Msg("failed to list city suggestions")
	}

	s.logger.Info().Str("query", query).Msg("city not found")
	return nil, &NotFoundError{Query: query, Suggestions: names}
}

// Names returns the display names of every known city in suggestion order.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.City)
	}
	return names, nil
}

// List returns every known city record.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.repo.List(ctx)
}
