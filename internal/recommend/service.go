package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/featureflags"
)

// Service errors.
var (
	ErrDisabled         = errors.New("health recommendations are disabled")
	ErrGenerationFailed = errors.New("Failed to generate health recommendation.") //nolint:stylecheck,revive // user-facing message
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ServiceConfig holds configuration for the recommendation service.
type ServiceConfig struct {
	Generator Generator
	Flags     *featureflags.Service
	Logger    zerolog.Logger
}

// Service builds the recommendation prompt and relays the model's answer.
type Service struct {
	generator Generator
	flags     *featureflags.Service
	logger    zerolog.Logger
}

// NewService creates a recommendation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		generator: cfg.Generator,
		flags:     cfg.Flags,
		logger:    cfg.Logger,
	}
}

// Prompt returns the model prompt for an AQI value and its level name.
func Prompt(value float64, level string) string {
	return fmt.Sprintf(
		"The current air quality index (AQI) is %s, which is considered '%s'. "+
			"Provide a short, actionable health recommendation for the general public in 2-3 concise bullet points. "+
			"The tone should be helpful and clear. "+
			"Do not use markdown formatting, just plain text with bullet points (e.g., using '-' or '*').",
		strconv.FormatFloat(value, 'f', -1, 64), level,
	)
}

// Recommend returns health advice for the given reading. An empty level is
// filled in from the classifier. The model text is returned verbatim.
func (s *Service) Recommend(ctx context.Context, value float64, level string) (string, error) {
	if s.generator == nil || !s.flags.HealthRecommendationsEnabled(ctx) {
		return "", ErrDisabled
	}
	if level == "" {
		level = aqi.Classify(value).Name
	}

	text, err := s.generator.Generate(ctx, Prompt(value, level))
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			return "", ErrDisabled
		}
		s.logger.Error().Err(err).Float64("aqi", value).Str("level", level).Msg("health recommendation failed")
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return text, nil
}
