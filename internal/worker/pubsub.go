package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/session"
)

// Control job types.
const (
	JobLoadCity    = "load_city"
	JobStopSession = "stop_session"
	JobHealthCheck = "health_check"
)

// ErrMissingCity is returned for a stop_session job without a city.
var ErrMissingCity = errors.New("job requires a city")

// PubSubHandler handles control messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *Jobs
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Worker           *Worker
	Logger           zerolog.Logger
}

// ControlMessage is a worker control job.
type ControlMessage struct {
	JobType string `json:"job_type"`

	// City names the target of load_city and stop_session. An empty city
	// in load_city reloads every configured city.
	City string `json:"city,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             NewJobs(cfg.Worker, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if h.jobs.Handle(ctx, msg.Data, logger) == Ack {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Outcome tells the transport what to do with a message.
type Outcome int

const (
	Ack Outcome = iota
	Nack
)

// Jobs dispatches control messages to a Worker, independent of transport.
type Jobs struct {
	worker *Worker
	logger zerolog.Logger
}

// NewJobs creates a job dispatcher.
func NewJobs(w *Worker, logger zerolog.Logger) *Jobs {
	return &Jobs{worker: w, logger: logger}
}

// Handle parses and runs one control message. Malformed and unknown messages
// are acked so they are not redelivered; failed jobs are nacked.
func (j *Jobs) Handle(ctx context.Context, data []byte, logger zerolog.Logger) Outcome {
	startTime := time.Now()

	logger.Debug().Msg("received control message")

	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return Ack
	}

	var err error
	switch msg.JobType {
	case JobLoadCity:
		err = j.loadCity(ctx, msg.City)
	case JobStopSession:
		err = j.stopSession(msg.City)
	case JobHealthCheck:
		err = j.worker.HealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return Ack
	}

	if permanent(err) {
		logger.Warn().Err(err).Str("job_type", msg.JobType).Msg("job rejected")
		return Ack
	}
	if err != nil {
		logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return Nack
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Str("city", msg.City).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return Ack
}

func (j *Jobs) loadCity(ctx context.Context, query string) error {
	if query != "" {
		return j.worker.LoadCity(ctx, query)
	}

	result := j.worker.Run(ctx)
	// Consider it successful if at least half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many load failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

// permanent reports errors that a redelivery would hit again.
func permanent(err error) bool {
	return errors.Is(err, ErrMissingCity) ||
		errors.Is(err, city.ErrCityNotFound) ||
		errors.Is(err, city.ErrEmptyQuery) ||
		errors.Is(err, session.ErrSessionNotFound)
}

func (j *Jobs) stopSession(query string) error {
	if query == "" {
		return ErrMissingCity
	}
	return j.worker.StopCity(query)
}
