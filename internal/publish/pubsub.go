package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub/v2"

	"github.com/auracast/auracast/internal/session"
)

// PubSubPublisher publishes readings as JSON to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	ownClient bool
}

// NewPubSubPublisher creates a publisher for topic on an existing client.
func NewPubSubPublisher(client *pubsub.Client, topic string) *PubSubPublisher {
	publisher := client.Publisher(topic)
	// Per-city ordering keys keep a city's ticks in sequence.
	publisher.EnableMessageOrdering = true
	return &PubSubPublisher{client: client, publisher: publisher}
}

// DialPubSub creates a client for projectID and a publisher for topic.
func DialPubSub(ctx context.Context, projectID, topic string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	p := NewPubSubPublisher(client, topic)
	p.ownClient = true
	return p, nil
}

// Name returns "pubsub".
func (p *PubSubPublisher) Name() string { return "pubsub" }

// PubSubMessage builds the Pub/Sub message for a reading.
func PubSubMessage(r session.Reading) (*pubsub.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return &pubsub.Message{
		Data:        data,
		OrderingKey: Slug(r.City),
		Attributes: map[string]string{
			"city":  r.City,
			"level": r.Current.Level,
			"aqi":   strconv.FormatFloat(r.Current.OverallAQI, 'f', -1, 64),
		},
	}, nil
}

// Publish sends one message and waits for the server ack.
func (p *PubSubPublisher) Publish(ctx context.Context, r session.Reading) error {
	msg, err := PubSubMessage(r)
	if err != nil {
		return err
	}
	if _, err := p.publisher.Publish(ctx, msg).Get(ctx); err != nil {
		p.publisher.ResumePublish(msg.OrderingKey)
		return err
	}
	return nil
}

// Close flushes pending messages and closes the client if this publisher created it.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	if p.ownClient {
		return p.client.Close()
	}
	return nil
}
