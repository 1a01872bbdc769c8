package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/auracast/auracast/internal/session"
)

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	BrokerHost  string `toml:"broker_host"`
	BrokerPort  int    `toml:"broker_port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         byte   `toml:"qos"`
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.BrokerHost != ""
}

// MQTTClient is the subset of mqtt.Client used for publishing.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes each reading field to <prefix>/<city>/<field> and
// the full reading as retained JSON to <prefix>/<city>/state.
type MQTTPublisher struct {
	client MQTTClient
	prefix string
	qos    byte
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client MQTTClient, prefix string, qos byte) *MQTTPublisher {
	if prefix == "" {
		prefix = "auracast"
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}
}

// DialMQTT connects to the broker and returns a publisher.
func DialMQTT(cfg MQTTConfig, logger zerolog.Logger) (*MQTTPublisher, error) {
	port := cfg.BrokerPort
	if port == 0 {
		port = 1883
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "auracast-worker"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, port))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		r := c.OptionsReader()
		logger.Info().Str("client_id", r.ClientID()).Msg("connected to mqtt broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("mqtt connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt: %w", token.Error())
	}
	return NewMQTTPublisher(client, cfg.TopicPrefix, cfg.QoS), nil
}

// Name returns "mqtt".
func (p *MQTTPublisher) Name() string { return "mqtt" }

// Topic returns the topic for one field of a city.
func (p *MQTTPublisher) Topic(city, field string) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, Slug(city), field)
}

// Publish sends every field and the JSON state, waiting for each token.
func (p *MQTTPublisher) Publish(ctx context.Context, r session.Reading) error {
	var errs []error
	for _, f := range Fields(r) {
		token := p.client.Publish(p.Topic(r.City, f.Name), p.qos, false, fmt.Sprintf("%v", f.Value))
		if err := waitToken(ctx, token); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	}

	state, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := waitToken(ctx, p.client.Publish(p.Topic(r.City, "state"), p.qos, true, state)); err != nil {
		errs = append(errs, fmt.Errorf("state: %w", err))
	}
	return errors.Join(errs...)
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
