// Package config loads service configuration from defaults, an optional TOML
// file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/naoina/toml"

	"github.com/auracast/auracast/internal/database"
	"github.com/auracast/auracast/internal/publish"
)

// Duration is a time.Duration written as a Go duration string in TOML, e.g. "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full service configuration.
type Config struct {
	App        AppConfig            `toml:"app"`
	Telemetry  TelemetryConfig      `toml:"telemetry"`
	Database   database.Config      `toml:"database"`
	Simulation SimulationConfig     `toml:"simulation"`
	Gemini     GeminiConfig         `toml:"gemini"`
	Auth       AuthConfig           `toml:"auth"`
	Worker     WorkerConfig         `toml:"worker"`
	PubSub     PubSubConfig         `toml:"pubsub"`
	MQTT       publish.MQTTConfig   `toml:"mqtt"`
	Influx     publish.InfluxConfig `toml:"influx"`
	Kafka      publish.KafkaConfig  `toml:"kafka"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Port       string `toml:"port" validate:"required,numeric"`
	Env        string `toml:"env" validate:"required"`
	LogLevel   string `toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	RequireTLS bool   `toml:"require_tls"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `toml:"enabled"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRatio  float64 `toml:"sample_ratio" validate:"gte=0,lte=1"`
}

// SimulationConfig holds live-simulation settings.
type SimulationConfig struct {
	Interval      Duration `toml:"interval"`
	LookupLatency Duration `toml:"lookup_latency"`
	MaxSessions   int      `toml:"max_sessions" validate:"min=1"`
}

// GeminiConfig holds the health recommendation model settings.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
}

// AuthConfig holds admin token verification settings.
type AuthConfig struct {
	JWTSigningKey string `toml:"jwt_signing_key"`
}

// WorkerConfig holds headless worker settings.
type WorkerConfig struct {
	Cities      []string `toml:"cities"`
	Concurrency int      `toml:"concurrency" validate:"min=1,max=64"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID           string `toml:"project_id"`
	ReadingsTopic       string `toml:"readings_topic"`
	ControlSubscription string `toml:"control_subscription"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App: AppConfig{
			Port:     "8080",
			Env:      "development",
			LogLevel: "info",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		Database: database.DefaultConfig(),
		Simulation: SimulationConfig{
			Interval:      Duration{3 * time.Second},
			LookupLatency: Duration{time.Second},
			MaxSessions:   1000,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
		MQTT: publish.MQTTConfig{
			BrokerPort:  1883,
			ClientID:    "auracast-worker",
			TopicPrefix: "auracast",
		},
		Influx: publish.InfluxConfig{
			Port:        8086,
			Database:    "auracast",
			Measurement: "air_quality",
		},
		Kafka: publish.KafkaConfig{
			Topic: "auracast.readings",
		},
		PubSub: PubSubConfig{
			ReadingsTopic: "auracast-readings",
		},
	}
}

// Options selects the files Load reads. Empty paths are skipped.
type Options struct {
	// File is a TOML config file. A missing file is an error.
	File string

	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
}

// Load builds the configuration and validates it.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := loadTOML(opts.File, &cfg); err != nil {
			return Config{}, err
		}
	}

	if opts.EnvFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("APP_PORT", &cfg.App.Port)
	str("APP_ENV", &cfg.App.Env)
	str("LOG_LEVEL", &cfg.App.LogLevel)
	boolean("REQUIRE_TLS", &cfg.App.RequireTLS)

	boolean("OTEL_ENABLED", &cfg.Telemetry.Enabled)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	float("OTEL_TRACES_SAMPLER_ARG", &cfg.Telemetry.SampleRatio)

	str("DB_HOST", &cfg.Database.Host)
	integer("DB_PORT", &cfg.Database.Port)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_NAME", &cfg.Database.Database)
	str("DB_SSL_MODE", &cfg.Database.SSLMode)
	integer("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	integer("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	duration("DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)

	duration("SIMULATION_INTERVAL", &cfg.Simulation.Interval.Duration)
	duration("CITY_LOOKUP_LATENCY", &cfg.Simulation.LookupLatency.Duration)
	integer("MAX_SESSIONS", &cfg.Simulation.MaxSessions)

	str("API_KEY", &cfg.Gemini.APIKey)
	str("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	str("GEMINI_MODEL", &cfg.Gemini.Model)
	str("GEMINI_BASE_URL", &cfg.Gemini.BaseURL)

	str("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)

	list("WORKER_CITIES", &cfg.Worker.Cities)
	integer("WORKER_CONCURRENCY", &cfg.Worker.Concurrency)

	str("GCP_PROJECT_ID", &cfg.PubSub.ProjectID)
	str("PUBSUB_READINGS_TOPIC", &cfg.PubSub.ReadingsTopic)
	str("PUBSUB_CONTROL_SUBSCRIPTION", &cfg.PubSub.ControlSubscription)

	str("MQTT_BROKER_HOST", &cfg.MQTT.BrokerHost)
	integer("MQTT_BROKER_PORT", &cfg.MQTT.BrokerPort)
	str("MQTT_USERNAME", &cfg.MQTT.Username)
	str("MQTT_PASSWORD", &cfg.MQTT.Password)
	str("MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	str("MQTT_TOPIC_PREFIX", &cfg.MQTT.TopicPrefix)

	str("INFLUX_HOST", &cfg.Influx.Hostname)
	integer("INFLUX_PORT", &cfg.Influx.Port)
	str("INFLUX_DATABASE", &cfg.Influx.Database)
	str("INFLUX_USERNAME", &cfg.Influx.Username)
	str("INFLUX_PASSWORD", &cfg.Influx.Password)
	str("INFLUX_MEASUREMENT", &cfg.Influx.Measurement)

	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
