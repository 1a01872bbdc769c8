package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auracast/auracast/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.Simulation.Interval.Duration)
	assert.Equal(t, time.Second, cfg.Simulation.LookupLatency.Duration)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.App.RequireTLS)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
}

func TestLoad_TransportSecurityFromEnv(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)

	assert.True(t, cfg.App.RequireTLS)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	path := writeFile(t, "auracast.toml", `
[app]
port = "9090"
env = "staging"

[simulation]
interval = "500ms"
lookup_latency = "0s"
max_sessions = 10

[worker]
cities = ["London", "Tokyo"]
concurrency = 2

[mqtt]
broker_host = "mqtt.local"
topic_prefix = "air"

[kafka]
brokers = ["k1:9092", "k2:9092"]
`)

	t.Setenv("APP_PORT", "7070")
	t.Setenv("WORKER_CITIES", "Delhi, Kochi ,")

	cfg, err := config.Load(config.Options{File: path})
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port, "environment wins over file")
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.Interval.Duration)
	assert.Equal(t, time.Duration(0), cfg.Simulation.LookupLatency.Duration)
	assert.Equal(t, 10, cfg.Simulation.MaxSessions)
	assert.Equal(t, []string{"Delhi", "Kochi"}, cfg.Worker.Cities)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "air", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 1883, cfg.MQTT.BrokerPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "GEMINI_API_KEY=from-dotenv\nDB_HOST=db.local\nDB_PORT=6543\n")

	// Values already in the environment are not overridden by the file.
	t.Setenv("DB_PORT", "7777")
	t.Cleanup(func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("DB_HOST")
	})

	cfg, err := config.Load(config.Options{EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Gemini.APIKey)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 7777, cfg.Database.Port)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := config.Load(config.Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoad_MissingTOMLFile(t *testing.T) {
	_, err := config.Load(config.Options{File: filepath.Join(t.TempDir(), "absent.toml")})
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad integer", "MAX_SESSIONS", "many"},
		{"bad duration", "SIMULATION_INTERVAL", "soon"},
		{"bad bool", "OTEL_ENABLED", "perhaps"},
		{"validation", "WORKER_CONCURRENCY", "0"},
		{"log level", "LOG_LEVEL", "loud"},
		{"bad float", "OTEL_TRACES_SAMPLER_ARG", "half"},
		{"ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.Load(config.Options{})
			assert.Error(t, err)
		})
	}
}

func TestLoad_APIKeyAlias(t *testing.T) {
	t.Setenv("API_KEY", "legacy")
	cfg, err := config.Load(config.Options{})
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Gemini.APIKey)

	t.Setenv("GEMINI_API_KEY", "preferred")
	cfg, err = config.Load(config.Options{})
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.Gemini.APIKey)
}
