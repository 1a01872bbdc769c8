package publish

import (
	"context"
	"fmt"

	influxclient "github.com/influxdata/influxdb1-client/v2"

	"github.com/auracast/auracast/internal/session"
)

// InfluxConfig holds InfluxDB 1.x settings.
type InfluxConfig struct {
	Hostname    string `toml:"hostname"`
	Port        int    `toml:"port"`
	Database    string `toml:"database"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	Measurement string `toml:"measurement"`
}

// Enabled reports whether an InfluxDB host is configured.
func (c InfluxConfig) Enabled() bool {
	return c.Hostname != ""
}

// InfluxPublisher writes one point per reading, tagged by city and level.
type InfluxPublisher struct {
	client      influxclient.Client
	database    string
	measurement string
}

// NewInfluxPublisher wraps an existing client.
func NewInfluxPublisher(client influxclient.Client, database, measurement string) *InfluxPublisher {
	if measurement == "" {
		measurement = "air_quality"
	}
	return &InfluxPublisher{client: client, database: database, measurement: measurement}
}

// DialInflux creates an HTTP client for the configured server.
func DialInflux(cfg InfluxConfig) (*InfluxPublisher, error) {
	port := cfg.Port
	if port == 0 {
		port = 8086
	}
	httpConfig := influxclient.HTTPConfig{
		Addr: fmt.Sprintf("http://%s:%d", cfg.Hostname, port),
	}
	if cfg.Username != "" && cfg.Password != "" {
		httpConfig.Username = cfg.Username
		httpConfig.Password = cfg.Password
	}

	client, err := influxclient.NewHTTPClient(httpConfig)
	if err != nil {
		return nil, fmt.Errorf("create influx client: %w", err)
	}
	return NewInfluxPublisher(client, cfg.Database, cfg.Measurement), nil
}

// Name returns "influx".
func (p *InfluxPublisher) Name() string { return "influx" }

// Point builds the InfluxDB point for a reading.
func (p *InfluxPublisher) Point(r session.Reading) (*influxclient.Point, error) {
	tags := map[string]string{
		"city":     Slug(r.City),
		"level":    r.Current.Level,
		"dominant": string(r.Current.DominantCode),
	}
	fields := map[string]interface{}{
		"tick": int64(r.Tick),
	}
	for _, f := range Fields(r) {
		if v, ok := f.Value.(float64); ok {
			fields[f.Name] = v
		}
	}
	return influxclient.NewPoint(p.measurement, tags, fields, r.UpdatedAt)
}

// Publish writes a single-point batch. The v1 client has no context support;
// ctx is only checked before writing.
func (p *InfluxPublisher) Publish(ctx context.Context, r session.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bp, err := influxclient.NewBatchPoints(influxclient.BatchPointsConfig{
		Database:  p.database,
		Precision: "s",
	})
	if err != nil {
		return err
	}

	point, err := p.Point(r)
	if err != nil {
		return fmt.Errorf("build point: %w", err)
	}
	bp.AddPoint(point)

	return p.client.Write(bp)
}

// Close closes the HTTP client.
func (p *InfluxPublisher) Close() error {
	return p.client.Close()
}
