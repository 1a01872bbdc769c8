package city

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auracast/auracast/internal/aqi"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL city repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const cityColumns = `
	key, name, current_aqi, current_level, dominant_code,
	pm25, pm10, o3, no2, so2, co
`

// Get retrieves a city record and its forecast by normalized key.
func (r *PostgresRepository) Get(ctx context.Context, key string) (*Record, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE key = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("query city %q: %w", key, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day, aqi
		FROM city_forecasts
		WHERE city_key = $1
		ORDER BY position
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query forecast %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var day aqi.ForecastDay
		if err := rows.Scan(&day.Day, &day.AQI); err != nil {
			return nil, err
		}
		rec.Forecast = append(rec.Forecast, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

// List retrieves every city ordered by seed position.
func (r *PostgresRepository) List(ctx context.Context) ([]*Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cityColumns+` FROM cities ORDER BY position, key`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var (
		records []*Record
		byKey   = make(map[string]*Record)
	)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		byKey[rec.Key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fcRows, err := r.pool.Query(ctx, `
		SELECT city_key, day, aqi
		FROM city_forecasts
		ORDER BY city_key, position
	`)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer fcRows.Close()

	for fcRows.Next() {
		var (
			key string
			day aqi.ForecastDay
		)
		if err := fcRows.Scan(&key, &day.Day, &day.AQI); err != nil {
			return nil, err
		}
		if rec, ok := byKey[key]; ok {
			rec.Forecast = append(rec.Forecast, day)
		}
	}

	return records, fcRows.Err()
}

// Seed upserts records and replaces their forecasts in one transaction.
func (r *PostgresRepository) Seed(ctx context.Context, records []*Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	upsert := `
		INSERT INTO cities (
			key, name, position, current_aqi, current_level, dominant_code,
			pm25, pm10, o3, no2, so2, co
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			current_aqi = EXCLUDED.current_aqi,
			current_level = EXCLUDED.current_level,
			dominant_code = EXCLUDED.dominant_code,
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			o3 = EXCLUDED.o3,
			no2 = EXCLUDED.no2,
			so2 = EXCLUDED.so2,
			co = EXCLUDED.co
	`

	for i, rec := range records {
		key := rec.Key
		if key == "" {
			key = NormalizeKey(rec.City)
		}
		p := rec.Pollutants
		if _, err := tx.Exec(ctx, upsert,
			key, rec.City, i, rec.Current.OverallAQI, rec.Current.Level, string(rec.Current.DominantCode),
			p.PM25, p.PM10, p.O3, p.NO2, p.SO2, p.CO,
		); err != nil {
			return fmt.Errorf("upsert city %q: %w", key, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM city_forecasts WHERE city_key = $1`, key); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for pos, day := range rec.Forecast {
			batch.Queue(`
				INSERT INTO city_forecasts (city_key, position, day, aqi)
				VALUES ($1, $2, $3, $4)
			`, key, pos, day.Day, day.AQI)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert forecast %q: %w", key, err)
		}
	}

	return tx.Commit(ctx)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec      Record
		dominant string
		p        aqi.Snapshot
	)
	if err := row.Scan(
		&rec.Key,
		&rec.City,
		&rec.Current.OverallAQI,
		&rec.Current.Level,
		&dominant,
		&p.PM25, &p.PM10, &p.O3, &p.NO2, &p.SO2, &p.CO,
	); err != nil {
		return nil, err
	}

	rec.Pollutants = p
	rec.Current.DominantCode = aqi.Pollutant(dominant)
	rec.Current.DominantPollutant = rec.Current.DominantCode.DisplayName()
	return &rec, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
