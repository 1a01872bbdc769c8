package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auracast/auracast/internal/api"
	"github.com/auracast/auracast/internal/api/models"
	"github.com/auracast/auracast/internal/aqi"
	"github.com/auracast/auracast/internal/auth"
	"github.com/auracast/auracast/internal/city"
	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/recommend"
	"github.com/auracast/auracast/internal/session"
)

const testSigningKey = "test-secret-key-for-testing-only"

// manualScheduler runs jobs only when the test says so.
type manualScheduler struct {
	mu   sync.Mutex
	jobs []*manualJob
}

type manualJob struct {
	mu        sync.Mutex
	fn        func()
	cancelled bool
}

func (j *manualJob) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) (session.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &manualJob{fn: fn}
	s.jobs = append(s.jobs, job)
	return job, nil
}

// fire runs every job that has not been cancelled.
func (s *manualScheduler) fire() {
	s.mu.Lock()
	jobs := append([]*manualJob(nil), s.jobs...)
	s.mu.Unlock()
	for _, j := range jobs {
		j.mu.Lock()
		cancelled := j.cancelled
		j.mu.Unlock()
		if !cancelled {
			j.fn()
		}
	}
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

type testEnv struct {
	router    http.Handler
	scheduler *manualScheduler
	flags     *featureflags.Service
	tokens    *auth.JWTService
}

type envOption func(*api.RouterConfig)

func withGenerator(g recommend.Generator) envOption {
	return func(cfg *api.RouterConfig) {
		cfg.Recommender = recommend.NewService(recommend.ServiceConfig{
			Generator: g,
			Flags:     cfg.FeatureFlagService,
			Logger:    zerolog.Nop(),
		})
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logger := zerolog.New(io.Discard)
	sched := &manualScheduler{}
	flags := featureflags.NewService(featureflags.ServiceConfig{Logger: logger})
	cities := city.NewService(city.ServiceConfig{Logger: logger})
	sessions := session.NewManager(session.ManagerConfig{
		Lookup:    cities,
		Scheduler: sched,
		Logger:    logger,
		Flags:     flags,
		Rand:      fixedSource(1),
	})
	t.Cleanup(sessions.Close)

	tokens := auth.NewJWTService(auth.JWTConfig{SigningKey: testSigningKey})

	cfg := api.RouterConfig{
		Version:            "test",
		BuildTime:          "2024-01-01T00:00:00Z",
		Logger:             logger,
		CityService:        cities,
		Sessions:           sessions,
		FeatureFlagService: flags,
		Tokens:             tokens,
		Rand:               fixedSource(0.5),
	}
	withGenerator(stubGenerator{text: "- Limit outdoor exercise"})(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testEnv{
		router:    api.NewRouter(cfg),
		scheduler: sched,
		flags:     flags,
		tokens:    tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) adminToken(t *testing.T, role string) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken("ops@auracast", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func snapshotBody(s aqi.Snapshot) map[string]float64 {
	return map[string]float64{"pm25": s.PM25, "pm10": s.PM10, "o3": s.O3, "no2": s.NO2, "so2": s.SO2, "co": s.CO}
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	health := decode[models.Health](t, w)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestRouter_ReadinessCheck(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodGet, "/v1/ops/ready", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *api.RouterConfig) { cfg.DB = failingPinger{} })
		w := env.do(t, http.MethodGet, "/v1/ops/ready", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		health := decode[models.Health](t, w)
		assert.Equal(t, models.HealthStatusFail, health.Status)
	})
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.flags.SetFlags(context.Background(), []featureflags.FlagUpdate{
		{Key: featureflags.FlagWorkerPublishing, Value: false},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "Chicago"}).Code)

	w := env.do(t, http.MethodGet, "/v1/ops/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	status := decode[models.SystemStatus](t, w)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.Equal(t, 1, status.ActiveSessions)
	assert.Equal(t, []string{featureflags.FlagWorkerPublishing}, status.DisabledFlags)
	assert.Empty(t, status.Providers)
}

func TestRouter_Metadata(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/metadata/pollutants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pollutants := decode[models.PollutantList](t, w)
	require.Len(t, pollutants.Items, 6)
	assert.Equal(t, aqi.PollutantPM25, pollutants.Items[0].Code)
	assert.Equal(t, "PM2.5", pollutants.Items[0].DisplayName)

	w = env.do(t, http.MethodGet, "/v1/metadata/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	levels := decode[models.LevelList](t, w)
	require.Len(t, levels.Items, 6)
	assert.Equal(t, aqi.LevelGood, levels.Items[0].Name)
	assert.Equal(t, aqi.LevelHazardous, levels.Items[5].Name)
	assert.Equal(t, 50.0, levels.Items[1].Above)
	assert.Equal(t, 51.0, levels.Items[1].Min)
}

func TestRouter_Classify(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query     string
		wantCode  int
		wantLevel string
	}{
		{"value=0", http.StatusOK, aqi.LevelGood},
		{"value=50", http.StatusOK, aqi.LevelGood},
		{"value=50.5", http.StatusOK, aqi.LevelModerate},
		{"value=151", http.StatusOK, aqi.LevelUnhealthy},
		{"value=1000", http.StatusOK, aqi.LevelHazardous},
		{"value=abc", http.StatusBadRequest, ""},
		{"value=NaN", http.StatusBadRequest, ""},
		{"", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/v1/aqi/classify?"+tt.query, nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
				return
			}
			c := decode[models.Classification](t, w)
			assert.Equal(t, tt.wantLevel, c.Name)
		})
	}
}

func TestRouter_DeriveStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/aqi/status",
		snapshotBody(aqi.Snapshot{PM25: 65, PM10: 78, O3: 40, NO2: 88, SO2: 12, CO: 4}))

	require.Equal(t, http.StatusOK, w.Code)
	status := decode[aqi.Status](t, w)
	assert.Equal(t, 65.0, status.OverallAQI)
	assert.Equal(t, aqi.LevelModerate, status.Level)
	assert.Equal(t, "NO₂", status.DominantPollutant)
}

func TestRouter_DeriveStatus_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/aqi/status", map[string]float64{"pm25": 10, "pm10": -1})

	require.Equal(t, http.StatusBadRequest, w.Code)
	problem := decode[models.Problem](t, w)
	fields := make(map[string]string, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields[fe.Field] = fe.Code
	}
	assert.Equal(t, "gte", fields["pm10"])
	assert.Equal(t, "required", fields["o3"])
	assert.Equal(t, "required", fields["co"])
	assert.NotContains(t, fields, "pm25")
}

func TestRouter_DeriveStatus_WrongContentType(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/aqi/status", strings.NewReader("pm25=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_Fluctuate(t *testing.T) {
	env := newTestEnv(t)

	// A draw of 0.5 moves nothing; values are only rounded.
	w := env.do(t, http.MethodPost, "/v1/aqi/fluctuate",
		snapshotBody(aqi.Snapshot{PM25: 12.4, PM10: 20, O3: 30, NO2: 15, SO2: 5, CO: 0}))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.FluctuateResponse](t, w)
	assert.Equal(t, aqi.Snapshot{PM25: 12, PM10: 20, O3: 30, NO2: 15, SO2: 5, CO: 0}, resp.Pollutants)
	assert.Equal(t, 12.0, resp.Current.OverallAQI)
	assert.Equal(t, aqi.LevelGood, resp.Current.Level)
	assert.Equal(t, "O₃", resp.Current.DominantPollutant)
}

func TestRouter_ListCities(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/cities", nil)

	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.CityList](t, w)
	assert.Equal(t, len(city.SampleRecords()), list.Meta.Count)
	assert.Len(t, list.Items, list.Meta.Count)
}

func TestRouter_GetCity(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/cities/%20LONDON%20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.CityDetail](t, w)
	assert.Equal(t, "London", detail.City)
	assert.Equal(t, 78.0, detail.Current.OverallAQI)
	assert.Equal(t, aqi.LevelModerate, detail.LevelInfo.Name)
	assert.Equal(t, "NO₂", detail.Current.DominantPollutant)
	require.Len(t, detail.Pollutants, 6)
	assert.Equal(t, 65.0, detail.Pollutants[0].Value)
	require.Len(t, detail.Forecast, 7)
	assert.Equal(t, aqi.LevelModerate, detail.Forecast[0].Level)
}

func TestRouter_GetCity_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/cities/atlantis", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	problem := decode[models.Problem](t, w)
	assert.Contains(t, problem.Detail, "atlantis")
	assert.NotEmpty(t, problem.Suggestions)
	assert.Contains(t, problem.Suggestions, "London")
}

func TestRouter_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "London"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Session](t, w)
	assert.True(t, strings.HasPrefix(created.ID, "ses_"))
	assert.Equal(t, "/v1/sessions/"+created.ID, w.Header().Get("Location"))
	assert.True(t, created.Running)
	assert.Equal(t, 78.0, created.Current.OverallAQI)
	assert.Equal(t, uint64(0), created.Tick)

	env.scheduler.fire()

	w = env.do(t, http.MethodGet, "/v1/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ticked := decode[models.Session](t, w)
	assert.Equal(t, uint64(1), ticked.Tick)
	assert.Equal(t, uint64(2), ticked.Seq)
	assert.Equal(t, 67.0, ticked.Current.OverallAQI)
	assert.Equal(t, "NO₂", ticked.Current.DominantPollutant)

	w = env.do(t, http.MethodPut, "/v1/sessions/"+created.ID, map[string]string{"city": "delhi"})
	require.Equal(t, http.StatusOK, w.Code)
	switched := decode[models.Session](t, w)
	assert.Equal(t, "Delhi", switched.City)
	assert.Equal(t, uint64(0), switched.Tick)
	assert.Equal(t, uint64(3), switched.Seq)
	assert.Equal(t, aqi.LevelUnhealthy, switched.Current.Level)

	w = env.do(t, http.MethodDelete, "/v1/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/v1/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CreateSession_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "Gotham"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decode[models.Problem](t, w).Suggestions)

	w = env.do(t, http.MethodPost, "/v1/sessions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_UpdateSession_UnknownCityStopsSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "Tokyo"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.Session](t, w).ID

	w = env.do(t, http.MethodPut, "/v1/sessions/"+id, map[string]string{"city": "Atlantis"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_SessionEvents(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "London"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.Session](t, w).ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sessions/"+id+"/events", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := bufio.NewScanner(resp.Body)
	// next returns the next event's id line and payload.
	next := func() (string, models.Session) {
		t.Helper()
		var eventID string
		for events.Scan() {
			line := events.Text()
			if v, ok := strings.CutPrefix(line, "id: "); ok {
				eventID = v
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var s models.Session
				require.NoError(t, json.Unmarshal([]byte(data), &s))
				return eventID, s
			}
		}
		t.Fatalf("stream ended: %v", events.Err())
		return "", models.Session{}
	}

	firstID, first := next()
	assert.Equal(t, "1", firstID)
	assert.Equal(t, uint64(0), first.Tick)
	assert.Equal(t, "London", first.City)

	env.scheduler.fire()

	secondID, second := next()
	assert.Equal(t, "2", secondID)
	assert.Equal(t, uint64(1), second.Tick)
	assert.Equal(t, 67.0, second.Current.OverallAQI)

	// A city switch restarts Tick but not the event id.
	w = env.do(t, http.MethodPut, "/v1/sessions/"+id, map[string]string{"city": "Tokyo"})
	require.Equal(t, http.StatusOK, w.Code)

	thirdID, third := next()
	assert.Equal(t, "3", thirdID)
	assert.Equal(t, "Tokyo", third.City)
	assert.Equal(t, uint64(0), third.Tick)
}

func TestRouter_SessionWebSocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "Sydney"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.Session](t, w).ID

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first models.Session
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "Sydney", first.City)
	assert.Equal(t, uint64(0), first.Tick)

	env.scheduler.fire()

	var second models.Session
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, uint64(1), second.Tick)
	assert.Equal(t, 17.0, second.Current.OverallAQI)
}

func TestRouter_Recommendation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/recommendations", map[string]interface{}{"aqi": 160})

	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[models.Recommendation](t, w)
	assert.Equal(t, aqi.LevelUnhealthy, rec.Level)
	assert.Equal(t, "- Limit outdoor exercise", rec.Text)
}

func TestRouter_Recommendation_Unavailable(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		env := newTestEnv(t, withGenerator(stubGenerator{err: errors.New("boom")}))
		w := env.do(t, http.MethodPost, "/v1/recommendations", map[string]interface{}{"aqi": 42, "level": "Good"})

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Failed to generate health recommendation.", decode[models.Problem](t, w).Detail)
	})

	t.Run("disabled by flag", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.flags.SetFlags(context.Background(), []featureflags.FlagUpdate{
			{Key: featureflags.FlagHealthRecommendations, Value: false},
		})
		require.NoError(t, err)

		w := env.do(t, http.MethodPost, "/v1/recommendations", map[string]interface{}{"aqi": 42})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing aqi", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodPost, "/v1/recommendations", map[string]interface{}{"level": "Good"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_AdminFeatureFlags(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/admin/feature-flags", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = env.do(t, http.MethodGet, "/v1/admin/feature-flags", nil, "Authorization", env.adminToken(t, "viewer"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := env.adminToken(t, auth.RoleAdmin)

	w = env.do(t, http.MethodGet, "/v1/admin/feature-flags", nil, "Authorization", admin)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[featureflags.FlagList](t, w)
	assert.Len(t, list.Items, 3)

	w = env.do(t, http.MethodPut, "/v1/admin/feature-flags", map[string]interface{}{
		"updates": []map[string]interface{}{{"key": featureflags.FlagLiveSimulation, "value": false}},
		"reason":  "incident",
	}, "Authorization", admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.flags.LiveSimulationEnabled(context.Background()))

	w = env.do(t, http.MethodPut, "/v1/admin/feature-flags", map[string]interface{}{
		"updates": []map[string]interface{}{{"key": "nope", "value": true}},
		"reason":  "typo",
	}, "Authorization", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/v1/admin/feature-flags", map[string]interface{}{
		"updates": []map[string]interface{}{},
	}, "Authorization", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/v1/admin/feature-flags/invalidate", nil, "Authorization", admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_AdminWithoutSigningKey(t *testing.T) {
	env := newTestEnv(t, func(cfg *api.RouterConfig) { cfg.Tokens = auth.NewJWTService(auth.JWTConfig{}) })

	w := env.do(t, http.MethodGet, "/v1/admin/feature-flags", nil, "Authorization", "Bearer anything")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_LiveSimulationDisabled(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.flags.SetFlags(context.Background(), []featureflags.FlagUpdate{
		{Key: featureflags.FlagLiveSimulation, Value: false},
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/v1/sessions", map[string]string{"city": "London"})

	require.Equal(t, http.StatusCreated, w.Code)
	s := decode[models.Session](t, w)
	assert.False(t, s.Running)
	assert.Equal(t, 78.0, s.Current.OverallAQI)
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/nonexistent", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
