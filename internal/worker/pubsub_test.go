package worker_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/auracast/auracast/internal/worker"
)

func TestJobs_Handle(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		want       worker.Outcome
		wantActive []string
	}{
		{"malformed json", `{not json`, worker.Ack, []string{}},
		{"unknown job", `{"job_type":"provider_refresh"}`, worker.Ack, []string{}},
		{"load one city", `{"job_type":"load_city","city":"Tokyo"}`, worker.Ack, []string{"Tokyo"}},
		{"load all cities", `{"job_type":"load_city"}`, worker.Ack, []string{"Delhi", "London"}},
		{"load unknown city", `{"job_type":"load_city","city":"Atlantis"}`, worker.Ack, []string{}},
		{"stop without city", `{"job_type":"stop_session"}`, worker.Ack, []string{}},
		{"stop idle city", `{"job_type":"stop_session","city":"London"}`, worker.Ack, []string{}},
		{"health check", `{"job_type":"health_check"}`, worker.Ack, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "London", "Delhi")
			jobs := worker.NewJobs(f.worker, zerolog.Nop())

			got := jobs.Handle(context.Background(), []byte(tt.data), zerolog.Nop())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantActive, f.worker.Active())
		})
	}
}

func TestJobs_StopSession(t *testing.T) {
	f := newFixture(t, "London")
	jobs := worker.NewJobs(f.worker, zerolog.Nop())

	assert.Equal(t, worker.Ack, jobs.Handle(context.Background(), []byte(`{"job_type":"load_city","city":"London"}`), zerolog.Nop()))
	assert.Equal(t, []string{"London"}, f.worker.Active())

	assert.Equal(t, worker.Ack, jobs.Handle(context.Background(), []byte(`{"job_type":"stop_session","city":"london"}`), zerolog.Nop()))
	assert.Empty(t, f.worker.Active())
}

func TestJobs_LoadAllFailingIsNacked(t *testing.T) {
	f := newFixture(t, "Atlantis", "Gotham")
	jobs := worker.NewJobs(f.worker, zerolog.Nop())

	got := jobs.Handle(context.Background(), []byte(`{"job_type":"load_city"}`), zerolog.Nop())

	assert.Equal(t, worker.Nack, got)
}

func TestJobs_HealthCheckFailureIsAcked(t *testing.T) {
	f := newFixture(t, "Atlantis")
	jobs := worker.NewJobs(f.worker, zerolog.Nop())

	// A city that does not exist will not appear on redelivery.
	got := jobs.Handle(context.Background(), []byte(`{"job_type":"health_check"}`), zerolog.Nop())

	assert.Equal(t, worker.Ack, got)
}
