package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auracast/auracast/internal/featureflags"
)

func newService(repo featureflags.Repository, ttl time.Duration) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   ttl,
	})
}

func TestService_Defaults(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	assert.True(t, service.LiveSimulationEnabled(ctx))
	assert.True(t, service.HealthRecommendationsEnabled(ctx))
	assert.True(t, service.WorkerPublishingEnabled(ctx))
}

func TestService_NilServiceUsesDefaults(t *testing.T) {
	var service *featureflags.Service
	assert.True(t, service.LiveSimulationEnabled(context.Background()))
	assert.False(t, service.IsEnabled(context.Background(), "nonexistent"))
}

func TestService_SetFlags(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	updated, err := service.SetFlags(ctx, []featureflags.FlagUpdate{
		{Key: featureflags.FlagLiveSimulation, Value: false},
		{Key: featureflags.FlagHealthRecommendations, Value: false},
	})
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	assert.False(t, service.LiveSimulationEnabled(ctx))
	assert.False(t, service.HealthRecommendationsEnabled(ctx))
	assert.True(t, service.WorkerPublishingEnabled(ctx))
}

func TestService_SetFlags_RejectsUnknownKey(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, time.Minute)
	ctx := context.Background()

	_, err := service.SetFlags(ctx, []featureflags.FlagUpdate{
		{Key: featureflags.FlagLiveSimulation, Value: false},
		{Key: "pollen_factor_disabled", Value: true},
	})
	assert.ErrorIs(t, err, featureflags.ErrUnknownFlag)

	flag, err := repo.GetFlag(ctx, featureflags.FlagLiveSimulation)
	require.NoError(t, err)
	assert.True(t, flag.BoolValue(false), "nothing is written when any key is unknown")
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, time.Hour)
	ctx := context.Background()

	require.True(t, service.LiveSimulationEnabled(ctx))

	require.NoError(t, repo.SetFlag(ctx, &featureflags.Flag{
		Key:   featureflags.FlagLiveSimulation,
		Value: false,
	}))
	assert.True(t, service.LiveSimulationEnabled(ctx), "cached value served until invalidated")

	service.InvalidateCache()
	assert.False(t, service.LiveSimulationEnabled(ctx))
}

func TestService_GetAllFlags_MergesOverDefaults(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagWorkerPublishing: {Key: featureflags.FlagWorkerPublishing, Value: false},
	})
	service := newService(repo, time.Minute)

	flags := service.GetAllFlags(context.Background())
	require.Len(t, flags, 3)
	assert.False(t, flags[featureflags.FlagWorkerPublishing].BoolValue(true))
	assert.True(t, flags[featureflags.FlagLiveSimulation].BoolValue(false))
}

type failingRepository struct {
	featureflags.Repository
}

func (failingRepository) GetFlag(context.Context, string) (*featureflags.Flag, error) {
	return nil, errors.New("connection refused")
}

func (failingRepository) GetAllFlags(context.Context) (map[string]*featureflags.Flag, error) {
	return nil, errors.New("connection refused")
}

func TestService_RepositoryFailureFallsBackToDefaults(t *testing.T) {
	service := newService(failingRepository{}, time.Minute)
	ctx := context.Background()

	assert.True(t, service.LiveSimulationEnabled(ctx))
	assert.Len(t, service.GetAllFlags(ctx), 3)
}

func TestFlag_ValueHelpers(t *testing.T) {
	tests := []struct {
		name       string
		value      interface{}
		wantBool   bool
		wantString string
		wantInt    int
	}{
		{name: "boolean true", value: true, wantBool: true, wantString: "default", wantInt: 42},
		{name: "string", value: "hello", wantBool: false, wantString: "hello", wantInt: 42},
		{name: "json number", value: float64(100), wantBool: true, wantString: "default", wantInt: 100},
		{name: "zero number", value: float64(0), wantBool: false, wantString: "default", wantInt: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &featureflags.Flag{Key: "test", Value: tt.value}
			assert.Equal(t, tt.wantBool, flag.BoolValue(false))
			assert.Equal(t, tt.wantString, flag.StringValue("default"))
			assert.Equal(t, tt.wantInt, flag.IntValue(42))
		})
	}
}

func TestFlag_NilFlag(t *testing.T) {
	var flag *featureflags.Flag
	assert.True(t, flag.BoolValue(true))
	assert.Equal(t, "default", flag.StringValue("default"))
	assert.Equal(t, 42, flag.IntValue(42))
	assert.NoError(t, flag.JSONValue(&struct{}{}))
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	flag, err := repo.GetFlag(ctx, featureflags.FlagLiveSimulation)
	require.NoError(t, err)
	flag.Value = false

	again, err := repo.GetFlag(ctx, featureflags.FlagLiveSimulation)
	require.NoError(t, err)
	assert.Equal(t, true, again.Value)
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.DeleteFlag(ctx, featureflags.FlagLiveSimulation))

	_, err := repo.GetFlag(ctx, featureflags.FlagLiveSimulation)
	assert.ErrorIs(t, err, featureflags.ErrFlagNotFound)
	assert.ErrorIs(t, repo.DeleteFlag(ctx, "nonexistent"), featureflags.ErrFlagNotFound)
}

func TestSorted(t *testing.T) {
	list := featureflags.Sorted(featureflags.DefaultFlags())
	require.Len(t, list.Items, 3)
	assert.Equal(t, featureflags.FlagHealthRecommendations, list.Items[0].Key)
	assert.Equal(t, featureflags.FlagLiveSimulation, list.Items[1].Key)
	assert.Equal(t, featureflags.FlagWorkerPublishing, list.Items[2].Key)
}
