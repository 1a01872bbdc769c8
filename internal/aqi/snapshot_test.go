package aqi_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auracast/auracast/internal/aqi"
)

// fixedSource returns the same draw on every call.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// sequenceSource returns draws in order, cycling when exhausted.
type sequenceSource struct {
	draws []float64
	i     int
}

func (s *sequenceSource) Float64() float64 {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v
}

func kanjirapally() aqi.Snapshot {
	return aqi.Snapshot{PM25: 86, PM10: 75, O3: 89, NO2: 79, SO2: 10, CO: 5}
}

func TestDeriveStatus_Kanjirapally(t *testing.T) {
	status := aqi.DeriveStatus(kanjirapally())

	assert.Equal(t, 86.0, status.OverallAQI)
	assert.Equal(t, aqi.LevelModerate, status.Level)
	assert.Equal(t, "O₃", status.DominantPollutant)
	assert.Equal(t, aqi.PollutantO3, status.DominantCode)
}

func TestDeriveStatus_TieKeepsFirstCanonicalCode(t *testing.T) {
	s := aqi.Snapshot{PM25: 40, PM10: 90, O3: 90, NO2: 90, SO2: 1, CO: 1}
	assert.Equal(t, "PM10", aqi.DeriveStatus(s).DominantPollutant)

	all := aqi.Snapshot{PM25: 7, PM10: 7, O3: 7, NO2: 7, SO2: 7, CO: 7}
	assert.Equal(t, "PM2.5", aqi.DeriveStatus(all).DominantPollutant)

	zero := aqi.Snapshot{}
	assert.Equal(t, aqi.PollutantPM25, aqi.DeriveStatus(zero).DominantCode)
	assert.Equal(t, aqi.LevelGood, aqi.DeriveStatus(zero).Level)
}

func TestDeriveStatus_DominantCanBeLastCode(t *testing.T) {
	s := aqi.Snapshot{PM25: 1, PM10: 1, O3: 1, NO2: 1, SO2: 1, CO: 2}
	assert.Equal(t, "CO", aqi.DeriveStatus(s).DominantPollutant)
}

func TestFluctuate_Bounds(t *testing.T) {
	s := kanjirapally()

	low := aqi.Fluctuate(s, fixedSource(0))
	assert.Equal(t, aqi.Snapshot{PM25: 84, PM10: 73, O3: 87, NO2: 77, SO2: 8, CO: 3}, low)

	high := aqi.Fluctuate(s, fixedSource(1))
	assert.Equal(t, aqi.Snapshot{PM25: 88, PM10: 77, O3: 91, NO2: 81, SO2: 12, CO: 7}, high)

	mid := aqi.Fluctuate(s, fixedSource(0.5))
	assert.Equal(t, s, mid)
}

func TestFluctuate_DrawsInCanonicalOrder(t *testing.T) {
	src := &sequenceSource{draws: []float64{1, 0, 0.5, 0.5, 0.5, 0.5}}
	next := aqi.Fluctuate(kanjirapally(), src)

	assert.Equal(t, 88.0, next.PM25)
	assert.Equal(t, 73.0, next.PM10)
	assert.Equal(t, 89.0, next.O3)
	assert.Equal(t, 6, src.i)
}

func TestFluctuate_NeverNegative(t *testing.T) {
	s := aqi.Snapshot{PM25: 0, PM10: 1, O3: 0.4, NO2: 2, SO2: 0, CO: 1.5}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		s = aqi.Fluctuate(s, rng)
		for p, v := range s.Map() {
			require.GreaterOrEqual(t, v, 0.0, "pollutant %s", p)
		}
	}

	floor := aqi.Fluctuate(aqi.Snapshot{}, fixedSource(0))
	assert.Equal(t, aqi.Snapshot{}, floor)
}

func TestFluctuate_RoundsToIntegers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	next := aqi.Fluctuate(aqi.Snapshot{PM25: 10.3, PM10: 20.7, O3: 3, NO2: 4, SO2: 5, CO: 6}, rng)

	for p, v := range next.Map() {
		assert.Equal(t, float64(int64(v)), v, "pollutant %s", p)
	}
}

func TestFluctuate_DoesNotMutateInput(t *testing.T) {
	s := kanjirapally()
	original := s

	_ = aqi.Fluctuate(s, fixedSource(1))

	assert.Equal(t, original, s)
}

func TestFluctuate_DifferentDrawsDiffer(t *testing.T) {
	s := kanjirapally()

	a := aqi.Fluctuate(s, fixedSource(0))
	b := aqi.Fluctuate(s, fixedSource(1))

	assert.NotEqual(t, a, b)
}

func TestRoundTrip_StatusTracksFluctuatedSnapshot(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	s := kanjirapally()

	for i := 0; i < 200; i++ {
		s = aqi.Fluctuate(s, rng)
		status := aqi.DeriveStatus(s)

		assert.Equal(t, s.PM25, status.OverallAQI)
		assert.True(t, status.DominantCode.Valid())
		assert.NotEqual(t, "N/A", status.DominantPollutant)
		assert.Equal(t, aqi.Dominant(s), status.DominantCode)
		assert.Equal(t, aqi.Classify(s.PM25).Name, status.Level)
	}
}

func TestSnapshotFromMap(t *testing.T) {
	s, err := aqi.SnapshotFromMap(map[string]float64{
		"pm25": 86, "PM10": 75, "O₃": 89, "no2": 79, "so2": 10, "co": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, kanjirapally(), s)
}

func TestSnapshotFromMap_MissingCodeFailsFast(t *testing.T) {
	_, err := aqi.SnapshotFromMap(map[string]float64{
		"pm25": 86, "pm10": 75, "o3": 89, "no2": 79, "so2": 10,
	})
	require.ErrorIs(t, err, aqi.ErrIncompleteSnapshot)
	assert.Contains(t, err.Error(), "co")
}

func TestSnapshotFromMap_RejectsNegative(t *testing.T) {
	_, err := aqi.SnapshotFromMap(map[string]float64{
		"pm25": -1, "pm10": 75, "o3": 89, "no2": 79, "so2": 10, "co": 5,
	})
	require.ErrorIs(t, err, aqi.ErrNegativeConcentration)
}

func TestSnapshotFromMap_RejectsUnknownCode(t *testing.T) {
	_, err := aqi.SnapshotFromMap(map[string]float64{"pollen": 3})
	require.ErrorIs(t, err, aqi.ErrUnknownPollutant)
}

func TestSnapshot_GetWith(t *testing.T) {
	s := aqi.Snapshot{}.With(aqi.PollutantNO2, 12)

	assert.Equal(t, 12.0, s.Get(aqi.PollutantNO2))
	assert.Equal(t, 0.0, s.Get(aqi.Pollutant("pollen")))
	assert.Len(t, s.Map(), 6)
}
