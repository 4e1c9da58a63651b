//nolint:thelper,funlen // ok for tests
package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/track"
)

func newTestFacade(opts ...Option) (*Facade, *Cache) {
	c := NewCache(track.DefaultProfile(3), opts...)
	return NewFacade(c), c
}

func driveLaps(t *testing.T, c *Cache, lapTimes ...float64) {
	t.Helper()
	sessionTime := 0.0
	require := func(err error) {
		assert.NoError(t, err)
	}
	require(c.Ingest(testFrame(sessionTime, 0.0, 50)))
	for _, lt := range lapTimes {
		require(c.Ingest(testFrame(sessionTime+lt*0.5, 0.5, 50)))
		require(c.Ingest(testFrame(sessionTime+lt*0.99, 0.99, 50)))
		sessionTime += lt
		require(c.Ingest(testFrame(sessionTime, 0.01, 50)))
	}
}

func TestFacade_InsufficientDataBeforeFirstFrame(t *testing.T) {
	f, _ := newTestFacade()

	_, err := f.CurrentTelemetry()
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = f.SpotNearby(100, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = f.AnalyzeLap(1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, _, err = f.SessionSummary()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFacade_SpotNearbyValidatesArguments(t *testing.T) {
	f, c := newTestFacade()
	assert.NoError(t, c.Ingest(testFrame(1, 0.1, 50)))

	_, _, err := f.SpotNearby(-1, 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = f.SpotNearby(100, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFacade_SpotNearbyOverridesDefaults(t *testing.T) {
	f, c := newTestFacade(WithSpotDefaults(200, 3))
	frame := testFrame(1, 0.5, 50)
	frame.Cars = []model.CarPosition{
		{CarIdx: 1, LapDistPct: 0.52, Speed: 50}, // 100m ahead
		{CarIdx: 2, LapDistPct: 0.58, Speed: 50}, // 400m ahead
	}
	assert.NoError(t, c.Ingest(frame))

	// defaults: only the close car
	spots, _, err := f.SpotNearby(0, 0)
	assert.NoError(t, err)
	assert.Len(t, spots, 1)

	// widened radius catches both
	spots, _, err = f.SpotNearby(500, 0)
	assert.NoError(t, err)
	assert.Len(t, spots, 2)
}

func TestFacade_AnalyzeLap(t *testing.T) {
	f, c := newTestFacade()
	driveLaps(t, c, 90.0, 88.0)

	got, err := f.AnalyzeLap(1)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Lap.LapNo)
	assert.InDelta(t, 90.0, got.Lap.LapTime, 1e-9)
	assert.Equal(t, 2, got.BestLapNo)
	assert.InDelta(t, 88.0, got.BestLapTime, 1e-9)
	assert.InDelta(t, 2.0, got.DeltaToBest, 1e-9)
	assert.True(t, got.ConsistencyValid)
}

func TestFacade_AnalyzeLapZeroPicksLatest(t *testing.T) {
	f, c := newTestFacade()
	driveLaps(t, c, 90.0, 88.0)

	got, err := f.AnalyzeLap(0)
	assert.NoError(t, err)
	assert.Equal(t, 2, got.Lap.LapNo)
}

func TestFacade_AnalyzeLapErrors(t *testing.T) {
	f, c := newTestFacade()

	// frames seen but no lap completed yet
	assert.NoError(t, c.Ingest(testFrame(1, 0.1, 50)))
	_, err := f.AnalyzeLap(0)
	assert.ErrorIs(t, err, ErrInsufficientData)

	driveLaps(t, c, 90.0)
	_, err = f.AnalyzeLap(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	// a lap that has not been completed yet is missing data, not a bad request
	_, err = f.AnalyzeLap(7)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFacade_SessionSummary(t *testing.T) {
	f, c := newTestFacade()
	driveLaps(t, c, 90.0, 88.0)

	summary, stale, err := f.SessionSummary()
	assert.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 2, summary.TotalLaps)
	assert.InDelta(t, 88.0, summary.BestLap, 1e-9)
}

func TestFacade_TrackProfile(t *testing.T) {
	f, _ := newTestFacade()
	profile := f.TrackProfile()
	assert.NotNil(t, profile)
	assert.Greater(t, profile.Length, 0.0)
}
