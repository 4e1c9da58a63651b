//nolint:thelper,funlen // ok for tests
package lap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

func frame(sessionTime, frac, speed float64) *model.Frame {
	return &model.Frame{
		SessionTime: sessionTime,
		LapDistPct:  frac,
		Speed:       speed,
	}
}

func TestSegmenter_FirstFrameOpensLap(t *testing.T) {
	s := NewSegmenter()
	got := s.Process(frame(10, 0.0, 40))
	assert.Nil(t, got)

	current := s.Current()
	assert.NotNil(t, current)
	assert.Equal(t, 1, current.LapNo)
	assert.Equal(t, 10.0, current.StartTime)
	assert.False(t, current.Completed)
}

func TestSegmenter_WrapFinalizesExactlyOneLap(t *testing.T) {
	s := NewSegmenter()
	assert.Nil(t, s.Process(frame(0, 0.0, 40)))
	assert.Nil(t, s.Process(frame(30, 0.4, 45)))
	assert.Nil(t, s.Process(frame(60, 0.7, 50)))
	assert.Nil(t, s.Process(frame(88, 0.99, 50)))

	got := s.Process(frame(90, 0.01, 48))
	assert.NotNil(t, got)
	assert.Equal(t, 1, got.LapNo)
	assert.True(t, got.Completed)
	assert.Equal(t, 90.0, got.EndTime)
	assert.InDelta(t, 90.0, got.LapTime, 1e-9)

	// the wrap frame belongs to the next lap
	current := s.Current()
	assert.Equal(t, 2, current.LapNo)
	assert.Equal(t, 90.0, current.StartTime)
}

func TestSegmenter_SectorSplitsStrictlyIncreasing(t *testing.T) {
	s := NewSegmenter(WithSectorThresholds([]float64{1.0 / 3, 2.0 / 3}))
	s.Process(frame(0, 0.0, 40))
	s.Process(frame(28, 0.35, 45))
	s.Process(frame(59, 0.70, 50))
	got := s.Process(frame(88, 0.99, 50))
	assert.Nil(t, got)
	got = s.Process(frame(90, 0.01, 48))
	assert.NotNil(t, got)

	assert.Len(t, got.Sectors, 2)
	assert.Equal(t, 1, got.Sectors[0].Sector)
	assert.Equal(t, 28.0, got.Sectors[0].SplitTime)
	assert.Equal(t, 28.0, got.Sectors[0].SectorTime)
	assert.Equal(t, 2, got.Sectors[1].Sector)
	assert.Equal(t, 59.0, got.Sectors[1].SplitTime)
	assert.Equal(t, 31.0, got.Sectors[1].SectorTime)
	assert.Greater(t, got.Sectors[1].SplitTime, got.Sectors[0].SplitTime)
	assert.False(t, got.Incomplete)
}

func TestSegmenter_IncompleteWhenSectorsMissed(t *testing.T) {
	s := NewSegmenter(WithSectorThresholds([]float64{1.0 / 3, 2.0 / 3}))
	s.Process(frame(0, 0.0, 40))
	// coarse frames only: the second sector threshold is crossed, the
	// first is jumped over together with it in one frame
	s.Process(frame(60, 0.99, 50))
	got := s.Process(frame(62, 0.01, 48))
	assert.NotNil(t, got)
	assert.True(t, got.Completed)
	// both thresholds were crossed by the same frame and get stamped
	assert.Len(t, got.Sectors, 2)
	assert.False(t, got.Incomplete)
}

func TestSegmenter_JitterAroundWrapDoesNotRetrigger(t *testing.T) {
	s := NewSegmenter()
	s.Process(frame(0, 0.0, 40))
	s.Process(frame(88, 0.99, 50))
	got := s.Process(frame(89, 0.01, 48))
	assert.NotNil(t, got)

	// oscillation near the line must not finalize again: the fraction
	// never climbs back above the high threshold
	assert.Nil(t, s.Process(frame(89.5, 0.015, 48)))
	assert.Nil(t, s.Process(frame(90, 0.005, 48)))
	assert.Nil(t, s.Process(frame(90.5, 0.02, 48)))
	assert.Equal(t, 2, s.Current().LapNo)
}

func TestSegmenter_SpeedStats(t *testing.T) {
	s := NewSegmenter()
	s.Process(frame(0, 0.0, 40))
	s.Process(frame(30, 0.4, 60))
	s.Process(frame(60, 0.99, 50))
	got := s.Process(frame(62, 0.01, 48))
	assert.NotNil(t, got)

	assert.Equal(t, 60.0, got.MaxSpeed)
	assert.Equal(t, 40.0, got.MinSpeed)
	assert.InDelta(t, 50.0, got.AvgSpeed, 1e-9)
	assert.Greater(t, got.SpeedStdDev, 0.0)
}

func TestSegmenter_CurrentReturnsCopy(t *testing.T) {
	s := NewSegmenter(WithSectorThresholds([]float64{0.5}))
	s.Process(frame(0, 0.0, 40))
	s.Process(frame(30, 0.6, 45))

	first := s.Current()
	first.Sectors[0].SplitTime = -1
	assert.Equal(t, 30.0, s.Current().Sectors[0].SplitTime)
}

func TestSegmenter_CustomWrapThresholds(t *testing.T) {
	s := NewSegmenter(WithWrapThresholds(0.9, 0.1))
	s.Process(frame(0, 0.0, 40))
	s.Process(frame(80, 0.92, 50))
	got := s.Process(frame(85, 0.08, 48))
	assert.NotNil(t, got)
	assert.Equal(t, 1, got.LapNo)
}
