package lap

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/racekit/race-telemetry-go/pkg/model"
)

const (
	StateNoLap = "NOLAP"
	StateInLap = "INLAP"

	DefaultWrapHigh = 0.98
	DefaultWrapLow  = 0.02
)

// Segmenter detects lap boundaries from the lap distance fraction and
// accumulates sector splits within the open lap. A boundary fires only when
// the fraction crosses from above wrapHigh to below wrapLow between two
// consecutive frames, which guards against jitter around the 0.0/1.0 wrap
// point firing several times within one real lap.
type Segmenter struct {
	wrapHigh float64
	wrapLow  float64
	// sector boundaries as ascending distance fractions
	thresholds []float64

	state    string
	current  *model.LapRecord
	lapNo    int
	prevFrac float64
	// index of the next sector threshold to cross in the open lap
	nextSector int
	// speed samples of the open lap
	speeds []float64
}

type Option func(s *Segmenter)

func WithWrapThresholds(high, low float64) Option {
	return func(s *Segmenter) {
		if high > low && high < 1 && low > 0 {
			s.wrapHigh = high
			s.wrapLow = low
		}
	}
}

func WithSectorThresholds(thresholds []float64) Option {
	return func(s *Segmenter) {
		s.thresholds = thresholds
	}
}

func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{
		wrapHigh: DefaultWrapHigh,
		wrapLow:  DefaultWrapLow,
		state:    StateNoLap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process feeds the next frame into the state machine. When the frame
// triggers a lap boundary the finalized record is returned, otherwise nil.
// The very first frame of a session opens a lap without finalizing anything.
func (s *Segmenter) Process(frame *model.Frame) *model.LapRecord {
	switch s.state {
	case StateNoLap:
		s.openLap(frame)
		s.state = StateInLap
		return nil
	case StateInLap:
		if s.prevFrac >= s.wrapHigh && frame.LapDistPct <= s.wrapLow {
			finalized := s.finalize(frame)
			s.openLap(frame)
			return finalized
		}
		s.advance(frame)
		return nil
	}
	return nil
}

// Current returns the open lap record (the live lap), nil before the first
// frame. The returned record is a copy; the open lap is not published by
// reference.
func (s *Segmenter) Current() *model.LapRecord {
	if s.current == nil {
		return nil
	}
	cp := *s.current
	cp.Sectors = append([]model.SectorSplit(nil), s.current.Sectors...)
	return &cp
}

func (s *Segmenter) openLap(frame *model.Frame) {
	s.lapNo++
	s.current = &model.LapRecord{
		LapNo:     s.lapNo,
		StartTime: frame.SessionTime,
		MinSpeed:  math.Inf(1),
	}
	s.nextSector = 0
	s.speeds = s.speeds[:0]
	s.prevFrac = frame.LapDistPct
	s.observeSpeed(frame)
}

func (s *Segmenter) advance(frame *model.Frame) {
	for s.nextSector < len(s.thresholds) &&
		frame.LapDistPct >= s.thresholds[s.nextSector] &&
		s.prevFrac < s.thresholds[s.nextSector] {
		prevSplit := s.current.StartTime
		if n := len(s.current.Sectors); n > 0 {
			prevSplit = s.current.Sectors[n-1].SplitTime
		}
		s.current.Sectors = append(s.current.Sectors, model.SectorSplit{
			Sector:     s.nextSector + 1,
			Threshold:  s.thresholds[s.nextSector],
			SplitTime:  frame.SessionTime,
			SectorTime: frame.SessionTime - prevSplit,
		})
		s.nextSector++
	}
	s.observeSpeed(frame)
	s.prevFrac = frame.LapDistPct
}

func (s *Segmenter) observeSpeed(frame *model.Frame) {
	s.speeds = append(s.speeds, frame.Speed)
	if frame.Speed > s.current.MaxSpeed {
		s.current.MaxSpeed = frame.Speed
	}
	if frame.Speed < s.current.MinSpeed {
		s.current.MinSpeed = frame.Speed
	}
}

func (s *Segmenter) finalize(frame *model.Frame) *model.LapRecord {
	ret := s.current
	ret.EndTime = frame.SessionTime
	ret.LapTime = ret.EndTime - ret.StartTime
	ret.Completed = true
	ret.Incomplete = len(ret.Sectors) < len(s.thresholds)
	if len(s.speeds) > 0 {
		ret.AvgSpeed = stat.Mean(s.speeds, nil)
	}
	if len(s.speeds) > 1 {
		ret.SpeedStdDev = stat.StdDev(s.speeds, nil)
	}
	if math.IsInf(ret.MinSpeed, 1) {
		ret.MinSpeed = 0
	}
	return ret
}
