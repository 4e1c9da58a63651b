package telemetry

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/processing/kinematics"
	"github.com/racekit/race-telemetry-go/pkg/processing/lap"
	"github.com/racekit/race-telemetry-go/pkg/processing/session"
	"github.com/racekit/race-telemetry-go/pkg/processing/spotter"
	"github.com/racekit/race-telemetry-go/pkg/track"
)

const (
	DefaultStalenessTimeout = 2 * time.Second
	DefaultSpotRadius       = 200.0 // meters
	DefaultSpotHorizon      = 3.0   // seconds

	// sectors for the fallback profile when none is supplied
	defaultSectorCount = 3
	// frames retained for driving style classification
	styleHistoryLimit = 60
)

// Snapshot is the immutable result of processing one frame. Everything a
// query needs hangs off it, so readers never touch mutable state.
type Snapshot struct {
	Frame      *model.Frame
	Analytics  model.Analytics
	Spots      []model.Spot
	Session    model.SessionSummary
	CurrentLap *model.LapRecord
	Laps       []model.LapRecord
	// Stale is set when the snapshot is older than the staleness timeout
	// at read time.
	Stale      bool
	ReceivedAt time.Time
}

// Cache runs the per-frame pipeline and publishes immutable snapshots.
// Ingest must be called from a single goroutine; Snapshot is safe from any.
type Cache struct {
	track     *model.TrackProfile
	calc      *kinematics.Calculator
	seg       *lap.Segmenter
	agg       *session.Aggregator
	radius    float64
	horizon   float64
	staleness time.Duration
	now       func() time.Time

	prev     *model.Frame
	lastTime float64
	hasPrev  bool

	current atomic.Pointer[Snapshot]
	// bounded frame history for style classification, copy-on-write
	recent atomic.Pointer[[]*model.Frame]
}

type Option func(c *Cache)

func WithSpotDefaults(radius, horizon float64) Option {
	return func(c *Cache) {
		if radius > 0 {
			c.radius = radius
		}
		if horizon > 0 {
			c.horizon = horizon
		}
	}
}

func WithStalenessTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleness = d
		}
	}
}

func WithSegmenter(seg *lap.Segmenter) Option {
	return func(c *Cache) { c.seg = seg }
}

func WithAggregator(agg *session.Aggregator) Option {
	return func(c *Cache) { c.agg = agg }
}

func WithCalculator(calc *kinematics.Calculator) Option {
	return func(c *Cache) { c.calc = calc }
}

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func NewCache(profile *model.TrackProfile, opts ...Option) *Cache {
	if profile == nil {
		profile = track.DefaultProfile(defaultSectorCount)
	}
	c := &Cache{
		track:     profile,
		radius:    DefaultSpotRadius,
		horizon:   DefaultSpotHorizon,
		staleness: DefaultStalenessTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.calc == nil {
		c.calc = kinematics.NewCalculator()
	}
	if c.seg == nil {
		c.seg = lap.NewSegmenter()
	}
	if c.agg == nil {
		c.agg = session.NewAggregator()
	}
	return c
}

// Validate rejects frames the pipeline cannot process.
func Validate(f *model.Frame) error {
	if f == nil {
		return ErrMalformedFrame
	}
	if math.IsNaN(f.SessionTime) || math.IsInf(f.SessionTime, 0) {
		return fmt.Errorf("%w: session time %v", ErrMalformedFrame, f.SessionTime)
	}
	if f.LapDistPct < 0 || f.LapDistPct > 1 {
		return fmt.Errorf("%w: lap distance fraction %v", ErrMalformedFrame, f.LapDistPct)
	}
	if math.IsNaN(f.Speed) || f.Speed < 0 {
		return fmt.Errorf("%w: speed %v", ErrMalformedFrame, f.Speed)
	}
	return nil
}

// Ingest runs one frame through the pipeline and publishes the resulting
// snapshot. Frames with non-increasing session time are dropped.
func (c *Cache) Ingest(frame *model.Frame) error {
	if err := Validate(frame); err != nil {
		return err
	}
	if c.hasPrev && frame.SessionTime <= c.lastTime {
		return fmt.Errorf("%w: session time went from %v to %v",
			ErrMalformedFrame, c.lastTime, frame.SessionTime)
	}

	var dt float64
	var prev *model.Frame
	if c.hasPrev {
		prev = c.prev
		dt = frame.SessionTime - c.lastTime
	}

	analytics, err := c.calc.Compute(prev, frame, dtOrOne(prev, dt))
	if err != nil {
		return err
	}
	spots := spotter.Spot(frame, c.track.Length, c.radius, c.horizon)
	if completed := c.seg.Process(frame); completed != nil {
		c.agg.OnLapCompleted(*completed)
	}
	c.agg.ObserveFrame(prev, frame, dt)

	snap := &Snapshot{
		Frame:      frame,
		Analytics:  analytics,
		Spots:      spots,
		Session:    c.agg.Summary(),
		CurrentLap: c.seg.Current(),
		Laps:       c.agg.Laps(),
		ReceivedAt: c.now(),
	}
	c.current.Store(snap)
	c.appendRecent(frame)

	c.prev = frame
	c.lastTime = frame.SessionTime
	c.hasPrev = true
	return nil
}

func (c *Cache) appendRecent(frame *model.Frame) {
	var hist []*model.Frame
	if old := c.recent.Load(); old != nil {
		hist = *old
	}
	start := 0
	if len(hist) >= styleHistoryLimit {
		start = len(hist) - styleHistoryLimit + 1
	}
	next := make([]*model.Frame, 0, len(hist)-start+1)
	next = append(next, hist[start:]...)
	next = append(next, frame)
	c.recent.Store(&next)
}

// RecentFrames returns the retained frame history, oldest first. The slice is
// never mutated after publication; callers must treat it as read-only.
func (c *Cache) RecentFrames() []*model.Frame {
	if hist := c.recent.Load(); hist != nil {
		return *hist
	}
	return nil
}

// Snapshot returns the latest published snapshot with the staleness flag
// evaluated against the wall clock. Nil before the first frame.
func (c *Cache) Snapshot() *Snapshot {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	if c.now().Sub(snap.ReceivedAt) > c.staleness {
		stale := *snap
		stale.Stale = true
		return &stale
	}
	return snap
}

// Track returns the profile the cache was built with.
func (c *Cache) Track() *model.TrackProfile {
	return c.track
}

// the first frame has no predecessor; the calculator still needs a
// positive dt to accept the call
func dtOrOne(prev *model.Frame, dt float64) float64 {
	if prev == nil {
		return 1
	}
	return dt
}
